package pkgpath_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberlang/ember/internal/pkgpath"
)

func TestParseValid(t *testing.T) {
	p, err := pkgpath.Parse("github.com/emberlang/ember/std/fmt")
	require.NoError(t, err)
	assert.Equal(t, "github.com/emberlang/ember/std/fmt", p.String())
	assert.Equal(t, "fmt", p.Base())
}

func TestParseSingleComponent(t *testing.T) {
	p, err := pkgpath.Parse("fmt")
	require.NoError(t, err)
	assert.Equal(t, "fmt", p.Base())
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := pkgpath.Parse("")
	assert.Error(t, err)

	_, err = pkgpath.Parse("../escape")
	assert.Error(t, err)
}

func TestMustParsePanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() {
		pkgpath.MustParse("")
	})
}
