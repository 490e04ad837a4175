package main

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/emberlang/ember/internal/codegen"
	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/gosvalue"
	"github.com/emberlang/ember/internal/metadata"
	"github.com/emberlang/ember/internal/parser"
	"github.com/emberlang/ember/internal/resolver"
)

var formatter = diag.NewFormatter()

// compile runs the front end (parse, resolve, generate) over filename's
// contents and returns the resulting Program. Diagnostics from every stage
// are reported as they're produced; the first stage to report an error
// diagnostic halts the pipeline there, matching compileToTemp's staged
// abort in the teacher's own driver.
func compile(filename string) (*codegen.Program, error) {
	formatter.Color = wantColor()

	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	p := parser.New(string(src), parser.WithFilename(filename))
	file := p.ParseFile()
	if errs := p.Errors(); len(errs) > 0 {
		for _, pe := range errs {
			reportDiagnostic(parseErrToDiagnostic(filename, pe))
		}
		logger.Error("parsing failed", zap.String("file", filename), zap.Int("errors", len(errs)))
		return nil, fmt.Errorf("parsing %s failed with %d error(s)", filename, len(errs))
	}

	res, diags := resolver.Resolve(file)
	reportAll(diags)
	if hasErrors(diags) {
		logger.Error("resolution failed", zap.String("file", filename))
		return nil, fmt.Errorf("resolving %s failed", filename)
	}

	objs := gosvalue.NewObjects()
	registry := metadata.NewRegistry(objs)
	gen := codegen.NewGenerator(registry, objs)
	program, diags := gen.Generate(file, res)
	reportAll(diags)
	if hasErrors(diags) {
		logger.Error("code generation failed", zap.String("file", filename))
		return nil, fmt.Errorf("code generation for %s failed", filename)
	}
	return program, nil
}

func hasErrors(diags []diag.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == diag.SeverityError || d.Severity == "" {
			return true
		}
	}
	return false
}

func reportAll(diags []diag.Diagnostic) {
	for _, d := range diags {
		reportDiagnostic(d)
	}
}

func parseErrToDiagnostic(filename string, pe parser.ParseError) diag.Diagnostic {
	sev := pe.Severity
	if sev == "" {
		sev = diag.SeverityError
	}
	span := diag.Span{
		Filename: filename,
		Line:     pe.Span.Line,
		Column:   pe.Span.Column,
		Start:    pe.Span.Start,
		End:      pe.Span.End,
	}
	d := diag.Diagnostic{
		Stage:    diag.StageParser,
		Severity: sev,
		Code:     diag.CodeParserUnexpectedToken,
		Message:  pe.Message,
		Span:     span,
	}
	if span.IsValid() {
		d = d.WithPrimarySpan(span, "")
	}
	return d
}

func reportDiagnostic(d diag.Diagnostic) {
	if jsonDiag {
		enc := json.NewEncoder(os.Stderr)
		if err := enc.Encode(d); err != nil {
			fmt.Fprintf(os.Stderr, "error encoding diagnostic: %v\n", err)
		}
		return
	}
	formatter.Format(d)
}
