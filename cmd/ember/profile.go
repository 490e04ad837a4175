package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/google/pprof/profile"
)

// summarizeProfile reads the CPU profile runtime/pprof wrote at path and
// prints the top functions by flat (self) sample count, a quick digest that
// doesn't require a separate invocation of the standalone pprof tool.
func summarizeProfile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	p, err := profile.Parse(f)
	if err != nil {
		return fmt.Errorf("parsing cpu profile: %w", err)
	}

	flat := make(map[string]int64)
	var valueIdx int
	for i, st := range p.SampleType {
		if st.Type == "samples" {
			valueIdx = i
			break
		}
	}
	for _, s := range p.Sample {
		if len(s.Location) == 0 || len(s.Value) <= valueIdx {
			continue
		}
		lines := s.Location[0].Line
		if len(lines) == 0 || lines[0].Function == nil {
			continue
		}
		flat[lines[0].Function.Name] += s.Value[valueIdx]
	}

	type entry struct {
		name  string
		count int64
	}
	entries := make([]entry, 0, len(flat))
	for name, count := range flat {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].count > entries[j].count })

	fmt.Printf("cpu profile written to %s (%d samples, %d functions)\n", path, len(p.Sample), len(entries))
	limit := 10
	if len(entries) < limit {
		limit = len(entries)
	}
	for _, e := range entries[:limit] {
		fmt.Printf("  %6d  %s\n", e.count, e.name)
	}
	return nil
}
