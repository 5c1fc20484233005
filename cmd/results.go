package cmd

import (
	"fmt"
	"os"
	"strings"
)

// mergeResultSets joins CSV result sets that share a header row, keeping
// the header of the first set only.
func mergeResultSets(sets []string) string {
	var b strings.Builder
	for i, s := range sets {
		if s == "" {
			continue
		}
		if i > 0 && b.Len() > 0 {
			if _, rest, ok := strings.Cut(s, "\n"); ok {
				s = rest
			} else {
				continue
			}
		}
		b.WriteString(s)
		if !strings.HasSuffix(s, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// writeResults writes merged result sets to path, or to stdout when path is empty.
func writeResults(sets []string, path string) error {
	data := mergeResultSets(sets)
	if path == "" {
		fmt.Print(data)
		return nil
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	fmt.Printf("Results written to %s\n", path)
	return nil
}
