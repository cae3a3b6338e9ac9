// Package dataset loads the plain-text triple format: one triple per
// line, three whitespace-separated unsigned integers S P O.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"ringstore/ringidx"
)

// Load reads triples until EOF. Blank lines (including a trailing
// newline) are skipped, never turned into a spurious triple.
func Load(r io.Reader) ([]ringidx.Triple, error) {
	var out []ringidx.Triple
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("dataset: line %d: want 3 fields, got %d", lineNo, len(fields))
		}
		var vals [3]uint64
		for i, f := range fields {
			v, err := strconv.ParseUint(f, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("dataset: line %d: %w", lineNo, err)
			}
			vals[i] = v
		}
		out = append(out, ringidx.Triple{S: vals[0], P: vals[1], O: vals[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadFile reads the triples of the file at path.
func LoadFile(path string) ([]ringidx.Triple, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
