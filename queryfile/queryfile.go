// Package queryfile parses the query format: one query per line, each
// a '.'-separated list of triple patterns of three whitespace-separated
// terms. A term starting with '?' is a variable; its name's first
// occurrence within the query assigns the next free 8-bit variable ID.
// Any other term is an unsigned integer constant.
package queryfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	iradix "github.com/hashicorp/go-immutable-radix"

	"ringstore/pattern"
)

// Query is one parsed basic graph pattern.
type Query []pattern.Pattern

// maxVars is the size of the 8-bit variable ID space.
const maxVars = 256

// Parse parses a single query line.
func Parse(line string) (Query, error) {
	vars := iradix.New()
	var q Query
	for _, tok := range strings.Split(line, ".") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		terms := strings.Fields(tok)
		if len(terms) != 3 {
			return nil, fmt.Errorf("queryfile: pattern %q: want 3 terms, got %d", tok, len(terms))
		}
		var parsed [3]pattern.Term
		for i, term := range terms {
			t, next, err := parseTerm(term, vars)
			if err != nil {
				return nil, err
			}
			vars = next
			parsed[i] = t
		}
		q = append(q, pattern.Pattern{S: parsed[0], P: parsed[1], O: parsed[2]})
	}
	if len(q) == 0 {
		return nil, fmt.Errorf("queryfile: empty query")
	}
	return q, nil
}

func parseTerm(s string, vars *iradix.Tree) (pattern.Term, *iradix.Tree, error) {
	if strings.HasPrefix(s, "?") {
		name := []byte(s[1:])
		if len(name) == 0 {
			return pattern.Term{}, vars, fmt.Errorf("queryfile: bare '?' term")
		}
		if v, ok := vars.Get(name); ok {
			return pattern.Var(v.(uint8)), vars, nil
		}
		if vars.Len() == maxVars {
			return pattern.Term{}, vars, fmt.Errorf("queryfile: more than %d variables", maxVars)
		}
		id := uint8(vars.Len())
		next, _, _ := vars.Insert(name, id)
		return pattern.Var(id), next, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return pattern.Term{}, vars, fmt.Errorf("queryfile: term %q: %w", s, err)
	}
	return pattern.Const(v), vars, nil
}

// Read parses every non-blank line of r as one query.
func Read(r io.Reader) ([]Query, error) {
	var out []Query
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		q, err := Parse(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		out = append(out, q)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadFile parses the queries of the file at path.
func ReadFile(path string) ([]Query, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
