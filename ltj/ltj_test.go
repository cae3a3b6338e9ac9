package ltj

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ringstore/bitvector"
	"ringstore/pattern"
	"ringstore/ringidx"
)

var allFlavors = []bitvector.Flavor{
	bitvector.FlavorPlain,
	bitvector.FlavorPlainSelect,
	bitvector.FlavorRSDic,
}

func tiny() []ringidx.Triple {
	return []ringidx.Triple{
		{1, 1, 2}, {1, 1, 3}, {1, 2, 2}, {2, 1, 3}, {2, 2, 3},
	}
}

// bruteForce evaluates a BGP by backtracking over the dataset.
func bruteForce(triples []ringidx.Triple, patterns []pattern.Pattern) []map[uint8]uint64 {
	var out []map[uint8]uint64
	binding := map[uint8]uint64{}

	matches := func(term pattern.Term, val uint64) (uint64, bool) {
		if !term.IsVariable {
			return 0, term.Value == val
		}
		if b, ok := binding[uint8(term.Value)]; ok {
			return 0, b == val
		}
		return val, true
	}

	var recurse func(j int)
	recurse = func(j int) {
		if j == len(patterns) {
			m := make(map[uint8]uint64, len(binding))
			for k, v := range binding {
				m[k] = v
			}
			out = append(out, m)
			return
		}
		p := patterns[j]
		for _, t := range triples {
			var bound []uint8
			ok := true
			for _, pair := range []struct {
				term pattern.Term
				val  uint64
			}{{p.S, t.S}, {p.P, t.P}, {p.O, t.O}} {
				v, match := matches(pair.term, pair.val)
				if !match {
					ok = false
					break
				}
				if pair.term.IsVariable {
					if _, seen := binding[uint8(pair.term.Value)]; !seen {
						binding[uint8(pair.term.Value)] = v
						bound = append(bound, uint8(pair.term.Value))
					}
				}
			}
			if ok {
				recurse(j + 1)
			}
			for _, v := range bound {
				delete(binding, v)
			}
		}
	}
	recurse(0)
	return out
}

// canonTuples renders a result set as a sorted multiset of var=val strings.
func canonTuples(res []Tuple) []string {
	out := make([]string, len(res))
	for i, tup := range res {
		pairs := make([]string, len(tup))
		for j, b := range tup {
			pairs[j] = fmt.Sprintf("%d=%d", b.Var, b.Value)
		}
		sort.Strings(pairs)
		out[i] = fmt.Sprint(pairs)
	}
	sort.Strings(out)
	return out
}

func canonMaps(res []map[uint8]uint64) []string {
	out := make([]string, len(res))
	for i, m := range res {
		pairs := make([]string, 0, len(m))
		for k, v := range m {
			pairs = append(pairs, fmt.Sprintf("%d=%d", k, v))
		}
		sort.Strings(pairs)
		out[i] = fmt.Sprint(pairs)
	}
	sort.Strings(out)
	return out
}

func runQuery(t *testing.T, triples []ringidx.Triple, f bitvector.Flavor,
	patterns []pattern.Pattern) []Tuple {
	t.Helper()
	data := make([]ringidx.Triple, len(triples))
	copy(data, triples)
	ring := ringidx.New(data, f)
	return New(patterns, ring).Join(0, 0)
}

func checkAgainstBruteForce(t *testing.T, triples []ringidx.Triple, patterns []pattern.Pattern) {
	t.Helper()
	want := canonMaps(bruteForce(triples, patterns))
	for _, f := range allFlavors {
		got := canonTuples(runQuery(t, triples, f, patterns))
		require.Equal(t, want, got, "flavor %v query %v", f, patterns)
	}
}

func TestSingleConstantObject(t *testing.T) {
	t.Parallel()
	// ?x 1 2 .
	q := []pattern.Pattern{
		{S: pattern.Var(0), P: pattern.Const(1), O: pattern.Const(2)},
	}
	for _, f := range allFlavors {
		res := runQuery(t, tiny(), f, q)
		require.Len(t, res, 1, "flavor %v", f)
		require.Equal(t, Binding{Var: 0, Value: 1}, res[0][0])
	}
}

func TestTwoFreeVariables(t *testing.T) {
	t.Parallel()
	// ?x ?y 3 .
	q := []pattern.Pattern{
		{S: pattern.Var(0), P: pattern.Var(1), O: pattern.Const(3)},
	}
	checkAgainstBruteForce(t, tiny(), q)
}

func TestAllVariables(t *testing.T) {
	t.Parallel()
	// ?x ?y ?z . returns every triple.
	q := []pattern.Pattern{
		{S: pattern.Var(0), P: pattern.Var(1), O: pattern.Var(2)},
	}
	for _, f := range allFlavors {
		res := runQuery(t, tiny(), f, q)
		require.Len(t, res, 5, "flavor %v", f)
	}
	checkAgainstBruteForce(t, tiny(), q)
}

func TestTwoPatternJoin(t *testing.T) {
	t.Parallel()
	// ?x 1 ?y . ?x 2 ?y . -> {(1,2), (2,3)}
	q := []pattern.Pattern{
		{S: pattern.Var(0), P: pattern.Const(1), O: pattern.Var(1)},
		{S: pattern.Var(0), P: pattern.Const(2), O: pattern.Var(1)},
	}
	for _, f := range allFlavors {
		res := runQuery(t, tiny(), f, q)
		require.Len(t, res, 2, "flavor %v", f)
	}
	checkAgainstBruteForce(t, tiny(), q)
}

func TestTwoPatternChain(t *testing.T) {
	t.Parallel()
	// ?x 1 ?y . ?y 2 ?z . -> of the ?y values {2, 3} only subject 2
	// carries predicate 2: (1,1,2) chains to (2,2,3), one row.
	q := []pattern.Pattern{
		{S: pattern.Var(0), P: pattern.Const(1), O: pattern.Var(1)},
		{S: pattern.Var(1), P: pattern.Const(2), O: pattern.Var(2)},
	}
	for _, f := range allFlavors {
		res := runQuery(t, tiny(), f, q)
		require.Equal(t, []string{"[0=1 1=2 2=3]"}, canonTuples(res), "flavor %v", f)
	}
	checkAgainstBruteForce(t, tiny(), q)
}

func TestTriangle(t *testing.T) {
	t.Parallel()
	// ?x ?p1 ?y . ?y ?p2 ?z . ?z ?p3 ?x .
	q := []pattern.Pattern{
		{S: pattern.Var(0), P: pattern.Var(1), O: pattern.Var(2)},
		{S: pattern.Var(2), P: pattern.Var(3), O: pattern.Var(4)},
		{S: pattern.Var(4), P: pattern.Var(5), O: pattern.Var(0)},
	}
	checkAgainstBruteForce(t, tiny(), q)
}

func TestEmptyPatternShortCircuits(t *testing.T) {
	t.Parallel()
	q := []pattern.Pattern{
		{S: pattern.Var(0), P: pattern.Var(1), O: pattern.Var(2)},
		{S: pattern.Const(3), P: pattern.Const(1), O: pattern.Var(0)},
	}
	for _, f := range allFlavors {
		res := runQuery(t, tiny(), f, q)
		require.Empty(t, res, "flavor %v", f)
	}
}

// TestRoundTrip checks the single- and double-constant projections of
// every triple in the dataset.
func TestRoundTrip(t *testing.T) {
	t.Parallel()
	triples := tiny()
	for _, f := range allFlavors {
		data := make([]ringidx.Triple, len(triples))
		copy(data, triples)
		ring := ringidx.New(data, f)

		for _, tr := range triples {
			// Fully constant: exactly one (empty-binding) result.
			q := []pattern.Pattern{
				{S: pattern.Const(tr.S), P: pattern.Const(tr.P), O: pattern.Const(tr.O)},
			}
			res := New(q, ring).Join(0, 0)
			require.Len(t, res, 1, "flavor %v triple %v", f, tr)

			// Each doubly-constant query binds its variable to the
			// remaining attribute.
			type cse struct {
				q    pattern.Pattern
				want uint64
			}
			for _, c := range []cse{
				{pattern.Pattern{S: pattern.Var(0), P: pattern.Const(tr.P), O: pattern.Const(tr.O)}, tr.S},
				{pattern.Pattern{S: pattern.Const(tr.S), P: pattern.Var(0), O: pattern.Const(tr.O)}, tr.P},
				{pattern.Pattern{S: pattern.Const(tr.S), P: pattern.Const(tr.P), O: pattern.Var(0)}, tr.O},
			} {
				res := New([]pattern.Pattern{c.q}, ring).Join(0, 0)
				found := false
				for _, tup := range res {
					if tup[0].Value == c.want {
						found = true
					}
				}
				require.True(t, found, "flavor %v query %v wants %d", f, c.q, c.want)
			}
		}
	}

	// One-constant queries equal the projection onto the free pair.
	masks := []func(t ringidx.Triple) pattern.Pattern{
		func(t ringidx.Triple) pattern.Pattern {
			return pattern.Pattern{S: pattern.Const(t.S), P: pattern.Var(0), O: pattern.Var(1)}
		},
		func(t ringidx.Triple) pattern.Pattern {
			return pattern.Pattern{S: pattern.Var(0), P: pattern.Const(t.P), O: pattern.Var(1)}
		},
		func(t ringidx.Triple) pattern.Pattern {
			return pattern.Pattern{S: pattern.Var(0), P: pattern.Var(1), O: pattern.Const(t.O)}
		},
	}
	for _, tr := range triples {
		for _, mask := range masks {
			checkAgainstBruteForce(t, triples, []pattern.Pattern{mask(tr)})
		}
	}
}

// TestForcedGAOOrderIndependence runs a join under every permutation of
// its variables and requires the same result multiset.
func TestForcedGAOOrderIndependence(t *testing.T) {
	t.Parallel()
	q := []pattern.Pattern{
		{S: pattern.Var(0), P: pattern.Var(1), O: pattern.Var(2)},
		{S: pattern.Var(2), P: pattern.Const(1), O: pattern.Var(3)},
	}
	want := canonMaps(bruteForce(tiny(), q))

	perms := permutations([]uint8{0, 1, 2, 3})
	for _, f := range allFlavors {
		data := tiny()
		ring := ringidx.New(data, f)
		for _, perm := range perms {
			algo := New(q, ring)
			algo.gao = perm
			got := canonTuples(algo.Join(0, 0))
			require.Equal(t, want, got, "flavor %v gao %v", f, perm)
		}
	}
}

func permutations(vars []uint8) [][]uint8 {
	if len(vars) <= 1 {
		return [][]uint8{append([]uint8(nil), vars...)}
	}
	var out [][]uint8
	for i := range vars {
		rest := make([]uint8, 0, len(vars)-1)
		rest = append(rest, vars[:i]...)
		rest = append(rest, vars[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]uint8{vars[i]}, p...))
		}
	}
	return out
}

// TestRandomDatasetDifferential cross-checks a set of query shapes on a
// random relation against the brute-force evaluator.
func TestRandomDatasetDifferential(t *testing.T) {
	t.Parallel()
	r := rand.New(rand.NewSource(17))
	seen := map[ringidx.Triple]bool{}
	var triples []ringidx.Triple
	for len(triples) < 60 {
		tr := ringidx.Triple{
			S: 1 + uint64(r.Intn(8)),
			P: 1 + uint64(r.Intn(4)),
			O: 1 + uint64(r.Intn(8)),
		}
		if !seen[tr] {
			seen[tr] = true
			triples = append(triples, tr)
		}
	}

	queries := [][]pattern.Pattern{
		{{S: pattern.Var(0), P: pattern.Var(1), O: pattern.Var(2)}},
		{{S: pattern.Var(0), P: pattern.Const(2), O: pattern.Var(1)}},
		{
			{S: pattern.Var(0), P: pattern.Const(1), O: pattern.Var(1)},
			{S: pattern.Var(0), P: pattern.Const(2), O: pattern.Var(1)},
		},
		{
			{S: pattern.Var(0), P: pattern.Const(1), O: pattern.Var(1)},
			{S: pattern.Var(1), P: pattern.Const(2), O: pattern.Var(2)},
		},
		{
			{S: pattern.Var(0), P: pattern.Var(1), O: pattern.Var(2)},
			{S: pattern.Var(2), P: pattern.Var(3), O: pattern.Var(4)},
			{S: pattern.Var(4), P: pattern.Var(5), O: pattern.Var(0)},
		},
		{
			{S: pattern.Var(0), P: pattern.Const(3), O: pattern.Var(1)},
			{S: pattern.Var(1), P: pattern.Var(2), O: pattern.Const(5)},
		},
	}
	for _, q := range queries {
		checkAgainstBruteForce(t, triples, q)
	}
}

func TestResultLimit(t *testing.T) {
	t.Parallel()
	q := []pattern.Pattern{
		{S: pattern.Var(0), P: pattern.Var(1), O: pattern.Var(2)},
	}
	ring := ringidx.New(tiny(), bitvector.FlavorPlain)
	res := New(q, ring).Join(2, 0)
	require.Len(t, res, 2, "limit truncates")
	res = New(q, ring).Join(0, 0)
	require.Len(t, res, 5, "no limit")
}

func TestTimeoutReturnsPartialResults(t *testing.T) {
	t.Parallel()
	q := []pattern.Pattern{
		{S: pattern.Var(0), P: pattern.Var(1), O: pattern.Var(2)},
	}
	ring := ringidx.New(tiny(), bitvector.FlavorPlain)
	res := New(q, ring).Join(0, time.Nanosecond)
	require.LessOrEqual(t, len(res), 5)
}
