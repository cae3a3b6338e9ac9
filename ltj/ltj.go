// Package ltj implements the leapfrog triejoin driver: a recursive
// worst-case-optimal search that binds the query's variables in GAO
// order, intersecting at each step the leap outputs of every iterator
// whose pattern mentions the variable.
package ltj

import (
	"time"

	"ringstore/gao"
	"ringstore/pattern"
	"ringstore/ringidx"
)

// Binding is one variable assignment of a result tuple.
type Binding struct {
	Var   uint8
	Value uint64
}

// Tuple is one result row: a binding per GAO variable, in GAO order.
type Tuple []Binding

// Algorithm owns the per-pattern iterators and the current partial
// tuple of one query evaluation. Build one per query.
type Algorithm struct {
	patterns   []pattern.Pattern
	ring       *ringidx.Ring
	iterators  []*pattern.Iterator
	varToIters map[uint8][]*pattern.Iterator
	gao        []uint8
	empty      bool
}

// New constructs the iterators, short-circuiting on any empty pattern,
// and plans the variable order.
func New(patterns []pattern.Pattern, ring *ringidx.Ring) *Algorithm {
	a := &Algorithm{
		patterns:   patterns,
		ring:       ring,
		varToIters: make(map[uint8][]*pattern.Iterator),
	}
	a.iterators = make([]*pattern.Iterator, len(patterns))
	for i := range patterns {
		it := pattern.NewIterator(&patterns[i], ring)
		a.iterators[i] = it
		if it.IsEmpty() {
			a.empty = true
			return a
		}
		if patterns[i].O.IsVariable {
			a.addVarIter(uint8(patterns[i].O.Value), it)
		}
		if patterns[i].P.IsVariable {
			a.addVarIter(uint8(patterns[i].P.Value), it)
		}
		if patterns[i].S.IsVariable {
			a.addVarIter(uint8(patterns[i].S.Value), it)
		}
	}
	a.gao = gao.Order(patterns, a.iterators)
	return a
}

func (a *Algorithm) addVarIter(v uint8, it *pattern.Iterator) {
	a.varToIters[v] = append(a.varToIters[v], it)
}

// GAO returns the planned variable order.
func (a *Algorithm) GAO() []uint8 { return a.gao }

// Join evaluates the query. limit caps the number of results (0 for
// unlimited); timeout caps wall-clock search time (0 for none). On
// either stop the results accumulated so far are returned.
func (a *Algorithm) Join(limit uint64, timeout time.Duration) []Tuple {
	var res []Tuple
	if a.empty {
		return res
	}
	tuple := make(Tuple, len(a.gao))
	start := time.Now()
	a.search(0, tuple, &res, start, limit, timeout)
	return res
}

// search binds variable j of the GAO and recurses; it returns false to
// unwind the whole search on timeout or limit.
func (a *Algorithm) search(j int, tuple Tuple, res *[]Tuple,
	start time.Time, limit uint64, timeout time.Duration) bool {

	if timeout > 0 && time.Since(start) > timeout {
		return false
	}
	if limit > 0 && uint64(len(*res)) == limit {
		return false
	}

	if j == len(a.gao) {
		out := make(Tuple, len(tuple))
		copy(out, tuple)
		*res = append(*res, out)
		return true
	}

	x := a.gao[j]
	iters := a.varToIters[x]
	if len(iters) == 1 && iters[0].InLastLevel() {
		// Lonely variable over a last-level interval: enumerate the
		// distinct values directly instead of leapfrogging.
		for _, c := range iters[0].SeekAll(x) {
			tuple[j] = Binding{Var: x, Value: c}
			iters[0].Down(x, c)
			if !a.search(j+1, tuple, res, start, limit, timeout) {
				return false
			}
			iters[0].Up(x)
		}
		return true
	}

	c, ok := a.seek(x, 0, false)
	for ok {
		tuple[j] = Binding{Var: x, Value: c}
		for _, it := range iters {
			it.Down(x, c)
		}
		if !a.search(j+1, tuple, res, start, limit, timeout) {
			return false
		}
		for _, it := range iters {
			it.Up(x)
		}
		c, ok = a.seek(x, c+1, true)
	}
	return true
}

// seek is the leapfrog intersection across the iterators mentioning x:
// each round takes the max of the per-iterator leaps as the new floor
// until all agree. floorDefined distinguishes "no floor yet" from a
// concrete lower bound, and ok=false signals an empty intersection.
// Termination: the floor is non-decreasing and bounded by the alphabet.
func (a *Algorithm) seek(x uint8, c uint64, floorDefined bool) (uint64, bool) {
	cMin, cMax := uint64(1)<<63, uint64(0)
	iters := a.varToIters[x]
	for {
		for _, it := range iters {
			var ci uint64
			if floorDefined {
				ci = it.LeapGE(x, c)
			} else {
				ci = it.Leap(x)
			}
			if ci == 0 {
				return 0, false // empty intersection
			}
			if ci > cMax {
				cMax = ci
			}
			if ci < cMin {
				cMin = ci
			}
			c, floorDefined = cMax, true
		}
		if cMin == cMax {
			return cMin, true
		}
		cMin, cMax = uint64(1)<<63, 0
	}
}
