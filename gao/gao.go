// Package gao chooses the global attribute order: the sequence in which
// the join driver binds the query's variables. The heuristic favours
// variables shared between patterns ("connected") over lonely ones, and
// among the connected, those with the smallest estimated cardinality,
// emitted so that each next variable co-occurs with one already chosen.
package gao

import (
	"container/heap"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/exp/slices"

	"ringstore/pattern"
)

type varInfo struct {
	name     uint8
	weight   uint64
	nTriples uint64
	related  map[uint8]struct{}
}

type heapEntry struct {
	weight uint64
	name   uint8
}

// weightHeap is a min-heap over (weight, name).
type weightHeap []heapEntry

func (h weightHeap) Len() int { return len(h) }
func (h weightHeap) Less(i, j int) bool {
	if h[i].weight != h[j].weight {
		return h[i].weight < h[j].weight
	}
	return h[i].name < h[j].name
}
func (h weightHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *weightHeap) Push(x any)        { *h = append(*h, x.(heapEntry)) }
func (h *weightHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Order returns a permutation of the query's variables. iters must be
// the freshly constructed iterators of patterns, index-aligned: each
// iterator's interval size is the cardinality estimate attributed to
// the variables of its pattern.
func Order(patterns []pattern.Pattern, iters []*pattern.Iterator) []uint8 {
	var info []varInfo
	position := make(map[uint8]int)

	record := func(v uint8, size uint64) {
		idx, ok := position[v]
		if !ok {
			info = append(info, varInfo{
				name:     v,
				weight:   size,
				nTriples: 1,
				related:  make(map[uint8]struct{}),
			})
			position[v] = len(info) - 1
			return
		}
		info[idx].nTriples++
		if info[idx].weight > size {
			info[idx].weight = size
		}
	}
	relate := func(a, b uint8) {
		info[position[a]].related[b] = struct{}{}
		info[position[b]].related[a] = struct{}{}
	}

	for i, pat := range patterns {
		size := iters[i].IntervalSize()
		var s, p, o bool
		var varS, varP, varO uint8
		if pat.S.IsVariable {
			s, varS = true, uint8(pat.S.Value)
			record(varS, size)
		}
		if pat.P.IsVariable {
			p, varP = true, uint8(pat.P.Value)
			record(varP, size)
		}
		if pat.O.IsVariable {
			o, varO = true, uint8(pat.O.Value)
			record(varO, size)
		}
		if s && p {
			relate(varS, varP)
		}
		if s && o {
			relate(varS, varO)
		}
		if p && o {
			relate(varP, varO)
		}
	}

	// Connected variables first, then ascending weight; the stable sort
	// breaks ties by the order variables were first seen.
	slices.SortStableFunc(info, func(a, b varInfo) bool {
		if a.nTriples > 1 && b.nTriples == 1 {
			return true
		}
		if a.nTriples == 1 && b.nTriples > 1 {
			return false
		}
		return a.weight < b.weight
	})
	lonelyStart := len(info)
	for i := range info {
		position[info[i].name] = i
		if info[i].nTriples == 1 && i < lonelyStart {
			lonelyStart = i
		}
	}

	checked := bitset.New(uint(len(info)))
	fillHeap := func(v uint8, h *weightHeap) {
		for rel := range info[position[v]].related {
			idx := position[rel]
			if !checked.Test(uint(idx)) && info[idx].nTriples > 1 {
				heap.Push(h, heapEntry{weight: info[idx].weight, name: rel})
				checked.Set(uint(idx))
			}
		}
	}

	out := make([]uint8, 0, len(info))
	for i := 0; i < lonelyStart; i++ { // connected prefix
		if checked.Test(uint(i)) {
			continue
		}
		out = append(out, info[i].name)
		checked.Set(uint(i))
		h := &weightHeap{}
		fillHeap(info[i].name, h)
		for h.Len() > 0 {
			e := heap.Pop(h).(heapEntry)
			out = append(out, e.name)
			fillHeap(e.name, h)
		}
	}
	for i := lonelyStart; i < len(info); i++ { // lonely suffix
		out = append(out, info[i].name)
	}
	return out
}
