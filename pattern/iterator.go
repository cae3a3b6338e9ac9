package pattern

import "ringstore/ringidx"

// Iterator wraps one triple pattern with the trie-navigation state the
// leapfrog join needs: three current intervals (one per attribute
// column) and three bound-value slots. Which slots are bound determines
// how Down and Leap route to the ring's operations; the full mapping is
// a six-state machine over the set of bound attributes.
//
// An iterator lives for one query and owns its intervals exclusively;
// the ring is borrowed read-only.
type Iterator struct {
	pat  *Pattern
	ring *ringidx.Ring

	iS, iP, iO ringidx.Interval

	curS, curP, curO uint64
	hasS, hasP, hasO bool

	empty bool
}

// NewIterator builds the iterator and descends through the pattern's
// constants. Descent order always walks the cycle backwards (S->O->P,
// P->S, O->P) so no forward step is ever needed. A constant missing
// from its interval marks the iterator empty.
func NewIterator(pat *Pattern, ring *ringidx.Ring) *Iterator {
	it := &Iterator{
		pat:  pat,
		ring: ring,
		iP:   ring.OpenPOS(),
		iS:   ring.OpenSPO(),
		iO:   ring.OpenOSP(),
	}

	switch {
	case !pat.S.IsVariable && !pat.P.IsVariable && !pat.O.IsVariable:
		// S->O->P
		if it.ring.NextS(it.iS, pat.S.Value) != pat.S.Value {
			it.empty = true
			return it
		}
		it.bindS(pat.S.Value)

		it.iO = it.ring.DownS(pat.S.Value)
		if it.ring.NextOInS(it.iO, pat.O.Value) != pat.O.Value {
			it.empty = true
			return it
		}
		it.bindO(pat.O.Value)

		it.iP = it.ring.DownSO(it.iO, pat.O.Value)
		if it.ring.NextPInSO(it.iP, pat.P.Value) != pat.P.Value {
			it.empty = true
			return it
		}
		it.bindP(pat.P.Value)

	case !pat.S.IsVariable && !pat.P.IsVariable:
		// P->S
		if it.ring.NextP(it.iP, pat.P.Value) != pat.P.Value {
			it.empty = true
			return it
		}
		it.bindP(pat.P.Value)

		it.iS = it.ring.DownP(pat.P.Value)
		if it.ring.NextSInP(it.iS, pat.S.Value) != pat.S.Value {
			it.empty = true
			return it
		}
		it.bindS(pat.S.Value)

		it.iO = it.ring.DownPS(it.iS, pat.S.Value)

	case !pat.P.IsVariable && !pat.O.IsVariable:
		// O->P
		if it.ring.NextO(it.iO, pat.O.Value) != pat.O.Value {
			it.empty = true
			return it
		}
		it.bindO(pat.O.Value)

		it.iP = it.ring.DownO(pat.O.Value)
		if it.ring.NextPInO(it.iP, pat.P.Value) != pat.P.Value {
			it.empty = true
			return it
		}
		it.bindP(pat.P.Value)

		it.iS = it.ring.DownOP(it.iP, pat.P.Value)

	case !pat.S.IsVariable && !pat.O.IsVariable:
		// S->O
		if it.ring.NextS(it.iS, pat.S.Value) != pat.S.Value {
			it.empty = true
			return it
		}
		it.bindS(pat.S.Value)

		it.iO = it.ring.DownS(pat.S.Value)
		if it.ring.NextOInS(it.iO, pat.O.Value) != pat.O.Value {
			it.empty = true
			return it
		}
		it.bindO(pat.O.Value)

		it.iP = it.ring.DownSO(it.iO, pat.O.Value)

	case !pat.S.IsVariable:
		if it.ring.NextS(it.iS, pat.S.Value) != pat.S.Value {
			it.empty = true
			return it
		}
		it.bindS(pat.S.Value)
		it.iO = it.ring.DownS(pat.S.Value)
		it.iP = it.iO

	case !pat.P.IsVariable:
		if it.ring.NextP(it.iP, pat.P.Value) != pat.P.Value {
			it.empty = true
			return it
		}
		it.bindP(pat.P.Value)
		it.iS = it.ring.DownP(pat.P.Value)
		it.iO = it.iS

	case !pat.O.IsVariable:
		if it.ring.NextO(it.iO, pat.O.Value) != pat.O.Value {
			it.empty = true
			return it
		}
		it.bindO(pat.O.Value)
		it.iP = it.ring.DownO(pat.O.Value)
		it.iS = it.iP
	}
	return it
}

func (it *Iterator) bindS(v uint64) { it.curS, it.hasS = v, true }
func (it *Iterator) bindP(v uint64) { it.curP, it.hasP = v, true }
func (it *Iterator) bindO(v uint64) { it.curO, it.hasO = v, true }

// IsEmpty reports whether a constant of the pattern failed to match;
// an empty iterator empties the whole query.
func (it *Iterator) IsEmpty() bool { return it.empty }

// Pattern returns the wrapped triple pattern.
func (it *Iterator) Pattern() *Pattern { return it.pat }

func (it *Iterator) isVarS(v uint8) bool {
	return it.pat.S.IsVariable && uint64(v) == it.pat.S.Value
}

func (it *Iterator) isVarP(v uint8) bool {
	return it.pat.P.IsVariable && uint64(v) == it.pat.P.Value
}

func (it *Iterator) isVarO(v uint8) bool {
	return it.pat.O.IsVariable && uint64(v) == it.pat.O.Value
}

// Down binds variable v to c and descends the matching trie edge. With
// the two sibling attributes already bound there is nothing left to
// descend and the call is a no-op.
func (it *Iterator) Down(v uint8, c uint64) {
	switch {
	case it.isVarS(v):
		if it.hasO && it.hasP {
			return
		}
		if it.hasO {
			it.iP = it.ring.DownOS(it.iS, it.curO, c)
		} else if it.hasP {
			it.iO = it.ring.DownPS(it.iS, c)
		} else {
			it.iO = it.ring.DownS(c)
			it.iP = it.iO
		}
		it.bindS(c)
	case it.isVarP(v):
		if it.hasS && it.hasO {
			return
		}
		if it.hasO {
			it.iS = it.ring.DownOP(it.iP, c)
		} else if it.hasS {
			it.iO = it.ring.DownSP(it.iP, it.curS, c)
		} else {
			it.iS = it.ring.DownP(c)
			it.iO = it.iS
		}
		it.bindP(c)
	case it.isVarO(v):
		if it.hasS && it.hasP {
			return
		}
		if it.hasP {
			it.iS = it.ring.DownPO(it.iO, it.curP, c)
		} else if it.hasS {
			it.iP = it.ring.DownSO(it.iO, c)
		} else {
			it.iP = it.ring.DownO(c)
			it.iS = it.iP
		}
		it.bindO(c)
	}
}

// Up unbinds variable v. Intervals are never mutated destructively, so
// unbinding is just clearing the slot; the owner must pair Up with the
// most recent Down on the same variable.
func (it *Iterator) Up(v uint8) {
	switch {
	case it.isVarS(v):
		it.hasS = false
	case it.isVarP(v):
		it.hasP = false
	case it.isVarO(v):
		it.hasO = false
	}
}

// Leap returns the minimum value of variable v reachable from the
// current state, or 0 if none.
func (it *Iterator) Leap(v uint8) uint64 {
	switch {
	case it.isVarS(v):
		switch {
		case it.hasP && it.hasO:
			return it.ring.MinSInPO(it.iS)
		case it.hasO:
			return it.ring.MinSInO(&it.iS, it.curO)
		case it.hasP:
			return it.ring.MinSInP(it.iS)
		default:
			return it.ring.MinS(it.iS)
		}
	case it.isVarP(v):
		switch {
		case it.hasS && it.hasO:
			return it.ring.MinPInSO(it.iP)
		case it.hasS:
			return it.ring.MinPInS(&it.iP, it.curS)
		case it.hasO:
			return it.ring.MinPInO(it.iP)
		default:
			return it.ring.MinP(it.iP)
		}
	case it.isVarO(v):
		switch {
		case it.hasS && it.hasP:
			return it.ring.MinOInSP(it.iO)
		case it.hasS:
			return it.ring.MinOInS(it.iO)
		case it.hasP:
			return it.ring.MinOInP(&it.iO, it.curP)
		default:
			return it.ring.MinO(it.iO)
		}
	}
	return 0
}

// LeapGE returns the least value >= c of variable v reachable from the
// current state, or 0 if none.
func (it *Iterator) LeapGE(v uint8, c uint64) uint64 {
	switch {
	case it.isVarS(v):
		switch {
		case it.hasP && it.hasO:
			return it.ring.NextSInPO(it.iS, c)
		case it.hasO:
			return it.ring.NextSInO(&it.iS, it.curO, c)
		case it.hasP:
			return it.ring.NextSInP(it.iS, c)
		default:
			return it.ring.NextS(it.iS, c)
		}
	case it.isVarP(v):
		switch {
		case it.hasS && it.hasO:
			return it.ring.NextPInSO(it.iP, c)
		case it.hasS:
			return it.ring.NextPInS(&it.iP, it.curS, c)
		case it.hasO:
			return it.ring.NextPInO(it.iP, c)
		default:
			return it.ring.NextP(it.iP, c)
		}
	case it.isVarO(v):
		switch {
		case it.hasS && it.hasP:
			return it.ring.NextOInSP(it.iO, c)
		case it.hasS:
			return it.ring.NextOInS(it.iO, c)
		case it.hasP:
			return it.ring.NextOInP(&it.iO, it.curP, c)
		default:
			return it.ring.NextO(it.iO, c)
		}
	}
	return 0
}

// InLastLevel reports that two of the three attributes are bound: the
// remaining one ranges over a single last-level interval.
func (it *Iterator) InLastLevel() bool {
	return (it.hasO && it.hasP) || (it.hasS && it.hasP) || (it.hasO && it.hasS)
}

// SeekAll enumerates the distinct values of variable v in the current
// interval. Only valid in the last level.
func (it *Iterator) SeekAll(v uint8) []uint64 {
	switch {
	case it.isVarS(v):
		return it.ring.AllSInRange(it.iS)
	case it.isVarP(v):
		return it.ring.AllPInRange(it.iP)
	case it.isVarO(v):
		return it.ring.AllOInRange(it.iO)
	}
	return nil
}

// IntervalSize estimates the pattern's cardinality for the planner: the
// size of the interval the next free attribute ranges over.
func (it *Iterator) IntervalSize() uint64 {
	switch {
	case !it.hasS && !it.hasP && !it.hasO:
		return it.iS.Size() // open
	case !it.hasS && it.hasP && !it.hasO:
		return it.iS.Size() // iS == iO
	case !it.hasS && !it.hasP && it.hasO:
		return it.iS.Size() // iS == iP
	case it.hasS && !it.hasP && !it.hasO:
		return it.iO.Size() // iO == iP
	case it.hasS && it.hasP && !it.hasO:
		return it.iO.Size()
	case it.hasS && !it.hasP && it.hasO:
		return it.iP.Size()
	case !it.hasS && it.hasP && it.hasO:
		return it.iS.Size()
	}
	return 0
}
