// Package ringidx implements the ring index: three BWT columns, one per
// attribute, wired together so that all six trie orderings over
// (subject, predicate, object) are reachable by backward search. Each
// column B_X holds attribute X read off in the order imposed by sorting
// the relation on the other two attributes cyclically:
//
//	B_O: O values, triples sorted by (S,P,O)  — C array over S
//	B_P: P values, triples sorted by (O,S,P)  — C array over O
//	B_S: S values, triples sorted by (P,O,S)  — C array over P
//
// Descending from one attribute to the next in any ordering is a
// backward step on one column plus a C-offset into the next column in
// the cycle.
package ringidx

import (
	"golang.org/x/exp/slices"

	"ringstore/bitvector"
	"ringstore/bwt"
)

// Triple is one (subject, predicate, object) row. Subjects and objects
// share an ID space; predicates live in their own. 0 is reserved as a
// sentinel and never a valid ID.
type Triple struct {
	S, P, O uint64
}

// Ring is the compressed self-indexed triple store. Immutable after
// construction; safe for concurrent read-only use.
type Ring struct {
	bwtS *bwt.Column // POS
	bwtP *bwt.Column // OSP
	bwtO *bwt.Column // SPO

	maxS     uint64
	maxP     uint64
	maxO     uint64
	nTriples uint64

	flavor bitvector.Flavor
}

// New builds a Ring from triples. The slice is re-sorted in place three
// times during construction. flavor selects the bit-vector
// representation of the three wavelet matrices.
func New(triples []Triple, flavor bitvector.Flavor) *Ring {
	n := uint64(len(triples))
	r := &Ring{nTriples: n, flavor: flavor}

	var alphabetSO uint64
	for _, t := range triples {
		if t.P > r.maxP {
			r.maxP = t.P
		}
		if t.S > alphabetSO {
			alphabetSO = t.S
		}
		if t.O > alphabetSO {
			alphabetSO = t.O
		}
	}
	r.maxS, r.maxO = alphabetSO, alphabetSO

	// Histogram of S before the lexicographic sort disturbs nothing:
	// counts are order-independent, but the reference takes it first and
	// frees it right after building C_O, so we do the same.
	histS := make([]uint64, alphabetSO+1)
	for _, t := range triples {
		histS[t.S]++
	}

	slices.SortFunc(triples, func(a, b Triple) bool {
		if a.S != b.S {
			return a.S < b.S
		}
		if a.P != b.P {
			return a.P < b.P
		}
		return a.O < b.O
	})

	// B_O: the O column of the SPO order; its C array accumulates the
	// S histogram.
	r.bwtO = buildColumn(triples, func(t Triple) uint64 { return t.O },
		histS, alphabetSO, alphabetSO, n, flavor)

	histO := make([]uint64, alphabetSO+1)
	for _, t := range triples {
		histO[t.O]++
	}

	slices.SortStableFunc(triples, func(a, b Triple) bool { return a.O < b.O })

	// B_P: the P column of the OSP order; C array over O.
	r.bwtP = buildColumn(triples, func(t Triple) uint64 { return t.P },
		histO, alphabetSO, r.maxP, n, flavor)

	histP := make([]uint64, r.maxP+1)
	for _, t := range triples {
		histP[t.P]++
	}

	slices.SortStableFunc(triples, func(a, b Triple) bool { return a.P < b.P })

	// B_S: the S column of the POS order; C array over P.
	r.bwtS = buildColumn(triples, func(t Triple) uint64 { return t.S },
		histP, r.maxP, alphabetSO, n, flavor)

	return r
}

// buildColumn emits one attribute of the (already sorted) triples as an
// L sequence with a leading sentinel, accumulates hist into a C array
// over [0, cSigma], and builds the BWT column.
func buildColumn(triples []Triple, attr func(Triple) uint64,
	hist []uint64, cSigma, lSigma, n uint64, flavor bitvector.Flavor) *bwt.Column {

	cArr := make([]uint64, 0, cSigma+2)
	cArr = append(cArr, 0) // dummy
	cur := uint64(1)
	cArr = append(cArr, cur)
	for v := uint64(2); v <= cSigma; v++ {
		cur += hist[v-1]
		cArr = append(cArr, cur)
	}
	cArr = append(cArr, n+1)

	l := make([]uint64, n+1)
	for i, t := range triples {
		l[i+1] = attr(t)
	}
	return bwt.Build(l, cArr, lSigma, flavor)
}

// FromParts reassembles a Ring from its persisted components.
func FromParts(bwtS, bwtP, bwtO *bwt.Column, maxS, maxP, maxO, n uint64, flavor bitvector.Flavor) *Ring {
	return &Ring{
		bwtS: bwtS, bwtP: bwtP, bwtO: bwtO,
		maxS: maxS, maxP: maxP, maxO: maxO,
		nTriples: n, flavor: flavor,
	}
}

func (r *Ring) NTriples() uint64         { return r.nTriples }
func (r *Ring) MaxS() uint64             { return r.maxS }
func (r *Ring) MaxP() uint64             { return r.maxP }
func (r *Ring) MaxO() uint64             { return r.maxO }
func (r *Ring) Flavor() bitvector.Flavor { return r.flavor }

// BwtS, BwtP, BwtO expose the columns for persistence.
func (r *Ring) BwtS() *bwt.Column { return r.bwtS }
func (r *Ring) BwtP() *bwt.Column { return r.bwtP }
func (r *Ring) BwtO() *bwt.Column { return r.bwtO }

// selectNextCheap reports whether the wavelet matrices carry a select
// index fast enough for the stride-within-C-block seeks. The other
// flavors use the inverse-select fallback instead.
func (r *Ring) selectNextCheap() bool {
	return r.flavor == bitvector.FlavorPlainSelect
}

// InitS returns the interval of all triples with subject s, in B_O.
func (r *Ring) InitS(s uint64) (uint64, uint64) {
	return r.bwtO.BackwardSearch1Interval(s)
}

// InitP returns the interval of all triples with predicate p, in B_S.
func (r *Ring) InitP(p uint64) (uint64, uint64) {
	return r.bwtS.BackwardSearch1Interval(p)
}

// InitO returns the interval of all triples with object o, in B_P.
func (r *Ring) InitO(o uint64) (uint64, uint64) {
	return r.bwtP.BackwardSearch1Interval(o)
}

// InitSP resolves the two-constant pattern (s, p, ?): POS -> SPO.
func (r *Ring) InitSP(s, p uint64) (uint64, uint64) {
	lo, hi := r.bwtS.BackwardSearch1Rank(p, s)
	return r.bwtO.BackwardSearch2Interval(s, lo, hi)
}

// InitSO resolves (s, ?, o): SPO -> OSP.
func (r *Ring) InitSO(s, o uint64) (uint64, uint64) {
	lo, hi := r.bwtO.BackwardSearch1Rank(s, o)
	return r.bwtP.BackwardSearch2Interval(o, lo, hi)
}

// InitPO resolves (?, p, o): OSP -> POS.
func (r *Ring) InitPO(p, o uint64) (uint64, uint64) {
	lo, hi := r.bwtP.BackwardSearch1Rank(o, p)
	return r.bwtS.BackwardSearch2Interval(p, lo, hi)
}

// InitSPO resolves a fully constant triple: OSP -> POS -> SPO.
func (r *Ring) InitSPO(s, p, o uint64) (uint64, uint64) {
	lo, hi := r.bwtP.BackwardSearch1Rank(o, p)
	lo, hi = r.bwtS.BackwardSearch2Rank(p, s, lo, hi)
	return r.bwtO.BackwardSearch2Interval(s, lo, hi)
}

/**********************************/
// Trie tops. All six orderings share the full row range.

func (r *Ring) OpenSPO() Interval { return NewInterval(1, r.nTriples) }
func (r *Ring) OpenSOP() Interval { return NewInterval(1, r.nTriples) }
func (r *Ring) OpenPOS() Interval { return NewInterval(1, r.nTriples) }
func (r *Ring) OpenPSO() Interval { return NewInterval(1, r.nTriples) }
func (r *Ring) OpenOSP() Interval { return NewInterval(1, r.nTriples) }
func (r *Ring) OpenOPS() Interval { return NewInterval(1, r.nTriples) }

// DownS opens the subtrie of subject s; the interval lives in B_O.
func (r *Ring) DownS(s uint64) Interval {
	lo, hi := r.InitS(s)
	return NewInterval(lo, hi)
}

// DownP opens the subtrie of predicate p; the interval lives in B_S.
func (r *Ring) DownP(p uint64) Interval {
	lo, hi := r.InitP(p)
	return NewInterval(lo, hi)
}

// DownO opens the subtrie of object o; the interval lives in B_P.
func (r *Ring) DownO(o uint64) Interval {
	lo, hi := r.InitO(o)
	return NewInterval(lo, hi)
}

/**********************************/
// One-hop descents: a backward step on the column holding the new
// attribute, then a C-offset into the next column in the cycle.

// DownPS descends P->S; iv is in B_S, the result in B_O.
func (r *Ring) DownPS(iv Interval, s uint64) Interval {
	lo, hi := r.bwtS.BackwardStep(iv.Left(), iv.Right(), s)
	c := r.bwtO.GetC(s)
	return NewInterval(lo+c, hi+c)
}

// DownOP descends O->P; iv is in B_P, the result in B_S.
func (r *Ring) DownOP(iv Interval, p uint64) Interval {
	lo, hi := r.bwtP.BackwardStep(iv.Left(), iv.Right(), p)
	c := r.bwtS.GetC(p)
	return NewInterval(lo+c, hi+c)
}

// DownSO descends S->O; iv is in B_O, the result in B_P.
func (r *Ring) DownSO(iv Interval, o uint64) Interval {
	lo, hi := r.bwtO.BackwardStep(iv.Left(), iv.Right(), o)
	c := r.bwtP.GetC(o)
	return NewInterval(lo+c, hi+c)
}

/**********************************/
// Two-hop descents: the new attribute lives in the column indexed by
// the bound one, so the sub-interval is recomputed from the run of the
// bound value within one C-block. The stored slots of iv, filled by the
// MinXInY/NextXInY call that found pVal, save recomputing the stride.

// DownSP descends S->P within the SPO ordering; iv is the subject
// interval in B_O, and the result stays in B_O.
func (r *Ring) DownSP(iv Interval, sVal, pVal uint64) Interval {
	b, start, ok := iv.StoredValues()
	if !ok {
		pos, rank := r.bwtS.SelectNext(pVal, sVal, r.bwtO.NElems(sVal))
		b = r.bwtS.BsearchC(pos) - 1
		start = rank
	}
	nE := r.bwtS.Rank(b+1, sVal) - r.bwtS.Rank(b, sVal)
	return NewInterval(iv.Left()+start, iv.Left()+start+nE-1)
}

// DownPO descends P->O within the POS ordering; iv and result in B_S.
func (r *Ring) DownPO(iv Interval, pVal, oVal uint64) Interval {
	b, start, ok := iv.StoredValues()
	if !ok {
		pos, rank := r.bwtP.SelectNext(oVal, pVal, r.bwtS.NElems(pVal))
		b = r.bwtP.BsearchC(pos) - 1
		start = rank
	}
	nE := r.bwtP.Rank(b+1, pVal) - r.bwtP.Rank(b, pVal)
	return NewInterval(iv.Left()+start, iv.Left()+start+nE-1)
}

// DownOS descends O->S within the OSP ordering; iv and result in B_P.
func (r *Ring) DownOS(iv Interval, oVal, sVal uint64) Interval {
	b, start, ok := iv.StoredValues()
	if !ok {
		pos, rank := r.bwtO.SelectNext(sVal, oVal, r.bwtP.NElems(oVal))
		b = r.bwtO.BsearchC(pos) - 1
		start = rank
	}
	nE := r.bwtO.Rank(b+1, oVal) - r.bwtO.Rank(b, oVal)
	return NewInterval(iv.Left()+start, iv.Left()+start+nE-1)
}

/**********************************/
// Per-variable extrema and successors. The unconditioned and one-hop
// conditioned variants are range-min / range-next queries on the column
// that holds the free attribute.

func (r *Ring) MinS(iv Interval) uint64 { return iv.Begin(r.bwtS) }

func (r *Ring) NextS(iv Interval, s uint64) uint64 {
	if s > r.maxS {
		return 0
	}
	return iv.NextValue(s, r.bwtS)
}

func (r *Ring) MinP(iv Interval) uint64 { return iv.Begin(r.bwtP) }

func (r *Ring) NextP(iv Interval, p uint64) uint64 {
	if p > r.maxP {
		return 0
	}
	return iv.NextValue(p, r.bwtP)
}

func (r *Ring) MinO(iv Interval) uint64 { return iv.Begin(r.bwtO) }

func (r *Ring) NextO(iv Interval, o uint64) uint64 {
	if o > r.maxO {
		return 0
	}
	return iv.NextValue(o, r.bwtO)
}

func (r *Ring) MinOInS(iv Interval) uint64 { return iv.Begin(r.bwtO) }

func (r *Ring) NextOInS(iv Interval, o uint64) uint64 {
	if o > r.maxO {
		return 0
	}
	return iv.NextValue(o, r.bwtO)
}

func (r *Ring) MinOInPS(iv Interval) uint64 { return iv.Begin(r.bwtO) }

func (r *Ring) NextOInPS(iv Interval, o uint64) uint64 {
	if o > r.maxO {
		return 0
	}
	return iv.NextValue(o, r.bwtO)
}

func (r *Ring) MinSInP(iv Interval) uint64 { return iv.Begin(r.bwtS) }

func (r *Ring) NextSInP(iv Interval, s uint64) uint64 {
	if s > r.maxS {
		return 0
	}
	return iv.NextValue(s, r.bwtS)
}

func (r *Ring) MinSInOP(iv Interval) uint64 { return iv.Begin(r.bwtS) }

func (r *Ring) NextSInOP(iv Interval, s uint64) uint64 {
	if s > r.maxS {
		return 0
	}
	return iv.NextValue(s, r.bwtS)
}

func (r *Ring) MinPInO(iv Interval) uint64 { return iv.Begin(r.bwtP) }

func (r *Ring) NextPInO(iv Interval, p uint64) uint64 {
	if p > r.maxP {
		return 0
	}
	return iv.NextValue(p, r.bwtP)
}

func (r *Ring) MinPInSO(iv Interval) uint64 { return iv.Begin(r.bwtP) }

func (r *Ring) NextPInSO(iv Interval, p uint64) uint64 {
	if p > r.maxP {
		return 0
	}
	return iv.NextValue(p, r.bwtP)
}

func (r *Ring) MinOInSP(iv Interval) uint64 { return iv.Begin(r.bwtO) }

func (r *Ring) NextOInSP(iv Interval, o uint64) uint64 {
	if o > r.maxO {
		return 0
	}
	return iv.NextValue(o, r.bwtO)
}

func (r *Ring) MinSInPO(iv Interval) uint64 { return iv.Begin(r.bwtS) }

func (r *Ring) NextSInPO(iv Interval, s uint64) uint64 {
	if s > r.maxS {
		return 0
	}
	return iv.NextValue(s, r.bwtS)
}

func (r *Ring) MinPInOS(iv Interval) uint64 { return iv.Begin(r.bwtP) }

func (r *Ring) NextPInOS(iv Interval, p uint64) uint64 {
	if p > r.maxP {
		return 0
	}
	return iv.NextValue(p, r.bwtP)
}

/**********************************/
// Two-hop conditioned seeks. The free attribute lives in the column
// indexed by the bound one, so a range query cannot answer them: with a
// cheap select index the seek strides over the bound value's
// occurrences; otherwise a single inverse-select on the paired column
// plus a direct lookup in the third yields the answer without a count.
// Both paths memoize the result in iv's stored slots for the descent
// that follows.

// MinPInS returns the least predicate under subject sVal.
func (r *Ring) MinPInS(iv *Interval, sVal uint64) uint64 {
	if r.selectNextCheap() {
		pos, rank := r.bwtS.SelectNext(1, sVal, r.bwtO.NElems(sVal))
		b := r.bwtS.BsearchC(pos) - 1
		iv.SetStoredValues(b, rank)
		return b
	}
	rank, oVal := r.bwtO.InverseSelect(iv.Left())
	p := r.bwtP.At(r.bwtP.GetC(oVal) + rank)
	iv.SetStoredValues(p, 0)
	return p
}

// NextPInS returns the least predicate >= pVal under subject sVal, or 0.
func (r *Ring) NextPInS(iv *Interval, sVal, pVal uint64) uint64 {
	if pVal > r.maxP {
		return 0
	}
	if r.selectNextCheap() {
		pos, rank := r.bwtS.SelectNext(pVal, sVal, r.bwtO.NElems(sVal))
		if pos == 0 && rank == 0 {
			return 0
		}
		b := r.bwtS.BsearchC(pos) - 1
		iv.SetStoredValues(b, rank)
		return b
	}
	nValues := iv.Size()
	rAux := r.bwtS.Rank(pVal, sVal)
	if rAux >= nValues {
		return 0
	}
	rank, oVal := r.bwtO.InverseSelect(iv.Left() + rAux)
	p := r.bwtP.At(r.bwtP.GetC(oVal) + rank)
	iv.SetStoredValues(p, rAux)
	return p
}

// MinSInO returns the least subject under object oVal.
func (r *Ring) MinSInO(iv *Interval, oVal uint64) uint64 {
	if r.selectNextCheap() {
		pos, rank := r.bwtO.SelectNext(1, oVal, r.bwtP.NElems(oVal))
		b := r.bwtO.BsearchC(pos) - 1
		iv.SetStoredValues(b, rank)
		return b
	}
	rank, pVal := r.bwtP.InverseSelect(iv.Left())
	s := r.bwtS.At(r.bwtS.GetC(pVal) + rank)
	iv.SetStoredValues(s, 0)
	return s
}

// NextSInO returns the least subject >= sVal under object oVal, or 0.
func (r *Ring) NextSInO(iv *Interval, oVal, sVal uint64) uint64 {
	if sVal > r.maxS {
		return 0
	}
	if r.selectNextCheap() {
		pos, rank := r.bwtO.SelectNext(sVal, oVal, r.bwtP.NElems(oVal))
		if pos == 0 && rank == 0 {
			return 0
		}
		b := r.bwtO.BsearchC(pos) - 1
		iv.SetStoredValues(b, rank)
		return b
	}
	nValues := iv.Size()
	rAux := r.bwtO.Rank(sVal, oVal)
	if rAux >= nValues {
		return 0
	}
	rank, pVal := r.bwtP.InverseSelect(iv.Left() + rAux)
	s := r.bwtS.At(r.bwtS.GetC(pVal) + rank)
	iv.SetStoredValues(s, rAux)
	return s
}

// MinOInP returns the least object under predicate pVal. This seek
// always strides: the fallback's paired-column trick has no analogue
// here, and even a scanned select stays correct.
func (r *Ring) MinOInP(iv *Interval, pVal uint64) uint64 {
	pos, rank := r.bwtP.SelectNext(1, pVal, r.bwtS.NElems(pVal))
	b := r.bwtP.BsearchC(pos) - 1
	iv.SetStoredValues(b, rank)
	return b
}

// NextOInP returns the least object >= oVal under predicate pVal, or 0.
func (r *Ring) NextOInP(iv *Interval, pVal, oVal uint64) uint64 {
	if oVal > r.maxO {
		return 0
	}
	pos, rank := r.bwtP.SelectNext(oVal, pVal, r.bwtS.NElems(pVal))
	if pos == 0 && rank == 0 {
		return 0
	}
	b := r.bwtP.BsearchC(pos) - 1
	iv.SetStoredValues(b, rank)
	return b
}

/**********************************/
// Last-level enumeration.

func (r *Ring) AllSInRange(iv Interval) []uint64 {
	return r.bwtS.ValuesInRange(iv.Left(), iv.Right())
}

func (r *Ring) AllPInRange(iv Interval) []uint64 {
	return r.bwtP.ValuesInRange(iv.Left(), iv.Right())
}

func (r *Ring) AllOInRange(iv Interval) []uint64 {
	return r.bwtO.ValuesInRange(iv.Left(), iv.Right())
}
