// Package bwt implements one column of the ring index: a wavelet-matrix
// encoded BWT sequence L plus a cumulative-count array C, ported from
// the reference's bwt<> template. The C array is always backed by a
// full rank/select bit vector regardless of the wavelet matrix's
// bit-vector flavor — the reference's own bwt.hpp fixes C's type
// independently of its bwt_bit_vector_t template parameter.
package bwt

import (
	"encoding/binary"

	"ringstore/bitvector"
	"ringstore/errutil"
	"ringstore/wavelet"
)

// Column is one BWT column: L (the attribute sequence, position 0 a
// sentinel) stored as a wavelet matrix, and C (cumulative counts)
// stored as a bit vector with 1s at positions C[v]+v.
type Column struct {
	l *wavelet.Matrix
	c bitvector.BitVector
}

// Build constructs a Column from L (length n+1, L[0] is the sentinel 0)
// and the cumulative-count array cArr (length sigma+2: cArr[0] is a
// dummy 0 standing for the sentinel, cArr[v] for v in [1, sigma] is the
// starting position of symbol v, cArr[sigma+1] == n+1). flavor selects the wavelet
// matrix's bit-vector representation; the C bit vector always uses a
// full select index.
func Build(l []uint64, cArr []uint64, sigma uint64, flavor bitvector.Flavor) *Column {
	builder := bitvector.NewBuilder(bitvector.FlavorPlainSelect)
	size := cArr[len(cArr)-1] + 1 + uint64(len(cArr))
	bits := make([]bool, size)
	for i, v := range cArr {
		bits[v+uint64(i)] = true
	}
	for _, b := range bits {
		builder.PushBack(b)
	}
	return &Column{
		l: wavelet.Build(l, sigma, flavor),
		c: builder.Build(),
	}
}

// GetC returns the starting position of symbol v in L. The C bit
// vector has 1s at positions C[i]+i, so the (v+1)-th set bit sits at
// C[v]+v.
func (col *Column) GetC(v uint64) uint64 {
	return col.c.Select1(v) - v
}

// NElems returns the number of occurrences of val in L.
func (col *Column) NElems(val uint64) uint64 {
	return col.GetC(val+1) - col.GetC(val)
}

// LF is the Burrows-Wheeler back-walk from position i.
func (col *Column) LF(i uint64) uint64 {
	s := col.l.Access(i)
	return col.GetC(s) + col.l.Rank(i, s) - 1
}

// BackwardStep narrows [leftEnd, rightEnd] to the sub-range of rows
// whose symbol equals value, returned as (rank(leftEnd,value),
// rank(rightEnd+1,value)-1) — still expressed in L's own coordinates.
func (col *Column) BackwardStep(leftEnd, rightEnd, value uint64) (uint64, uint64) {
	return col.l.Rank(leftEnd, value), col.l.Rank(rightEnd+1, value) - 1
}

// BsearchC returns the symbol whose C-block contains position value,
// plus one: callers subtract one after locating the block.
func (col *Column) BsearchC(value uint64) uint64 {
	return col.c.Rank1(col.c.Select0(value))
}

// Ranky is a plain rank(pos, val) on L.
func (col *Column) Ranky(pos, val uint64) uint64 {
	return col.l.Rank(pos, val)
}

// Rank treats pos as a symbol value, not a position: it returns
// rank(GetC(pos), val), matching the reference's overloaded "rank"
// member used by the ring's stride-within-C-block logic.
func (col *Column) Rank(pos, val uint64) uint64 {
	return col.l.Rank(col.GetC(pos), val)
}

// Select returns the position of the r-th occurrence of val in L.
func (col *Column) Select(r, val uint64) uint64 {
	return col.l.Select(r, val)
}

// SelectNext treats pos as a symbol value (as Rank does): it finds the
// first occurrence of val at logical offset >= GetC(pos). nElems is the
// total number of occurrences of val; if all of them lie before
// GetC(pos) the result is (0, 0).
func (col *Column) SelectNext(pos, val, nElems uint64) (uint64, uint64) {
	return col.l.SelectNext(col.GetC(pos), val, nElems)
}

// MinInRange is a range-minimum query over L.
func (col *Column) MinInRange(l, r uint64) uint64 {
	return col.l.RangeMinimumQuery(l, r)
}

// RangeNextValue returns the least value >= x in L[l..r], or 0.
func (col *Column) RangeNextValue(x, l, r uint64) uint64 {
	return col.l.RangeNextValue(x, l, r)
}

// ValuesInRange returns the distinct values occurring in L[posMin..posMax].
func (col *Column) ValuesInRange(posMin, posMax uint64) []uint64 {
	return col.l.ValuesInRange(posMin, posMax)
}

// BackwardSearch1Interval returns [C(v), C(v+1)-1], the interval of all
// rows whose current attribute is v.
func (col *Column) BackwardSearch1Interval(v uint64) (uint64, uint64) {
	return col.GetC(v), col.GetC(v+1) - 1
}

// BackwardSearch1Rank returns (rank(C(v),s), rank(C(v+1),s)).
func (col *Column) BackwardSearch1Rank(v, s uint64) (uint64, uint64) {
	return col.l.Rank(col.GetC(v), s), col.l.Rank(col.GetC(v+1), s)
}

// BackwardSearch2Interval composes a rank-pair (iLo, iHi) from another
// column with this column's C-offset for v, producing a concrete
// interval.
func (col *Column) BackwardSearch2Interval(v, iLo, iHi uint64) (uint64, uint64) {
	c := col.GetC(v)
	return c + iLo, c + iHi - 1
}

// BackwardSearch2Rank further extends a two-constant rank-pair by s.
func (col *Column) BackwardSearch2Rank(v, s, iLo, iHi uint64) (uint64, uint64) {
	c := col.GetC(v)
	return col.l.Rank(c+iLo, s), col.l.Rank(c+iHi, s)
}

// InverseSelect returns (rank, value) of the symbol stored at pos.
func (col *Column) InverseSelect(pos uint64) (uint64, uint64) {
	return col.l.InverseSelect(pos)
}

// At returns the symbol stored at position i.
func (col *Column) At(i uint64) uint64 {
	return col.l.Access(i)
}

// MarshalBinary encodes the column as the wavelet-matrix payload
// followed by the C bit vector's own payload, length-prefixed, matching
// the member order of the reference's bwt::serialize.
func (col *Column) MarshalBinary() ([]byte, error) {
	lBytes, err := col.l.MarshalBinary()
	if err != nil {
		return nil, err
	}
	cBytes, err := bitvector.Marshal(col.c)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 8+len(lBytes)+8+len(cBytes))
	binary.LittleEndian.PutUint64(buf[0:8], uint64(len(lBytes)))
	copy(buf[8:], lBytes)
	off := 8 + len(lBytes)
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(len(cBytes)))
	copy(buf[off+8:], cBytes)
	return buf, nil
}

// UnmarshalBinary decodes a column previously written by MarshalBinary.
func (col *Column) UnmarshalBinary(data []byte) error {
	errutil.BugOn(len(data) < 8, "bwt: payload too short")
	lLen := binary.LittleEndian.Uint64(data[0:8])
	errutil.BugOn(uint64(len(data)) < 8+lLen+8, "bwt: truncated wavelet-matrix payload")
	col.l = &wavelet.Matrix{}
	if err := col.l.UnmarshalBinary(data[8 : 8+lLen]); err != nil {
		return err
	}
	off := 8 + lLen
	cLen := binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	errutil.BugOn(uint64(len(data)) < off+cLen, "bwt: truncated C payload")
	c, err := bitvector.Unmarshal(bitvector.FlavorPlainSelect, data[off:off+cLen])
	if err != nil {
		return err
	}
	col.c = c
	return nil
}
