// Package wavelet implements a wavelet matrix over a bounded-integer
// alphabet, built from a stack of bitvector.BitVector levels (one per bit
// of the alphabet, most significant first). It is the one component in
// this repository with no direct library counterpart in the example
// pack: the operations below (Access/Rank/Select/InverseSelect/
// RangeMinimumQuery/RangeNextValue/ValuesInRange/SelectNext) are the
// "assumed available from an external library" primitive the rest of
// the system is built on, implemented here over real rank/select
// bitvectors rather than adopted from an off-the-shelf package.
package wavelet

import (
	"encoding/binary"
	"math/bits"

	"ringstore/bitvector"
	"ringstore/errutil"
)

// Matrix is a wavelet matrix over values in [0, sigma].
type Matrix struct {
	flavor bitvector.Flavor
	levels []bitvector.BitVector
	zeros  []uint64 // zeros[k] = number of zero bits at level k
	sigma  uint64
	n      uint64 // sequence length
}

// Build constructs a wavelet matrix over seq, whose values must all be
// in [0, sigma]. levels are built most-significant-bit first, the
// standard stable-partition construction.
func Build(seq []uint64, sigma uint64, flavor bitvector.Flavor) *Matrix {
	nLevels := bitWidth(sigma)
	m := &Matrix{
		flavor: flavor,
		levels: make([]bitvector.BitVector, nLevels),
		zeros:  make([]uint64, nLevels),
		sigma:  sigma,
		n:      uint64(len(seq)),
	}
	if nLevels == 0 {
		return m
	}

	cur := make([]uint64, len(seq))
	copy(cur, seq)

	for lvl := 0; lvl < nLevels; lvl++ {
		bitPos := nLevels - 1 - lvl
		builder := bitvector.NewBuilder(flavor)
		zeros := make([]uint64, 0, len(cur))
		ones := make([]uint64, 0, len(cur))
		var zeroCount uint64
		for _, v := range cur {
			bit := (v>>uint(bitPos))&1 == 1
			builder.PushBack(bit)
			if bit {
				ones = append(ones, v)
			} else {
				zeros = append(zeros, v)
				zeroCount++
			}
		}
		m.levels[lvl] = builder.Build()
		m.zeros[lvl] = zeroCount
		cur = append(zeros, ones...)
	}
	return m
}

func bitWidth(sigma uint64) int {
	if sigma == 0 {
		return 0
	}
	return bits.Len64(sigma)
}

func (m *Matrix) Len() uint64 { return m.n }

// Access returns the value stored at position i.
func (m *Matrix) Access(i uint64) uint64 {
	errutil.BugOn(i >= m.n, "wavelet: Access(%d) out of range (len %d)", i, m.n)
	var v uint64
	for lvl := range m.levels {
		bit := m.levels[lvl].Access(i)
		v <<= 1
		if bit {
			v |= 1
			i = m.zeros[lvl] + m.levels[lvl].Rank1(i)
		} else {
			i = m.levels[lvl].Rank0(i)
		}
	}
	return v
}

// descend walks the levels of val, returning the final [lo, hi) range in
// the last level; the range collapses to empty as soon as no element of
// [lo, hi) shares val's prefix. Used by Rank and Select.
func (m *Matrix) descend(val, lo, hi uint64) (uint64, uint64) {
	nLevels := len(m.levels)
	for lvl := 0; lvl < nLevels; lvl++ {
		bitPos := nLevels - 1 - lvl
		bit := (val>>uint(bitPos))&1 == 1
		bv := m.levels[lvl]
		if bit {
			lo = m.zeros[lvl] + bv.Rank1(lo)
			hi = m.zeros[lvl] + bv.Rank1(hi)
		} else {
			lo = bv.Rank0(lo)
			hi = bv.Rank0(hi)
		}
		if lo >= hi {
			return lo, lo
		}
	}
	return lo, hi
}

// Rank returns the number of occurrences of val in positions [0, i).
func (m *Matrix) Rank(i, val uint64) uint64 {
	if len(m.levels) == 0 {
		if val == 0 {
			return i
		}
		return 0
	}
	lo, hi := m.descend(val, 0, i)
	return hi - lo
}

// Select returns the position of the r-th (0-indexed) occurrence of val.
func (m *Matrix) Select(r, val uint64) uint64 {
	if len(m.levels) == 0 {
		return r
	}
	lo, _ := m.descend(val, 0, m.n)
	return m.selectFromSorted(lo+r, val)
}

// selectFromSorted walks back up from a position in the last-level
// sorted order (leaf rank pos) to its position in the original sequence.
func (m *Matrix) selectFromSorted(pos, val uint64) uint64 {
	nLevels := len(m.levels)
	for lvl := nLevels - 1; lvl >= 0; lvl-- {
		bitPos := nLevels - 1 - lvl
		bit := (val>>uint(bitPos))&1 == 1
		bv := m.levels[lvl]
		if bit {
			pos = bv.Select1(pos - m.zeros[lvl])
		} else {
			pos = bv.Select0(pos)
		}
	}
	return pos
}

// InverseSelect returns (rank, value): the number of occurrences of
// Access(i) within [0, i), and the value itself.
func (m *Matrix) InverseSelect(i uint64) (uint64, uint64) {
	errutil.BugOn(i >= m.n, "wavelet: InverseSelect(%d) out of range (len %d)", i, m.n)
	var v uint64
	lo, hi := uint64(0), m.n
	pos := i
	for lvl := range m.levels {
		bv := m.levels[lvl]
		bit := bv.Access(pos)
		v <<= 1
		if bit {
			v |= 1
			pos = m.zeros[lvl] + bv.Rank1(pos)
			lo = m.zeros[lvl] + bv.Rank1(lo)
			hi = m.zeros[lvl] + bv.Rank1(hi)
		} else {
			pos = bv.Rank0(pos)
			lo = bv.Rank0(lo)
			hi = bv.Rank0(hi)
		}
	}
	return pos - lo, v
}

// RangeMinimumQuery returns the minimum value occurring in [l, r]
// (inclusive). Used by the ring for open-trie min_* operations.
func (m *Matrix) RangeMinimumQuery(l, r uint64) uint64 {
	if l > r {
		return 0
	}
	return m.rmq(0, len(m.levels), l, r+1)
}

func (m *Matrix) rmq(lvl, nLevels int, lo, hi uint64) uint64 {
	if lo >= hi {
		return 0
	}
	if lvl == nLevels {
		return 0
	}
	bv := m.levels[lvl]
	zerosLo, zerosHi := bv.Rank0(lo), bv.Rank0(hi)
	if zerosLo < zerosHi {
		return m.rmq(lvl+1, nLevels, zerosLo, zerosHi)
	}
	onesLo := m.zeros[lvl] + bv.Rank1(lo)
	onesHi := m.zeros[lvl] + bv.Rank1(hi)
	return (uint64(1) << uint(nLevels-lvl-1)) + m.rmq(lvl+1, nLevels, onesLo, onesHi)
}

// RangeNextValue returns the least value >= x occurring within [l, r]
// (inclusive), or 0 if there is none. 0 is reserved as a sentinel and is
// never a stored value.
func (m *Matrix) RangeNextValue(x, l, r uint64) uint64 {
	if l > r {
		return 0
	}
	// No stored value is wider than the levels, so none can be >= x.
	if nLevels := len(m.levels); nLevels < 64 && x>>uint(nLevels) != 0 {
		return 0
	}
	found, v := m.nextValue(0, len(m.levels), l, r+1, x, 0)
	if !found {
		return 0
	}
	return v
}

// nextValue recurses over the wavelet matrix levels looking for the
// smallest value >= x in [lo, hi); prefix accumulates the bits fixed so
// far. Mirrors the standard "range_next_value" wavelet tree algorithm:
// try the branch compatible with x first, then the other branch only if
// it can still beat what's been found.
func (m *Matrix) nextValue(lvl, nLevels int, lo, hi, x, prefix uint64) (bool, uint64) {
	if lo >= hi {
		return false, 0
	}
	if lvl == nLevels {
		return true, prefix
	}
	bitPos := nLevels - lvl - 1
	xBit := (x >> uint(bitPos)) & 1

	bv := m.levels[lvl]
	zerosLo, zerosHi := bv.Rank0(lo), bv.Rank0(hi)
	onesLo, onesHi := m.zeros[lvl]+bv.Rank1(lo), m.zeros[lvl]+bv.Rank1(hi)

	if xBit == 0 {
		if ok, v := m.nextValue(lvl+1, nLevels, zerosLo, zerosHi, x, prefix<<1); ok {
			return true, v
		}
		// The 1-branch already exceeds x at this bit, so the remaining
		// bits of x no longer constrain the search: take the branch
		// minimum.
		return m.nextValue(lvl+1, nLevels, onesLo, onesHi, 0, prefix<<1|1)
	}
	return m.nextValue(lvl+1, nLevels, onesLo, onesHi, x, prefix<<1|1)
}

// ValuesInRange returns the distinct values occurring in [l, r]
// (inclusive), in ascending order.
func (m *Matrix) ValuesInRange(l, r uint64) []uint64 {
	if l > r {
		return nil
	}
	var out []uint64
	m.collect(0, len(m.levels), l, r+1, 0, &out)
	return out
}

func (m *Matrix) collect(lvl, nLevels int, lo, hi, prefix uint64, out *[]uint64) {
	if lo >= hi {
		return
	}
	if lvl == nLevels {
		*out = append(*out, prefix)
		return
	}
	bv := m.levels[lvl]
	zerosLo, zerosHi := bv.Rank0(lo), bv.Rank0(hi)
	onesLo, onesHi := m.zeros[lvl]+bv.Rank1(lo), m.zeros[lvl]+bv.Rank1(hi)
	m.collect(lvl+1, nLevels, zerosLo, zerosHi, prefix<<1, out)
	m.collect(lvl+1, nLevels, onesLo, onesHi, prefix<<1|1, out)
}

// SelectNext finds the first occurrence of val at position >= pos,
// given that val occurs nElems times in total. It returns the position
// and the occurrence's 0-indexed rank among all occurrences of val; a
// (0, 0) pair means no occurrence at or after pos. Used by the ring's
// stride-within-C-block seeks and descents; it is cheap only with
// FlavorPlainSelect, where Select has a sampled index.
func (m *Matrix) SelectNext(pos, val, nElems uint64) (uint64, uint64) {
	r := m.Rank(pos, val)
	if r >= nElems {
		return 0, 0
	}
	return m.Select(r, val), r
}

// encodedMatrix lists the fields of the on-disk form: flavor, sigma,
// sequence length, then each level's bitvector payload. MarshalBinary
// and UnmarshalBinary do not use this type; they write and read the
// fields by hand, with a level count and a length prefix per level.
type encodedMatrix struct {
	Flavor bitvector.Flavor
	Sigma  uint64
	N      uint64
	Levels [][]byte
}

// MarshalBinary encodes the matrix per persist's exact-byte-reproducible
// layout: a fixed header followed by each level's bitvector payload,
// length-prefixed.
func (m *Matrix) MarshalBinary() ([]byte, error) {
	levels := make([][]byte, len(m.levels))
	total := 0
	for i, lvl := range m.levels {
		b, err := bitvector.Marshal(lvl)
		if err != nil {
			return nil, err
		}
		levels[i] = b
		total += 8 + len(b)
	}
	buf := make([]byte, 1+8+8+8+total)
	buf[0] = byte(m.flavor)
	binary.LittleEndian.PutUint64(buf[1:9], m.sigma)
	binary.LittleEndian.PutUint64(buf[9:17], m.n)
	binary.LittleEndian.PutUint64(buf[17:25], uint64(len(levels)))
	off := 25
	for _, b := range levels {
		binary.LittleEndian.PutUint64(buf[off:off+8], uint64(len(b)))
		off += 8
		copy(buf[off:], b)
		off += len(b)
	}
	return buf, nil
}

// UnmarshalBinary decodes a matrix previously written by MarshalBinary,
// rebuilding each level's zero-count from its bitvector's own Ones/Len.
func (m *Matrix) UnmarshalBinary(data []byte) error {
	errutil.BugOn(len(data) < 25, "wavelet: payload too short (%d bytes)", len(data))
	m.flavor = bitvector.Flavor(data[0])
	m.sigma = binary.LittleEndian.Uint64(data[1:9])
	m.n = binary.LittleEndian.Uint64(data[9:17])
	nLevels := binary.LittleEndian.Uint64(data[17:25])
	m.levels = make([]bitvector.BitVector, nLevels)
	m.zeros = make([]uint64, nLevels)
	off := 25
	for i := uint64(0); i < nLevels; i++ {
		errutil.BugOn(uint64(len(data)) < uint64(off)+8, "wavelet: truncated level header")
		length := binary.LittleEndian.Uint64(data[off : off+8])
		off += 8
		errutil.BugOn(uint64(len(data)) < uint64(off)+length, "wavelet: truncated level payload")
		bv, err := bitvector.Unmarshal(m.flavor, data[off:uint64(off)+length])
		if err != nil {
			return err
		}
		m.levels[i] = bv
		m.zeros[i] = bv.Rank0(bv.Len())
		off += int(length)
	}
	return nil
}
