package ringidx

import "ringstore/bwt"

// Interval is a [l, r] range (inclusive) within one of the ring's three
// BWT columns, plus two opportunistic cache slots used by the
// stride-within-C-block seeks: the most recently found value and its
// occurrence rank. The slots let DownSP/DownPO/DownOS reuse the work of
// the MinXInY/NextXInY call that preceded them.
type Interval struct {
	l, r      uint64
	curVal    uint64
	curRank   uint64
	hasStored bool
}

// NewInterval returns [l, r] with empty cache slots.
func NewInterval(l, r uint64) Interval {
	return Interval{l: l, r: r}
}

func (i Interval) Left() uint64  { return i.l }
func (i Interval) Right() uint64 { return i.r }

func (i Interval) Size() uint64 {
	if i.r < i.l {
		return 0
	}
	return i.r - i.l + 1
}

// Begin returns the minimum symbol of col within the interval.
func (i Interval) Begin(col *bwt.Column) uint64 {
	return col.MinInRange(i.l, i.r)
}

// NextValue returns the least symbol >= val of col within the interval,
// or 0 if none.
func (i Interval) NextValue(val uint64, col *bwt.Column) uint64 {
	return col.RangeNextValue(val, i.l, i.r)
}

// StoredValues returns the cached (value, rank) pair; ok is false when
// no seek has stored anything since the interval was created.
func (i Interval) StoredValues() (val, rank uint64, ok bool) {
	return i.curVal, i.curRank, i.hasStored
}

// SetStoredValues caches the value found by the latest stride seek and
// its occurrence rank.
func (i *Interval) SetStoredValues(val, rank uint64) {
	i.curVal = val
	i.curRank = rank
	i.hasStored = true
}
