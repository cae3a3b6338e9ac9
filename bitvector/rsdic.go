package bitvector

import (
	"ringstore/errutil"

	"github.com/hillbig/rsdic"
)

// rsdicVector wraps github.com/hillbig/rsdic, a practical
// entropy-compressed rank/select dictionary (Okanohara-Sadakane style).
// It is the "RRR-compressed" flavor the c-ring index type builds on.
type rsdicVector struct {
	rs *rsdic.RSDic
}

type rsdicBuilder struct {
	rs *rsdic.RSDic
}

func newRSDicBuilder() *rsdicBuilder {
	return &rsdicBuilder{rs: rsdic.New()}
}

func (b *rsdicBuilder) PushBack(bit bool) {
	b.rs.PushBack(bit)
}

func (b *rsdicBuilder) Build() BitVector {
	return &rsdicVector{rs: b.rs}
}

func (v *rsdicVector) Len() uint64 { return v.rs.Num() }

func (v *rsdicVector) Access(i uint64) bool {
	errutil.BugOn(i >= v.rs.Num(), "bitvector: Access(%d) out of range (size %d)", i, v.rs.Num())
	return v.rs.Bit(i)
}

func (v *rsdicVector) Ones() uint64 {
	return v.rs.Rank(v.rs.Num(), true)
}

func (v *rsdicVector) Rank1(i uint64) uint64 {
	return v.rs.Rank(i, true)
}

func (v *rsdicVector) Rank0(i uint64) uint64 {
	return v.rs.Rank(i, false)
}

// Select1 returns the position of the r-th (0-indexed) set bit.
// rsdic.Select(rank, b) is the position of the (rank+1)-th occurrence
// of b, the same convention.
func (v *rsdicVector) Select1(r uint64) uint64 {
	if r >= v.Ones() {
		return v.rs.Num()
	}
	return v.rs.Select(r, true)
}

func (v *rsdicVector) Select0(r uint64) uint64 {
	zeros := v.rs.Num() - v.Ones()
	if r >= zeros {
		return v.rs.Num()
	}
	return v.rs.Select(r, false)
}

// MarshalBinary exposes the underlying rsdic encoding for persist's
// exact-byte-reproducible layout.
func (v *rsdicVector) MarshalBinary() ([]byte, error) {
	return v.rs.MarshalBinary()
}

func (v *rsdicVector) UnmarshalBinary(data []byte) error {
	v.rs = rsdic.New()
	return v.rs.UnmarshalBinary(data)
}
