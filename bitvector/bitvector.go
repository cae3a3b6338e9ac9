// Package bitvector adapts bit vectors with rank/select to a single
// interface, in three flavors: a hand-rolled plain vector, the same
// vector with an eager select index, and a wrapper over a real
// entropy-compressed rank/select dictionary. A wavelet matrix is built
// from a stack of these, one per bit level.
package bitvector

import "ringstore/errutil"

// BitVector is the uniform facade every flavor in this package satisfies.
// Positions and ranks are 0-indexed throughout; Select1(r) is the position
// of the (r+1)-th set bit.
type BitVector interface {
	Len() uint64
	Access(i uint64) bool
	// Rank1 returns the number of set bits in [0, i).
	Rank1(i uint64) uint64
	// Rank0 returns the number of clear bits in [0, i).
	Rank0(i uint64) uint64
	// Select1 returns the position of the r-th (0-indexed) set bit, or
	// Len() if there is no such bit.
	Select1(r uint64) uint64
	// Select0 returns the position of the r-th (0-indexed) clear bit, or
	// Len() if there is no such bit.
	Select0(r uint64) uint64
	// Ones returns the total number of set bits.
	Ones() uint64
}

// Flavor selects the concrete BitVector implementation a wavelet matrix
// builds its levels from. It is recorded in the persisted index so the
// loader can dispatch to the matching decoder.
type Flavor uint8

const (
	// FlavorPlain is a hand-rolled rank-only bit vector; Select falls
	// back to scanning bit by bit from the start of the vector.
	FlavorPlain Flavor = iota
	// FlavorPlainSelect is FlavorPlain plus an eagerly sampled select
	// index, giving O(1) amortized Select.
	FlavorPlainSelect
	// FlavorRSDic wraps github.com/hillbig/rsdic, a real
	// entropy-compressed rank/select dictionary.
	FlavorRSDic
)

func (f Flavor) String() string {
	switch f {
	case FlavorPlain:
		return "plain"
	case FlavorPlainSelect:
		return "plain-select"
	case FlavorRSDic:
		return "rsdic"
	default:
		return "unknown"
	}
}

// Builder accumulates bits with PushBack and produces an immutable
// BitVector with Build. Every flavor's builder satisfies this.
type Builder interface {
	PushBack(bit bool)
	Build() BitVector
}

// NewBuilder returns a fresh builder for the given flavor.
func NewBuilder(f Flavor) Builder {
	switch f {
	case FlavorPlain:
		return newPlainBuilder(false)
	case FlavorPlainSelect:
		return newPlainBuilder(true)
	case FlavorRSDic:
		return newRSDicBuilder()
	default:
		panic("bitvector: unknown flavor")
	}
}

// binaryCodec is satisfied by every concrete BitVector; it is kept
// unexported because callers serialize through Marshal/Unmarshal, which
// know which concrete type to allocate for a given Flavor.
type binaryCodec interface {
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(data []byte) error
}

// Marshal encodes bv to its persisted byte form. The caller is
// responsible for recording bv's Flavor alongside the bytes, since the
// payload alone does not identify which concrete type produced it.
func Marshal(bv BitVector) ([]byte, error) {
	codec, ok := bv.(binaryCodec)
	errutil.BugOn(!ok, "bitvector: %T does not support binary encoding", bv)
	return codec.MarshalBinary()
}

// Unmarshal decodes a BitVector of the given flavor from data, as
// produced by Marshal.
func Unmarshal(f Flavor, data []byte) (BitVector, error) {
	var v binaryCodec
	switch f {
	case FlavorPlain:
		v = &plainVector{hasSelect: false}
	case FlavorPlainSelect:
		v = &plainVector{hasSelect: true}
	case FlavorRSDic:
		v = &rsdicVector{}
	default:
		errutil.Bug("bitvector: unknown flavor %d", f)
	}
	if err := v.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return v.(BitVector), nil
}
