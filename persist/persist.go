// Package persist serializes a ring index to a byte stream and back.
// The layout is the concatenation of the three BWT columns (B_S, B_P,
// B_O, each length-prefixed), the four machine-word fields max_s,
// max_p, max_o, n, and a trailing checksum of everything before it. A
// fixed header records a format version and the bit-vector flavor so
// the loader can dispatch. The encoding is exact-byte-reproducible for
// a given input.
package persist

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"

	"ringstore/bitvector"
	"ringstore/bwt"
	"ringstore/ringidx"
)

// ErrCorrupt reports a malformed index payload: short read, bad magic,
// version mismatch, or checksum failure. Fatal to the run.
var ErrCorrupt = errors.New("persist: corrupt index")

var magic = [4]byte{'R', 'I', 'N', 'G'}

const version = 1

// Save writes r to w.
func Save(w io.Writer, r *ringidx.Ring) error {
	body, err := encode(r)
	if err != nil {
		return err
	}
	sum := xxh3.Hash(body)
	var tail [8]byte
	binary.LittleEndian.PutUint64(tail[:], sum)
	if _, err := w.Write(body); err != nil {
		return err
	}
	_, err = w.Write(tail[:])
	return err
}

func encode(r *ringidx.Ring) ([]byte, error) {
	buf := make([]byte, 0, 6)
	buf = append(buf, magic[:]...)
	buf = append(buf, version, byte(r.Flavor()))
	for _, col := range []*bwt.Column{r.BwtS(), r.BwtP(), r.BwtO()} {
		payload, err := col.MarshalBinary()
		if err != nil {
			return nil, err
		}
		var lenField [8]byte
		binary.LittleEndian.PutUint64(lenField[:], uint64(len(payload)))
		buf = append(buf, lenField[:]...)
		buf = append(buf, payload...)
	}
	var words [32]byte
	binary.LittleEndian.PutUint64(words[0:8], r.MaxS())
	binary.LittleEndian.PutUint64(words[8:16], r.MaxP())
	binary.LittleEndian.PutUint64(words[16:24], r.MaxO())
	binary.LittleEndian.PutUint64(words[24:32], r.NTriples())
	buf = append(buf, words[:]...)
	return buf, nil
}

// Load reads a ring previously written by Save.
func Load(rd io.Reader) (*ringidx.Ring, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	if len(data) < 6+32+8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorrupt, len(data))
	}
	body, tail := data[:len(data)-8], data[len(data)-8:]
	if xxh3.Hash(body) != binary.LittleEndian.Uint64(tail) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	if [4]byte(body[0:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if body[4] != version {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrCorrupt, body[4], version)
	}
	flavor := bitvector.Flavor(body[5])

	off := uint64(6)
	cols := make([]*bwt.Column, 3)
	for i := range cols {
		if uint64(len(body)) < off+8 {
			return nil, fmt.Errorf("%w: truncated column header", ErrCorrupt)
		}
		n := binary.LittleEndian.Uint64(body[off : off+8])
		off += 8
		if uint64(len(body)) < off+n {
			return nil, fmt.Errorf("%w: truncated column payload", ErrCorrupt)
		}
		col := &bwt.Column{}
		if err := col.UnmarshalBinary(body[off : off+n]); err != nil {
			return nil, err
		}
		cols[i] = col
		off += n
	}
	if uint64(len(body)) != off+32 {
		return nil, fmt.Errorf("%w: trailing bytes", ErrCorrupt)
	}
	maxS := binary.LittleEndian.Uint64(body[off : off+8])
	maxP := binary.LittleEndian.Uint64(body[off+8 : off+16])
	maxO := binary.LittleEndian.Uint64(body[off+16 : off+24])
	n := binary.LittleEndian.Uint64(body[off+24 : off+32])

	return ringidx.FromParts(cols[0], cols[1], cols[2], maxS, maxP, maxO, n, flavor), nil
}

// SaveFile writes r to path, creating or truncating it.
func SaveFile(path string, r *ringidx.Ring) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Save(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads a ring from path.
func LoadFile(path string) (*ringidx.Ring, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}
