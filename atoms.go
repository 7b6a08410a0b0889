package beamfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

// AtomTable is the ordered atom table decoded from the container.
//
// The wire format references atoms by 1-based index; 0 is reserved to mean
// "no atom". Entry 1 is the module's own name. A table, once built, is
// immutable and safe to share between readers.
type AtomTable[A any] struct {
	atoms []A
}

// NewAtomTable wraps an already-interned atom sequence. Most callers get
// their table from File.IndexAtoms instead.
func NewAtomTable[A any](atoms []A) *AtomTable[A] {
	return &AtomTable[A]{atoms: atoms}
}

// Len returns the number of atoms in the table.
func (t *AtomTable[A]) Len() int {
	return len(t.atoms)
}

// Get resolves a 1-based wire reference. References of 0 or beyond the table
// fail with ErrAtomRef.
func (t *AtomTable[A]) Get(n uint32) (A, error) {
	if n == 0 || n > uint32(len(t.atoms)) {
		var zero A
		return zero, fmt.Errorf("%w: %d (table has %d atoms)", ErrAtomRef, n, len(t.atoms))
	}
	return t.atoms[n-1], nil
}

// All returns the atoms in table order. The returned slice is the table's
// backing storage and must not be modified.
func (t *AtomTable[A]) All() []A {
	return t.atoms
}

// IndexAtoms decodes the atom chunk and stores the table for typed reads.
//
// The chunk is resolved by probing "AtU8" and, only if that id is absent,
// "Atom". Every decoded name is passed to interner in encounter order.
// Calling IndexAtoms again rebuilds the table from scratch.
func (f *File[A]) IndexAtoms(interner Interner[A]) error {
	raw, err := f.readAtomChunk()
	if err != nil {
		return err
	}

	names, err := decodeAtomNames(raw)
	if err != nil {
		return err
	}

	f.atoms = NewAtomTable(interner.InternMany(names))
	f.log().Debug("indexed atoms", "count", len(names))
	return nil
}

// readAtomChunk walks the probe list, falling back only when the previous id
// is missing. I/O and structural errors stop the probe immediately.
func (f *File[A]) readAtomChunk() ([]byte, error) {
	var raw []byte
	var err error
	for _, id := range atomChunkProbe {
		raw, err = f.ReadRaw(id)
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, ErrMissingChunk) {
			return nil, err
		}
	}
	return nil, err
}

// decodeAtomNames decodes the atom chunk body: a big-endian u32 count, then
// count entries of a 1-byte length prefix and that many bytes of UTF-8 text.
func decodeAtomNames(data []byte) ([]string, error) {
	c := cursor{data: data, what: "atom table"}
	count := c.u32()
	names := make([]string, 0, min(int(count), len(data)))
	for i := uint32(0); i < count; i++ {
		name := c.bytes(uint32(c.u8()))
		if c.err != nil {
			return nil, c.err
		}
		if !utf8.Valid(name) {
			return nil, fmt.Errorf("%w: atom %d", ErrAtomText, i+1)
		}
		names = append(names, string(name))
	}
	return names, c.err
}

// AtomTable returns the decoded atom table, or nil before IndexAtoms.
func (f *File[A]) AtomTable() *AtomTable[A] {
	return f.atoms
}

// Atoms returns the atoms in table order, or nil before IndexAtoms.
func (f *File[A]) Atoms() []A {
	if f.atoms == nil {
		return nil
	}
	return f.atoms.All()
}

// Name returns the module's own name: the first atom of the table.
// ok is false before IndexAtoms or when the table is empty.
func (f *File[A]) Name() (name A, ok bool) {
	if f.atoms == nil || f.atoms.Len() == 0 {
		return name, false
	}
	name, _ = f.atoms.Get(1)
	return name, true
}

// cursor is a bounds-checked big-endian reader over a chunk body.
// The first failure sticks; subsequent reads return zero values.
type cursor struct {
	data []byte
	off  int
	what string
	err  error
}

func (c *cursor) fail() {
	if c.err == nil {
		c.err = fmt.Errorf("beamfile: decode %s: truncated at byte %d", c.what, c.off)
	}
}

func (c *cursor) u8() uint8 {
	if c.err != nil || c.off+1 > len(c.data) {
		c.fail()
		return 0
	}
	b := c.data[c.off]
	c.off++
	return b
}

func (c *cursor) u32() uint32 {
	if c.err != nil || c.off+4 > len(c.data) {
		c.fail()
		return 0
	}
	v := binary.BigEndian.Uint32(c.data[c.off:])
	c.off += 4
	return v
}

func (c *cursor) bytes(n uint32) []byte {
	if c.err != nil || c.off+int(n) > len(c.data) {
		c.fail()
		return nil
	}
	b := c.data[c.off : c.off+int(n)]
	c.off += int(n)
	return b
}

func (c *cursor) rest() []byte {
	if c.err != nil {
		return nil
	}
	b := c.data[c.off:]
	c.off = len(c.data)
	return b
}
