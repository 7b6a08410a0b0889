package beamfile

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// LiteralTable is the decoded "LitT" chunk: the module's literal terms, each
// kept as an opaque external-term-format blob. Like CodeInfo it references no
// atoms and is read through [File.ReadLiterals].
type LiteralTable struct {
	// Literals holds one encoded term per table entry, in table order.
	Literals [][]byte
}

// ChunkID returns the identifier of the literal table chunk.
func (*LiteralTable) ChunkID() ID { return LiteralTableID }

// decode parses the chunk body: a big-endian u32 uncompressed size followed
// by a zlib stream. A size of zero marks a body stored uncompressed, as
// written by newer compilers. The (un)compressed payload is a u32 count then
// count size-prefixed term blobs.
func (t *LiteralTable) decode(data []byte) error {
	c := cursor{data: data, what: "literal table"}
	uncompressedLen := c.u32()
	body := c.rest()
	if c.err != nil {
		return c.err
	}

	if uncompressedLen != 0 {
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("beamfile: decode literal table: %w", err)
		}
		defer zr.Close()
		// Grow the buffer as bytes arrive rather than trusting the header:
		// a corrupt size field must not translate into a giant allocation.
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, io.LimitReader(zr, int64(uncompressedLen)+1)); err != nil {
			return fmt.Errorf("beamfile: decode literal table: %w", err)
		}
		body = buf.Bytes()
		if uint32(len(body)) != uncompressedLen {
			return fmt.Errorf("beamfile: decode literal table: inflated to %d bytes, header says %d", len(body), uncompressedLen)
		}
	}

	bc := cursor{data: body, what: "literal table"}
	count := bc.u32()
	literals := make([][]byte, 0, entryCap(count, 4, len(body)))
	for i := uint32(0); i < count; i++ {
		term := bc.bytes(bc.u32())
		if bc.err != nil {
			return bc.err
		}
		literals = append(literals, bytes.Clone(term))
	}
	t.Literals = literals
	return bc.err
}

// ReadLiterals reads and decodes the literal table.
func (f *File[A]) ReadLiterals() (*LiteralTable, error) {
	var t LiteralTable
	if err := f.readChunk(t.ChunkID(), t.decode); err != nil {
		return nil, err
	}
	return &t, nil
}
