// Package beamtest builds synthetic BEAM containers for tests.
package beamtest

import (
	"bytes"
	"encoding/binary"

	"github.com/klauspost/compress/zlib"
)

// Builder assembles a container byte by byte, handling the envelope header,
// chunk padding, and the payload size field.
type Builder struct {
	chunks []chunk
}

type chunk struct {
	id   string
	body []byte
}

// NewBuilder returns an empty container builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Chunk appends a chunk with the given 4-byte id and body.
func (b *Builder) Chunk(id string, body []byte) *Builder {
	if len(id) != 4 {
		panic("beamtest: chunk id must be 4 bytes")
	}
	b.chunks = append(b.chunks, chunk{id: id, body: body})
	return b
}

// Bytes assembles the container: "FOR1", payload size, "BEAM", then every
// chunk as id + length + body padded to a 4-byte boundary.
func (b *Builder) Bytes() []byte {
	var payload bytes.Buffer
	payload.WriteString("BEAM")
	for _, c := range b.chunks {
		payload.WriteString(c.id)
		payload.Write(U32(uint32(len(c.body))))
		payload.Write(c.body)
		if pad := (4 - len(c.body)%4) % 4; pad > 0 {
			payload.Write(make([]byte, pad))
		}
	}

	var out bytes.Buffer
	out.WriteString("FOR1")
	out.Write(U32(uint32(payload.Len())))
	out.Write(payload.Bytes())
	return out.Bytes()
}

// U32 encodes values as big-endian 32-bit integers.
func U32(vs ...uint32) []byte {
	out := make([]byte, 0, 4*len(vs))
	for _, v := range vs {
		out = binary.BigEndian.AppendUint32(out, v)
	}
	return out
}

// AtomChunk encodes an atom table body: a count then length-prefixed names.
func AtomChunk(names ...string) []byte {
	var body bytes.Buffer
	body.Write(U32(uint32(len(names))))
	for _, name := range names {
		body.WriteByte(byte(len(name)))
		body.WriteString(name)
	}
	return body.Bytes()
}

// FunctionChunk encodes a count-prefixed list of 3-word records, the shape
// shared by the ImpT, ExpT, and LocT chunks.
func FunctionChunk(records ...[3]uint32) []byte {
	var body bytes.Buffer
	body.Write(U32(uint32(len(records))))
	for _, rec := range records {
		body.Write(U32(rec[0], rec[1], rec[2]))
	}
	return body.Bytes()
}

// CodeChunk encodes a bytecode chunk body with a 16-byte header.
func CodeChunk(instructionSet, maxOpcode, labels, functions uint32, bytecode []byte) []byte {
	var body bytes.Buffer
	body.Write(U32(16, instructionSet, maxOpcode, labels, functions))
	body.Write(bytecode)
	return body.Bytes()
}

// LiteralChunk encodes a literal table body holding the given term blobs.
// When compressed is true the table is deflated as compilers usually emit it;
// otherwise it is stored with the uncompressed-size field set to zero.
func LiteralChunk(compressed bool, terms ...[]byte) []byte {
	var table bytes.Buffer
	table.Write(U32(uint32(len(terms))))
	for _, term := range terms {
		table.Write(U32(uint32(len(term))))
		table.Write(term)
	}

	var body bytes.Buffer
	if !compressed {
		body.Write(U32(0))
		body.Write(table.Bytes())
		return body.Bytes()
	}
	body.Write(U32(uint32(table.Len())))
	zw := zlib.NewWriter(&body)
	if _, err := zw.Write(table.Bytes()); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return body.Bytes()
}

// Fixture builds the canonical test module: a container with exactly 10
// chunks whose atom, import, and export tables match the module
//
//	-module(test).
//
// compiled with default options (atoms test, erlang, get_module_info,
// module_info; two get_module_info imports; two module_info exports).
func Fixture() []byte {
	return NewBuilder().
		Chunk("AtU8", AtomChunk("test", "erlang", "get_module_info", "module_info")).
		Chunk("Code", CodeChunk(0, 169, 7, 2, []byte{1, 16, 2, 18, 34, 0})).
		Chunk("StrT", nil).
		Chunk("ImpT", FunctionChunk([3]uint32{2, 3, 1}, [3]uint32{2, 3, 2})).
		Chunk("ExpT", FunctionChunk([3]uint32{4, 1, 4}, [3]uint32{4, 0, 2})).
		Chunk("LocT", FunctionChunk()).
		Chunk("LitT", LiteralChunk(true, []byte{131, 100, 0, 2, 'o', 'k'})).
		Chunk("Meta", []byte{131, 106, 0}).
		Chunk("Line", U32(0, 0, 0, 0, 1)).
		Chunk("Type", U32(1)).
		Bytes()
}
