package beamfile

import "fmt"

// CodeInfo is the decoded header of the "Code" chunk.
//
// Only the fixed header is interpreted; the instruction stream itself is
// exposed as raw bytes. CodeInfo references no atoms, so it is read through
// [File.ReadCode] rather than the ChunkDecoder contract.
type CodeInfo struct {
	// InstructionSet is the version of the instruction set the module
	// was compiled for.
	InstructionSet uint32

	// MaxOpcode is the highest opcode used by the bytecode.
	MaxOpcode uint32

	// LabelCount is the number of labels in the bytecode.
	LabelCount uint32

	// FunctionCount is the number of functions in the module.
	FunctionCount uint32

	// Bytecode is the raw instruction stream following the header.
	Bytecode []byte
}

// ChunkID returns the identifier of the bytecode chunk.
func (*CodeInfo) ChunkID() ID { return CodeID }

// decode parses the chunk body. It starts with a big-endian u32 header size
// (bytes after that field), then the four header fields; emitters may extend
// the header, so anything between the known fields and the declared size is
// skipped.
func (ci *CodeInfo) decode(data []byte) error {
	c := cursor{data: data, what: "code header"}
	headerLen := c.u32()
	ci.InstructionSet = c.u32()
	ci.MaxOpcode = c.u32()
	ci.LabelCount = c.u32()
	ci.FunctionCount = c.u32()
	if c.err != nil {
		return c.err
	}
	if headerLen < 16 || int(headerLen) > len(data)-4 {
		return fmt.Errorf("beamfile: decode code header: bad header size %d", headerLen)
	}
	c.bytes(headerLen - 16)
	ci.Bytecode = c.rest()
	return c.err
}

// ReadCode reads and decodes the bytecode chunk header.
func (f *File[A]) ReadCode() (*CodeInfo, error) {
	var ci CodeInfo
	if err := f.readChunk(ci.ChunkID(), ci.decode); err != nil {
		return nil, err
	}
	return &ci, nil
}
