package beamfile

// ChunkDecoder turns a chunk's raw bytes into a structured value, resolving
// atom references against the table. Implementations declare the one chunk id
// they know how to decode.
type ChunkDecoder[A any] interface {
	// ChunkID is the identifier of the chunk this decoder handles.
	ChunkID() ID

	// DecodeChunk decodes the unpadded chunk body in place.
	DecodeChunk(data []byte, atoms *AtomTable[A]) error
}

// Read reads and decodes the chunk for decoder type C.
//
// The atom table must have been indexed first; otherwise Read fails with
// ErrAtomsNotIndexed. A chunk id absent from the index fails with
// ErrMissingChunk wrapped in a *ChunkError carrying the id.
//
//	imports, err := beamfile.Read[string, beamfile.ImportTable[string]](f)
func Read[A, C any, PC interface {
	*C
	ChunkDecoder[A]
}](f *File[A]) (*C, error) {
	var chunk C
	dec := PC(&chunk)
	if err := f.readChunk(dec.ChunkID(), func(raw []byte) error {
		return dec.DecodeChunk(raw, f.atoms)
	}); err != nil {
		return nil, err
	}
	return &chunk, nil
}

// readChunk applies the shared typed-read protocol: atom-table precondition,
// raw read, decode with the chunk id attached to any failure.
func (f *File[A]) readChunk(id ID, decode func(raw []byte) error) error {
	if f.atoms == nil {
		return &ChunkError{Op: "decode", ID: id, Err: ErrAtomsNotIndexed}
	}
	raw, err := f.ReadRaw(id)
	if err != nil {
		return err
	}
	if err := decode(raw); err != nil {
		return &ChunkError{Op: "decode", ID: id, Err: err}
	}
	return nil
}

// Import is one entry of the import table: a call target in another module.
type Import[A any] struct {
	Module   A
	Function A
	Arity    uint32
}

// ImportTable is the decoded "ImpT" chunk.
type ImportTable[A any] struct {
	Imports []Import[A]
}

// ChunkID implements ChunkDecoder.
func (*ImportTable[A]) ChunkID() ID { return ImportTableID }

// DecodeChunk implements ChunkDecoder. Each record is three big-endian u32s:
// module atom reference, function atom reference, arity.
func (t *ImportTable[A]) DecodeChunk(data []byte, atoms *AtomTable[A]) error {
	c := cursor{data: data, what: "import table"}
	count := c.u32()
	imports := make([]Import[A], 0, entryCap(count, 12, len(data)))
	for i := uint32(0); i < count; i++ {
		module, function, arity := c.u32(), c.u32(), c.u32()
		if c.err != nil {
			return c.err
		}
		imp := Import[A]{Arity: arity}
		var err error
		if imp.Module, err = atoms.Get(module); err != nil {
			return err
		}
		if imp.Function, err = atoms.Get(function); err != nil {
			return err
		}
		imports = append(imports, imp)
	}
	t.Imports = imports
	return nil
}

// Export is one entry of the export table: a function callable from outside
// the module, with the code label it starts at.
type Export[A any] struct {
	Function A
	Arity    uint32
	Label    uint32
}

// ExportTable is the decoded "ExpT" chunk.
type ExportTable[A any] struct {
	Exports []Export[A]
}

// ChunkID implements ChunkDecoder.
func (*ExportTable[A]) ChunkID() ID { return ExportTableID }

// DecodeChunk implements ChunkDecoder. Each record is three big-endian u32s:
// function atom reference, arity, label.
func (t *ExportTable[A]) DecodeChunk(data []byte, atoms *AtomTable[A]) error {
	exports, err := decodeFunctionRecords(data, "export table", atoms)
	if err != nil {
		return err
	}
	t.Exports = exports
	return nil
}

// LocalTable is the decoded "LocT" chunk: module-local functions, with the
// same record layout as the export table.
type LocalTable[A any] struct {
	Locals []Export[A]
}

// ChunkID implements ChunkDecoder.
func (*LocalTable[A]) ChunkID() ID { return LocalTableID }

// DecodeChunk implements ChunkDecoder.
func (t *LocalTable[A]) DecodeChunk(data []byte, atoms *AtomTable[A]) error {
	locals, err := decodeFunctionRecords(data, "local table", atoms)
	if err != nil {
		return err
	}
	t.Locals = locals
	return nil
}

// decodeFunctionRecords decodes a count-prefixed list of
// {atom reference, arity, label} records.
func decodeFunctionRecords[A any](data []byte, what string, atoms *AtomTable[A]) ([]Export[A], error) {
	c := cursor{data: data, what: what}
	count := c.u32()
	records := make([]Export[A], 0, entryCap(count, 12, len(data)))
	for i := uint32(0); i < count; i++ {
		function, arity, label := c.u32(), c.u32(), c.u32()
		if c.err != nil {
			return nil, c.err
		}
		rec := Export[A]{Arity: arity, Label: label}
		var err error
		if rec.Function, err = atoms.Get(function); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadImports reads and decodes the import table.
func (f *File[A]) ReadImports() (*ImportTable[A], error) {
	return Read[A, ImportTable[A]](f)
}

// ReadExports reads and decodes the export table.
func (f *File[A]) ReadExports() (*ExportTable[A], error) {
	return Read[A, ExportTable[A]](f)
}

// ReadLocals reads and decodes the local function table.
func (f *File[A]) ReadLocals() (*LocalTable[A], error) {
	return Read[A, LocalTable[A]](f)
}

// entryCap bounds a count-declared allocation by what the body could
// physically hold, so a corrupt count cannot force a huge allocation.
func entryCap(count uint32, recordSize, bodyLen int) int {
	if possible := bodyLen / recordSize; int(count) > possible {
		return possible
	}
	return int(count)
}
