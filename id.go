package beamfile

import "github.com/meigma/beamfile/internal/iff"

// ID is a 4-byte chunk identifier.
type ID = iff.ID

// IDOf builds an ID from a 4-character string. It panics on any other length.
var IDOf = iff.IDOf

// Identifiers of the standard chunks. Only a subset has typed decoders;
// the rest are listed for lookup and diagnostics.
var (
	// AtomUTF8ID is the UTF-8 atom table ("AtU8").
	AtomUTF8ID = IDOf("AtU8")

	// AtomLatin1ID is the historical Latin-1 atom table ("Atom").
	AtomLatin1ID = IDOf("Atom")

	// ImportTableID is the import table ("ImpT").
	ImportTableID = IDOf("ImpT")

	// ExportTableID is the export table ("ExpT").
	ExportTableID = IDOf("ExpT")

	// LocalTableID is the local function table ("LocT").
	LocalTableID = IDOf("LocT")

	// CodeID is the bytecode chunk ("Code").
	CodeID = IDOf("Code")

	// LiteralTableID is the literal table ("LitT").
	LiteralTableID = IDOf("LitT")

	// StringTableID is the string table ("StrT").
	StringTableID = IDOf("StrT")

	// AttributesID holds module attributes as an encoded term ("Attr").
	AttributesID = IDOf("Attr")

	// CompileInfoID holds compiler metadata as an encoded term ("CInf").
	CompileInfoID = IDOf("CInf")

	// DebugInfoID holds abstract-code debug info ("Dbgi").
	DebugInfoID = IDOf("Dbgi")

	// LineTableID is the line number table ("Line").
	LineTableID = IDOf("Line")

	// TypeTableID is the type information table ("Type").
	TypeTableID = IDOf("Type")

	// MetaID holds feature metadata ("Meta").
	MetaID = IDOf("Meta")
)

// atomChunkProbe is the lookup order for the atom table. Extend here if the
// format ever grows a third atom encoding.
var atomChunkProbe = []ID{AtomUTF8ID, AtomLatin1ID}
