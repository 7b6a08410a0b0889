package beamfile

import (
	"errors"
	"fmt"

	"github.com/meigma/beamfile/internal/iff"
)

// Errors re-exported from the envelope scanner.
var (
	// ErrMagicNumber is returned when the container does not start with "FOR1".
	ErrMagicNumber = iff.ErrMagicNumber

	// ErrFormType is returned when the envelope's form type is not "BEAM".
	ErrFormType = iff.ErrFormType

	// ErrChunkTooLarge is returned when a chunk declares a length above the
	// limit configured with WithMaxChunkLen.
	ErrChunkTooLarge = iff.ErrChunkTooLarge
)

// Sentinel errors.
var (
	// ErrMissingChunk is returned when a requested chunk id is not in the index.
	ErrMissingChunk = errors.New("beamfile: chunk not found")

	// ErrAtomText is returned when an atom name is not valid UTF-8.
	ErrAtomText = errors.New("beamfile: invalid atom text")

	// ErrAtomRef is returned when a chunk references an atom index outside
	// the atom table.
	ErrAtomRef = errors.New("beamfile: invalid atom reference")

	// ErrAtomsNotIndexed is returned by typed reads before IndexAtoms has run.
	ErrAtomsNotIndexed = errors.New("beamfile: atoms not indexed")
)

// ChunkError records a failure while reading or decoding a chunk and carries
// the chunk's identifier.
type ChunkError struct {
	Op  string // "read" or "decode"
	ID  ID
	Err error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("%s %v: %v", e.Op, e.ID, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }
