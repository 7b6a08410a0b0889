package iff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Envelope markers.
var (
	// Magic is the leading marker of every container ("FOR1").
	Magic = IDOf("FOR1")

	// FormType identifies the BEAM form inside the envelope.
	FormType = IDOf("BEAM")
)

// Sentinel errors for structural envelope failures.
var (
	// ErrMagicNumber is returned when the leading marker is not "FOR1".
	ErrMagicNumber = errors.New("beamfile: unexpected magic number")

	// ErrFormType is returned when the form type marker is not "BEAM".
	ErrFormType = errors.New("beamfile: unexpected form type")

	// ErrChunkTooLarge is returned when a declared chunk length exceeds the
	// configured limit.
	ErrChunkTooLarge = errors.New("beamfile: chunk too large")
)

// Entry locates one chunk's payload within the stream.
//
// Pos is the absolute offset of the payload start and Len its unpadded
// logical length; padding bytes after the payload are not part of the entry.
type Entry struct {
	Pos int64
	Len uint32
}

// Index maps chunk identifiers to their locations. When an identifier
// repeats, the last occurrence wins.
type Index map[ID]Entry

// Scan parses the envelope header and chunk directory from r, which must be
// positioned at the start of the container.
//
// Only chunk headers are read; bodies are skipped by seeking. The scan cursor
// advances strictly monotonically until it reaches the declared payload size.
// maxChunkLen of 0 disables the length guard.
func Scan(r io.ReadSeeker, maxChunkLen uint32) (Index, error) {
	var marker ID
	if err := readFull(r, marker[:], "magic number"); err != nil {
		return nil, err
	}
	if marker != Magic {
		return nil, fmt.Errorf("%w: got %v, want %v", ErrMagicNumber, marker, Magic)
	}

	payloadSize, err := readUint32(r, "payload size")
	if err != nil {
		return nil, err
	}

	if err := readFull(r, marker[:], "form type"); err != nil {
		return nil, err
	}
	if marker != FormType {
		return nil, fmt.Errorf("%w: got %v, want %v", ErrFormType, marker, FormType)
	}

	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("beamfile: locate chunk directory: %w", err)
	}

	index := make(Index)
	for pos < int64(payloadSize) {
		var id ID
		if err := readFull(r, id[:], "chunk id"); err != nil {
			return nil, err
		}
		length, err := readUint32(r, "chunk length")
		if err != nil {
			return nil, err
		}
		if maxChunkLen != 0 && length > maxChunkLen {
			return nil, fmt.Errorf("%w: chunk %v declares %d bytes (limit %d)", ErrChunkTooLarge, id, length, maxChunkLen)
		}

		index[id] = Entry{Pos: pos + 8, Len: length}

		// Bodies are padded to the next 4-byte boundary; the recorded
		// length stays unpadded.
		pos, err = r.Seek(pos+8+int64(align4(length)), io.SeekStart)
		if err != nil {
			return nil, fmt.Errorf("beamfile: seek past chunk %v: %w", id, err)
		}
	}

	return index, nil
}

// align4 rounds n up to the next multiple of 4.
func align4(n uint32) uint64 {
	return 4 * ((uint64(n) + 3) / 4)
}

func readFull(r io.Reader, buf []byte, what string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("beamfile: read %s: %w", what, err)
	}
	return nil
}

func readUint32(r io.Reader, what string) (uint32, error) {
	var buf [4]byte
	if err := readFull(r, buf[:], what); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}
