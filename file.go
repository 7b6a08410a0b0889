package beamfile

import (
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"

	"github.com/meigma/beamfile/internal/iff"
)

// DefaultMaxChunkLen is the default limit on declared chunk lengths (256MB).
// It guards allocation against corrupt chunk headers.
const DefaultMaxChunkLen = 256 << 20

type config struct {
	logger      *slog.Logger
	maxChunkLen uint32
}

// Option configures a File.
type Option func(*config)

// WithLogger sets the logger used for debug output. Unset means no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithMaxChunkLen limits the length a chunk header may declare.
// Set limit to 0 to disable the limit.
func WithMaxChunkLen(limit uint32) Option {
	return func(c *config) {
		c.maxChunkLen = limit
	}
}

// File provides random access to the chunks of one BEAM container.
//
// A File exclusively owns its stream's seek cursor; see the package
// documentation for the concurrency rules. The type parameter A is the atom
// representation produced by the [Interner] passed to IndexAtoms.
type File[A any] struct {
	src    io.ReadSeeker
	index  iff.Index
	atoms  *AtomTable[A]
	logger *slog.Logger
	owned  bool
}

// Open opens the container at path and indexes its chunks.
func Open[A any](path string, opts ...Option) (*File[A], error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	f, err := New[A](src, opts...)
	if err != nil {
		src.Close()
		return nil, err
	}
	f.owned = true
	return f, nil
}

// New builds a File from a seekable stream positioned at the container start.
//
// The envelope header and chunk directory are parsed immediately; no chunk
// bodies are read. The stream remains owned by the caller: Close does not
// close it.
func New[A any](r io.ReadSeeker, opts ...Option) (*File[A], error) {
	cfg := config{maxChunkLen: DefaultMaxChunkLen}
	for _, opt := range opts {
		opt(&cfg)
	}

	index, err := iff.Scan(r, cfg.maxChunkLen)
	if err != nil {
		return nil, err
	}

	f := &File[A]{
		src:    r,
		index:  index,
		logger: cfg.logger,
	}
	f.log().Debug("indexed container", "chunks", len(index))
	return f, nil
}

// NewFromReaderAt builds a File over any random-access source, such as an
// http.Source or a bytes.Reader, by giving it a private seek cursor.
func NewFromReaderAt[A any](src io.ReaderAt, size int64, opts ...Option) (*File[A], error) {
	return New[A](io.NewSectionReader(src, 0, size), opts...)
}

// log returns the logger, falling back to a discard logger if nil.
func (f *File[A]) log() *slog.Logger {
	if f.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return f.logger
}

// Close releases the underlying stream when the File opened it itself.
// Files built with New or NewFromReaderAt leave the stream to the caller.
func (f *File[A]) Close() error {
	if !f.owned {
		return nil
	}
	f.owned = false
	if c, ok := f.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Chunks returns the identifiers of all indexed chunks, in no particular order.
func (f *File[A]) Chunks() []ID {
	ids := make([]ID, 0, len(f.index))
	for id := range f.index {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of indexed chunks.
func (f *File[A]) Len() int {
	return len(f.index)
}

// ReadRaw reads the full unpadded body of the chunk with the given id.
//
// The body is re-read from the stream on every call; nothing is cached.
func (f *File[A]) ReadRaw(id ID) ([]byte, error) {
	entry, ok := f.index[id]
	if !ok {
		return nil, &ChunkError{Op: "read", ID: id, Err: ErrMissingChunk}
	}
	return f.readEntry(id, entry)
}

// RawChunk pairs a chunk identifier with its body.
type RawChunk struct {
	ID   ID
	Data []byte
}

// RawChunks returns an iterator over all indexed chunks in index order
// (unordered). Each element is read lazily and fails independently; on
// failure the yielded RawChunk still carries the chunk id.
//
// The iteration moves the shared seek cursor: no other read on this File may
// interleave with it.
func (f *File[A]) RawChunks() iter.Seq2[RawChunk, error] {
	return func(yield func(RawChunk, error) bool) {
		for id, entry := range f.index {
			data, err := f.readEntry(id, entry)
			if !yield(RawChunk{ID: id, Data: data}, err) {
				return
			}
		}
	}
}

func (f *File[A]) readEntry(id ID, entry iff.Entry) ([]byte, error) {
	if _, err := f.src.Seek(entry.Pos, io.SeekStart); err != nil {
		return nil, &ChunkError{Op: "read", ID: id, Err: err}
	}
	data := make([]byte, entry.Len)
	if _, err := io.ReadFull(f.src, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, &ChunkError{Op: "read", ID: id, Err: fmt.Errorf("chunk body: %w", err)}
	}
	return data, nil
}
