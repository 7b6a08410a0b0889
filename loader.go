package beamfile

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// defaultLoadConcurrency bounds parallel file loads in LoadDir.
const defaultLoadConcurrency = 4

type loaderConfig struct {
	workers  int
	logger   *slog.Logger
	fileOpts []Option
}

// LoaderOption configures a Loader.
type LoaderOption func(*loaderConfig)

// WithLoadConcurrency sets how many files LoadDir opens in parallel
// (default: 4). Values < 1 are treated as 1.
func WithLoadConcurrency(n int) LoaderOption {
	return func(c *loaderConfig) {
		if n < 1 {
			n = 1
		}
		c.workers = n
	}
}

// WithLoaderLogger sets the logger used for debug output. Unset means no
// logging.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(c *loaderConfig) {
		c.logger = logger
	}
}

// WithFileOptions forwards options to every File the loader opens.
func WithFileOptions(opts ...Option) LoaderOption {
	return func(c *loaderConfig) {
		c.fileOpts = append(c.fileOpts, opts...)
	}
}

// Loader opens many containers with one interner, deduplicating atom-table
// decoding: modules whose atom chunks are byte-identical share a single
// decoded table. Useful when walking whole release trees, where the same
// module often appears more than once.
//
// Unlike File, a Loader is safe for concurrent use. Every loaded File still
// has its own stream and keeps File's single-caller rules.
type Loader[A any] struct {
	interner Interner[A]
	workers  int
	logger   *slog.Logger
	fileOpts []Option

	group  singleflight.Group
	mu     sync.RWMutex
	tables map[digest.Digest]*AtomTable[A]
}

// NewLoader creates a Loader that interns atoms with interner.
func NewLoader[A any](interner Interner[A], opts ...LoaderOption) *Loader[A] {
	cfg := loaderConfig{workers: defaultLoadConcurrency}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Loader[A]{
		interner: interner,
		workers:  cfg.workers,
		logger:   cfg.logger,
		fileOpts: cfg.fileOpts,
		tables:   make(map[digest.Digest]*AtomTable[A]),
	}
}

// log returns the logger, falling back to a discard logger if nil.
func (l *Loader[A]) log() *slog.Logger {
	if l.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l.logger
}

// Load opens the container at path and indexes its atoms, reusing a cached
// table when an identical atom chunk was decoded before.
func (l *Loader[A]) Load(path string) (*File[A], error) {
	f, err := Open[A](path, l.fileOpts...)
	if err != nil {
		return nil, err
	}
	if err := l.indexShared(f); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// LoadDir loads every *.beam file under root, up to the configured number of
// files in parallel. On any failure all already-opened files are closed and
// the first error is returned.
func (l *Loader[A]) LoadDir(ctx context.Context, root string) (map[string]*File[A], error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	var mu sync.Mutex
	files := make(map[string]*File[A])

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".beam" {
			return nil
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := l.Load(path)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			mu.Lock()
			files[path] = f
			mu.Unlock()
			return nil
		})
		return nil
	})

	err := g.Wait()
	if walkErr != nil && err == nil {
		err = walkErr
	}
	if err != nil {
		for _, f := range files {
			f.Close()
		}
		return nil, err
	}
	l.log().Debug("loaded directory", "root", root, "files", len(files))
	return files, nil
}

// TableCount returns the number of distinct atom tables decoded so far.
func (l *Loader[A]) TableCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tables)
}

// indexShared installs f's atom table, decoding the chunk at most once per
// distinct chunk content. Concurrent loads of the same content are collapsed
// through singleflight.
func (l *Loader[A]) indexShared(f *File[A]) error {
	raw, err := f.readAtomChunk()
	if err != nil {
		return err
	}
	key := digest.FromBytes(raw)

	l.mu.RLock()
	table, ok := l.tables[key]
	l.mu.RUnlock()
	if ok {
		f.atoms = table
		return nil
	}

	v, err, _ := l.group.Do(key.String(), func() (any, error) {
		// Double-check after winning the flight.
		l.mu.RLock()
		table, ok := l.tables[key]
		l.mu.RUnlock()
		if ok {
			return table, nil
		}

		names, err := decodeAtomNames(raw)
		if err != nil {
			return nil, err
		}
		table = NewAtomTable(l.interner.InternMany(names))

		l.mu.Lock()
		l.tables[key] = table
		l.mu.Unlock()
		l.log().Debug("decoded atom table", "digest", key, "atoms", table.Len())
		return table, nil
	})
	if err != nil {
		return err
	}
	f.atoms = v.(*AtomTable[A]) //nolint:errcheck // type assertion always succeeds when err is nil
	return nil
}
