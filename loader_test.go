package beamfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/beamfile"
	"github.com/meigma/beamfile/internal/beamtest"
)

func writeFixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "ebin"), 0o755))

	fixture := beamtest.Fixture()
	other := beamtest.NewBuilder().
		Chunk("AtU8", beamtest.AtomChunk("other", "erlang")).
		Chunk("ExpT", beamtest.FunctionChunk()).
		Bytes()

	require.NoError(t, os.WriteFile(filepath.Join(root, "test.beam"), fixture, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ebin", "copy.beam"), fixture, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ebin", "other.beam"), other, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ebin", "notes.txt"), []byte("skip me"), 0o644))
	return root
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	root := writeFixtureTree(t)
	l := beamfile.NewLoader[string](beamfile.Strings{})

	f, err := l.Load(filepath.Join(root, "test.beam"))
	require.NoError(t, err)
	defer f.Close()

	name, ok := f.Name()
	require.True(t, ok)
	assert.Equal(t, "test", name)
}

func TestLoader_LoadDir(t *testing.T) {
	t.Parallel()

	root := writeFixtureTree(t)
	l := beamfile.NewLoader[string](beamfile.Strings{}, beamfile.WithLoadConcurrency(2))

	files, err := l.LoadDir(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, files, 3, "non-.beam files are skipped")
	for _, f := range files {
		defer f.Close()
	}

	f := files[filepath.Join(root, "ebin", "other.beam")]
	require.NotNil(t, f)
	name, ok := f.Name()
	require.True(t, ok)
	assert.Equal(t, "other", name)
}

func TestLoader_SharesIdenticalAtomTables(t *testing.T) {
	t.Parallel()

	root := writeFixtureTree(t)
	l := beamfile.NewLoader[string](beamfile.Strings{})

	files, err := l.LoadDir(context.Background(), root)
	require.NoError(t, err)
	for _, f := range files {
		defer f.Close()
	}

	a := files[filepath.Join(root, "test.beam")]
	b := files[filepath.Join(root, "ebin", "copy.beam")]
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Same(t, a.AtomTable(), b.AtomTable(), "identical atom chunks share one table")
	assert.Equal(t, 2, l.TableCount())
}

func TestLoader_LoadDirFailureClosesFiles(t *testing.T) {
	t.Parallel()

	root := writeFixtureTree(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.beam"), []byte("not a beam"), 0o644))

	l := beamfile.NewLoader[string](beamfile.Strings{})
	_, err := l.LoadDir(context.Background(), root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.beam")
}

func TestLoader_CanceledContext(t *testing.T) {
	t.Parallel()

	root := writeFixtureTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := beamfile.NewLoader[string](beamfile.Strings{})
	_, err := l.LoadDir(ctx, root)
	require.ErrorIs(t, err, context.Canceled)
}
