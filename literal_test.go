package beamfile_test

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/beamfile"
	"github.com/meigma/beamfile/internal/beamtest"
)

func TestReadLiterals_Compressed(t *testing.T) {
	t.Parallel()

	f := indexedFixture(t)

	lits, err := f.ReadLiterals()
	require.NoError(t, err)
	require.Len(t, lits.Literals, 1)
	assert.Equal(t, []byte{131, 100, 0, 2, 'o', 'k'}, lits.Literals[0])
}

func TestReadLiterals_Uncompressed(t *testing.T) {
	t.Parallel()

	terms := [][]byte{{131, 97, 1}, {131, 97, 2}, {131, 106}}
	data := beamtest.NewBuilder().
		Chunk("AtU8", beamtest.AtomChunk("mod")).
		Chunk("LitT", beamtest.LiteralChunk(false, terms...)).
		Bytes()
	f, err := beamfile.New[string](bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, f.IndexAtoms(beamfile.Strings{}))

	lits, err := f.ReadLiterals()
	require.NoError(t, err)
	assert.Equal(t, terms, lits.Literals)
}

func TestReadLiterals_CorruptStream(t *testing.T) {
	t.Parallel()

	body := beamtest.U32(64)
	body = append(body, 0x00, 0x01, 0x02, 0x03) // not a zlib stream
	data := beamtest.NewBuilder().
		Chunk("AtU8", beamtest.AtomChunk("mod")).
		Chunk("LitT", body).
		Bytes()
	f, err := beamfile.New[string](bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, f.IndexAtoms(beamfile.Strings{}))

	_, err = f.ReadLiterals()
	require.Error(t, err)

	var chunkErr *beamfile.ChunkError
	require.ErrorAs(t, err, &chunkErr)
	assert.Equal(t, beamfile.LiteralTableID, chunkErr.ID)
}

func TestReadLiterals_OversizedHeader(t *testing.T) {
	// The header claims a ~4 GiB inflated size over a tiny stream. The
	// decoder must fail without allocating anywhere near what the header
	// promises. Not parallel: the allocation delta has to be attributable.
	good := beamtest.LiteralChunk(true, []byte{131, 106})
	bad := append(beamtest.U32(0xF0000000), good[4:]...)
	data := beamtest.NewBuilder().
		Chunk("AtU8", beamtest.AtomChunk("mod")).
		Chunk("LitT", bad).
		Bytes()
	f, err := beamfile.New[string](bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, f.IndexAtoms(beamfile.Strings{}))

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	_, err = f.ReadLiterals()
	runtime.ReadMemStats(&after)

	require.Error(t, err)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(64<<20))
}

func TestReadLiterals_SizeMismatch(t *testing.T) {
	t.Parallel()

	// Valid zlib stream, but the header overstates the inflated size.
	good := beamtest.LiteralChunk(true, []byte{131, 106})
	bad := append(beamtest.U32(1 << 20), good[4:]...)
	data := beamtest.NewBuilder().
		Chunk("AtU8", beamtest.AtomChunk("mod")).
		Chunk("LitT", bad).
		Bytes()
	f, err := beamfile.New[string](bytes.NewReader(data))
	require.NoError(t, err)
	require.NoError(t, f.IndexAtoms(beamfile.Strings{}))

	_, err = f.ReadLiterals()
	require.Error(t, err)
}
