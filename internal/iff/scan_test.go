package iff_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/beamfile/internal/beamtest"
	"github.com/meigma/beamfile/internal/iff"
)

func TestScan_IndexesEveryChunk(t *testing.T) {
	t.Parallel()

	chunks := []struct {
		id   string
		body []byte
	}{
		{"AtU8", []byte{1, 2, 3, 4, 5}},
		{"StrT", nil},
		{"Misc", []byte{10, 11, 12, 13, 14, 15, 16}},
		{"ImpT", []byte{6, 7, 8, 9}},
	}
	b := beamtest.NewBuilder()
	for _, c := range chunks {
		b.Chunk(c.id, c.body)
	}
	data := b.Bytes()

	index, err := iff.Scan(bytes.NewReader(data), 0)
	require.NoError(t, err)
	require.Len(t, index, len(chunks))

	for _, c := range chunks {
		entry, ok := index[iff.IDOf(c.id)]
		require.True(t, ok, "chunk %s not indexed", c.id)
		assert.Equal(t, uint32(len(c.body)), entry.Len)
		assert.Equal(t, c.body, data[entry.Pos:entry.Pos+int64(entry.Len)], "chunk %s bytes", c.id)
	}
}

func TestScan_RecordsUnpaddedLength(t *testing.T) {
	t.Parallel()

	// A 5-byte body is padded to 8 on the wire; the entry must keep 5 and
	// the next chunk must start on the following 4-byte boundary.
	data := beamtest.NewBuilder().
		Chunk("Aaaa", []byte{1, 2, 3, 4, 5}).
		Chunk("Bbbb", []byte{9}).
		Bytes()

	index, err := iff.Scan(bytes.NewReader(data), 0)
	require.NoError(t, err)

	a := index[iff.IDOf("Aaaa")]
	b := index[iff.IDOf("Bbbb")]
	assert.Equal(t, uint32(5), a.Len)
	assert.Equal(t, a.Pos+8+8, b.Pos, "second chunk must start after padding plus header")
	assert.Equal(t, []byte{9}, data[b.Pos:b.Pos+1])
}

func TestScan_DuplicateIDLastWins(t *testing.T) {
	t.Parallel()

	data := beamtest.NewBuilder().
		Chunk("Dupe", []byte{1, 1, 1, 1}).
		Chunk("Dupe", []byte{2, 2, 2, 2}).
		Bytes()

	index, err := iff.Scan(bytes.NewReader(data), 0)
	require.NoError(t, err)
	require.Len(t, index, 1)
	entry := index[iff.IDOf("Dupe")]
	assert.Equal(t, []byte{2, 2, 2, 2}, data[entry.Pos:entry.Pos+4])
}

func TestScan_BadMagic(t *testing.T) {
	t.Parallel()

	data := beamtest.NewBuilder().Chunk("AtU8", nil).Bytes()
	copy(data, "LIST")

	_, err := iff.Scan(bytes.NewReader(data), 0)
	require.ErrorIs(t, err, iff.ErrMagicNumber)
	assert.Contains(t, err.Error(), "LIST")
	assert.NotErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestScan_BadFormType(t *testing.T) {
	t.Parallel()

	data := beamtest.NewBuilder().Chunk("AtU8", nil).Bytes()
	copy(data[8:], "WAVE")

	_, err := iff.Scan(bytes.NewReader(data), 0)
	require.ErrorIs(t, err, iff.ErrFormType)
	assert.Contains(t, err.Error(), "WAVE")
}

func TestScan_TruncatedHeader(t *testing.T) {
	t.Parallel()

	for _, cut := range []int{0, 2, 6, 10} {
		data := beamtest.NewBuilder().Chunk("AtU8", nil).Bytes()
		_, err := iff.Scan(bytes.NewReader(data[:cut]), 0)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF, "cut at %d", cut)
	}
}

func TestScan_ChunkLengthGuard(t *testing.T) {
	t.Parallel()

	data := beamtest.NewBuilder().
		Chunk("Code", bytes.Repeat([]byte{0}, 64)).
		Bytes()

	_, err := iff.Scan(bytes.NewReader(data), 16)
	require.ErrorIs(t, err, iff.ErrChunkTooLarge)

	_, err = iff.Scan(bytes.NewReader(data), 0)
	require.NoError(t, err, "limit 0 disables the guard")
}

func TestIDString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "AtU8", iff.IDOf("AtU8").String())

	raw := iff.ID{0xff, 0xfe, 0x01, 0x02}
	assert.Equal(t, "ff fe 01 02", raw.String())
}
