package compression

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var report = []byte(strings.Repeat(`{"date":"2025-01-01","value":72.5},`, 50))

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"", None, false},
		{"none", None, false},
		{"Snappy", Snappy, false},
		{"zstd", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAlgorithm(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetCompressor(t *testing.T) {
	for _, algo := range []Algorithm{None, Snappy} {
		t.Run(string(algo), func(t *testing.T) {
			c, err := GetCompressor(algo)
			require.NoError(t, err)
			assert.Equal(t, algo, c.Algorithm())

			compressed, err := c.Compress(report)
			require.NoError(t, err)
			decompressed, err := c.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, report, decompressed)
		})
	}

	_, err := GetCompressor("lz4")
	assert.Error(t, err)
}

func TestSnappyCompressor(t *testing.T) {
	c := NewSnappyCompressor()

	compressed, err := c.Compress(report)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(report))

	empty, err := c.Compress(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = c.Decompress([]byte("not snappy"))
	assert.Error(t, err)
}

func TestStreamRoundTrip(t *testing.T) {
	for _, algo := range []Algorithm{None, Snappy} {
		t.Run(string(algo), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, algo)
			require.NoError(t, err)
			_, err = w.Write(report)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := NewReader(&buf, algo)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, report, got)
		})
	}

	_, err := NewWriter(io.Discard, "gzip")
	assert.Error(t, err)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".sz", Snappy.Extension())
	assert.Equal(t, "", None.Extension())
}

func TestSnappyCompressor_RejectsOversizedBlock(t *testing.T) {
	header := binary.AppendUvarint(nil, MaxDecodedSize+1)

	_, err := NewSnappyCompressor().Decompress(append(header, 0x00))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}
