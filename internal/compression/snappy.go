package compression

import (
	"fmt"
	"io"

	"github.com/golang/snappy"
)

// MaxDecodedSize bounds the payload Decompress will allocate for a single
// report block read off a broker.
const MaxDecodedSize = 64 << 20

// SnappyCompressor compresses report payloads in the Snappy block format.
// Stream output (exported files) uses the framed format instead, see NewWriter.
type SnappyCompressor struct{}

// NewSnappyCompressor creates a new Snappy compressor
func NewSnappyCompressor() *SnappyCompressor {
	return &SnappyCompressor{}
}

func (s *SnappyCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	return snappy.Encode(nil, data), nil
}

// Decompress rejects blocks whose header announces more than MaxDecodedSize bytes.
func (s *SnappyCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	n, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("snappy header: %w", err)
	}
	if n > MaxDecodedSize {
		return nil, fmt.Errorf("snappy block too large: %d bytes (max %d)", n, MaxDecodedSize)
	}
	out, err := snappy.Decode(make([]byte, n), data)
	if err != nil {
		return nil, fmt.Errorf("snappy decode: %w", err)
	}
	return out, nil
}

func (s *SnappyCompressor) Algorithm() Algorithm {
	return Snappy
}

func newSnappyWriter(w io.Writer) io.WriteCloser {
	return snappy.NewBufferedWriter(w)
}

func newSnappyReader(r io.Reader) io.Reader {
	return snappy.NewReader(r)
}
