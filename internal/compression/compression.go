// Package compression provides block and stream compression for reports.
package compression

import (
	"fmt"
	"io"
	"strings"
)

// Algorithm defines compression types
type Algorithm string

const (
	None   Algorithm = "none"
	Snappy Algorithm = "snappy"
)

// ParseAlgorithm parses an algorithm name. Empty means None.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case "", None:
		return None, nil
	case Snappy:
		return Snappy, nil
	default:
		return "", fmt.Errorf("unsupported compression algorithm: %q", s)
	}
}

// Compressor interface for block compression
type Compressor interface {
	// Compress compresses data
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data
	Decompress(data []byte) ([]byte, error)

	// Algorithm returns the compression algorithm type
	Algorithm() Algorithm
}

// GetCompressor returns a compressor for the given algorithm
func GetCompressor(algo Algorithm) (Compressor, error) {
	switch algo {
	case None, "":
		return &NoneCompressor{}, nil
	case Snappy:
		return NewSnappyCompressor(), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %q", algo)
	}
}

// NoneCompressor is a no-op compressor
type NoneCompressor struct{}

func (n *NoneCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (n *NoneCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

func (n *NoneCompressor) Algorithm() Algorithm {
	return None
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps w in a streaming compressor. Closing the returned writer
// flushes buffered data but does not close w.
func NewWriter(w io.Writer, algo Algorithm) (io.WriteCloser, error) {
	switch algo {
	case None, "":
		return nopWriteCloser{w}, nil
	case Snappy:
		return newSnappyWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %q", algo)
	}
}

// NewReader wraps r in a streaming decompressor matching NewWriter
func NewReader(r io.Reader, algo Algorithm) (io.Reader, error) {
	switch algo {
	case None, "":
		return r, nil
	case Snappy:
		return newSnappyReader(r), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %q", algo)
	}
}

// Extension returns the conventional file suffix for the algorithm
func (a Algorithm) Extension() string {
	if a == Snappy {
		return ".sz"
	}
	return ""
}
