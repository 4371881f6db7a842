package compress

import (
	"bytes"
	"compress/zlib"
	"sync"

	"github.com/pkg/errors"
)

// Compressor turns artifact blobs into their stored form.
type Compressor interface {
	Compress(b []byte) ([]byte, error)
}

// NoOpCompressor returns its input unchanged.
type NoOpCompressor struct{}

func (c *NoOpCompressor) Compress(b []byte) ([]byte, error) {
	return b, nil
}

// ZlibCompressor writes zlib streams, reusing one writer and buffer between calls.
// It must not be shared between goroutines.
type ZlibCompressor struct {
	out    bytes.Buffer
	writer *zlib.Writer
}

// NewZlibCompressor accepts any level understood by compress/zlib, from zlib.HuffmanOnly to zlib.BestCompression.
func NewZlibCompressor(level int) (*ZlibCompressor, error) {
	c := &ZlibCompressor{}
	writer, err := zlib.NewWriterLevel(&c.out, level)
	if err != nil {
		return nil, errors.WithMessagef(err, "invalid zlib level %d", level)
	}
	c.writer = writer
	return c, nil
}

func (c *ZlibCompressor) Compress(b []byte) ([]byte, error) {
	c.out.Reset()
	c.writer.Reset(&c.out)
	if _, err := c.writer.Write(b); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := c.writer.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return bytes.Clone(c.out.Bytes()), nil
}

// ThreadSafeZlibCompressor hands each call a ZlibCompressor from a pool.
type ThreadSafeZlibCompressor struct {
	pool sync.Pool
}

func NewThreadSafeZlibCompressor(level int) (*ThreadSafeZlibCompressor, error) {
	first, err := NewZlibCompressor(level)
	if err != nil {
		return nil, err
	}
	c := &ThreadSafeZlibCompressor{}
	c.pool.New = func() any {
		// level was validated above
		compressor, _ := NewZlibCompressor(level)
		return compressor
	}
	c.pool.Put(first)
	return c, nil
}

func (c *ThreadSafeZlibCompressor) Compress(b []byte) ([]byte, error) {
	compressor := c.pool.Get().(*ZlibCompressor)
	defer c.pool.Put(compressor)
	return compressor.Compress(b)
}
