package compress

import (
	"bytes"
	"compress/zlib"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// Decompressor reverses a Compressor.
type Decompressor interface {
	Decompress(b []byte) ([]byte, error)
}

// NoOpDecompressor returns its input unchanged.
type NoOpDecompressor struct{}

func (c *NoOpDecompressor) Decompress(b []byte) ([]byte, error) {
	return b, nil
}

// ZlibDecompressor inflates zlib streams, reusing its reader between calls.
// It must not be shared between goroutines.
type ZlibDecompressor struct {
	in     bytes.Reader
	out    bytes.Buffer
	reader io.ReadCloser
}

func NewZlibDecompressor() *ZlibDecompressor {
	return &ZlibDecompressor{}
}

// Decompress fails with zlib.ErrHeader when b is not a zlib stream.
func (d *ZlibDecompressor) Decompress(b []byte) ([]byte, error) {
	d.in.Reset(b)
	if err := d.resetReader(); err != nil {
		return nil, err
	}
	d.out.Reset()
	if _, err := d.out.ReadFrom(d.reader); err != nil {
		return nil, errors.WithStack(err)
	}
	return bytes.Clone(d.out.Bytes()), nil
}

func (d *ZlibDecompressor) resetReader() error {
	if d.reader != nil {
		return errors.WithStack(d.reader.(zlib.Resetter).Reset(&d.in, nil))
	}
	reader, err := zlib.NewReader(&d.in)
	if err != nil {
		return errors.WithStack(err)
	}
	d.reader = reader
	return nil
}

// ThreadSafeZlibDecompressor hands each call a ZlibDecompressor from a pool.
type ThreadSafeZlibDecompressor struct {
	pool sync.Pool
}

func NewThreadSafeZlibDecompressor() *ThreadSafeZlibDecompressor {
	return &ThreadSafeZlibDecompressor{
		pool: sync.Pool{New: func() any { return NewZlibDecompressor() }},
	}
}

func (d *ThreadSafeZlibDecompressor) Decompress(b []byte) ([]byte, error) {
	decompressor := d.pool.Get().(*ZlibDecompressor)
	defer d.pool.Put(decompressor)
	return decompressor.Decompress(b)
}
