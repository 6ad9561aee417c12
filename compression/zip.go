package compression

import (
	"bytes"
	"errors"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
)

var (
	// ErrZIPCorrupted is returned when zlib decoding fails or produces
	// fewer bytes than expected.
	ErrZIPCorrupted = errors.New("compression: corrupted chunk data")
)

// CompressionLevel is a zlib compression level, -2 to 9.
type CompressionLevel int

// CompressionLevelDefault is zlib's standard level-6 tradeoff between
// speed and ratio; ZIPCompress always uses it.
const CompressionLevelDefault CompressionLevel = -1

// FLevel is the compression-level category recorded in a zlib
// stream's header (a 2-bit field), as opposed to the exact level.
type FLevel int

const (
	FLevelFastest FLevel = 0
	FLevelFast    FLevel = 1
	FLevelDefault FLevel = 2
	FLevelBest    FLevel = 3
)

// DetectZlibFLevel extracts the FLEVEL from zlib-compressed data.
// Returns the FLevel and true if successful, or 0 and false if the
// data is too short or has an invalid header.
func DetectZlibFLevel(data []byte) (FLevel, bool) {
	if len(data) < 2 {
		return 0, false
	}

	cmf := data[0]
	flg := data[1]

	if cmf&0x0f != 8 {
		return 0, false
	}

	h := uint16(cmf)<<8 | uint16(flg)
	if h%31 != 0 {
		return 0, false
	}

	flevel := FLevel((flg >> 6) & 0x03)
	return flevel, true
}

// zlibWriterPoolItem bundles a zlib writer with its destination
// buffer so both are reused together.
type zlibWriterPoolItem struct {
	writer *zlib.Writer
	buf    *bytes.Buffer
}

var zlibWriterPool = sync.Pool{
	New: func() any {
		buf := new(bytes.Buffer)
		w, _ := zlib.NewWriterLevel(buf, zlib.DefaultCompression)
		return &zlibWriterPoolItem{writer: w, buf: buf}
	},
}

// ZIPCompress zlib-compresses src at the default level. The caller is
// responsible for running the predictor and interleave steps first;
// this function only performs the zlib pass.
func ZIPCompress(src []byte) ([]byte, error) {
	return ZIPCompressLevel(src, CompressionLevelDefault)
}

// ZIPCompressLevel compresses src at the given zlib level (-2 to 9).
func ZIPCompressLevel(src []byte, level CompressionLevel) ([]byte, error) {
	if len(src) == 0 {
		return nil, nil
	}

	if level == CompressionLevelDefault {
		item := zlibWriterPool.Get().(*zlibWriterPoolItem)
		item.buf.Reset()
		item.writer.Reset(item.buf)

		if _, err := item.writer.Write(src); err != nil {
			item.writer.Close()
			zlibWriterPool.Put(item)
			return nil, err
		}

		if err := item.writer.Close(); err != nil {
			zlibWriterPool.Put(item)
			return nil, err
		}

		result := make([]byte, item.buf.Len())
		copy(result, item.buf.Bytes())
		zlibWriterPool.Put(item)

		return result, nil
	}

	buf := new(bytes.Buffer)
	w, err := zlib.NewWriterLevel(buf, int(level))
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(src); err != nil {
		w.Close()
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// zlibReaderPoolItem wraps a zlib reader for pooling.
type zlibReaderPoolItem struct {
	reader io.ReadCloser
	srcBuf *bytes.Reader
}

var zlibReaderPool = sync.Pool{
	New: func() any {
		return &zlibReaderPoolItem{
			srcBuf: bytes.NewReader(nil),
		}
	},
}

// ZIPDecompress decompresses ZIP-encoded data. expectedSize is the
// expected decompressed size, i.e. a chunk's rawLen field.
func ZIPDecompress(src []byte, expectedSize int) ([]byte, error) {
	dst, _, err := ZIPDecompressWithLevel(src, expectedSize)
	return dst, err
}

// ZIPDecompressWithLevel decompresses src and also returns the
// FLevel recorded in its zlib header.
func ZIPDecompressWithLevel(src []byte, expectedSize int) ([]byte, FLevel, error) {
	if len(src) == 0 {
		if expectedSize != 0 {
			return nil, FLevelDefault, ErrZIPCorrupted
		}
		return nil, FLevelDefault, nil
	}

	flevel, ok := DetectZlibFLevel(src)
	if !ok {
		return nil, FLevelDefault, ErrZIPCorrupted
	}

	dst := make([]byte, expectedSize)
	if err := ZIPDecompressTo(dst, src); err != nil {
		return nil, flevel, err
	}
	return dst, flevel, nil
}

// ZIPDecompressTo decompresses src into dst, which must be exactly
// the expected decompressed size.
func ZIPDecompressTo(dst, src []byte) error {
	if len(src) == 0 {
		if len(dst) != 0 {
			return ErrZIPCorrupted
		}
		return nil
	}

	item := zlibReaderPool.Get().(*zlibReaderPoolItem)
	item.srcBuf.Reset(src)

	var err error
	if item.reader == nil {
		item.reader, err = zlib.NewReader(item.srcBuf)
		if err != nil {
			zlibReaderPool.Put(item)
			return ErrZIPCorrupted
		}
	} else if resetter, ok := item.reader.(zlib.Resetter); ok {
		if err = resetter.Reset(item.srcBuf, nil); err != nil {
			item.reader.Close()
			item.reader, err = zlib.NewReader(item.srcBuf)
			if err != nil {
				zlibReaderPool.Put(item)
				return ErrZIPCorrupted
			}
		}
	} else {
		item.reader.Close()
		item.reader, err = zlib.NewReader(item.srcBuf)
		if err != nil {
			zlibReaderPool.Put(item)
			return ErrZIPCorrupted
		}
	}

	n, err := io.ReadFull(item.reader, dst)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		zlibReaderPool.Put(item)
		return ErrZIPCorrupted
	}

	zlibReaderPool.Put(item)

	if n != len(dst) {
		return ErrZIPCorrupted
	}

	return nil
}
