// Package bytesource provides goyajl.ByteSource implementations over
// the common places JSON input comes from: an io.Reader, an in-memory
// byte slice, or a file on disk.
package bytesource

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const defaultBufSize = 4096

// readerSource adapts an io.Reader into a ByteSource. Each FillBuf
// reads directly into a reusable buffer; the Parser copies whatever it
// gets into its own growing buffer before the next call, so there is
// no need to double-buffer here the way a standalone lexer would.
type readerSource struct {
	r   io.Reader
	buf []byte
}

// FromReader wraps r as a ByteSource. bufSize sizes the internal read
// buffer; a non-positive value falls back to a 4KB default.
func FromReader(r io.Reader, bufSize int) *readerSource {
	if bufSize <= 0 {
		bufSize = defaultBufSize
	}

	return &readerSource{r: r, buf: make([]byte, bufSize)}
}

func (s *readerSource) FillBuf() ([]byte, error) {
	n, err := s.r.Read(s.buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return s.buf[:n], nil
		}

		return nil, err
	}

	return s.buf[:n], nil
}

func (s *readerSource) Consume(n int) {}

// sliceSource hands an entire in-memory document to the Parser in one
// FillBuf call.
type sliceSource struct {
	b    []byte
	sent bool
}

// FromBytes wraps b as a ByteSource.
func FromBytes(b []byte) *sliceSource {
	return &sliceSource{b: b}
}

func (s *sliceSource) FillBuf() ([]byte, error) {
	if s.sent {
		return nil, nil
	}

	s.sent = true

	return s.b, nil
}

func (s *sliceSource) Consume(n int) {}

// FromFile opens path and returns a ByteSource over its contents, with
// a leading UTF-8, UTF-16LE or UTF-16BE byte-order mark transcoded and
// stripped. The caller must call the returned close function once
// done with the source.
func FromFile(path string) (*readerSource, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("bytesource: could not open %q: %w", path, err)
	}

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	src := FromReader(transform.NewReader(f, decoder), defaultBufSize)

	return src, f.Close, nil
}
