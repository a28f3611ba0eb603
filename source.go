package ossio

import (
	"bytes"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"

	"github.com/jobstoit/ossio/errs"
)

// Source is the body of an upload. It is created with FromBytes, FromFile or
// FromReader; no other implementations exist.
type Source interface {
	open() (*payload, error)
}

// payload is a resolved Source for one call.
type payload struct {
	body io.Reader

	// size is the exact length, or -1 when unknown.
	size int64

	// release frees whatever the engine opened. It is safe to call more than
	// once.
	release func() error

	// sent counts the bytes read through requestBody.
	sent atomic.Int64
}

// FromBytes uploads p. The length is sent exactly.
func FromBytes(p []byte) Source {
	return bytesSource(p)
}

// FromFile uploads the file at path. The file is opened and closed by the
// call; a missing file fails before anything is sent.
func FromFile(path string) Source {
	return fileSource(path)
}

// FromReader uploads everything read from r. A size of zero or more is sent as
// the content length, a negative size uses chunked transfer encoding. r is
// never closed.
func FromReader(r io.Reader, size int64) Source {
	return readerSource{r: r, size: size}
}

type bytesSource []byte

func (s bytesSource) open() (*payload, error) {
	return &payload{
		body:    bytes.NewReader(s),
		size:    int64(len(s)),
		release: noRelease,
	}, nil
}

type fileSource string

func (s fileSource) open() (*payload, error) {
	path := string(s)

	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.FromFS("stat source file", err)
	}

	if info.IsDir() {
		return nil, errs.Newf(errs.ErrKindInvalidArgument, "source %q is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errs.FromFS("open source file", err)
	}

	return &payload{
		body:    f,
		size:    info.Size(),
		release: releaseOnce(f.Close),
	}, nil
}

type readerSource struct {
	r    io.Reader
	size int64
}

func (s readerSource) open() (*payload, error) {
	if s.r == nil {
		return nil, errs.New(errs.ErrKindInvalidArgument, "source reader is nil")
	}

	size := s.size
	if size < 0 {
		size = -1
	}

	return &payload{
		body:    s.r,
		size:    size,
		release: noRelease,
	}, nil
}

// requestBody hands the payload to net/http. The transport closes request
// bodies, so the reader is wrapped to keep ownership with the engine.
func (p *payload) requestBody() io.ReadCloser {
	if p == nil || p.size == 0 {
		return http.NoBody
	}

	return io.NopCloser(&countingReader{r: p.body, n: &p.sent})
}

type countingReader struct {
	r io.Reader
	n *atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))

	return n, err
}

func noRelease() error { return nil }

func releaseOnce(fn func() error) func() error {
	var (
		once sync.Once
		err  error
	)

	return func() error {
		once.Do(func() {
			err = fn()
		})

		return err
	}
}
