package ossio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"github.com/jobstoit/ossio/sign"
)

// ObjectReader is an io.ReadCloser over a streamed GET of one object. It also
// implements fs.File.
type ObjectReader struct {
	ctx    context.Context
	cancel context.CancelFunc
	cli    *Client
	bucket string
	key    string
	header sign.Header
	info   fs.FileInfo
	logger *slog.Logger

	mux    sync.Mutex
	rd     *io.PipeReader
	closed bool
}

// ObjectReaderOption is an option for the given read operation
type ObjectReaderOption func(*ObjectReader)

// ObjectReaderOptions is a collection of ObjectReaderOption's
func ObjectReaderOptions(opts ...ObjectReaderOption) ObjectReaderOption {
	return func(r *ObjectReader) {
		for _, op := range opts {
			op(r)
		}
	}
}

// Read is the io.Reader implementation for the ObjectReader.
//
// It returns an fs.ErrNotExist if the object doesn't exist in the given bucket,
// an fs.ErrClosed after Close and io.EOF when all bytes are read.
func (r *ObjectReader) Read(p []byte) (int, error) {
	rd, err := r.pipe()
	if err != nil {
		return 0, err
	}

	c, err := rd.Read(p)
	if errors.Is(err, io.ErrClosedPipe) {
		err = fs.ErrClosed
	}

	return c, err
}

// Close stops the download and releases the connection.
func (r *ObjectReader) Close() error {
	r.mux.Lock()
	defer r.mux.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	r.cancel()

	if r.rd != nil {
		return r.rd.Close()
	}

	return nil
}

// Stat returns the object info, fetching it with a HEAD request when the
// reader was not opened through Bucket.Open.
func (r *ObjectReader) Stat() (fs.FileInfo, error) {
	if r.info != nil {
		return r.info, nil
	}

	info, err := r.cli.Bucket(r.bucket).Stat(r.ctx, r.key)
	if err != nil {
		return nil, err
	}

	r.info = info

	return info, nil
}

func (r *ObjectReader) pipe() (*io.PipeReader, error) {
	r.mux.Lock()
	defer r.mux.Unlock()

	if r.closed {
		return nil, fs.ErrClosed
	}

	if r.rd == nil {
		rd, wr := io.Pipe()
		r.rd = rd

		go r.download(wr)
	}

	return r.rd, nil
}

func (r *ObjectReader) download(wr *io.PipeWriter) {
	r.logger.DebugContext(r.ctx, "download", slog.String("key", r.key))

	res, err := r.cli.GetObject(r.ctx, GetObjectInput{
		Bucket: r.bucket,
		Object: r.key,
		Dest:   ToWriter(wr),
		Header: r.header,
	})

	switch {
	case err != nil:
		wr.CloseWithError(err)
	case res.Status == http.StatusNotFound:
		wr.CloseWithError(fs.ErrNotExist)
	case !res.OK():
		wr.CloseWithError(res.Err())
	default:
		wr.Close()
	}
}

/*
 * Options
 */

// WithReaderLogger sets the logger for this reader
func WithReaderLogger(logger *slog.Logger) ObjectReaderOption {
	return func(r *ObjectReader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithReaderRange reads the bytes from start up to and including end.
func WithReaderRange(start, end int64) ObjectReaderOption {
	return func(r *ObjectReader) {
		r.header = r.header.Clone()
		r.header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))
	}
}

// WithReaderHeader sends an extra header with the download.
func WithReaderHeader(name, value string) ObjectReaderOption {
	return func(r *ObjectReader) {
		r.header = r.header.Clone()
		r.header.Set(name, value)
	}
}
