package ossio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/jobstoit/ossio/sign"
)

// ObjectWriter is an io.WriteCloser that streams everything written to it
// into one object with a chunked PUT.
type ObjectWriter struct {
	ctx    context.Context
	cli    *Client
	bucket string
	key    string
	header sign.Header
	logger *slog.Logger

	mux        sync.Mutex
	wr         *io.PipeWriter
	closed     bool
	closingErr chan error
	err        error
}

// ObjectWriterOption is an option for the given write operation
type ObjectWriterOption func(*ObjectWriter)

// ObjectWriterOptions is a collection of ObjectWriterOption's
func ObjectWriterOptions(opts ...ObjectWriterOption) ObjectWriterOption {
	return func(w *ObjectWriter) {
		for _, op := range opts {
			op(w)
		}
	}
}

// Write is the io.Writer implementation of the ObjectWriter
func (w *ObjectWriter) Write(p []byte) (int, error) {
	wr, err := w.pipe()
	if err != nil {
		return 0, err
	}

	return wr.Write(p)
}

// Close finishes the upload and returns its outcome. A response outside 2xx is
// returned as a *ServiceError. Closing a writer that was never written to
// uploads an empty object.
func (w *ObjectWriter) Close() error {
	wr, err := w.pipe()
	if err != nil {
		if errors.Is(err, ErrClosedWriter) {
			return w.err
		}

		return err
	}

	w.mux.Lock()
	defer w.mux.Unlock()

	w.closed = true
	wr.Close()

	w.logger.DebugContext(w.ctx, "closing writer")
	w.err = <-w.closingErr

	w.logger.DebugContext(w.ctx, "closing writer error recieved", slog.Any("error", w.err))
	return w.err
}

func (w *ObjectWriter) pipe() (*io.PipeWriter, error) {
	w.mux.Lock()
	defer w.mux.Unlock()

	if w.closed {
		return nil, ErrClosedWriter
	}

	if w.wr == nil {
		rd, wr := io.Pipe()

		w.wr = wr
		w.closingErr = make(chan error, 1)

		go w.upload(rd)
	}

	return w.wr, nil
}

func (w *ObjectWriter) upload(rd *io.PipeReader) {
	w.logger.DebugContext(w.ctx, "upload", slog.String("key", w.key))

	res, err := w.cli.PutObject(w.ctx, PutObjectInput{
		Bucket: w.bucket,
		Object: w.key,
		Source: FromReader(rd, -1),
		Header: w.header,
	})
	if err == nil {
		err = res.Err()
	}

	// Unblock writers when the upload ended before the body did.
	if err != nil {
		rd.CloseWithError(err)
	} else {
		rd.Close()
	}

	w.closingErr <- err
}

/*
 * Options
 */

// WithWriterLogger adds a logger for this writer
func WithWriterLogger(logger *slog.Logger) ObjectWriterOption {
	return func(w *ObjectWriter) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithWriterContentType sets the Content-Type of the object.
func WithWriterContentType(contentType string) ObjectWriterOption {
	return WithWriterHeader(sign.HeaderContentType, contentType)
}

// WithWriterACL sets the ACL for the object thats written
func WithWriterACL(acl string) ObjectWriterOption {
	return WithWriterHeader("x-oss-object-acl", acl)
}

// WithWriterMeta stores a x-oss-meta- metadata field with the object.
func WithWriterMeta(name, value string) ObjectWriterOption {
	return WithWriterHeader("x-oss-meta-"+name, value)
}

// WithWriterHeader sends an extra header with the upload.
func WithWriterHeader(name, value string) ObjectWriterOption {
	return func(w *ObjectWriter) {
		w.header = w.header.Clone()
		w.header.Set(name, value)
	}
}
