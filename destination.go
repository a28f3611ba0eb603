package ossio

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/jobstoit/ossio/errs"
)

// Destination receives the body of a download. It is created with Discard,
// Accumulate, ToFile or ToWriter; no other implementations exist.
type Destination interface {
	// check reports local problems before anything is sent.
	check() error

	// open is called once a 2xx status has arrived.
	open() (*sink, error)
}

// sink is a resolved Destination for one call.
type sink struct {
	w io.Writer

	// buf is set when the body is kept in Response.Body.
	buf *bytes.Buffer

	// commit flushes and releases the sink after a complete transfer.
	commit func() error

	// release frees the sink without flushing. It is safe to call after
	// commit.
	release func() error
}

// Discard reads and drops the body.
func Discard() Destination {
	return discardDest{}
}

// Accumulate keeps the body in Response.Body.
func Accumulate() Destination {
	return accumulateDest{}
}

// ToFile writes the body to path, creating or truncating it. The file is
// synced and closed before the call returns.
func ToFile(path string) Destination {
	return fileDest(path)
}

// ToWriter copies the body into w. w is never closed.
func ToWriter(w io.Writer) Destination {
	return writerDest{w: w}
}

type discardDest struct{}

func (discardDest) check() error { return nil }

func (discardDest) open() (*sink, error) {
	return &sink{w: io.Discard, commit: noRelease, release: noRelease}, nil
}

type accumulateDest struct{}

func (accumulateDest) check() error { return nil }

func (accumulateDest) open() (*sink, error) {
	buf := &bytes.Buffer{}

	return &sink{w: buf, buf: buf, commit: noRelease, release: noRelease}, nil
}

type fileDest string

func (d fileDest) check() error {
	path := string(d)

	dir, err := os.Stat(filepath.Dir(path))
	if err != nil {
		return errs.FromFS("stat destination directory", err)
	}

	if !dir.IsDir() {
		return errs.Newf(errs.ErrKindInvalidArgument, "parent of destination %q is not a directory", path)
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return errs.Newf(errs.ErrKindInvalidArgument, "destination %q is a directory", path)
	}

	return nil
}

func (d fileDest) open() (*sink, error) {
	f, err := os.OpenFile(string(d), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errs.FromFS("open destination file", err)
	}

	release := releaseOnce(f.Close)

	return &sink{
		w: f,
		commit: func() error {
			if err := f.Sync(); err != nil {
				_ = release()
				return errs.FromFS("sync destination file", err)
			}

			if err := release(); err != nil {
				return errs.FromFS("close destination file", err)
			}

			return nil
		},
		release: release,
	}, nil
}

type writerDest struct {
	w io.Writer
}

func (d writerDest) check() error {
	if d.w == nil {
		return errs.New(errs.ErrKindInvalidArgument, "destination writer is nil")
	}

	return nil
}

func (d writerDest) open() (*sink, error) {
	return &sink{w: d.w, commit: noRelease, release: noRelease}, nil
}
