package ossio

import (
	"errors"
	"time"
)

const (
	// DefaultExpires is the lifetime of a query signed URL when none is given.
	DefaultExpires = 60 * time.Second

	// deleteLimit is the maximum number of keys per multi-object delete.
	deleteLimit = 1000

	defaultConcurrency  = 5
	defaultMaxIdleConns = 64
	defaultScheme       = "https"
	contentTypeXML      = "application/xml"
	headerACL           = "x-oss-acl"
	headerCopySource    = "x-oss-copy-source"
	headerRequestID     = "x-oss-request-id"
)

// ErrClosedWriter is returned by Write after Close.
var ErrClosedWriter = errors.New("ossio: write on closed object writer")

type concurrencyLock struct {
	l chan struct{}
}

func newConcurrencyLock(size int) *concurrencyLock {
	if size < 1 {
		size = 1
	}

	return &concurrencyLock{
		l: make(chan struct{}, size),
	}
}

func (c *concurrencyLock) Lock() {
	c.l <- struct{}{}
}

func (c *concurrencyLock) Unlock() {
	<-c.l
}
