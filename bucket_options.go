package ossio

import (
	"context"
	"log/slog"

	"github.com/jobstoit/ossio/errs"
)

type bucketBuilder struct {
	createIfNotExist bool
	acl              string
	concurrency      int
	logger           *slog.Logger
}

func newBucketBuilder(c *Client) *bucketBuilder {
	return &bucketBuilder{
		concurrency: c.concurrency,
		logger:      c.logger,
	}
}

// BucketOption configures a Bucket.
type BucketOption func(*bucketBuilder)

// BucketOptions bundles bucket options
func BucketOptions(opts ...BucketOption) BucketOption {
	return func(b *bucketBuilder) {
		for _, op := range opts {
			op(b)
		}
	}
}

func (b *bucketBuilder) Build(ctx context.Context, c *Client, name string) (*Bucket, error) {
	exists, err := c.BucketExists(ctx, name)
	if err != nil {
		return nil, err
	}

	if !exists {
		if !b.createIfNotExist {
			return nil, errs.Newf(errs.ErrKindNotFound, "bucket does not exist: '%s'", name)
		}

		res, err := c.CreateBucket(ctx, CreateBucketInput{Bucket: name, ACL: b.acl})
		if err == nil {
			err = res.Err()
		}

		if err != nil {
			return nil, errs.Wrap(errs.KindOf(err), "creating missing bucket '"+name+"'", err)
		}
	} else if b.acl != "" {
		res, err := c.PutBucketACL(ctx, name, b.acl)
		if err == nil {
			err = res.Err()
		}

		if err != nil {
			return nil, errs.Wrap(errs.KindOf(err), "setting bucket '"+name+"' acl", err)
		}
	}

	return &Bucket{
		name:        name,
		cli:         c,
		concurrency: b.concurrency,
		logger:      b.logger.With(slog.String("bucket", name)),
	}, nil
}

// WithBucketCreateIfNotExists will create the bucket if it doesn't already exist.
func WithBucketCreateIfNotExists() BucketOption {
	return func(b *bucketBuilder) {
		b.createIfNotExist = true
	}
}

// WithBucketACL sets the canned ACL of the bucket, for example "private" or
// "public-read".
func WithBucketACL(acl string) BucketOption {
	return func(b *bucketBuilder) {
		b.acl = acl
	}
}

// WithBucketConcurrency sets how many requests Delete runs at once.
func WithBucketConcurrency(size int) BucketOption {
	return func(b *bucketBuilder) {
		if size < 1 {
			size = 1
		}

		b.concurrency = size
	}
}

// WithBucketLogger sets the default logger for any opperation.
// Setting the logger provides debug logs.
func WithBucketLogger(logger *slog.Logger) BucketOption {
	return func(b *bucketBuilder) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}

		b.logger = logger
	}
}
