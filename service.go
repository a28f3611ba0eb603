package ossio

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jobstoit/ossio/sign"
)

// ListBucketsInput filters the bucket listing. Zero fields are not sent.
type ListBucketsInput struct {
	Prefix  string
	Marker  string
	MaxKeys int
}

// ListBuckets lists the buckets of the account. The decoded body is under
// Doc["ListAllMyBucketsResult"].
func (c *Client) ListBuckets(ctx context.Context, in ListBucketsInput) (*Response, error) {
	req := &sign.Request{Method: http.MethodGet}
	setParam(&req.Params, "prefix", in.Prefix)
	setParam(&req.Params, "marker", in.Marker)
	setMaxKeys(&req.Params, in.MaxKeys)

	return c.doDocument(ctx, req)
}

// CreateBucketInput describes a new bucket.
type CreateBucketInput struct {
	Bucket string

	// ACL is sent as x-oss-acl when set, for example "public-read".
	ACL string

	Header sign.Header
}

// CreateBucket creates a bucket.
func (c *Client) CreateBucket(ctx context.Context, in CreateBucketInput) (*Response, error) {
	if err := validateBucket(in.Bucket); err != nil {
		return nil, err
	}

	req := &sign.Request{
		Method: http.MethodPut,
		Bucket: in.Bucket,
		Header: in.Header.Clone(),
	}

	if in.ACL != "" {
		req.Header.Set(headerACL, in.ACL)
	}

	return c.Do(ctx, req, nil, Discard())
}

// DeleteBucket deletes an empty bucket. The service answers 204.
func (c *Client) DeleteBucket(ctx context.Context, bucket string) (*Response, error) {
	if err := validateBucket(bucket); err != nil {
		return nil, err
	}

	return c.Do(ctx, &sign.Request{Method: http.MethodDelete, Bucket: bucket}, nil, Discard())
}

// GetBucketACL reads the access control of a bucket. The decoded body is under
// Doc["AccessControlPolicy"].
func (c *Client) GetBucketACL(ctx context.Context, bucket string) (*Response, error) {
	if err := validateBucket(bucket); err != nil {
		return nil, err
	}

	req := &sign.Request{
		Method: http.MethodGet,
		Bucket: bucket,
		Params: sign.Params{{Name: "acl"}},
	}

	return c.doDocument(ctx, req)
}

// PutBucketACL replaces the canned access control of a bucket.
func (c *Client) PutBucketACL(ctx context.Context, bucket, acl string) (*Response, error) {
	if err := validateBucket(bucket); err != nil {
		return nil, err
	}

	req := &sign.Request{
		Method: http.MethodPut,
		Bucket: bucket,
		Header: sign.NewHeader(map[string]string{headerACL: acl}),
		Params: sign.Params{{Name: "acl"}},
	}

	return c.Do(ctx, req, nil, Discard())
}

// BucketExists reports whether bucket exists and is readable with the client's
// credentials. Any status but 200 and 404 is returned as a *ServiceError.
func (c *Client) BucketExists(ctx context.Context, bucket string) (bool, error) {
	res, err := c.GetBucketACL(ctx, bucket)
	if err != nil {
		return false, err
	}

	switch res.Status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, res.Err()
	}
}

// doDocument accumulates the body and decodes it.
func (c *Client) doDocument(ctx context.Context, req *sign.Request) (*Response, error) {
	res, err := c.Do(ctx, req, nil, Accumulate())
	if err != nil {
		return nil, err
	}

	if res.OK() {
		res.decodeDoc()
	}

	return res, nil
}

func setParam(p *sign.Params, name, value string) {
	if value != "" {
		p.Set(name, value)
	}
}

func setMaxKeys(p *sign.Params, n int) {
	if n > 0 {
		p.Set("max-keys", strconv.Itoa(n))
	}
}
