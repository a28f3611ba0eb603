package ossio

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jobstoit/ossio/errs"
	"github.com/jobstoit/ossio/sign"
)

// SignedURLInput describes a request to be sent by another HTTP client.
type SignedURLInput struct {
	// Method defaults to GET.
	Method string
	Bucket string
	Object string

	// Header holds the headers the request will be sent with. Content-Type,
	// Content-MD5 and x-oss-* headers are part of the signature and must be
	// sent exactly as given.
	Header sign.Header

	// SignHeaders signs the request in the Authorization and Date headers
	// instead of the URL. The returned headers are then valid for about
	// fifteen minutes, the clock skew the service tolerates.
	SignHeaders bool

	// Expires is the lifetime of a URL signature. DefaultExpires is used when
	// it is zero. It is ignored when SignHeaders is set.
	Expires time.Duration
}

// SignedURL is a presigned request.
type SignedURL struct {
	Method string
	URL    string

	// Header must be sent with the request.
	Header sign.Header

	// SignedHeaders lists the x-oss-* header names folded into a URL
	// signature. The request is rejected unless each is sent unchanged.
	SignedHeaders []string

	// Expires is the moment a URL signature stops being accepted. It is zero
	// for header signatures.
	Expires time.Time
}

// SignedURL signs a request without sending it. Nothing is checked against
// the local clock later on: whether the signature is still valid is decided
// by the service when it receives the request.
func (c *Client) SignedURL(in SignedURLInput) (*SignedURL, error) {
	if err := validateObject(in.Bucket, in.Object); err != nil {
		return nil, err
	}

	method := strings.ToUpper(in.Method)
	if method == "" {
		method = http.MethodGet
	}

	req := &sign.Request{
		Method: method,
		Bucket: in.Bucket,
		Object: in.Object,
		Header: in.Header.Clone(),
	}

	now := c.clock()
	out := &SignedURL{Method: method}

	if in.SignHeaders {
		if c.sessionToken != "" {
			req.Header.Set(headerSecurityToken, c.sessionToken)
		}

		header := req.Header.Clone()
		c.signer.HeaderAuth(req, now).Apply(&header, nil)

		out.URL = c.resourceURL(req.Bucket, req.Object, nil)
		out.Header = header

		return out, nil
	}

	ttl := in.Expires
	if ttl <= 0 {
		ttl = DefaultExpires
	}

	out.Expires = now.Truncate(time.Second).Add(ttl)
	req.Expires = out.Expires.Unix()

	if c.sessionToken != "" {
		req.Params.Set(paramSecurityToken, c.sessionToken)
	}

	params := req.Params.Clone()
	q := c.signer.QuerySignature(req, req.Expires)
	q.Apply(nil, &params)

	out.URL = c.resourceURL(req.Bucket, req.Object, params)
	out.Header = req.Header
	out.SignedHeaders = q.SignedHeaders

	return out, nil
}

// NewRequest returns an http.Request for s carrying its headers, ready for any
// http.Client.
func (s *SignedURL) NewRequest(ctx context.Context, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, s.Method, s.URL, body)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidArgument, "building signed request", err)
	}

	s.Header.WriteTo(req.Header)

	return req, nil
}
