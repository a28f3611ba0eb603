package ossio

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jobstoit/ossio/errs"
	"github.com/jobstoit/ossio/metrics"
	"github.com/jobstoit/ossio/sign"
	"github.com/minio/minio-go/v7/pkg/s3utils"
	"go.opentelemetry.io/otel/trace"
)

// Client talks to one OSS endpoint with one access key pair. It is safe for
// concurrent use; every call owns its own request and the client only shares
// the signer and the connection pool.
type Client struct {
	scheme       string
	host         string
	signer       *sign.Signer
	sessionToken string
	http         *http.Client
	logger       *slog.Logger
	tracer       trace.Tracer
	metrics      *metrics.Metrics
	clock        func() time.Time
	concurrency  int
}

// New returns a client for endpoint. The endpoint is a host, optionally with a
// port and an http or https scheme; https is assumed when the scheme is left
// out. Credentials are required and are checked here, never per call.
func New(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	builder := newClientBuilder()
	Options(opts...)(builder)

	return builder.Build(ctx, endpoint)
}

// Endpoint returns the scheme and host requests are sent to.
func (c *Client) Endpoint() string {
	return c.scheme + "://" + c.host
}

// HTTPClient returns the http client the Client sends requests with.
func (c *Client) HTTPClient() *http.Client {
	return c.http
}

// ObjectURL returns the virtual hosted URL of an object, without a signature.
func (c *Client) ObjectURL(bucket, object string) string {
	return c.resourceURL(bucket, object, nil)
}

func (c *Client) resourceURL(bucket, object string, params sign.Params) string {
	u := c.scheme + "://"
	if bucket != "" {
		u += bucket + "."
	}

	u += c.host + "/" + s3utils.EncodePath(object)
	if q := params.Encode(); q != "" {
		u += "?" + q
	}

	return u
}

func validateBucket(name string) error {
	if err := s3utils.CheckValidBucketNameStrict(name); err != nil {
		return errs.Wrap(errs.ErrKindInvalidArgument, "invalid bucket name "+quote(name), err)
	}

	return nil
}

func validateObject(bucket, object string) error {
	if err := validateBucket(bucket); err != nil {
		return err
	}

	if err := s3utils.CheckValidObjectName(object); err != nil {
		return errs.Wrap(errs.ErrKindInvalidArgument, "invalid object name "+quote(object), err)
	}

	return nil
}

func quote(s string) string {
	return "'" + s + "'"
}
