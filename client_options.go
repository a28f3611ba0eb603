package ossio

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/jobstoit/ossio/errs"
	"github.com/jobstoit/ossio/metrics"
	"github.com/jobstoit/ossio/sign"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jobstoit/ossio"

type clientBuilder struct {
	provider       aws.CredentialsProvider
	httpClient     *http.Client
	transport      http.RoundTripper
	maxIdleConns   int
	timeout        time.Duration
	concurrency    int
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	metrics        *metrics.Metrics
	clock          func() time.Time
}

func newClientBuilder() *clientBuilder {
	return &clientBuilder{
		maxIdleConns: defaultMaxIdleConns,
		concurrency:  defaultConcurrency,
		logger:       slog.New(slog.DiscardHandler),
		clock:        time.Now,
	}
}

// Option configures a Client.
type Option func(*clientBuilder)

// Options bundles client options
func Options(opts ...Option) Option {
	return func(b *clientBuilder) {
		for _, op := range opts {
			op(b)
		}
	}
}

func (b *clientBuilder) Build(ctx context.Context, endpoint string) (*Client, error) {
	scheme, host, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	if b.provider == nil {
		return nil, errs.New(errs.ErrKindConfiguration, "no credentials configured")
	}

	creds, err := b.provider.Retrieve(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfiguration, "retrieving credentials", err)
	}

	signer, err := sign.NewSigner(sign.Credential{
		AccessKeyID:     creds.AccessKeyID,
		AccessKeySecret: creds.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}

	tp := b.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Client{
		scheme:       scheme,
		host:         host,
		signer:       signer,
		sessionToken: creds.SessionToken,
		http:         b.buildHTTPClient(),
		logger:       b.logger,
		tracer:       tp.Tracer(tracerName),
		metrics:      b.metrics,
		clock:        b.clock,
		concurrency:  b.concurrency,
	}, nil
}

// buildHTTPClient returns the connection pool owned by the client.
func (b *clientBuilder) buildHTTPClient() *http.Client {
	var cli http.Client
	if b.httpClient != nil {
		cli = *b.httpClient
	}

	if b.transport != nil {
		cli.Transport = b.transport
	}

	if cli.Transport == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.MaxIdleConns = b.maxIdleConns
		tr.MaxIdleConnsPerHost = b.maxIdleConns

		cli.Transport = tr
	}

	if b.timeout > 0 {
		cli.Timeout = b.timeout
	}

	if b.metrics != nil {
		cli.Transport = b.metrics.InstrumentRoundTripper(cli.Transport)
	}

	return &cli
}

// parseEndpoint accepts "host[:port]" or "scheme://host[:port]".
func parseEndpoint(endpoint string) (scheme, host string, err error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", "", errs.New(errs.ErrKindConfiguration, "endpoint is empty")
	}

	if !strings.Contains(endpoint, "://") {
		endpoint = defaultScheme + "://" + endpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", errs.Wrap(errs.ErrKindConfiguration, "parsing endpoint", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", errs.Newf(errs.ErrKindConfiguration, "endpoint scheme %q is not http or https", u.Scheme)
	}

	if u.Host == "" || (u.Path != "" && u.Path != "/") || u.RawQuery != "" {
		return "", "", errs.Newf(errs.ErrKindConfiguration, "endpoint %q must be a bare host", endpoint)
	}

	return u.Scheme, u.Host, nil
}

// WithCredentials sets a static access key pair.
func WithCredentials(accessKeyID, accessKeySecret string) Option {
	return func(b *clientBuilder) {
		b.provider = credentials.NewStaticCredentialsProvider(accessKeyID, accessKeySecret, "")
	}
}

// WithCredentialsProvider resolves the access key pair from provider. It is
// called once, when the client is built. A session token is sent as
// x-oss-security-token.
func WithCredentialsProvider(provider aws.CredentialsProvider) Option {
	return func(b *clientBuilder) {
		b.provider = provider
	}
}

// WithHTTPClient sets the http client used for every request. The client is
// copied, later changes to it have no effect.
func WithHTTPClient(cli *http.Client) Option {
	return func(b *clientBuilder) {
		b.httpClient = cli
	}
}

// WithTransport sets the round tripper of the client's connection pool.
func WithTransport(rt http.RoundTripper) Option {
	return func(b *clientBuilder) {
		b.transport = rt
	}
}

// WithMaxIdleConnsPerHost sets the idle connection limit of the default
// transport. Ignored when a transport or http client is given.
func WithMaxIdleConnsPerHost(n int) Option {
	return func(b *clientBuilder) {
		if n < 1 {
			n = 1
		}

		b.maxIdleConns = n
	}
}

// WithTimeout limits each exchange, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(b *clientBuilder) {
		b.timeout = d
	}
}

// WithConcurrency sets how many requests bucket helpers run at once.
func WithConcurrency(n int) Option {
	return func(b *clientBuilder) {
		if n < 1 {
			n = 1
		}

		b.concurrency = n
	}
}

// WithLogger sets the logger for every operation.
// Setting the logger provides debug logs.
func WithLogger(logger *slog.Logger) Option {
	return func(b *clientBuilder) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}

		b.logger = logger
	}
}

// WithTracerProvider sets the provider for request spans. The global provider
// is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(b *clientBuilder) {
		b.tracerProvider = tp
	}
}

// WithMetrics records request and transfer metrics in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(b *clientBuilder) {
		b.metrics = m
	}
}

// WithClock sets the time source for the Date header and signed URL expiry.
func WithClock(now func() time.Time) Option {
	return func(b *clientBuilder) {
		if now == nil {
			now = time.Now
		}

		b.clock = now
	}
}
