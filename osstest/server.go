// Package osstest provides an in-memory OSS service for tests.
//
// The Server speaks enough of the REST dialect for the ossio client: buckets
// with virtual hosted addressing, objects with metadata, listings, copies,
// multi-object deletes and access control lists. Every request is
// authenticated with the sign package, in the Authorization header or in the
// URL, against the Server's own clock so that expiry can be tested without
// sleeping:
//
//	srv := osstest.New()
//	defer srv.Close()
//
//	cli, err := ossio.New(ctx, srv.Endpoint(),
//	  ossio.WithCredentials(osstest.AccessKeyID, osstest.AccessKeySecret),
//	  ossio.WithHTTPClient(srv.HTTPClient()),
//	)
//
// Bucket host names such as my-bucket.oss.test do not resolve; HTTPClient
// dials the server for any host.
package osstest

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jobstoit/ossio/sign"
)

// Default credentials accepted by a Server.
const (
	AccessKeyID     = "osstest-access-key"
	AccessKeySecret = "osstest-access-secret"
)

// Host is the service host name of every Server.
const Host = "oss.test"

// MaxClockSkew is how far a Date header may be from the server clock.
const MaxClockSkew = 15 * time.Minute

// Server is an in-memory OSS service on a local listener.
type Server struct {
	srv     *httptest.Server
	cred    sign.Credential
	ownerID string

	mux     sync.Mutex
	buckets map[string]*bucket
	offset  time.Duration

	requests atomic.Int64
}

// Option configures a Server.
type Option func(*Server)

// WithCredential replaces the access key pair the server accepts.
func WithCredential(cred sign.Credential) Option {
	return func(s *Server) {
		s.cred = cred
	}
}

// New starts a Server.
func New(opts ...Option) *Server {
	s := &Server{
		cred: sign.Credential{
			AccessKeyID:     AccessKeyID,
			AccessKeySecret: AccessKeySecret,
		},
		ownerID: uuid.NewString(),
		buckets: make(map[string]*bucket),
	}

	for _, op := range opts {
		op(s)
	}

	s.srv = httptest.NewServer(s.routes())

	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.count)
	r.Use(s.requestID)
	r.Use(s.resolveBucket)
	r.Use(s.authenticate)

	r.Get("/", s.handleGetBucket)
	r.Put("/", s.handlePutBucket)
	r.Delete("/", s.handleDeleteBucket)
	r.Post("/", s.handlePostBucket)

	r.Get("/*", s.handleGetObject)
	r.Head("/*", s.handleHeadObject)
	r.Put("/*", s.handlePutObject)
	r.Delete("/*", s.handleDeleteObject)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "NotFound", "The requested resource does not exist.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "MethodNotAllowed", "The specified method is not allowed against this resource.")
	})

	return r
}

// Close shuts the server down.
func (s *Server) Close() {
	s.srv.Close()
}

// Endpoint is the endpoint to give to ossio.New.
func (s *Server) Endpoint() string {
	return "http://" + Host
}

// URL is the address of the listener.
func (s *Server) URL() string {
	return s.srv.URL
}

// Transport returns a round tripper that sends every request to the server,
// whatever its host.
func (s *Server) Transport() *http.Transport {
	addr := s.srv.Listener.Addr().String()

	return &http.Transport{
		DialContext: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, addr)
		},
		MaxIdleConnsPerHost: 16,
	}
}

// HTTPClient returns a client that sends every request to the server.
func (s *Server) HTTPClient() *http.Client {
	return &http.Client{Transport: s.Transport()}
}

// Now returns the server clock.
func (s *Server) Now() time.Time {
	s.mux.Lock()
	defer s.mux.Unlock()

	return time.Now().Add(s.offset)
}

// Advance moves the server clock forward by d.
func (s *Server) Advance(d time.Duration) {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.offset += d
}

// Requests returns the number of requests received so far.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

func (s *Server) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		next.ServeHTTP(w, r)
	})
}

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxBucket
)

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
		w.Header().Set("x-oss-request-id", id)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxRequestID, id)))
	})
}

// resolveBucket takes the bucket name from a virtual hosted Host header.
func (s *Server) resolveBucket(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}

		var name string
		switch {
		case host == Host:
		case strings.HasSuffix(host, "."+Host):
			name = strings.TrimSuffix(host, "."+Host)
		default:
			writeError(w, r, http.StatusBadRequest, "InvalidURI", "The host "+host+" is not served here.")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxBucket, name)))
	})
}

func bucketName(r *http.Request) string {
	name, _ := r.Context().Value(ctxBucket).(string)
	return name
}

func objectKey(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, "/")
}

func requestIDOf(r *http.Request) string {
	id, _ := r.Context().Value(ctxRequestID).(string)
	return id
}
