package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jobstoit/ossio"
	"github.com/jobstoit/ossio/errs"
	"github.com/jobstoit/ossio/osstest"
)

type result struct {
	stdout string
	stderr string
	err    error
}

// newTestServer starts a server and points the configuration at it.
func newTestServer(t *testing.T) *osstest.Server {
	t.Helper()

	srv := osstest.New()
	t.Cleanup(srv.Close)

	t.Setenv("OSSIO_CONFIG", filepath.Join(t.TempDir(), "ossctl.yaml"))
	t.Setenv("OSSIO_ENDPOINT", srv.Endpoint())
	t.Setenv("OSSIO_ACCESS_KEY_ID", osstest.AccessKeyID)
	t.Setenv("OSSIO_ACCESS_KEY_SECRET", osstest.AccessKeySecret)
	t.Setenv("OSSIO_PROFILE", "")
	t.Setenv("OSSIO_LOG_LEVEL", "")
	t.Setenv("OSSIO_MAX_IDLE_CONNS", "")
	t.Setenv("OSSIO_TIMEOUT", "")

	return srv
}

func run(t *testing.T, srv *osstest.Server, stdin io.Reader, args ...string) result {
	t.Helper()

	if stdin == nil {
		stdin = strings.NewReader("")
	}

	var stdout, stderr bytes.Buffer
	app := newApp(env{
		stdin:  stdin,
		stdout: &stdout,
		stderr: &stderr,
		opts:   []ossio.Option{ossio.WithHTTPClient(srv.HTTPClient())},
	})

	err := app.RunContext(t.Context(), append([]string{"ossctl"}, args...))

	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func mustRun(t *testing.T, srv *osstest.Server, stdin io.Reader, args ...string) string {
	t.Helper()

	res := run(t, srv, stdin, args...)
	if res.err != nil {
		t.Fatalf("ossctl %s: %v", strings.Join(args, " "), res.err)
	}

	return res.stdout
}

func TestBucketCommands(t *testing.T) {
	srv := newTestServer(t)

	mustRun(t, srv, nil, "mb", "first-bucket")
	mustRun(t, srv, nil, "mb", "--acl", "public-read", "second-bucket")

	out := mustRun(t, srv, nil, "buckets")
	for _, name := range []string{"first-bucket", "second-bucket"} {
		if !strings.Contains(out, name) {
			t.Errorf("expect %s in %q", name, out)
		}
	}

	out = mustRun(t, srv, nil, "buckets", "--prefix", "second")
	if strings.Contains(out, "first-bucket") {
		t.Errorf("expect the prefix to filter first-bucket, got %q", out)
	}

	mustRun(t, srv, nil, "rb", "first-bucket")

	out = mustRun(t, srv, nil, "buckets")
	if strings.Contains(out, "first-bucket") {
		t.Errorf("expect first-bucket to be removed, got %q", out)
	}
}

func TestRemoveBucketForce(t *testing.T) {
	srv := newTestServer(t)

	mustRun(t, srv, nil, "mb", "full-bucket")
	mustRun(t, srv, strings.NewReader("a"), "put", "-", "full-bucket/a.txt")
	mustRun(t, srv, strings.NewReader("b"), "put", "-", "full-bucket/dir/b.txt")

	res := run(t, srv, nil, "rb", "full-bucket")

	var serr *ossio.ServiceError
	if !errors.As(res.err, &serr) {
		t.Fatalf("expect a service error, got %v", res.err)
	}

	if a, e := serr.Code, "BucketNotEmpty"; a != e {
		t.Errorf("expect %s, got %s", e, a)
	}

	if a, e := exitCode(res.err), 3; a != e {
		t.Errorf("expect exit code %d, got %d", e, a)
	}

	mustRun(t, srv, nil, "rb", "--force", "full-bucket")

	if out := mustRun(t, srv, nil, "buckets"); strings.Contains(out, "full-bucket") {
		t.Errorf("expect full-bucket to be removed, got %q", out)
	}
}

func TestObjectCommands(t *testing.T) {
	srv := newTestServer(t)
	mustRun(t, srv, nil, "mb", "object-bucket")

	file := filepath.Join(t.TempDir(), "upload.txt")
	if err := os.WriteFile(file, []byte("hello,world"), 0o644); err != nil {
		t.Fatalf("unable to write file: %v", err)
	}

	out := mustRun(t, srv, nil, "put", "--content-type", "text/plain", "--meta", "origin=ossctl", file, "oss://object-bucket/docs/hello.txt")
	if a, e := strings.TrimSpace(out), "http://object-bucket.oss.test/docs/hello.txt"; a != e {
		t.Errorf("expect %s, got %s", e, a)
	}

	res := run(t, srv, nil, "ls", "object-bucket", "docs/")
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}

	if !strings.Contains(res.stdout, "11 B") || !strings.Contains(res.stdout, "docs/hello.txt") {
		t.Errorf("expect the size and key in %q", res.stdout)
	}

	if a, e := res.stderr, "1 objects, 11 B\n"; a != e {
		t.Errorf("expect %q, got %q", e, a)
	}

	out = mustRun(t, srv, nil, "head", "object-bucket/docs/hello.txt")
	for _, line := range []string{"size: 11 B", "content-type: text/plain", "x-oss-meta-origin: ossctl"} {
		if !strings.Contains(out, line) {
			t.Errorf("expect %q in %q", line, out)
		}
	}

	if a, e := mustRun(t, srv, nil, "get", "object-bucket/docs/hello.txt"), "hello,world"; a != e {
		t.Errorf("expect %q, got %q", e, a)
	}

	mustRun(t, srv, nil, "cp", "object-bucket/docs/hello.txt", "object-bucket/copy.txt")

	download := filepath.Join(t.TempDir(), "download.txt")

	res = run(t, srv, nil, "get", "object-bucket/copy.txt", download)
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}

	if !strings.HasPrefix(res.stderr, "11 B written to ") {
		t.Errorf("expect a summary, got %q", res.stderr)
	}

	p, err := os.ReadFile(download)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a, e := string(p), "hello,world"; a != e {
		t.Errorf("expect %q, got %q", e, a)
	}

	mustRun(t, srv, nil, "rm", "object-bucket/docs/hello.txt", "object-bucket/copy.txt")

	res = run(t, srv, nil, "ls", "object-bucket")
	if res.err != nil {
		t.Fatalf("unexpected error: %v", res.err)
	}

	if a, e := res.stdout, ""; a != e {
		t.Errorf("expect an empty listing, got %q", a)
	}
}

func TestPutFromStdin(t *testing.T) {
	srv := newTestServer(t)
	mustRun(t, srv, nil, "mb", "stdin-bucket")

	mustRun(t, srv, strings.NewReader("streamed body"), "put", "-", "stdin-bucket/stream.txt")

	if a, e := mustRun(t, srv, nil, "get", "stdin-bucket/stream.txt"), "streamed body"; a != e {
		t.Errorf("expect %q, got %q", e, a)
	}
}

func TestSignCommand(t *testing.T) {
	srv := newTestServer(t)
	mustRun(t, srv, nil, "mb", "sign-bucket")
	mustRun(t, srv, strings.NewReader("signed"), "put", "-", "sign-bucket/signed.txt")

	t.Run("query", func(t *testing.T) {
		res := run(t, srv, nil, "sign", "--expires", "5m", "sign-bucket/signed.txt")
		if res.err != nil {
			t.Fatalf("unexpected error: %v", res.err)
		}

		if !strings.HasPrefix(res.stderr, "expires ") {
			t.Errorf("expect the expiry on stderr, got %q", res.stderr)
		}

		req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, strings.TrimSpace(res.stdout), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expectBody(t, srv, req, "signed")
	})

	t.Run("query with signed headers", func(t *testing.T) {
		res := run(t, srv, nil, "sign", "--header", "x-oss-meta-origin=ossctl", "sign-bucket/signed.txt")
		if res.err != nil {
			t.Fatalf("unexpected error: %v", res.err)
		}

		if !strings.HasPrefix(res.stderr, "signed headers: x-oss-meta-origin\n") {
			t.Errorf("expect the signed header names on stderr, got %q", res.stderr)
		}

		lines := strings.Split(strings.TrimSpace(res.stdout), "\n")

		req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, lines[0], nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, line := range lines[1:] {
			name, value, _ := strings.Cut(line, ": ")
			req.Header.Set(name, value)
		}

		expectBody(t, srv, req, "signed")
	})

	t.Run("bad header", func(t *testing.T) {
		res := run(t, srv, nil, "sign", "--header", "novalue", "sign-bucket/signed.txt")
		if !errs.IsInvalidArgument(res.err) {
			t.Errorf("expect an invalid argument error, got %v", res.err)
		}
	})

	t.Run("headers", func(t *testing.T) {
		out := mustRun(t, srv, nil, "sign", "--headers", "sign-bucket/signed.txt")

		lines := strings.Split(strings.TrimSpace(out), "\n")

		req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, lines[0], nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, line := range lines[1:] {
			name, value, _ := strings.Cut(line, ": ")
			req.Header.Set(name, value)
		}

		if !strings.HasPrefix(req.Header.Get("Authorization"), "OSS "+osstest.AccessKeyID+":") {
			t.Errorf("expect an OSS authorization header, got %q", out)
		}

		expectBody(t, srv, req, "signed")
	})
}

func expectBody(t *testing.T, srv *osstest.Server, req *http.Request, body string) {
	t.Helper()

	res, err := srv.HTTPClient().Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer res.Body.Close()

	if a, e := res.StatusCode, http.StatusOK; a != e {
		t.Fatalf("expect %d, got %d", e, a)
	}

	p, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a, e := string(p), body; a != e {
		t.Errorf("expect %q, got %q", e, a)
	}
}

func TestEndpointFlag(t *testing.T) {
	srv := newTestServer(t)
	t.Setenv("OSSIO_ENDPOINT", "")

	res := run(t, srv, nil, "buckets")
	if !errs.IsConfiguration(res.err) {
		t.Errorf("expect a configuration error, got %v", res.err)
	}

	if a, e := exitCode(res.err), 2; a != e {
		t.Errorf("expect exit code %d, got %d", e, a)
	}

	if res := run(t, srv, nil, "--endpoint", srv.Endpoint(), "buckets"); res.err != nil {
		t.Errorf("unexpected error: %v", res.err)
	}
}

func TestCommandErrors(t *testing.T) {
	srv := newTestServer(t)
	mustRun(t, srv, nil, "mb", "error-bucket")

	before := srv.Requests()

	cases := map[string][]string{
		"missing key":    {"get", "error-bucket"},
		"too many args":  {"head", "error-bucket/a", "error-bucket/b"},
		"bad metadata":   {"put", "--meta", "novalue", "-", "error-bucket/a"},
		"missing source": {"cp", "error-bucket/a"},
	}

	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			res := run(t, srv, nil, args...)
			if !errs.IsInvalidArgument(res.err) {
				t.Errorf("expect an invalid argument error, got %v", res.err)
			}
		})
	}

	if a, e := srv.Requests(), before; a != e {
		t.Errorf("expect no requests for invalid arguments, got %d", a-e)
	}

	res := run(t, srv, nil, "get", "error-bucket/missing.txt")

	var serr *ossio.ServiceError
	if !errors.As(res.err, &serr) {
		t.Fatalf("expect a service error, got %v", res.err)
	}

	if a, e := serr.Code, "NoSuchKey"; a != e {
		t.Errorf("expect %s, got %s", e, a)
	}

	if a, e := res.stdout, ""; a != e {
		t.Errorf("expect nothing written for an error response, got %q", a)
	}

	missing := filepath.Join(t.TempDir(), "missing.txt")
	if res := run(t, srv, nil, "put", missing, "error-bucket/a"); !errs.IsNotFound(res.err) {
		t.Errorf("expect a not found error, got %v", res.err)
	}
}
