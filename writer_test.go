package ossio_test

import (
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/jobstoit/ossio"
)

func TestObjectWriter(t *testing.T) {
	t.Parallel()

	bucket := getTestBucket(t, "writer-bucket")

	t.Run("write in parts", func(t *testing.T) {
		wr := bucket.NewWriter(t.Context(), "parts.txt",
			ossio.WithWriterContentType("text/plain"),
			ossio.WithWriterMeta("origin", "writer-test"),
		)

		for _, part := range []string{"hello", ",", "world"} {
			if _, err := io.WriteString(wr, part); err != nil {
				t.Fatalf("unable to write part: %v", err)
			}
		}

		if err := wr.Close(); err != nil {
			t.Fatalf("unable to close writer: %v", err)
		}

		p, err := bucket.ReadAll(t.Context(), "parts.txt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if a, e := string(p), "hello,world"; a != e {
			t.Errorf("expect %q, got %q", e, a)
		}

		res, err := bucket.Client().HeadObject(t.Context(), bucket.Name(), "parts.txt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if a, e := res.Header.Get("Content-Type"), "text/plain"; a != e {
			t.Errorf("expect %s, got %s", e, a)
		}

		if a, e := res.Header.Get("x-oss-meta-origin"), "writer-test"; a != e {
			t.Errorf("expect %s, got %s", e, a)
		}
	})

	t.Run("write from reader", func(t *testing.T) {
		const size = 1024*1024 + 291

		n, err := bucket.WriteFrom(t.Context(), "random.bin", io.LimitReader(rand.Reader, size))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if n != size {
			t.Errorf("expect %d written, got %d", size, n)
		}

		info, err := bucket.Stat(t.Context(), "random.bin")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if a := info.Size(); a != size {
			t.Errorf("expect %d stored, got %d", size, a)
		}
	})

	t.Run("close without write", func(t *testing.T) {
		wr := bucket.NewWriter(t.Context(), "empty.txt")
		if err := wr.Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		info, err := bucket.Stat(t.Context(), "empty.txt")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if a := info.Size(); a != 0 {
			t.Errorf("expect an empty object, got %d bytes", a)
		}
	})

	t.Run("write after close", func(t *testing.T) {
		wr := bucket.NewWriter(t.Context(), "closed.txt")
		if _, err := io.WriteString(wr, "once"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := wr.Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := wr.Close(); err != nil {
			t.Errorf("expect a second close to return the upload result, got %v", err)
		}

		if _, err := io.WriteString(wr, "twice"); !errors.Is(err, ossio.ErrClosedWriter) {
			t.Errorf("expect %v, got %v", ossio.ErrClosedWriter, err)
		}
	})
}

func TestObjectWriterServiceError(t *testing.T) {
	t.Parallel()

	_, cli := newTestClient(t)
	bucket := cli.Bucket("missing-bucket")

	wr := bucket.NewWriter(t.Context(), "lost.txt")
	if _, err := io.Copy(wr, strings.NewReader("nowhere to go")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := wr.Close()

	var serr *ossio.ServiceError
	if !errors.As(err, &serr) {
		t.Fatalf("expect a service error, got %v", err)
	}

	if a, e := serr.Code, "NoSuchBucket"; a != e {
		t.Errorf("expect %s, got %s", e, a)
	}
}
