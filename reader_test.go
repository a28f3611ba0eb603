package ossio_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/jobstoit/ossio"
)

func TestObjectReader(t *testing.T) {
	t.Parallel()

	bucket := getTestBucket(t, "reader-bucket")

	data := make([]byte, 1024*256+17)
	if _, err := rand.Read(data); err != nil {
		t.Fatalf("unable to generate data: %v", err)
	}

	if _, err := bucket.WriteAll(t.Context(), "data/random.bin", data); err != nil {
		t.Fatalf("unable to write object: %v", err)
	}

	t.Run("read all", func(t *testing.T) {
		p, err := bucket.ReadAll(t.Context(), "data/random.bin")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !bytes.Equal(p, data) {
			t.Errorf("expect %d bytes, got %d", len(data), len(p))
		}
	})

	t.Run("read range", func(t *testing.T) {
		p, err := bucket.ReadAll(t.Context(), "data/random.bin", ossio.WithReaderRange(100, 199))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !bytes.Equal(p, data[100:200]) {
			t.Errorf("expect bytes 100 to 199, got %d bytes", len(p))
		}
	})

	t.Run("read missing object", func(t *testing.T) {
		_, err := bucket.ReadAll(t.Context(), "data/missing.bin")
		if !errors.Is(err, fs.ErrNotExist) {
			t.Errorf("expect %v, got %v", fs.ErrNotExist, err)
		}
	})

	t.Run("read after close", func(t *testing.T) {
		rd := bucket.NewReader(t.Context(), "data/random.bin")

		buf := make([]byte, 10)
		if _, err := io.ReadFull(rd, buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := rd.Close(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err := rd.Close(); err != nil {
			t.Errorf("expect a second close to succeed, got %v", err)
		}

		if _, err := rd.Read(buf); !errors.Is(err, fs.ErrClosed) {
			t.Errorf("expect %v, got %v", fs.ErrClosed, err)
		}
	})

	t.Run("stat", func(t *testing.T) {
		rd := bucket.NewReader(t.Context(), "data/random.bin")
		defer rd.Close()

		info, err := rd.Stat()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if a, e := info.Size(), int64(len(data)); a != e {
			t.Errorf("expect %d, got %d", e, a)
		}

		if a, e := info.Name(), "random.bin"; a != e {
			t.Errorf("expect %s, got %s", e, a)
		}
	})
}
