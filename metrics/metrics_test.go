package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentRoundTripper(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()

	m := New()
	cli := &http.Client{Transport: m.InstrumentRoundTripper(srv.Client().Transport)}

	for _, method := range []string{http.MethodGet, http.MethodGet, http.MethodDelete} {
		req, err := http.NewRequestWithContext(t.Context(), method, srv.URL, nil)
		if err != nil {
			t.Fatalf("unable to build request: %v", err)
		}

		res, err := cli.Do(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		_, _ = io.Copy(io.Discard, res.Body)
		res.Body.Close()
	}

	if e, a := 2.0, testutil.ToFloat64(m.requests.WithLabelValues("200", "get")); e != a {
		t.Errorf("expect %v GET requests, got %v", e, a)
	}

	if e, a := 1.0, testutil.ToFloat64(m.requests.WithLabelValues("204", "delete")); e != a {
		t.Errorf("expect %v DELETE requests, got %v", e, a)
	}

	if e, a := 0.0, testutil.ToFloat64(m.inflight); e != a {
		t.Errorf("expect %v inflight requests, got %v", e, a)
	}

	if e, a := 2, testutil.CollectAndCount(m.latency); e != a {
		t.Errorf("expect %v latency series, got %v", e, a)
	}
}

func TestObserveTransfer(t *testing.T) {
	m := New()

	m.ObserveTransfer(DirectionUpload, 10)
	m.ObserveTransfer(DirectionUpload, 5)
	m.ObserveTransfer(DirectionDownload, 0)

	expected := `
# HELP ossio_client_transferred_bytes_total Total number of payload bytes moved, partitioned by direction.
# TYPE ossio_client_transferred_bytes_total counter
ossio_client_transferred_bytes_total{direction="upload"} 15
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "ossio_client_transferred_bytes_total"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}
