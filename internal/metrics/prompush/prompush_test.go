package prompush

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"discogsload/internal/metrics"
)

func TestNewBackendRequiresURL(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend("discogsload", ""); err == nil {
		t.Fatal("empty gateway URL must be rejected")
	}
}

func TestIncCounterRouting(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("discogsload", "http://localhost:9091")
	if err != nil {
		t.Fatal(err)
	}

	b.IncCounter("dump_files_total", 1, metrics.Labels{"file": "releases.xml.gz", "status": "success"})
	b.IncCounter("dump_records_total", 10000, metrics.Labels{"file": "releases.xml.gz", "kind": "inserted"})
	b.IncCounter("dump_batches_total", 2, metrics.Labels{"file": "releases.xml.gz"})
	b.IncCounter("dump_nope_total", 5, nil) // unknown: dropped

	if got := testutil.ToFloat64(b.fileCounter.WithLabelValues("releases.xml.gz", "success")); got != 1 {
		t.Errorf("files counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(b.recordCounter.WithLabelValues("releases.xml.gz", "inserted")); got != 10000 {
		t.Errorf("records counter = %v, want 10000", got)
	}
	if got := testutil.ToFloat64(b.batchCounter.WithLabelValues("releases.xml.gz")); got != 2 {
		t.Errorf("batches counter = %v, want 2", got)
	}
}

func TestFlushPushes(t *testing.T) {
	t.Parallel()

	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := NewBackend("discogsload", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	b.IncCounter("dump_batches_total", 1, metrics.Labels{"file": "releases.xml.gz"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if !strings.HasSuffix(path, "/job/discogsload") {
		t.Errorf("push path = %q, want the job grouping key", path)
	}
}

func TestFlushReportsGatewayError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusBadGateway)
	}))
	defer srv.Close()

	b, err := NewBackend("discogsload", srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Flush(); err == nil {
		t.Fatal("Flush must surface the gateway error")
	}
}
