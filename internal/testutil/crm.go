package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/salesops/crm-dashboard/internal/crm"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// FakeCRM serves canned list results for CRM REST methods. Every method
// answers with a single page.
type FakeCRM struct {
	Server *httptest.Server

	mu       sync.Mutex
	results  map[string][]map[string]any
	failures map[string]int
	calls    map[string]int
	queries  map[string][]string
}

// NewFakeCRM starts a fake CRM closed at test cleanup.
func NewFakeCRM(t *testing.T) *FakeCRM {
	t.Helper()
	f := &FakeCRM{
		results:  make(map[string][]map[string]any),
		failures: make(map[string]int),
		calls:    make(map[string]int),
		queries:  make(map[string][]string),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeCRM) serve(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	f.mu.Lock()
	f.calls[method]++
	f.queries[method] = append(f.queries[method], r.URL.RawQuery)
	status, failing := f.failures[method]
	items := f.results[method]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if failing {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{}`))
		return
	}
	if items == nil {
		items = []map[string]any{}
	}
	// Every canned result fits in one page, so the first offset is the only one.
	if r.URL.Query().Get("start") != "0" {
		items = []map[string]any{}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"result": items, "total": len(items)})
}

// Set replaces the records returned for a method such as "crm.lead.list".
func (f *FakeCRM) Set(method string, items ...map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[method] = items
}

// Fail makes a method answer with the given HTTP status.
func (f *FakeCRM) Fail(method string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = status
}

// Calls returns how many requests a method received.
func (f *FakeCRM) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Queries returns the raw query strings a method received.
func (f *FakeCRM) Queries(method string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries[method]...)
}

// Client returns a CRM client for the fake that skips page delays and
// retries once after a millisecond.
func (f *FakeCRM) Client(t *testing.T) *crm.Client {
	t.Helper()
	opts := crm.DefaultOptions()
	opts.MaxRetries = 1
	opts.RateLimitDelay = time.Millisecond
	opts.QueryLimitDelay = time.Millisecond
	opts.RetryBackoff = time.Millisecond
	c, err := crm.NewClient(f.Server.URL+"/rest/1/token", opts, zap.NewNop(),
		crm.WithSleeper(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }),
	)
	require.NoError(t, err)
	return c
}
