package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/nrmirror/pkg/types"
)

func testConfig(attempts int) types.Config {
	cfg := types.DefaultConfig()
	cfg.Retry.MaxAttempts = attempts
	cfg.Retry.Delay = time.Millisecond
	cfg.HTTP.Timeout = 5 * time.Second
	return cfg
}

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/Metadata/X:BBH:0005-n100-id0_Metadata.txt", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "mass-ratio = 1.0\n")
	})
	mux.HandleFunc("/Data/broken.h5", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestExists(t *testing.T) {
	srv := newCatalogServer(t)
	c := New(testConfig(3))
	ctx := context.Background()

	assert.True(t, c.Exists(ctx, srv.URL+"/Metadata/X:BBH:0005-n100-id0_Metadata.txt"))
	assert.False(t, c.Exists(ctx, srv.URL+"/Metadata/X:BBH:0006-n100-id0_Metadata.txt"))
	assert.False(t, c.Exists(ctx, srv.URL+"/Data/broken.h5"))
}

func TestFetch(t *testing.T) {
	srv := newCatalogServer(t)
	c := New(testConfig(3))

	data, err := c.Fetch(context.Background(), srv.URL+"/Metadata/X:BBH:0005-n100-id0_Metadata.txt")
	require.NoError(t, err)
	assert.Equal(t, "mass-ratio = 1.0\n", string(data))

	_, err = c.Fetch(context.Background(), srv.URL+"/Data/broken.h5")
	var se *StatusError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
}

// flakyTransport fails the first n round trips with a connection error.
type flakyTransport struct {
	failures int
	calls    int
	next     http.RoundTripper
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset by peer")
	}
	return f.next.RoundTrip(req)
}

func TestRetryAbsorbsTransientFailures(t *testing.T) {
	srv := newCatalogServer(t)
	ft := &flakyTransport{failures: 2, next: http.DefaultTransport}
	c := New(testConfig(3), WithHTTPClient(&http.Client{Transport: ft}))

	assert.True(t, c.Exists(context.Background(), srv.URL+"/Metadata/X:BBH:0005-n100-id0_Metadata.txt"))
	assert.Equal(t, 3, ft.calls)
}

func TestRetryBoundIsRespected(t *testing.T) {
	srv := newCatalogServer(t)
	ft := &flakyTransport{failures: 100, next: http.DefaultTransport}
	c := New(testConfig(4), WithHTTPClient(&http.Client{Transport: ft}))

	assert.False(t, c.Exists(context.Background(), srv.URL+"/Metadata/X:BBH:0005-n100-id0_Metadata.txt"))
	assert.Equal(t, 4, ft.calls)

	_, err := c.Fetch(context.Background(), srv.URL+"/Metadata/X:BBH:0005-n100-id0_Metadata.txt")
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.Equal(t, 8, ft.calls)
}

func TestServerErrorsAreRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	c := New(testConfig(5))
	data, err := c.Fetch(context.Background(), srv.URL+"/x")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, 3, calls)
}

func TestCanceledContextStopsRetrying(t *testing.T) {
	ft := &flakyTransport{failures: 100, next: http.DefaultTransport}
	c := New(testConfig(50), WithHTTPClient(&http.Client{Transport: ft}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, "http://127.0.0.1:1/x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, ft.calls, 1)
}
