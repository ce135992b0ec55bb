package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/recipelens/backend/internal/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const sampleCSV = "Title,Cleaned_Ingredients,Instructions\nToast,\"bread, butter\",Toast it.\n"

// newTestClient returns a client with an unthrottled limiter
func newTestClient(fsys afero.Fs) *Client {
	c := NewClient(fsys, "RecipeLens-test/1.0")
	c.rateLimiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func TestNewClient(t *testing.T) {
	client := NewClient(afero.NewMemMapFs(), "RecipeLens/1.0")

	assert.NotNil(t, client)
	assert.Equal(t, "RecipeLens/1.0", client.userAgent)
	assert.Equal(t, DefaultMaxAttempts, client.maxAttempts)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)
}

func TestSetDebug(t *testing.T) {
	client := NewClient(afero.NewMemMapFs(), "RecipeLens/1.0")

	client.SetDebug(true)
	assert.True(t, client.debug)

	client.SetDebug(false)
	assert.False(t, client.debug)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.expected.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
		})
	}
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recipes.csv", r.URL.Path)
		assert.Equal(t, "RecipeLens-test/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	fsys := afero.NewMemMapFs()
	client := newTestClient(fsys)

	n, err := client.Fetch(context.Background(), server.URL+"/recipes.csv", "data/recipes.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(len(sampleCSV)), n)

	content, err := afero.ReadFile(fsys, "data/recipes.csv")
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(content))

	exists, err := afero.Exists(fsys, "data/recipes.csv.part")
	require.NoError(t, err)
	assert.False(t, exists, "temporary file should be renamed away")
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	fsys := afero.NewMemMapFs()
	client := newTestClient(fsys)

	_, err := client.Fetch(context.Background(), server.URL, "recipes.csv")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fsys := afero.NewMemMapFs()
	client := newTestClient(fsys)

	_, err := client.Fetch(context.Background(), server.URL, "recipes.csv")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	assert.Equal(t, int32(1), calls.Load())

	exists, _ := afero.Exists(fsys, "recipes.csv")
	assert.False(t, exists)
}

func TestFetch_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(afero.NewMemMapFs())
	client.maxAttempts = 2

	_, err := client.Fetch(context.Background(), server.URL, "recipes.csv")
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	client := newTestClient(afero.NewMemMapFs())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Fetch(ctx, server.URL, "recipes.csv")
	assert.Error(t, err)
}
