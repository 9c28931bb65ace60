package footballdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastClient() *Client {
	c := NewClient(time.Millisecond)
	c.backoff = time.Millisecond
	return c
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("Date,HomeTeam,AwayTeam\n"))
	}))
	defer srv.Close()

	body, err := fastClient().Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Date,HomeTeam,AwayTeam\n", string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchDoesNotRetryNotFound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := fastClient().Fetch(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestDownloadLeagueWritesSeasonFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/2324/E0.csv" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("Date,HomeTeam,AwayTeam\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	n, err := fastClient().DownloadLeague(context.Background(), dir, "E0", map[int]string{
		2022: srv.URL + "/2223/E0.csv",
		2023: srv.URL + "/2324/E0.csv",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = os.Stat(filepath.Join(dir, "E0-2022-23.csv"))
	assert.NoError(t, err)
}
