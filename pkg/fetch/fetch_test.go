package fetch_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fbtools/wheelhouse/pkg/fetch"
)

const wheelBody = "pretend this is a wheel archive"

func newArtifactServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/p/p-1.0-py3-none-any.whl":
			_, _ = w.Write([]byte(wheelBody))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func bodySHA256() string {
	sum := sha256.Sum256([]byte(wheelBody))
	return hex.EncodeToString(sum[:])
}

func TestFetch(t *testing.T) {
	t.Parallel()
	srv := newArtifactServer(t)
	client := fetch.Client{HTTPClient: srv.Client()}
	ctx := context.Background()

	t.Run("plain", func(t *testing.T) {
		t.Parallel()
		var dst strings.Builder
		err := client.Fetch(ctx, srv.URL+"/p/p-1.0-py3-none-any.whl", &dst)
		require.NoError(t, err)
		assert.Equal(t, wheelBody, dst.String())
	})

	t.Run("checksum-ok", func(t *testing.T) {
		t.Parallel()
		var dst strings.Builder
		err := client.Fetch(ctx, srv.URL+"/p/p-1.0-py3-none-any.whl#sha256="+bodySHA256(), &dst)
		require.NoError(t, err)
		assert.Equal(t, wheelBody, dst.String())
	})

	t.Run("checksum-mismatch", func(t *testing.T) {
		t.Parallel()
		var dst strings.Builder
		badSum := strings.Repeat("0", 64)
		err := client.Fetch(ctx, srv.URL+"/p/p-1.0-py3-none-any.whl#sha256="+badSum, &dst)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "checksum mismatch")
	})

	t.Run("unknown-fragment-ignored", func(t *testing.T) {
		t.Parallel()
		var dst strings.Builder
		err := client.Fetch(ctx, srv.URL+"/p/p-1.0-py3-none-any.whl#egg=p", &dst)
		require.NoError(t, err)
		assert.Equal(t, wheelBody, dst.String())
	})

	t.Run("http-error", func(t *testing.T) {
		t.Parallel()
		var dst strings.Builder
		err := client.Fetch(ctx, srv.URL+"/gone.whl", &dst)
		require.Error(t, err)
		var httpErr *fetch.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	})
}

func TestFetchFile(t *testing.T) {
	t.Parallel()
	srv := newArtifactServer(t)
	client := fetch.Client{HTTPClient: srv.Client()}
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		destPath := filepath.Join(t.TempDir(), "p-1.0-py3-none-any.whl")
		err := client.FetchFile(ctx, srv.URL+"/p/p-1.0-py3-none-any.whl", destPath)
		require.NoError(t, err)
		content, err := os.ReadFile(destPath)
		require.NoError(t, err)
		assert.Equal(t, wheelBody, string(content))
	})

	t.Run("failure-leaves-nothing", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		destPath := filepath.Join(dir, "p-1.0-py3-none-any.whl")
		err := client.FetchFile(ctx, srv.URL+"/gone.whl", destPath)
		require.Error(t, err)
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
