package index_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/fbtools/wheelhouse/pkg/htmlutil"
	"github.com/fbtools/wheelhouse/pkg/index"
	"github.com/fbtools/wheelhouse/pkg/manifest"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	tree := testTree(t)
	idx, err := index.Scan(tree)
	require.NoError(t, err)
	srv := httptest.NewServer((&index.Server{
		Index: idx,
		Root:  tree,
		Manifest: &manifest.Manifest{
			Releases: []manifest.Release{{
				Name:        "fbpyutils_db",
				Version:     "0.2.0",
				DownloadURL: "https://github.com/fbtools/wheels/raw/refs/heads/main/fbpyutils_db/fbpyutils_db-0.2.0-py3-none-any.whl",
			}},
		},
	}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

// pageLinks fetches a page and returns its anchors as href->text.
func pageLinks(t *testing.T, client *http.Client, url string) map[string]string {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := html.Parse(resp.Body)
	require.NoError(t, err)

	links := make(map[string]string)
	err = htmlutil.VisitHTML(doc, func(node *html.Node) error {
		if node.Type != html.ElementNode || node.Data != "a" {
			return nil
		}
		href, _ := htmlutil.GetAttr(node, "", "href")
		var text strings.Builder
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.TextNode {
				text.WriteString(child.Data)
			}
		}
		links[href] = text.String()
		return nil
	}, nil)
	require.NoError(t, err)
	return links
}

func TestServerSimplePages(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	rootLinks := pageLinks(t, srv.Client(), srv.URL+"/simple/")
	assert.Equal(t, map[string]string{
		"fbpyutils-db/":      "fbpyutils-db",
		"fbpyutils-finance/": "fbpyutils-finance",
	}, rootLinks)

	projectLinks := pageLinks(t, srv.Client(), srv.URL+"/simple/fbpyutils-finance/")
	require.Len(t, projectLinks, 2)
	for href, text := range projectLinks {
		assert.True(t, strings.HasPrefix(href, "/packages/fbpyutils_finance/"), href)
		assert.Contains(t, href, "#sha256=")
		assert.Contains(t, text, "fbpyutils_finance-1.3.")
	}
}

func TestServerRedirects(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	client := srv.Client()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	testcases := map[string]struct {
		Path     string
		Location string
	}{
		"simple-no-slash":  {Path: "/simple", Location: "/simple/"},
		"project-no-slash": {Path: "/simple/fbpyutils-db", Location: "/simple/fbpyutils-db/"},
		"non-normalized":   {Path: "/simple/FBPyUtils_DB/", Location: "/simple/fbpyutils-db/"},
	}
	for tcName, tc := range testcases {
		tc := tc
		t.Run(tcName, func(t *testing.T) {
			t.Parallel()
			resp, err := client.Get(srv.URL + tc.Path)
			require.NoError(t, err)
			_ = resp.Body.Close()
			assert.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
			assert.Equal(t, tc.Location, resp.Header.Get("Location"))
		})
	}
}

func TestServerUnknownProject(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/simple/no-such-project/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerPackages(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	tree := testTree(t)
	wantBody := tree["fbpyutils_db/fbpyutils_db-0.2.0-py3-none-any.whl"].Data

	url := srv.URL + "/packages/fbpyutils_db/fbpyutils_db-0.2.0-py3-none-any.whl"

	resp, err := srv.Client().Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, wantBody, body)
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))

	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp, err = srv.Client().Head(url)
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Empty(t, body)

	resp, err = srv.Client().Get(srv.URL + "/packages/no/such.whl")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerFrontPage(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "| `fbpyutils_db` | 0.2.0 |")
	assert.Contains(t, string(body), "pip install ")
}
