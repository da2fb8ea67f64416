// Package fetch downloads wheel artifacts, verifying any checksum carried in
// the URL fragment ("#sha256=<hex>", as simple-repository pages and careful
// manifests embed).
package fetch

import (
	"context"
	"crypto/md5"  //nolint:gosec // fragment checksums may use legacy algorithms
	"crypto/sha1" //nolint:gosec // fragment checksums may use legacy algorithms
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"

	"github.com/datawire/dlib/dlog"
	"github.com/schollz/progressbar/v3"

	"github.com/fbtools/wheelhouse/pkg/manifest"
)

type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// Progress enables a byte-progress bar on stderr.
	Progress bool
}

func (c *Client) fillDefaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.UserAgent == "" {
		c.UserAgent = "github.com/fbtools/wheelhouse/pkg/fetch"
	}
}

type HTTPError struct {
	Status     string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %s", e.Status)
}

//nolint:gochecknoglobals // would be 'const'
var fragmentHashes = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha224": sha256.New224,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// Fetch downloads an artifact URL into dst.  GitHub blob-page URLs are
// rewritten to their raw form first.  If the URL fragment names checksums,
// the downloaded bytes are verified against every one of them.
func (c Client) Fetch(ctx context.Context, requestURL string, dst io.Writer) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("GET %q => %w", requestURL, err)
		}
	}()
	c.fillDefaults()

	parsedURL, err := url.Parse(requestURL)
	if err != nil {
		return err
	}

	if artifact, err := manifest.ParseArtifactURL(requestURL); err == nil && artifact.Kind == manifest.KindBlob {
		dlog.Infof(ctx, "rewriting blob URL to raw form: %s", artifact.RawURL())
		rewritten := artifact.RawURL()
		if parsedURL.Fragment != "" {
			rewritten += "#" + parsedURL.Fragment
		}
		requestURL = rewritten
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return &HTTPError{Status: resp.Status, StatusCode: resp.StatusCode}
	}

	// set up the checksum verifiers named by the URL fragment
	type verifier struct {
		algo   string
		hasher hash.Hash
		want   string
	}
	var verifiers []verifier
	if parsedURL.Fragment != "" {
		if keyvals, err := url.ParseQuery(parsedURL.Fragment); err == nil {
			for key, vals := range keyvals {
				newHasher, ok := fragmentHashes[key]
				if !ok {
					continue
				}
				for _, val := range vals {
					verifiers = append(verifiers, verifier{
						algo:   key,
						hasher: newHasher(),
						want:   val,
					})
				}
			}
		}
	}

	writers := []io.Writer{dst}
	for _, v := range verifiers {
		writers = append(writers, v.hasher)
	}
	if c.Progress {
		bar := progressbar.DefaultBytes(resp.ContentLength, path.Base(parsedURL.Path))
		writers = append(writers, bar)
	}

	if _, err := io.Copy(io.MultiWriter(writers...), resp.Body); err != nil {
		return err
	}

	for _, v := range verifiers {
		actual := hex.EncodeToString(v.hasher.Sum(nil))
		if actual != v.want {
			return fmt.Errorf("checksum mismatch: %s: expected=%s actual=%s",
				v.algo, v.want, actual)
		}
	}
	return nil
}

// FetchFile downloads an artifact URL to a file, writing to a temporary name
// and renaming into place so a failed download leaves nothing behind.
func (c Client) FetchFile(ctx context.Context, requestURL, destPath string) error {
	tmpPath := destPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	if err := c.Fetch(ctx, requestURL, out); err != nil {
		_ = out.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
