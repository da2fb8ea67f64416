package manifest

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// URLKind classifies the download-URL shapes that have appeared in wheel
// hosting manifests over time.
type URLKind int

const (
	// KindBlob is a commit-pinned web-UI blob page:
	// https://github.com/<owner>/<repo>/blob/<ref>/<path>.
	// Not directly installable; the server returns an HTML page.
	KindBlob URLKind = iota
	// KindRaw is the raw-content form:
	// https://github.com/<owner>/<repo>/raw/<ref>/<path>, where <ref> may
	// be spelled "refs/heads/<branch>".
	KindRaw
	// KindRawLegacy is the older raw host:
	// https://raw.githubusercontent.com/<owner>/<repo>/<ref>/<path>.
	KindRawLegacy
)

func (k URLKind) String() string {
	switch k {
	case KindBlob:
		return "blob"
	case KindRaw:
		return "raw"
	case KindRawLegacy:
		return "raw-legacy"
	default:
		return fmt.Sprintf("URLKind(%d)", int(k))
	}
}

// ArtifactURL is a parsed GitHub-hosted artifact download URL.
type ArtifactURL struct {
	Kind  URLKind
	Owner string
	Repo  string
	// Ref is the git ref the artifact is addressed by: a commit hash, a
	// branch name, or "refs/heads/<branch>" as written.
	Ref string
	// Path is the artifact path within the repository tree.
	Path string
}

// ParseArtifactURL parses a download URL into one of the known shapes.
func ParseArtifactURL(rawurl string) (*ArtifactURL, error) {
	u, err := url.Parse(rawurl)
	if err != nil {
		return nil, fmt.Errorf("manifest.ParseArtifactURL: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("manifest.ParseArtifactURL: not an http(s) URL: %q", rawurl)
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch u.Host {
	case "github.com":
		// <owner>/<repo>/{blob|raw}/<ref>/<path...>
		if len(segs) < 5 {
			return nil, fmt.Errorf("manifest.ParseArtifactURL: too few path segments: %q", rawurl)
		}
		ret := &ArtifactURL{
			Owner: segs[0],
			Repo:  segs[1],
		}
		switch segs[2] {
		case "blob":
			ret.Kind = KindBlob
		case "raw":
			ret.Kind = KindRaw
		default:
			return nil, fmt.Errorf("manifest.ParseArtifactURL: expected blob/ or raw/, got %q: %q",
				segs[2], rawurl)
		}
		rest := segs[3:]
		if len(rest) >= 3 && rest[0] == "refs" && rest[1] == "heads" {
			ret.Ref = path.Join(rest[0], rest[1], rest[2])
			rest = rest[3:]
		} else {
			ret.Ref = rest[0]
			rest = rest[1:]
		}
		if len(rest) == 0 {
			return nil, fmt.Errorf("manifest.ParseArtifactURL: missing artifact path: %q", rawurl)
		}
		ret.Path = path.Join(rest...)
		return ret, nil
	case "raw.githubusercontent.com":
		// <owner>/<repo>/<ref>/<path...>
		if len(segs) < 4 {
			return nil, fmt.Errorf("manifest.ParseArtifactURL: too few path segments: %q", rawurl)
		}
		return &ArtifactURL{
			Kind:  KindRawLegacy,
			Owner: segs[0],
			Repo:  segs[1],
			Ref:   segs[2],
			Path:  path.Join(segs[3:]...),
		}, nil
	default:
		return nil, fmt.Errorf("manifest.ParseArtifactURL: unrecognized host %q: %q", u.Host, rawurl)
	}
}

// Filename returns the artifact's base filename.
func (u ArtifactURL) Filename() string {
	return path.Base(u.Path)
}

// String reassembles the URL in its own shape.
func (u ArtifactURL) String() string {
	switch u.Kind {
	case KindBlob:
		return "https://github.com/" + path.Join(u.Owner, u.Repo, "blob", u.Ref, u.Path)
	case KindRawLegacy:
		return "https://raw.githubusercontent.com/" + path.Join(u.Owner, u.Repo, u.Ref, u.Path)
	default:
		return "https://github.com/" + path.Join(u.Owner, u.Repo, "raw", u.Ref, u.Path)
	}
}

// RawURL returns the directly-downloadable form of the URL: blob pages are
// rewritten to github.com/.../raw/..., raw forms are returned unchanged.
func (u ArtifactURL) RawURL() string {
	if u.Kind == KindBlob {
		u.Kind = KindRaw
	}
	return u.String()
}

// BranchURL constructs the branch-relative raw download URL for an artifact
// path, the shape current manifests use.
func BranchURL(owner, repo, branch, artifactPath string) string {
	return "https://github.com/" + path.Join(owner, repo, "raw", "refs", "heads", branch, artifactPath)
}
