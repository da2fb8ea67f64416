package manifest

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/datawire/dlib/dgroup"
	"github.com/datawire/dlib/dlog"

	"github.com/fbtools/wheelhouse/pkg/python/pep440"
	"github.com/fbtools/wheelhouse/pkg/python/wheel"
)

// A Finding is one problem the linter found with a manifest.
type Finding struct {
	// Rule names the check that fired: "missing-field", "bad-version",
	// "version-mismatch", "name-mismatch", "url-shape", "duplicate-entry",
	// "broken-link".
	Rule string
	// Package is the release record's name, when the finding concerns one.
	Package string
	// Section locates the table the record came from, when known.
	Section string
	Detail  string
}

func (f Finding) String() string {
	ret := f.Rule
	if f.Package != "" {
		ret += ": " + f.Package
	}
	if f.Section != "" {
		ret += " (" + f.Section + ")"
	}
	return ret + ": " + f.Detail
}

// Lint checks each manifest's internal consistency, and checks the set of
// manifests against each other: a document that carries several copies of its
// release table must not let the copies contradict one another.
func Lint(manifests []Manifest) []Finding {
	var ret []Finding

	for _, m := range manifests {
		ret = append(ret, lintOne(m)...)
	}
	ret = append(ret, lintDuplicates(manifests)...)

	return ret
}

func lintOne(m Manifest) []Finding {
	var ret []Finding
	finding := func(rule, pkg, format string, args ...interface{}) {
		ret = append(ret, Finding{
			Rule:    rule,
			Package: pkg,
			Section: m.Section,
			Detail:  fmt.Sprintf(format, args...),
		})
	}

	for _, rel := range m.Releases {
		if rel.Name == "" || rel.Version == "" || rel.DownloadURL == "" {
			finding("missing-field", rel.Name, "record %+v is missing a required field", rel)
			continue
		}

		tableVer, err := pep440.ParseVersion(rel.Version)
		if err != nil {
			finding("bad-version", rel.Name, "version %q is not a valid version", rel.Version)
		}

		artifact, err := ParseArtifactURL(rel.DownloadURL)
		if err != nil {
			finding("url-shape", rel.Name, "download URL is not a recognized artifact URL: %v", err)
			continue
		}
		if artifact.Kind == KindBlob {
			finding("url-shape", rel.Name,
				"download URL is a blob page, not a raw artifact; use %s", artifact.RawURL())
		}

		fn, err := wheel.ParseFilename(artifact.Filename())
		if err != nil {
			finding("url-shape", rel.Name, "download URL does not end in a wheel filename: %v", err)
			continue
		}
		if normalizeName(fn.Distribution) != normalizeName(rel.Name) {
			finding("name-mismatch", rel.Name,
				"table name %q does not match filename distribution %q", rel.Name, fn.Distribution)
		}
		if tableVer != nil && tableVer.Cmp(fn.Version) != 0 {
			finding("version-mismatch", rel.Name,
				"table version %s does not match filename version %s", tableVer, fn.Version)
		}
	}

	return ret
}

// lintDuplicates flags packages whose records differ between duplicated table
// copies of the same document.
func lintDuplicates(manifests []Manifest) []Finding {
	type seenRecord struct {
		rel     Release
		section string
	}
	seen := make(map[string]seenRecord)
	reported := make(map[string]struct{})
	var ret []Finding

	for _, m := range manifests {
		for _, rel := range m.Releases {
			key := normalizeName(rel.Name)
			prev, ok := seen[key]
			if !ok {
				seen[key] = seenRecord{rel: rel, section: m.Section}
				continue
			}
			if _, done := reported[key]; done {
				continue
			}
			if prev.rel != rel {
				reported[key] = struct{}{}
				ret = append(ret, Finding{
					Rule:    "duplicate-entry",
					Package: rel.Name,
					Section: m.Section,
					Detail: fmt.Sprintf("contradicts earlier copy (%s): %+v vs %+v",
						sectionName(prev.section), prev.rel, rel),
				})
			}
		}
	}

	return ret
}

func sectionName(section string) string {
	if section == "" {
		return "unnamed section"
	}
	return section
}

// CheckLinksOptions configures CheckLinks.
type CheckLinksOptions struct {
	// Workers bounds the number of concurrent probes; 0 means 4.
	Workers int
	// Timeout is the per-request timeout; 0 means 10s.
	Timeout time.Duration
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// CheckLinks probes every download URL and every claimed-public source
// repository URL in the manifests, and reports the ones that don't resolve.
// The private-source sentinel is skipped.
func CheckLinks(ctx context.Context, manifests []Manifest, opts CheckLinksOptions) ([]Finding, error) {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	type probe struct {
		rel     Release
		section string
		url     string
		what    string
	}
	var probes []probe
	for _, m := range manifests {
		for _, rel := range m.Releases {
			if rel.DownloadURL != "" {
				url := rel.DownloadURL
				if artifact, err := ParseArtifactURL(url); err == nil {
					url = artifact.RawURL()
				}
				probes = append(probes, probe{rel, m.Section, url, "download URL"})
			}
			if rel.SourcePublic() {
				probes = append(probes, probe{rel, m.Section, rel.SourceRepoURL, "source repo"})
			}
		}
	}

	var (
		mu       sync.Mutex
		findings []Finding
	)
	queue := make(chan probe)

	grp := dgroup.NewGroup(ctx, dgroup.GroupConfig{})
	grp.Go("feed", func(ctx context.Context) error {
		defer close(queue)
		for _, p := range probes {
			select {
			case queue <- p:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for i := 0; i < opts.Workers; i++ {
		grp.Go(fmt.Sprintf("probe-%d", i), func(ctx context.Context) error {
			for p := range queue {
				dlog.Debugf(ctx, "probing %s for %q: %s", p.what, p.rel.Name, p.url)
				if err := probeURL(ctx, opts, p.url); err != nil {
					mu.Lock()
					findings = append(findings, Finding{
						Rule:    "broken-link",
						Package: p.rel.Name,
						Section: p.section,
						Detail:  fmt.Sprintf("%s %s: %v", p.what, p.url, err),
					})
					mu.Unlock()
				}
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Package != findings[j].Package {
			return findings[i].Package < findings[j].Package
		}
		return findings[i].Detail < findings[j].Detail
	})
	return findings, nil
}

func probeURL(ctx context.Context, opts CheckLinksOptions, url string) error {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	do := func(method string) (int, error) {
		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return 0, err
		}
		resp, err := opts.HTTPClient.Do(req)
		if err != nil {
			return 0, err
		}
		_ = resp.Body.Close()
		return resp.StatusCode, nil
	}

	status, err := do(http.MethodHead)
	if err != nil {
		return err
	}
	// some hosts reject HEAD outright
	if status == http.StatusMethodNotAllowed || status == http.StatusForbidden {
		status, err = do(http.MethodGet)
		if err != nil {
			return err
		}
	}
	if status >= 400 {
		return fmt.Errorf("HTTP %d", status)
	}
	return nil
}
