package manifest

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/fbtools/wheelhouse/pkg/python/wheel"
)

// RepoSettings describes the hosting repository, for constructing download
// URLs for artifacts found in the tree.
type RepoSettings struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Branch string `json:"branch"`
	// SourceRepos maps normalized package names to their upstream source
	// repository URL; unlisted packages get the private sentinel.
	SourceRepos map[string]string `json:"source_repos,omitempty"`
}

// Generate walks a wheel tree and builds a manifest from the wheel filenames
// it finds.  When several wheels exist for the same distribution, the highest
// version wins.  Wheels whose filenames don't parse are reported as errors
// rather than silently skipped.
func Generate(fsys fs.FS, settings RepoSettings) (*Manifest, error) {
	type candidate struct {
		rel Release
		fn  *wheel.Filename
	}
	best := make(map[string]candidate)

	err := fs.WalkDir(fsys, ".", func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".whl") {
			return nil
		}
		fn, err := wheel.ParseFilename(d.Name())
		if err != nil {
			return fmt.Errorf("manifest.Generate: %q: %w", walkPath, err)
		}
		key := normalizeName(fn.Distribution)
		if prev, ok := best[key]; ok && prev.fn.Version.Cmp(fn.Version) >= 0 {
			return nil
		}
		rel := Release{
			Name:        fn.Distribution,
			Version:     fn.Version.String(),
			DownloadURL: BranchURL(settings.Owner, settings.Repo, settings.Branch, walkPath),
		}
		if src, ok := settings.SourceRepos[key]; ok {
			rel.SourceRepoURL = src
		} else {
			rel.SourceRepoURL = SourceUnavailable
		}
		best[key] = candidate{rel: rel, fn: fn}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ret := &Manifest{}
	names := make([]string, 0, len(best))
	for name := range best {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ret.Releases = append(ret.Releases, best[name].rel)
	}
	return ret, nil
}
