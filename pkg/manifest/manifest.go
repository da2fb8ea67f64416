// Package manifest models the release manifest of a wheel hosting
// repository: the table mapping package name to version, download URL, and
// upstream source, as rendered in the repository's README and as kept in the
// canonical wheelhouse.yaml file.
package manifest

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// SourceUnavailable is the sentinel used in the source column for packages
// whose upstream repository is not public.
const SourceUnavailable = "Unavailable (private)"

// Release is one package release record: one row of the manifest table.
type Release struct {
	// Name is the distribution name, unique within a manifest.
	Name string `json:"name"`
	// Version is the release version as written; ParseVersion it lazily,
	// hand-edited manifests carry spellings like "v1.4.0".
	Version string `json:"version"`
	// DownloadURL points at the wheel artifact.
	DownloadURL string `json:"download_url"`
	// SourceRepoURL is the upstream source repository, or the
	// SourceUnavailable sentinel, or empty.
	SourceRepoURL string `json:"source_repo,omitempty"`
}

// SourcePublic reports whether the record claims a public source repository.
func (rel Release) SourcePublic() bool {
	return rel.SourceRepoURL != "" && rel.SourceRepoURL != SourceUnavailable
}

// Manifest is an ordered list of release records, together with where it came
// from.  A single README may yield several Manifests, one per duplicated
// table section.
type Manifest struct {
	// Section is the heading the table was found under, if any.
	Section string `json:"section,omitempty"`
	// Line is the 1-based line number of the table header in the source
	// document; zero for manifests not parsed from a document.
	Line int `json:"-"`

	Releases []Release `json:"releases"`
}

// Lookup returns the release record for a package name, matching under
// PEP 503 name normalization.
func (m *Manifest) Lookup(name string) (Release, bool) {
	want := normalizeName(name)
	for _, rel := range m.Releases {
		if normalizeName(rel.Name) == want {
			return rel, true
		}
	}
	return Release{}, false
}

// Load reads the canonical YAML manifest file.
func Load(filename string) (*Manifest, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("manifest.Load: %w", err)
	}
	var ret Manifest
	if err := yaml.UnmarshalStrict(content, &ret); err != nil {
		return nil, fmt.Errorf("manifest.Load: %q: %w", filename, err)
	}
	return &ret, nil
}

// Save writes the manifest to the canonical YAML file.
func Save(filename string, m *Manifest) error {
	content, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("manifest.Save: %w", err)
	}
	if err := os.WriteFile(filename, content, 0o666); err != nil {
		return fmt.Errorf("manifest.Save: %w", err)
	}
	return nil
}
