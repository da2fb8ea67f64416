// Package index builds and serves a PEP 503 simple-repository view of a tree
// of wheel files, so that a wheel hosting repository can be pointed at
// directly with `pip install --extra-index-url`.
//
// https://www.python.org/dev/peps/pep-0503/
package index

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/fbtools/wheelhouse/pkg/python/wheel"
)

// File is one hosted artifact.
type File struct {
	// Project is the normalized distribution name the file belongs to.
	Project string
	// Name is the wheel filename.
	Name string
	// Path is the file's slash-separated path within the tree.
	Path string
	// SHA256 is the hex digest of the file contents, served as the URL
	// fragment that installers verify downloads against.
	SHA256 string
	// RequiresPython is the artifact's Requires-Python metadata field, if
	// any; served as the data-requires-python link attribute.
	RequiresPython string

	Filename *wheel.Filename
}

// Index is the in-memory simple-repository index of a wheel tree.
type Index struct {
	byProject map[string][]File
}

// Scan walks the tree, hashing every wheel file and pulling the metadata
// fields the index serves.  Non-wheel files are ignored.
func Scan(fsys fs.FS) (*Index, error) {
	ret := &Index{byProject: make(map[string][]File)}

	err := fs.WalkDir(fsys, ".", func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".whl") {
			return nil
		}

		fn, err := wheel.ParseFilename(d.Name())
		if err != nil {
			return fmt.Errorf("index.Scan: %q: %w", walkPath, err)
		}

		content, err := fs.ReadFile(fsys, walkPath)
		if err != nil {
			return fmt.Errorf("index.Scan: %q: %w", walkPath, err)
		}
		sum := sha256.Sum256(content)

		file := File{
			Project:  wheel.NormalizeDistribution(fn.Distribution),
			Name:     d.Name(),
			Path:     walkPath,
			SHA256:   hex.EncodeToString(sum[:]),
			Filename: fn,
		}

		// Requires-Python is optional garnish; a wheel with unreadable
		// metadata is still served.
		if wh, err := wheel.NewReader(bytes.NewReader(content), int64(len(content))); err == nil {
			if md, err := wh.Metadata(); err == nil {
				file.RequiresPython = md.Fields.Get("Requires-Python")
			}
		}

		ret.byProject[file.Project] = append(ret.byProject[file.Project], file)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for project := range ret.byProject {
		files := ret.byProject[project]
		sort.Slice(files, func(i, j int) bool {
			if d := files[i].Filename.Version.Cmp(files[j].Filename.Version); d != 0 {
				return d < 0
			}
			return files[i].Name < files[j].Name
		})
	}
	return ret, nil
}

// Projects returns the normalized project names, sorted.
func (idx *Index) Projects() []string {
	ret := make([]string, 0, len(idx.byProject))
	for project := range idx.byProject {
		ret = append(ret, project)
	}
	sort.Strings(ret)
	return ret
}

// Files returns the files for a project name (normalized or not).
func (idx *Index) Files(project string) []File {
	return idx.byProject[wheel.NormalizeDistribution(project)]
}

// Lookup returns the file served at the given tree path.
func (idx *Index) Lookup(treePath string) (File, bool) {
	for _, files := range idx.byProject {
		for _, file := range files {
			if file.Path == treePath {
				return file, true
			}
		}
	}
	return File{}, false
}
