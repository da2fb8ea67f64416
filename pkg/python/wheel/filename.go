// Package wheel handles the wheel binary distribution format (PEP 427): the
// filename convention, and reading and verifying the zip archive itself.
//
// https://packaging.python.org/specifications/binary-distribution-format/
package wheel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/fbtools/wheelhouse/pkg/python/pep440"
)

// Filename is a parsed wheel filename:
//
//	{distribution}-{version}(-{build tag})?-{python tag}-{abi tag}-{platform tag}.whl
type Filename struct {
	Distribution     string
	Version          pep440.Version
	BuildTag         *BuildTag
	CompatibilityTag Tag
}

type BuildTag struct {
	Int int
	Str string
}

func (t BuildTag) String() string {
	return fmt.Sprintf("%d%s", t.Int, t.Str)
}

var reFilename = regexp.MustCompile(regexp.MustCompile(`\s+`).ReplaceAllString(`
	^(?P<distribution>[^-]+)
	-(?P<version>[^-]+)
	(?:-(?P<build_n>[0-9]+)(?P<build_l>[^-0-9][^-]*)?)?
	-(?P<python>[^-]+)
	-(?P<abi>[^-]+)
	-(?P<platform>[^-]+)
	\.whl$`, ``))

// ParseFilename parses a wheel filename.
func ParseFilename(filename string) (*Filename, error) {
	match := reFilename.FindStringSubmatch(filename)
	if match == nil {
		return nil, fmt.Errorf("invalid wheel filename: %q", filename)
	}

	var ret Filename

	ret.Distribution = match[reFilename.SubexpIndex("distribution")]

	ver, err := pep440.ParseVersion(match[reFilename.SubexpIndex("version")])
	if err != nil {
		return nil, fmt.Errorf("invalid wheel filename: %q: %w", filename, err)
	}
	ret.Version = *ver

	if buildN := match[reFilename.SubexpIndex("build_n")]; buildN != "" {
		n, _ := strconv.Atoi(buildN)
		ret.BuildTag = &BuildTag{
			Int: n,
			Str: match[reFilename.SubexpIndex("build_l")],
		}
	}

	ret.CompatibilityTag = Tag{
		Python:   match[reFilename.SubexpIndex("python")],
		ABI:      match[reFilename.SubexpIndex("abi")],
		Platform: match[reFilename.SubexpIndex("platform")],
	}

	return &ret, nil
}

var reNormalize = regexp.MustCompile(`[-_.]+`)

// NormalizeDistribution applies PEP 503 project-name normalization: runs of
// "-", "_", and "." fold to a single "-", lowercased.
func NormalizeDistribution(name string) string {
	return strings.ToLower(reNormalize.ReplaceAllLiteralString(name, "-"))
}

// String reassembles the canonical filename: the distribution name with
// "-_." runs folded to "_", and the version normalized.
func (fn Filename) String() string {
	var ret strings.Builder
	ret.WriteString(reNormalize.ReplaceAllLiteralString(fn.Distribution, "_"))
	ret.WriteString("-")
	ret.WriteString(fn.Version.String())
	if fn.BuildTag != nil {
		ret.WriteString("-")
		ret.WriteString(fn.BuildTag.String())
	}
	ret.WriteString("-")
	ret.WriteString(fn.CompatibilityTag.String())
	ret.WriteString(".whl")
	return ret.String()
}
