// Package pep440 implements the PEP 440 version scheme, as needed for working
// with wheel filenames and core-metadata version pins.
//
// https://www.python.org/dev/peps/pep-0440/
package pep440

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version is a parsed public version identifier, plus an optional local
// version label:
//
//	[N!]N(.N)*[{a|b|rc}N][.postN][.devN][+local]
type Version struct {
	Epoch   int
	Release []int
	Pre     *PreRelease
	Post    *int
	Dev     *int
	Local   []LocalSegment
}

type PreRelease struct {
	L string // "a", "b", or "rc"
	N int
}

// LocalSegment is one dot-separated segment of a local version label; PEP 440
// compares numeric segments as integers and everything else as strings, with
// numeric segments sorting after string segments.
type LocalSegment struct {
	Num   int
	Str   string
	IsNum bool
}

func (seg LocalSegment) String() string {
	if seg.IsNum {
		return strconv.Itoa(seg.Num)
	}
	return seg.Str
}

// The VERSION_PATTERN regular expression from the PyPA "packaging" project
// (PEP 440 Appendix B), accepting the non-canonical spellings that the
// normalization rules fold away.
//
//nolint:lll
var reVersion = regexp.MustCompile(`(?i)^\s*v?(?:(?:(?P<epoch>[0-9]+)!)?(?P<release>[0-9]+(?:\.[0-9]+)*)(?P<pre>[-_\.]?(?P<pre_l>a|b|c|rc|alpha|beta|pre|preview)[-_\.]?(?P<pre_n>[0-9]+)?)?(?P<post>(?:-(?P<post_n1>[0-9]+))|(?:[-_\.]?(?P<post_l>post|rev|r)[-_\.]?(?P<post_n2>[0-9]+)?))?(?P<dev>[-_\.]?dev[-_\.]?(?P<dev_n>[0-9]+)?)?)(?:\+(?P<local>[a-z0-9]+(?:[-_\.][a-z0-9]+)*))?\s*$`)

// ParseVersion parses a version string, performing PEP 440 normalization
// (leading "v", alternate pre-release spellings, separator variants).
func ParseVersion(str string) (*Version, error) {
	match := reVersion.FindStringSubmatch(str)
	if match == nil {
		return nil, fmt.Errorf("pep440.ParseVersion: invalid version: %q", str)
	}

	var ver Version

	if epoch := match[reVersion.SubexpIndex("epoch")]; epoch != "" {
		n, err := strconv.Atoi(epoch)
		if err != nil {
			return nil, fmt.Errorf("pep440.ParseVersion: %w", err)
		}
		ver.Epoch = n
	}

	for _, segStr := range strings.Split(match[reVersion.SubexpIndex("release")], ".") {
		segInt, err := strconv.Atoi(segStr)
		if err != nil {
			return nil, fmt.Errorf("pep440.ParseVersion: %w", err)
		}
		ver.Release = append(ver.Release, segInt)
	}

	if l := match[reVersion.SubexpIndex("pre_l")]; l != "" {
		ver.Pre = &PreRelease{
			L: normalizePreLetter(strings.ToLower(l)),
			N: atoiDefault0(match[reVersion.SubexpIndex("pre_n")]),
		}
	}

	if match[reVersion.SubexpIndex("post")] != "" {
		n := atoiDefault0(match[reVersion.SubexpIndex("post_n1")] +
			match[reVersion.SubexpIndex("post_n2")])
		ver.Post = &n
	}

	if match[reVersion.SubexpIndex("dev")] != "" {
		n := atoiDefault0(match[reVersion.SubexpIndex("dev_n")])
		ver.Dev = &n
	}

	if local := match[reVersion.SubexpIndex("local")]; local != "" {
		for _, segStr := range strings.FieldsFunc(strings.ToLower(local), func(r rune) bool {
			return r == '-' || r == '_' || r == '.'
		}) {
			if segInt, err := strconv.Atoi(segStr); err == nil {
				ver.Local = append(ver.Local, LocalSegment{Num: segInt, IsNum: true})
			} else {
				ver.Local = append(ver.Local, LocalSegment{Str: segStr})
			}
		}
	}

	return &ver, nil
}

func normalizePreLetter(l string) string {
	switch l {
	case "alpha":
		return "a"
	case "beta":
		return "b"
	case "c", "pre", "preview":
		return "rc"
	default:
		return l
	}
}

func atoiDefault0(str string) int {
	if str == "" {
		return 0
	}
	n, _ := strconv.Atoi(str)
	return n
}

// String returns the canonical (normalized) spelling of the version.
func (ver Version) String() string {
	var ret strings.Builder
	if ver.Epoch != 0 {
		fmt.Fprintf(&ret, "%d!", ver.Epoch)
	}
	for i, seg := range ver.Release {
		if i > 0 {
			ret.WriteString(".")
		}
		ret.WriteString(strconv.Itoa(seg))
	}
	if ver.Pre != nil {
		fmt.Fprintf(&ret, "%s%d", ver.Pre.L, ver.Pre.N)
	}
	if ver.Post != nil {
		fmt.Fprintf(&ret, ".post%d", *ver.Post)
	}
	if ver.Dev != nil {
		fmt.Fprintf(&ret, ".dev%d", *ver.Dev)
	}
	if len(ver.Local) > 0 {
		ret.WriteString("+")
		for i, seg := range ver.Local {
			if i > 0 {
				ret.WriteString(".")
			}
			ret.WriteString(seg.String())
		}
	}
	return ret.String()
}

// Cmp returns -1 if ver<other, 0 if ver==other, and 1 if ver>other, using the
// PEP 440 total ordering: epoch, then release (shorter release segments
// zero-padded), then dev < pre < (final) < post, then the local label.
func (ver Version) Cmp(other Version) int {
	if d := ver.Epoch - other.Epoch; d != 0 {
		return sign(d)
	}
	if d := cmpRelease(ver.Release, other.Release); d != 0 {
		return d
	}
	if d := cmpPre(ver.Pre, other.Pre, ver.isBarePrefix(), other.isBarePrefix()); d != 0 {
		return d
	}
	if d := cmpOptInt(ver.Post, other.Post, -1); d != 0 {
		return d
	}
	if d := cmpOptInt(ver.Dev, other.Dev, 1); d != 0 {
		return d
	}
	return cmpLocal(ver.Local, other.Local)
}

// isBarePrefix reports whether a .devN with no pre-release part must sort
// ahead of any pre-release of the same release segment (1.0.dev1 < 1.0a1).
func (ver Version) isBarePrefix() bool {
	return ver.Pre == nil && ver.Post == nil && ver.Dev != nil
}

func sign(d int) int {
	switch {
	case d < 0:
		return -1
	case d > 0:
		return 1
	default:
		return 0
	}
}

func cmpRelease(a, b []int) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(a) {
			av = a[i]
		}
		if i < len(b) {
			bv = b[i]
		}
		if av != bv {
			return sign(av - bv)
		}
	}
	return 0
}

func cmpPre(a, b *PreRelease, aBareDev, bBareDev bool) int {
	// rank: bare .devN < aN < bN < rcN < final
	rank := func(pre *PreRelease, bareDev bool) int {
		switch {
		case bareDev:
			return 0
		case pre == nil:
			return 4
		case pre.L == "a":
			return 1
		case pre.L == "b":
			return 2
		default: // "rc"
			return 3
		}
	}
	if d := rank(a, aBareDev) - rank(b, bBareDev); d != 0 {
		return sign(d)
	}
	if a != nil && b != nil {
		return sign(a.N - b.N)
	}
	return 0
}

// cmpOptInt compares optional numeric parts; nilIs says which side of present
// values nil sorts on (-1: nil first, as for .post; 1: nil last, as for .dev).
func cmpOptInt(a, b *int, nilIs int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return nilIs
	case b == nil:
		return -nilIs
	default:
		return sign(*a - *b)
	}
}

func cmpLocal(a, b []LocalSegment) int {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		switch {
		case i >= len(a):
			return -1
		case i >= len(b):
			return 1
		}
		av, bv := a[i], b[i]
		switch {
		case av.IsNum && bv.IsNum:
			if av.Num != bv.Num {
				return sign(av.Num - bv.Num)
			}
		case av.IsNum != bv.IsNum:
			// numeric segments sort after string segments
			if av.IsNum {
				return 1
			}
			return -1
		default:
			if av.Str != bv.Str {
				if av.Str < bv.Str {
					return -1
				}
				return 1
			}
		}
	}
	return 0
}
