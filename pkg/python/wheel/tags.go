package wheel

import (
	"strings"
)

// Tag is a PEP 425 compatibility tag.  Each component may be a compressed
// dot-separated set, as in "py2.py3-none-any".
//
// https://www.python.org/dev/peps/pep-0425/
type Tag struct {
	Python   string
	ABI      string
	Platform string
}

func (t Tag) String() string {
	return t.Python + "-" + t.ABI + "-" + t.Platform
}

// Decompress expands a compressed tag set into its single tags.
func (t Tag) Decompress() []Tag {
	var ret []Tag
	for _, x := range strings.Split(t.Python, ".") {
		for _, y := range strings.Split(t.ABI, ".") {
			for _, z := range strings.Split(t.Platform, ".") {
				ret = append(ret, Tag{x, y, z})
			}
		}
	}
	return ret
}

// Intersect returns whether any tag in 'a' matches any tag in 'b',
// considering compressed tag sets.
func Intersect(a, b []Tag) bool {
	for _, a1 := range a {
		for _, a2 := range a1.Decompress() {
			for _, b1 := range b {
				for _, b2 := range b1.Decompress() {
					if a2 == b2 {
						return true
					}
				}
			}
		}
	}
	return false
}

// IsPure reports whether the tag claims compatibility with any Python 3 on
// any platform ("py3-none-any"), which is the shape every artifact in a
// source-built wheel tree normally has.
func (t Tag) IsPure() bool {
	for _, tag := range t.Decompress() {
		if tag == (Tag{"py3", "none", "any"}) || tag == (Tag{"py2", "none", "any"}) {
			return true
		}
	}
	return false
}
