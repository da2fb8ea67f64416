package pep440

import (
	"fmt"
	"strings"
)

// Specifier is a comma-separated list of version specifier clauses, as used by
// the Requires-Dist and Requires-Python core-metadata fields; a version must
// match every clause.
type Specifier []SpecifierClause

type SpecifierClause struct {
	Op      string // "==", "!=", "<=", ">=", "<", ">", "~="
	Version Version
	Prefix  bool // trailing ".*"; only valid with "==" and "!="
}

// ParseSpecifier parses a specifier such as "==1.3.1" or ">=1.4, <2.0".
func ParseSpecifier(str string) (Specifier, error) {
	clauseStrs := strings.FieldsFunc(str, func(r rune) bool { return r == ',' })
	ret := make(Specifier, 0, len(clauseStrs))
	for _, clauseStr := range clauseStrs {
		clauseStr = strings.TrimSpace(clauseStr)
		if clauseStr == "" {
			continue
		}
		clause, err := parseSpecifierClause(clauseStr)
		if err != nil {
			return nil, fmt.Errorf("pep440.ParseSpecifier: %w", err)
		}
		ret = append(ret, clause)
	}
	if len(ret) == 0 {
		return Specifier{}, nil
	}
	return ret, nil
}

func parseSpecifierClause(str string) (SpecifierClause, error) {
	var ret SpecifierClause
	switch {
	case strings.HasPrefix(str, "~="):
		ret.Op = "~="
		str = str[2:]
	case strings.HasPrefix(str, "=="),
		strings.HasPrefix(str, "!="),
		strings.HasPrefix(str, "<="),
		strings.HasPrefix(str, ">="):
		ret.Op = str[:2]
		str = str[2:]
	case strings.HasPrefix(str, "<"), strings.HasPrefix(str, ">"):
		ret.Op = str[:1]
		str = str[1:]
	default:
		return ret, fmt.Errorf("invalid comparison operator: %q", str)
	}
	str = strings.TrimSpace(str)
	if strings.HasSuffix(str, ".*") {
		if ret.Op != "==" && ret.Op != "!=" {
			return ret, fmt.Errorf("prefix match not permitted with %q: %q", ret.Op, str)
		}
		ret.Prefix = true
		str = strings.TrimSuffix(str, ".*")
	}
	ver, err := ParseVersion(str)
	if err != nil {
		return ret, err
	}
	if ret.Op == "~=" && len(ver.Release) < 2 {
		return ret, fmt.Errorf("at least 2 release segments required in ~= clauses: %q", str)
	}
	ret.Version = *ver
	return ret, nil
}

func (spec Specifier) Match(ver Version) bool {
	for _, clause := range spec {
		if !clause.Match(ver) {
			return false
		}
	}
	return true
}

func (spec Specifier) String() string {
	strs := make([]string, 0, len(spec))
	for _, clause := range spec {
		str := clause.Op + clause.Version.String()
		if clause.Prefix {
			str += ".*"
		}
		strs = append(strs, str)
	}
	return strings.Join(strs, ",")
}

func (clause SpecifierClause) Match(ver Version) bool {
	switch clause.Op {
	case "<":
		return ver.Cmp(clause.Version) < 0
	case "<=":
		return ver.Cmp(clause.Version) <= 0
	case ">":
		return ver.Cmp(clause.Version) > 0
	case ">=":
		return ver.Cmp(clause.Version) >= 0
	case "==":
		if clause.Prefix {
			return prefixMatch(ver, clause.Version)
		}
		return ver.Cmp(clause.Version) == 0
	case "!=":
		if clause.Prefix {
			return !prefixMatch(ver, clause.Version)
		}
		return ver.Cmp(clause.Version) != 0
	case "~=":
		// ~= N.M.x  <=>  >= N.M.x, == N.M.*
		lower := SpecifierClause{Op: ">=", Version: clause.Version}
		upper := clause.Version
		upper.Release = upper.Release[:len(upper.Release)-1]
		upper.Pre, upper.Post, upper.Dev, upper.Local = nil, nil, nil, nil
		return lower.Match(ver) && prefixMatch(ver, upper)
	default:
		return false
	}
}

// prefixMatch implements "== prefix.*" semantics: the candidate's release
// segments (zero-padded) must start with the prefix's release segments, with
// epoch equal, ignoring pre/post/dev parts and the local label.
func prefixMatch(ver, prefix Version) bool {
	if ver.Epoch != prefix.Epoch {
		return false
	}
	for i, want := range prefix.Release {
		have := 0
		if i < len(ver.Release) {
			have = ver.Release[i]
		}
		if have != want {
			return false
		}
	}
	return true
}
