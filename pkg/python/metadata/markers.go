package metadata

import (
	"fmt"
	"strings"

	"github.com/fbtools/wheelhouse/pkg/python/pep440"
)

// Marker is a parsed environment marker expression, the part after ";" in a
// Requires-Dist value:
//
//	python_version >= "3.10" and sys_platform != "win32"
//
// The grammar is the PEP 508 one: comparisons over environment variables and
// quoted strings, joined by "and"/"or", with "and" binding tighter, plus
// parenthesized groups.
type Marker struct {
	expr markerExpr
	src  string
}

func (m *Marker) String() string { return m.src }

// Environment is the variable assignment a marker is evaluated against
// (python_version, sys_platform, extra, ...).  Variables absent from the
// environment make their comparisons evaluate to false rather than erroring,
// so that an incomplete environment degrades toward "not needed".
type Environment map[string]string

func (m *Marker) Eval(env Environment) bool {
	return m.expr.eval(env)
}

// ParseMarker parses an environment marker expression.
func ParseMarker(str string) (*Marker, error) {
	toks, err := lexMarker(str)
	if err != nil {
		return nil, fmt.Errorf("invalid environment marker %q: %w", strings.TrimSpace(str), err)
	}
	p := &markerParser{toks: toks}
	expr, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("invalid environment marker %q: %w", strings.TrimSpace(str), err)
	}
	if !p.done() {
		return nil, fmt.Errorf("invalid environment marker %q: trailing %q",
			strings.TrimSpace(str), p.peek().val)
	}
	return &Marker{expr: expr, src: strings.TrimSpace(str)}, nil
}

type markerExpr interface {
	eval(Environment) bool
}

type markerBool struct {
	or       bool
	lhs, rhs markerExpr
}

func (e markerBool) eval(env Environment) bool {
	if e.or {
		return e.lhs.eval(env) || e.rhs.eval(env)
	}
	return e.lhs.eval(env) && e.rhs.eval(env)
}

type markerOperand struct {
	val      string
	variable bool
}

type markerCmp struct {
	op       string
	lhs, rhs markerOperand
}

func (e markerCmp) eval(env Environment) bool {
	resolve := func(o markerOperand) (string, bool) {
		if !o.variable {
			return o.val, true
		}
		val, ok := env[o.val]
		return val, ok
	}
	lhs, lhsOK := resolve(e.lhs)
	rhs, rhsOK := resolve(e.rhs)
	if !lhsOK || !rhsOK {
		return false
	}

	switch e.op {
	case "in":
		return strings.Contains(rhs, lhs)
	case "not in":
		return !strings.Contains(rhs, lhs)
	}

	// Compare as PEP 440 versions when both sides parse as one (the
	// python_version case); otherwise fall back to string comparison.
	if lhsVer, err := pep440.ParseVersion(lhs); err == nil {
		if spec, err := pep440.ParseSpecifier(e.op + rhs); err == nil {
			return spec.Match(*lhsVer)
		}
	}
	switch e.op {
	case "==":
		return lhs == rhs
	case "!=":
		return lhs != rhs
	case "<":
		return lhs < rhs
	case "<=":
		return lhs <= rhs
	case ">":
		return lhs > rhs
	case ">=":
		return lhs >= rhs
	default:
		return false
	}
}

type markerToken struct {
	kind string // "str", "word", "op", "(", ")"
	val  string
}

func lexMarker(str string) ([]markerToken, error) {
	var toks []markerToken
	i := 0
	for i < len(str) {
		c := str[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(' || c == ')':
			toks = append(toks, markerToken{kind: string(c), val: string(c)})
			i++
		case c == '"' || c == '\'':
			end := strings.IndexByte(str[i+1:], c)
			if end < 0 {
				return nil, fmt.Errorf("unterminated string")
			}
			toks = append(toks, markerToken{kind: "str", val: str[i+1 : i+1+end]})
			i += end + 2
		case strings.ContainsRune("<>=!~", rune(c)):
			j := i
			for j < len(str) && strings.ContainsRune("<>=!~", rune(str[j])) {
				j++
			}
			toks = append(toks, markerToken{kind: "op", val: str[i:j]})
			i = j
		default:
			j := i
			for j < len(str) && (isWordByte(str[j])) {
				j++
			}
			if j == i {
				return nil, fmt.Errorf("unexpected character %q", c)
			}
			toks = append(toks, markerToken{kind: "word", val: str[i:j]})
			i = j
		}
	}
	return toks, nil
}

func isWordByte(c byte) bool {
	return c == '_' || c == '.' || c == '-' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

type markerParser struct {
	toks []markerToken
	pos  int
}

func (p *markerParser) done() bool { return p.pos >= len(p.toks) }

func (p *markerParser) peek() markerToken {
	if p.done() {
		return markerToken{}
	}
	return p.toks[p.pos]
}

func (p *markerParser) next() markerToken {
	tok := p.peek()
	p.pos++
	return tok
}

func (p *markerParser) parseOr() (markerExpr, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == "word" && p.peek().val == "or" {
		p.next()
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = markerBool{or: true, lhs: lhs, rhs: rhs}
	}
	return lhs, nil
}

func (p *markerParser) parseAnd() (markerExpr, error) {
	lhs, err := p.parseCmp()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == "word" && p.peek().val == "and" {
		p.next()
		rhs, err := p.parseCmp()
		if err != nil {
			return nil, err
		}
		lhs = markerBool{or: false, lhs: lhs, rhs: rhs}
	}
	return lhs, nil
}

func (p *markerParser) parseCmp() (markerExpr, error) {
	if p.peek().kind == "(" {
		p.next()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if tok := p.next(); tok.kind != ")" {
			return nil, fmt.Errorf("expected ')', got %q", tok.val)
		}
		return expr, nil
	}

	lhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}

	var op string
	switch tok := p.next(); {
	case tok.kind == "op":
		switch tok.val {
		case "==", "!=", "<", "<=", ">", ">=", "~=":
			op = tok.val
		default:
			return nil, fmt.Errorf("invalid comparison operator %q", tok.val)
		}
	case tok.kind == "word" && tok.val == "in":
		op = "in"
	case tok.kind == "word" && tok.val == "not":
		if tok2 := p.next(); !(tok2.kind == "word" && tok2.val == "in") {
			return nil, fmt.Errorf("expected 'in' after 'not', got %q", tok2.val)
		}
		op = "not in"
	default:
		return nil, fmt.Errorf("expected comparison operator, got %q", tok.val)
	}

	rhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return markerCmp{op: op, lhs: lhs, rhs: rhs}, nil
}

func (p *markerParser) parseOperand() (markerOperand, error) {
	switch tok := p.next(); tok.kind {
	case "str":
		return markerOperand{val: tok.val}, nil
	case "word":
		return markerOperand{val: tok.val, variable: true}, nil
	default:
		return markerOperand{}, fmt.Errorf("expected variable or string, got %q", tok.val)
	}
}
