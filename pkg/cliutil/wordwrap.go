package cliutil

import (
	"strings"
)

// Wrap wraps the string `s` to a maximum width `w`.  Pass `w` == 0 to do no
// wrapping.
//
// In order to have some room for slop to avoid things like a short word being
// on a line by itself, most lines are actually wrapped to `w - 5`.
func Wrap(w int, s string) string {
	return wrap(0, w, s)
}

// WrapIndent wraps the string `s` to a maximum width `w` with leading indent
// `i`.  The first line is not indented (this is assumed to be done by the
// caller).  Pass `w` == 0 to do no wrapping.
func WrapIndent(i, w int, s string) string {
	return wrap(i, w, s)
}

func wrap(indent, width int, str string) string {
	if width <= 0 || indent >= width {
		return str
	}
	limit := width - 5
	indentStr := strings.Repeat(" ", indent)

	var ret strings.Builder
	for i, line := range strings.Split(str, "\n") {
		if i > 0 {
			ret.WriteString("\n" + indentStr)
		}
		for len(line) > 0 {
			room := limit - indent
			if len(line) <= room {
				ret.WriteString(line)
				break
			}
			// break at the last space that fits; a word too long
			// for the line goes out whole
			cut := strings.LastIndex(line[:room+1], " ")
			if cut <= 0 {
				cut = strings.IndexByte(line, ' ')
				if cut < 0 {
					ret.WriteString(line)
					break
				}
			}
			ret.WriteString(strings.TrimRight(line[:cut], " "))
			line = strings.TrimLeft(line[cut:], " ")
			ret.WriteString("\n" + indentStr)
		}
	}
	return ret.String()
}
