// Package metadata reads Python core metadata ("METADATA" in a wheel's
// .dist-info directory, "PKG-INFO" in an sdist): the RFC 822ish key:value
// format, including the Requires-Dist dependency pins.
//
// https://packaging.python.org/specifications/core-metadata/
package metadata

import (
	"bufio"
	"fmt"
	"io"
	"net/textproto"
	"regexp"
	"strings"

	"github.com/fbtools/wheelhouse/pkg/python/pep440"
)

type Metadata struct {
	Name           string
	Version        *pep440.Version
	Summary        string
	RequiresPython pep440.Specifier
	RequiresDist   []Pin

	// Fields holds every header field as read, for callers that need more
	// than the parsed subset.
	Fields textproto.MIMEHeader
}

// Pin is one Requires-Dist dependency declaration:
//
//	Requires-Dist: <name> [extras] <specifier> ; <environment marker>
type Pin struct {
	Name      string
	Extras    []string
	Specifier pep440.Specifier
	Marker    *Marker
}

func (pin Pin) String() string {
	var ret strings.Builder
	ret.WriteString(pin.Name)
	if len(pin.Extras) > 0 {
		fmt.Fprintf(&ret, "[%s]", strings.Join(pin.Extras, ","))
	}
	if len(pin.Specifier) > 0 {
		ret.WriteString(" ")
		ret.WriteString(pin.Specifier.String())
	}
	if pin.Marker != nil {
		ret.WriteString(" ; ")
		ret.WriteString(pin.Marker.String())
	}
	return ret.String()
}

// Parse reads a core-metadata document.  The long-description "body" after
// the blank line is discarded.
func Parse(reader io.Reader) (*Metadata, error) {
	// textproto wants a blank line to terminate the header; METADATA files
	// that are all header and no body don't always have one, so append a
	// few CRLFs to keep ReadMIMEHeader happy either way.
	kvReader := textproto.NewReader(bufio.NewReader(io.MultiReader(
		headerOnly(reader),
		strings.NewReader("\r\n\r\n\r\n"),
	)))
	fields, err := kvReader.ReadMIMEHeader()
	if err != nil {
		return nil, fmt.Errorf("metadata.Parse: %w", err)
	}

	ret := &Metadata{
		Name:    fields.Get("Name"),
		Summary: fields.Get("Summary"),
		Fields:  fields,
	}

	if verStr := fields.Get("Version"); verStr != "" {
		ver, err := pep440.ParseVersion(verStr)
		if err != nil {
			return nil, fmt.Errorf("metadata.Parse: Version: %w", err)
		}
		ret.Version = ver
	}

	if reqPy := fields.Get("Requires-Python"); reqPy != "" {
		spec, err := pep440.ParseSpecifier(reqPy)
		if err != nil {
			return nil, fmt.Errorf("metadata.Parse: Requires-Python: %w", err)
		}
		ret.RequiresPython = spec
	}

	for _, reqStr := range fields.Values("Requires-Dist") {
		pin, err := ParsePin(reqStr)
		if err != nil {
			return nil, fmt.Errorf("metadata.Parse: Requires-Dist: %w", err)
		}
		ret.RequiresDist = append(ret.RequiresDist, *pin)
	}

	return ret, nil
}

// headerOnly truncates the reader at the first blank line, so that a
// Description body can't confuse the MIME-header reader.
func headerOnly(reader io.Reader) io.Reader {
	pr, pw := io.Pipe()
	go func() {
		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.TrimRight(line, "\r") == "" {
				break
			}
			if _, err := io.WriteString(pw, line+"\r\n"); err != nil {
				return
			}
		}
		pw.CloseWithError(scanner.Err())
	}()
	return pr
}

// "the only valid characters in a name are the ASCII alphabet, ASCII
// numbers, `.`, `-`, and `_`"
var reName = regexp.MustCompile(`^([A-Za-z0-9._-]+)`)

// ParsePin parses a single Requires-Dist value, such as
//
//	pandas ==2.2.3 ; python_version >= "3.10"
func ParsePin(str string) (*Pin, error) {
	var ret Pin

	reqStr := str
	if semi := strings.Index(reqStr, ";"); semi >= 0 {
		marker, err := ParseMarker(reqStr[semi+1:])
		if err != nil {
			return nil, fmt.Errorf("%q: %w", str, err)
		}
		ret.Marker = marker
		reqStr = reqStr[:semi]
	}
	reqStr = strings.TrimSpace(reqStr)

	name := reName.FindString(reqStr)
	if name == "" {
		return nil, fmt.Errorf("invalid requirement: %q", str)
	}
	ret.Name = name
	reqStr = strings.TrimSpace(reqStr[len(name):])

	if strings.HasPrefix(reqStr, "[") {
		end := strings.Index(reqStr, "]")
		if end < 0 {
			return nil, fmt.Errorf("invalid requirement: unclosed extras: %q", str)
		}
		for _, extra := range strings.Split(reqStr[1:end], ",") {
			if extra = strings.TrimSpace(extra); extra != "" {
				ret.Extras = append(ret.Extras, extra)
			}
		}
		reqStr = strings.TrimSpace(reqStr[end+1:])
	}

	// the specifier may be parenthesized: "name (==1.0)"
	reqStr = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(reqStr, "("), ")"))
	if reqStr != "" {
		spec, err := pep440.ParseSpecifier(reqStr)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", str, err)
		}
		ret.Specifier = spec
	}

	return &ret, nil
}
