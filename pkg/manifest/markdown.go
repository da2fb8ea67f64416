package manifest

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fbtools/wheelhouse/pkg/python/wheel"
)

func normalizeName(name string) string {
	return wheel.NormalizeDistribution(name)
}

var (
	reHeading = regexp.MustCompile(`^#+\s+(.*?)\s*$`)
	reLink    = regexp.MustCompile(`\[([^\]]*)\]\(([^)\s]+)\)`)
	reRule    = regexp.MustCompile(`^:?-+:?$`)
)

// ParseDocument extracts every release table from a markdown document.  A
// document that repeats its content yields one Manifest per table, in order;
// reconciling contradictory copies is the linter's job, not the parser's.
func ParseDocument(reader io.Reader) ([]Manifest, error) {
	var ret []Manifest

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)

	var (
		section string
		lines   []string
	)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("manifest.ParseDocument: %w", err)
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if match := reHeading.FindStringSubmatch(line); match != nil {
			section = match[1]
			continue
		}
		header, ok := parseRow(line)
		if !ok || !isReleaseHeader(header) {
			continue
		}
		// require a separator row ("|---|---|...") next
		if i+1 >= len(lines) || !isSeparatorRow(lines[i+1]) {
			continue
		}
		m := Manifest{
			Section: section,
			Line:    i + 1, // 1-based
		}
		cols := headerColumns(header)
		j := i + 2
		for ; j < len(lines); j++ {
			row, ok := parseRow(lines[j])
			if !ok {
				break
			}
			m.Releases = append(m.Releases, releaseFromRow(cols, row))
		}
		i = j - 1
		ret = append(ret, m)
	}

	return ret, nil
}

// parseRow splits a markdown table row into its cells.
func parseRow(line string) ([]string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "|") {
		return nil, false
	}
	trimmed = strings.Trim(trimmed, "|")
	cells := strings.Split(trimmed, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells, true
}

func isSeparatorRow(line string) bool {
	cells, ok := parseRow(line)
	if !ok {
		return false
	}
	for _, cell := range cells {
		if !reRule.MatchString(cell) {
			return false
		}
	}
	return len(cells) > 0
}

func isReleaseHeader(cells []string) bool {
	if len(cells) < 3 {
		return false
	}
	sawPackage, sawVersion := false, false
	for _, cell := range cells {
		switch key := strings.ToLower(plainText(cell)); {
		case strings.Contains(key, "package") || strings.Contains(key, "name"):
			sawPackage = true
		case strings.Contains(key, "version"):
			sawVersion = true
		}
	}
	return sawPackage && sawVersion
}

type columnMap struct {
	name, version, download, source int
}

func headerColumns(cells []string) columnMap {
	cols := columnMap{name: -1, version: -1, download: -1, source: -1}
	for i, cell := range cells {
		switch key := strings.ToLower(plainText(cell)); {
		case strings.Contains(key, "package") || strings.Contains(key, "name"):
			cols.name = i
		case strings.Contains(key, "version"):
			cols.version = i
		case strings.Contains(key, "download") || strings.Contains(key, "wheel") ||
			strings.Contains(key, "url") || strings.Contains(key, "install"):
			cols.download = i
		case strings.Contains(key, "source") || strings.Contains(key, "repo"):
			cols.source = i
		}
	}
	return cols
}

func releaseFromRow(cols columnMap, cells []string) Release {
	cell := func(i int) string {
		if i < 0 || i >= len(cells) {
			return ""
		}
		return cells[i]
	}
	return Release{
		Name:          plainText(cell(cols.name)),
		Version:       plainText(cell(cols.version)),
		DownloadURL:   cellURL(cell(cols.download)),
		SourceRepoURL: cellSource(cell(cols.source)),
	}
}

// plainText strips the inline markdown that hand-edited manifests dress cells
// in: code spans, bold markers, and link syntax (keeping the link text).
func plainText(cell string) string {
	cell = reLink.ReplaceAllString(cell, "$1")
	cell = strings.ReplaceAll(cell, "**", "")
	cell = strings.Trim(cell, "` ")
	return strings.TrimSpace(cell)
}

// cellURL extracts the URL from a cell: the target of the first markdown
// link, or the cell text itself.
func cellURL(cell string) string {
	if match := reLink.FindStringSubmatch(cell); match != nil {
		return match[2]
	}
	return plainText(cell)
}

func cellSource(cell string) string {
	if strings.EqualFold(plainText(cell), SourceUnavailable) {
		return SourceUnavailable
	}
	return cellURL(cell)
}

// Render produces the manifest's markdown table in the fixed column layout.
func Render(m *Manifest) string {
	var ret strings.Builder
	ret.WriteString("| Package | Version | Download | Source |\n")
	ret.WriteString("|---|---|---|---|\n")
	for _, rel := range m.Releases {
		download := rel.DownloadURL
		if download != "" {
			label := download
			if u, err := ParseArtifactURL(download); err == nil {
				label = u.Filename()
			}
			download = fmt.Sprintf("[%s](%s)", label, rel.DownloadURL)
		}
		source := rel.SourceRepoURL
		if rel.SourcePublic() {
			source = fmt.Sprintf("[%s](%s)", rel.SourceRepoURL, rel.SourceRepoURL)
		}
		fmt.Fprintf(&ret, "| `%s` | %s | %s | %s |\n",
			rel.Name, rel.Version, download, source)
	}
	return ret.String()
}

// RenderDocument produces a full README-style document: one heading, one
// table, and the install instructions.
func RenderDocument(m *Manifest) string {
	var ret strings.Builder
	section := m.Section
	if section == "" {
		section = "Available Packages"
	}
	fmt.Fprintf(&ret, "# %s\n\n", section)
	ret.WriteString(Render(m))
	ret.WriteString("\nInstall a package directly from its wheel URL:\n\n")
	for _, rel := range m.Releases {
		fmt.Fprintf(&ret, "    %s\n", InstallCommand(rel))
	}
	return ret.String()
}
