package index

import (
	"html/template"
	"io"
)

// The page shapes come from PEP 503: anchor-per-project at the root,
// anchor-per-file under a project, hash as a URL fragment, Requires-Python as
// a data attribute.

var rootTemplate = template.Must(template.New("root").Parse(`<!DOCTYPE html>
<html>
  <head>
    <title>Simple index</title>
  </head>
  <body>
{{- range .Projects }}
    <a href="{{ . }}/">{{ . }}</a><br/>
{{- end }}
  </body>
</html>
`))

var projectTemplate = template.Must(template.New("project").Parse(`<!DOCTYPE html>
<html>
  <head>
    <title>Links for {{ .Project }}</title>
  </head>
  <body>
    <h1>Links for {{ .Project }}</h1>
{{- range .Files }}
    <a href="{{ .HRef }}#sha256={{ .SHA256 }}"
       {{- if .RequiresPython }} data-requires-python="{{ .RequiresPython }}"{{ end }}>{{ .Name }}</a><br/>
{{- end }}
  </body>
</html>
`))

// WriteRootPage writes the root project-list page.
func (idx *Index) WriteRootPage(w io.Writer) error {
	return rootTemplate.Execute(w, struct{ Projects []string }{idx.Projects()})
}

type projectLink struct {
	File
	HRef string
}

// WriteProjectPage writes the file-list page for one project.  hrefFor maps a
// file to the URL the page links to.
func (idx *Index) WriteProjectPage(w io.Writer, project string, hrefFor func(File) string) error {
	files := idx.Files(project)
	links := make([]projectLink, 0, len(files))
	for _, file := range files {
		links = append(links, projectLink{File: file, HRef: hrefFor(file)})
	}
	return projectTemplate.Execute(w, struct {
		Project string
		Files   []projectLink
	}{project, links})
}
