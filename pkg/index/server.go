package index

import (
	"context"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/datawire/dlib/dhttp"
	"github.com/datawire/dlib/dlog"
	"github.com/go-chi/chi/v5"

	"github.com/fbtools/wheelhouse/pkg/manifest"
	"github.com/fbtools/wheelhouse/pkg/python/wheel"
)

// Server serves a wheel tree: the simple-repository pages under /simple/,
// the artifacts themselves under /packages/, and the rendered manifest table
// at the root.
type Server struct {
	Index *Index
	// Root is the wheel tree the Index was scanned from.
	Root fs.FS
	// Manifest, if set, is rendered as the front page.
	Manifest *manifest.Manifest
}

// Handler returns the server's routing table.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(logMiddleware)

	router.Get("/", s.serveFrontPage)
	router.Get("/simple", redirectSlash)
	router.Get("/simple/", s.serveSimpleRoot)
	router.Get("/simple/{project}", redirectSlash)
	router.Get("/simple/{project}/", s.serveSimpleProject)
	router.Get("/packages/*", s.servePackage)
	router.Head("/packages/*", s.servePackage)

	return router
}

// Serve runs the server until the context is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	sc := &dhttp.ServerConfig{
		Handler: s.Handler(),
	}
	dlog.Infof(ctx, "listening on %s", addr)
	return sc.ListenAndServe(ctx, addr)
}

func logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		dlog.Infof(r.Context(), "%s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}

func redirectSlash(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, r.URL.Path+"/", http.StatusMovedPermanently)
}

func (s *Server) serveFrontPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	if s.Manifest == nil {
		http.Redirect(w, r, "/simple/", http.StatusTemporaryRedirect)
		return
	}
	_, _ = w.Write([]byte(manifest.RenderDocument(s.Manifest)))
}

func (s *Server) serveSimpleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.Index.WriteRootPage(w); err != nil {
		dlog.Errorf(r.Context(), "render root page: %v", err)
	}
}

func (s *Server) serveSimpleProject(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")

	// non-normalized project URLs redirect to the normalized one
	if normalized := wheel.NormalizeDistribution(project); normalized != project {
		http.Redirect(w, r, "/simple/"+normalized+"/", http.StatusMovedPermanently)
		return
	}

	if len(s.Index.Files(project)) == 0 {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.Index.WriteProjectPage(w, project, func(file File) string {
		return "/packages/" + file.Path
	})
	if err != nil {
		dlog.Errorf(r.Context(), "render project page: %v", err)
	}
}

func (s *Server) servePackage(w http.ResponseWriter, r *http.Request) {
	treePath := chi.URLParam(r, "*")

	file, ok := s.Index.Lookup(treePath)
	if !ok {
		http.NotFound(w, r)
		return
	}

	etag := `"` + file.SHA256 + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	content, err := fs.ReadFile(s.Root, treePath)
	if err != nil {
		dlog.Errorf(r.Context(), "read %q: %v", treePath, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(content)
}
