// Package server implements the development server. Pages are rendered on
// request from the current sources, and connected browsers are told to
// reload when a loaded module changes on disk.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nielssp/plet/internal/build"
	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/evaluator"
	"github.com/nielssp/plet/internal/watcher"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	Site     *build.Site
	Reporter *diagnostics.Reporter

	// mu guards the site: rendering and change detection both touch the
	// module map.
	mu     sync.Mutex
	ctx    context.Context
	loaded bool
	reload *reload
	router chi.Router
}

func New(site *build.Site) *Server {
	s := &Server{
		Site:     site,
		Reporter: site.Reporter,
		ctx:      context.Background(),
		reload:   newReload(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(s.logRequest)
	router.MethodNotAllowed(methodNotAllowed)
	router.Get(config.ReloadEndpoint, s.serveReloadSSE)
	router.Get("/*", s.servePage)
	return router
}

func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != config.ReloadEndpoint {
			s.Reporter.Info("%s %s", req.Method, req.URL.Path)
		}
		next.ServeHTTP(w, req)
	})
}

func methodNotAllowed(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Allow", http.MethodGet)
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusMethodNotAllowed)
	w.Write([]byte("Method Not Allowed"))
}

// Refresh checks the loaded modules for changes. When something changed
// the site is reloaded on the next request and browsers are notified.
func (s *Server) Refresh(structural bool) bool {
	s.mu.Lock()
	changed := s.Site.Modules().DetectChanges() || structural
	if changed {
		s.loaded = false
	}
	s.mu.Unlock()
	if changed {
		s.reload.notify()
	}
	return changed
}

func (s *Server) ensureLoaded() error {
	if s.loaded {
		return nil
	}
	if err := s.Site.Load(s.ctx); err != nil {
		return err
	}
	s.loaded = true
	return nil
}

func (s *Server) servePage(w http.ResponseWriter, req *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	page := s.Site.Lookup(req.URL.Path)
	if page == nil {
		s.serveDist(w, req)
		return
	}
	if page.Kind == evaluator.PageCopy {
		serveFile(w, req, page.Src)
		return
	}

	out, err := s.Site.Render(page)
	if err != nil {
		s.Site.Report(err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	contentType := ContentType(page.Dest)
	if strings.HasPrefix(contentType, "text/html") {
		out = appendReloadScript(out)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(out))
}

func (s *Server) serveDist(w http.ResponseWriter, req *http.Request) {
	name := path.Clean("/" + req.URL.Path)
	fullPath := filepath.Join(s.Site.Project.DistDir(), filepath.FromSlash(name))
	if info, err := os.Stat(fullPath); err == nil && info.IsDir() {
		fullPath = filepath.Join(fullPath, "index.html")
	}
	serveFile(w, req, fullPath)
}

func serveFile(w http.ResponseWriter, req *http.Request, fullPath string) {
	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		http.NotFound(w, req)
		return
	}

	file, err := os.Open(fullPath)
	if err != nil {
		http.NotFound(w, req)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", ContentType(fullPath))
	http.ServeContent(w, req, info.Name(), info.ModTime(), file)
}

// ListenAndServe serves the site on addr and watches the project for
// changes until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.ctx = ctx
	srv := &http.Server{
		Addr:        addr,
		Handler:     s,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	w := watcher.New(s.Site.Project.Root, s.Reporter, filepath.Base(s.Site.Project.DistDir()))
	go func() {
		if err := w.Run(ctx, func(structural bool) {
			if s.Refresh(structural) {
				s.Reporter.Info("changes detected")
			}
		}); err != nil {
			s.Reporter.Warning("watcher stopped: %v", err)
		}
	}()

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.Reporter.Info("server listening on http://localhost%s/", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
