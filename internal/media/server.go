package media

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/PizzaHomicide/kodicast/internal/log"
	"github.com/PizzaHomicide/kodicast/internal/version"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrNotStarted is returned by operations that need a listening server
var ErrNotStarted = errors.New("file server not started")

// Server serves a fixed set of files under /file/{name}
type Server struct {
	entries []Entry
	files   map[string]string
	router  chi.Router

	mu           sync.Mutex
	lastServed   string
	httpServer   *http.Server
	baseURL      string
	serveErr     chan error
	shutdownOnce sync.Once
	shutdownErr  error
}

// NewServer prepares a server for the given entries.  Names must be unique, see ExposeNames.
func NewServer(entries []Entry) *Server {
	s := &Server{
		entries: entries,
		files:   make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		s.files[e.Name] = e.Path
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleInfo)
	r.Get("/file/{name}", s.handleFile)
	r.Head("/file/{name}", s.handleFile)
	s.router = r
	return s
}

// Handler returns the routes without a listener
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr ("ip:port", port 0 for any) and serves in the background.  It returns the base URL items are
// served under.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listening on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	base := "http://" + ln.Addr().String()

	s.mu.Lock()
	s.httpServer = srv
	s.baseURL = base
	s.serveErr = make(chan error, 1)
	s.mu.Unlock()

	log.Info("File server listening", "url", base, "files", len(s.entries))
	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.serveErr <- err
		close(s.serveErr)
	}()
	return base, nil
}

// BaseURL is empty until Start succeeds
func (s *Server) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

// URLs returns the item URLs in entry order
func (s *Server) URLs() []string {
	base := s.BaseURL()
	urls := make([]string, len(s.entries))
	for i, e := range s.entries {
		urls[i] = ItemURL(base, e.Name)
	}
	return urls
}

// Wait blocks until the server stops serving and returns the serve error, if any
func (s *Server) Wait(ctx context.Context) error {
	s.mu.Lock()
	ch := s.serveErr
	s.mu.Unlock()
	if ch == nil {
		return ErrNotStarted
	}
	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops the server gracefully, waiting for running transfers until ctx ends
func (s *Server) Shutdown(ctx context.Context) error {
	srv := s.server()
	if srv == nil {
		return ErrNotStarted
	}
	s.shutdownOnce.Do(func() {
		log.Info("Stopping file server")
		s.shutdownErr = srv.Shutdown(ctx)
	})
	return s.shutdownErr
}

// Stop closes the listener and every open transfer at once.  It may follow a Shutdown that ran out of time.
func (s *Server) Stop() {
	srv := s.server()
	if srv == nil {
		return
	}
	if err := srv.Close(); err != nil {
		log.Warn("Closing file server failed", "error", err)
	}
}

func (s *Server) server() *http.Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.httpServer
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprint(w, version.Banner())
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		// chi matched the escaped path
		unescaped, err := url.PathUnescape(name)
		if err != nil {
			http.Error(w, "bad file name", http.StatusBadRequest)
			return
		}
		name = unescaped
	}

	path, ok := s.files[name]
	if !ok {
		log.Warn("Request for unknown file", "name", name, "remote", r.RemoteAddr)
		http.NotFound(w, r)
		return
	}
	s.noteServed(name, path)

	f, err := os.Open(path)
	if err != nil {
		log.Error("Opening served file failed", "path", path, "error", err)
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		log.Error("Stat of served file failed", "path", path, "error", err)
		http.Error(w, "file stat failed", http.StatusInternalServerError)
		return
	}

	if ct := contentType(path); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	// Range requests are handled by ServeContent since *os.File seeks
	http.ServeContent(w, r, filepath.Base(path), st.ModTime(), f)
}

// noteServed logs when Kodi moves on to a different file.  Range requests for the same file are not repeated.
func (s *Server) noteServed(name, path string) {
	s.mu.Lock()
	changed := s.lastServed != name
	s.lastServed = name
	s.mu.Unlock()
	if changed {
		log.Info("Serving file", "name", name, "path", path)
	}
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mkv":
		return "video/x-matroska"
	case ".mp4", ".m4v":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".avi":
		return "video/x-msvideo"
	}
	return ""
}
