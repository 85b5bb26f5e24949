package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer parses and caches page templates. Each page is parsed together
// with the shared layout. When overrideDir is set (development), templates
// are read from disk instead and the cache is invalidated on file change.
type Renderer struct {
	logger      *zap.Logger
	overrideDir string

	mu    sync.Mutex
	cache map[string]*template.Template

	watcher *fsnotify.Watcher
	done    chan struct{}
}

var templateFuncs = template.FuncMap{
	"now": time.Now,
}

// NewRenderer creates a renderer. overrideDir may be empty for embedded-only
// operation.
func NewRenderer(overrideDir string, logger *zap.Logger) (*Renderer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Renderer{
		logger:      logger,
		overrideDir: overrideDir,
		cache:       make(map[string]*template.Template),
	}
	if overrideDir == "" {
		return r, nil
	}

	if _, err := os.Stat(overrideDir); err != nil {
		return nil, fmt.Errorf("templates dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create template watcher: %w", err)
	}
	if err := w.Add(overrideDir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", overrideDir, err)
	}
	r.watcher = w
	r.done = make(chan struct{})
	go r.watch()
	return r, nil
}

// Close stops the watcher, if any.
func (r *Renderer) Close() error {
	if r.watcher == nil {
		return nil
	}
	err := r.watcher.Close()
	<-r.done
	return err
}

func (r *Renderer) watch() {
	defer close(r.done)
	for {
		select {
		case ev, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				r.mu.Lock()
				r.cache = make(map[string]*template.Template)
				r.mu.Unlock()
				r.logger.Debug("template cache invalidated", zap.String("file", ev.Name))
			}
		case _, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (r *Renderer) lookup(page string) (*template.Template, error) {
	r.mu.Lock()
	if t, ok := r.cache[page]; ok {
		r.mu.Unlock()
		return t, nil
	}
	r.mu.Unlock()

	var (
		t   *template.Template
		err error
	)
	if r.overrideDir != "" {
		t, err = template.New("layout.html").Funcs(templateFuncs).ParseFiles(
			filepath.Join(r.overrideDir, "layout.html"),
			filepath.Join(r.overrideDir, page),
		)
	} else {
		t, err = template.New("layout.html").Funcs(templateFuncs).ParseFS(
			templateFS, "templates/layout.html", "templates/"+page)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
	}

	r.mu.Lock()
	r.cache[page] = t
	r.mu.Unlock()
	return t, nil
}

// Render writes the page to w. Rendering happens into a buffer first so a
// template error produces a clean 500 instead of a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, page string, data any) {
	t, err := r.lookup(page)
	if err != nil {
		r.logger.Error("template parse failed", zap.String("page", page), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		r.logger.Error("template render failed", zap.String("page", page), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
