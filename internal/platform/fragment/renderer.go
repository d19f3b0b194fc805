package fragment

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

//go:embed templates
var embedded embed.FS

// ErrFragmentNotFound is returned when no template exists for a fragment.
var ErrFragmentNotFound = errors.New("fragment not found")

var funcs = template.FuncMap{
	"lower": func(v any) string { return strings.ToLower(fmt.Sprint(v)) },
	"toJSON": func(v any) (string, error) {
		if v == nil {
			return "[]", nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	},
}

// Renderer renders named HTML fragments. A fragment is addressed by a
// namespace and a path and lives at "<namespace>/<path>.html".
type Renderer struct {
	fsys   fs.FS
	logger zerolog.Logger

	mu    sync.RWMutex
	cache map[string]*template.Template
}

// NewRenderer creates a renderer over the given file system.
func NewRenderer(fsys fs.FS, logger zerolog.Logger) *Renderer {
	return &Renderer{
		fsys:   fsys,
		logger: logger,
		cache:  make(map[string]*template.Template),
	}
}

// Default returns a renderer over the built-in fragments. When dir is set,
// fragments found there take precedence over the built-in ones.
func Default(dir string, logger zerolog.Logger) (*Renderer, error) {
	builtin, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, fmt.Errorf("open built-in fragments: %w", err)
	}
	if dir == "" {
		return NewRenderer(builtin, logger), nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("fragment directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fragment directory %s is not a directory", dir)
	}
	return NewRenderer(overlay{os.DirFS(dir), builtin}, logger), nil
}

// IncludeFragment renders the fragment with params and returns its HTML.
func (r *Renderer) IncludeFragment(ctx context.Context, namespace, fragmentPath string, params map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := path.Join(namespace, fragmentPath) + ".html"
	tmpl, err := r.lookup(name)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, params); err != nil {
		return "", fmt.Errorf("render fragment %s: %w", name, err)
	}
	return b.String(), nil
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	r.mu.RLock()
	tmpl, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	src, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFragmentNotFound, name)
		}
		return nil, fmt.Errorf("read fragment %s: %w", name, err)
	}

	tmpl, err = template.New(name).Funcs(funcs).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse fragment %s: %w", name, err)
	}

	r.mu.Lock()
	r.cache[name] = tmpl
	r.mu.Unlock()

	r.logger.Debug().Str("fragment", name).Msg("fragment loaded")
	return tmpl, nil
}

// overlay opens a file from the first file system that has it.
type overlay []fs.FS

func (o overlay) Open(name string) (fs.File, error) {
	for _, fsys := range o {
		f, err := fsys.Open(name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
