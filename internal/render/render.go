// Package render turns a legislative brief into document bytes. JSON and
// Markdown are built in; PDF and Word output come from renderers
// registered by the embedding application.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/ppiankov/argintel/internal/model"
)

// ErrNoRenderer is returned when no renderer is registered for a format
var ErrNoRenderer = errors.New("no renderer registered for format")

// Renderer writes a brief in one document format
type Renderer interface {
	Render(w io.Writer, brief model.LegislativeBrief) error
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(w io.Writer, brief model.LegislativeBrief) error

func (f RendererFunc) Render(w io.Writer, brief model.LegislativeBrief) error { return f(w, brief) }

// Registry dispatches a brief to the renderer of its format
type Registry struct {
	mu        sync.RWMutex
	renderers map[model.BriefFormat]Renderer
}

// NewRegistry returns a registry with the Markdown renderer installed
func NewRegistry(includeFooter bool) *Registry {
	r := &Registry{renderers: make(map[model.BriefFormat]Renderer)}
	r.Register(model.FormatMarkdown, &MarkdownRenderer{IncludeFooter: includeFooter})
	return r
}

// Register installs or replaces the renderer for a format
func (r *Registry) Register(format model.BriefFormat, renderer Renderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renderers[format] = renderer
}

// Render writes the brief in its own format
func (r *Registry) Render(w io.Writer, brief model.LegislativeBrief) error {
	r.mu.RLock()
	renderer, ok := r.renderers[brief.Format]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoRenderer, brief.Format)
	}
	return renderer.Render(w, brief)
}

// Extension returns the conventional file extension of a format
func Extension(format model.BriefFormat) string {
	switch format {
	case model.FormatMarkdown:
		return ".md"
	case model.FormatPDF:
		return ".pdf"
	case model.FormatWord:
		return ".docx"
	default:
		return ".out"
	}
}

// JSONRenderer writes the brief as indented JSON
type JSONRenderer struct{}

func (JSONRenderer) Render(w io.Writer, brief model.LegislativeBrief) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(brief); err != nil {
		return fmt.Errorf("encode brief: %w", err)
	}
	return nil
}

// WriteFile renders into path through a temp file in the same directory
func WriteFile(path string, renderer Renderer, brief model.LegislativeBrief) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".brief-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = renderer.Render(tmp, brief); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}
	return nil
}
