package web

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin/render"
)

// TemplateSet holds one parsed template per page, each a clone of the layout
// with the page's blocks parsed on top. All pages are parsed up front so a
// broken or missing template fails at startup instead of on a request.
//
// TemplateSet implements gin's render.HTMLRender.
type TemplateSet struct {
	mu     sync.RWMutex
	source fs.FS
	layout string
	names  []string
	pages  map[string]*template.Template
}

// NewTemplateSet parses layout and every named page from source
func NewTemplateSet(source fs.FS, layout string, names []string) (*TemplateSet, error) {
	ts := &TemplateSet{
		source: source,
		layout: layout,
		names:  append([]string(nil), names...),
	}
	if err := ts.Reload(); err != nil {
		return nil, err
	}
	return ts, nil
}

// Reload re-parses all templates. On error the previously parsed set stays active.
func (ts *TemplateSet) Reload() error {
	parsed, err := ts.parse()
	if err != nil {
		return err
	}
	ts.mu.Lock()
	ts.pages = parsed
	ts.mu.Unlock()
	return nil
}

func (ts *TemplateSet) parse() (map[string]*template.Template, error) {
	layout, err := template.ParseFS(ts.source, ts.layout)
	if err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", ts.layout, err)
	}

	parsed := make(map[string]*template.Template, len(ts.names))
	for _, name := range ts.names {
		t, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(ts.source, name); err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		parsed[name] = t
	}
	return parsed, nil
}

// Lookup returns the parsed template for a page
func (ts *TemplateSet) Lookup(name string) (*template.Template, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	t, ok := ts.pages[name]
	return t, ok
}

// Names returns the page template names in registration order
func (ts *TemplateSet) Names() []string {
	return append([]string(nil), ts.names...)
}

// Instance implements render.HTMLRender
func (ts *TemplateSet) Instance(name string, data any) render.Render {
	t, ok := ts.Lookup(name)
	if !ok {
		return missingTemplate{name: name}
	}
	return render.HTML{Template: t, Name: ts.layout, Data: data}
}

type missingTemplate struct {
	name string
}

func (m missingTemplate) Render(w http.ResponseWriter) error {
	return fmt.Errorf("template not found: %s", m.name)
}

func (m missingTemplate) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}
