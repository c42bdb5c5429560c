package view

import (
	"embed"
	"html/template"
	"io"
	"sync"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/page.gohtml"))

// Sync holds the current surface. Sync and Render are the only ways the
// presentation changes or leaves the process.
type Sync struct {
	mu      sync.RWMutex
	surface Surface
}

func NewSync() *Sync {
	return &Sync{surface: Project(State{})}
}

// Sync re-projects st and replaces the current surface.
func (v *Sync) Sync(st State) Surface {
	s := Project(st)

	v.mu.Lock()
	v.surface = s
	v.mu.Unlock()

	return s
}

func (v *Sync) Surface() Surface {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.surface
}

// Render writes the current surface as an HTML page.
func (v *Sync) Render(w io.Writer) error {
	return pageTmpl.Execute(w, v.Surface())
}
