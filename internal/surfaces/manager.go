// Package surfaces owns the one-to-one mapping between desktop-entry paths
// and compositor surface IDs. IDs are assigned by the Compositor (which is
// expected to hand them out monotonically and never reuse one); the manager
// stores the ID CreateSurface returns and does not check it.
package surfaces

import (
	"fmt"

	"go.uber.org/zap"
)

// ID identifies a single compositor surface.
type ID uint64

// Compositor is the narrow facade the manager drives; internal/wire
// implements it against the real Wayland connection.
type Compositor interface {
	CreateSurface(x, y, w, h int) (ID, error)
	DestroySurface(id ID) error
	Reposition(id ID, x, y int) error
	Attach(id ID, pixels []byte, w, h, stride int) error
}

// Manager keeps the path<->ID bimap and forwards lifecycle operations to a
// Compositor. Add and Remove are idempotent: adding an already-mapped path
// or removing an unmapped one is a no-op, not an error.
type Manager struct {
	comp Compositor
	log  *zap.Logger

	byPath map[string]ID
	byID   map[ID]string
	nextID ID
}

// New constructs an empty Manager bound to comp.
func New(comp Compositor, log *zap.Logger) *Manager {
	return &Manager{
		comp:   comp,
		log:    log,
		byPath: make(map[string]ID),
		byID:   make(map[ID]string),
		nextID: 1,
	}
}

// Add creates a surface for path at (x,y) sized (w,h) unless one already
// exists, in which case it is a no-op.
func (m *Manager) Add(path string, x, y, w, h int) error {
	if _, ok := m.byPath[path]; ok {
		return nil
	}
	id, err := m.comp.CreateSurface(x, y, w, h)
	if err != nil {
		return fmt.Errorf("surfaces: create for %q: %w", path, err)
	}
	m.byPath[path] = id
	m.byID[id] = path
	m.nextID = id + 1
	if m.log != nil {
		m.log.Info("surface created", zap.String("path", path), zap.Uint64("id", uint64(id)))
	}
	return nil
}

// Remove destroys the surface for path unless it was never mapped, in which
// case it is a no-op.
func (m *Manager) Remove(path string) error {
	id, ok := m.byPath[path]
	if !ok {
		return nil
	}
	delete(m.byPath, path)
	delete(m.byID, id)
	if err := m.comp.DestroySurface(id); err != nil {
		return fmt.Errorf("surfaces: destroy %q: %w", path, err)
	}
	if m.log != nil {
		m.log.Info("surface removed", zap.String("path", path), zap.Uint64("id", uint64(id)))
	}
	return nil
}

// Reposition moves the surface for path to (x,y). It is a no-op if path is
// not mapped.
func (m *Manager) Reposition(path string, x, y int) error {
	id, ok := m.byPath[path]
	if !ok {
		return nil
	}
	return m.comp.Reposition(id, x, y)
}

// Attach delivers new pixels to path's surface, skipping silently if path is
// not mapped (e.g. a render raced a removal).
func (m *Manager) Attach(path string, pixels []byte, w, h, stride int) error {
	id, ok := m.byPath[path]
	if !ok {
		return nil
	}
	return m.comp.Attach(id, pixels, w, h, stride)
}

// IDFor returns the surface ID mapped to path, if any.
func (m *Manager) IDFor(path string) (ID, bool) {
	id, ok := m.byPath[path]
	return id, ok
}

// PathFor returns the path mapped to id, if any.
func (m *Manager) PathFor(id ID) (string, bool) {
	p, ok := m.byID[id]
	return p, ok
}

// Len reports how many surfaces are currently mapped.
func (m *Manager) Len() int {
	return len(m.byPath)
}

// Paths returns every currently-mapped path. The order is unspecified.
func (m *Manager) Paths() []string {
	out := make([]string, 0, len(m.byPath))
	for p := range m.byPath {
		out = append(out, p)
	}
	return out
}
