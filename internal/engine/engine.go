// Package engine implements the daemon's cooperative event loop: it scans
// the desktop directory, watches it for changes, fans input events out to
// the right icon, and drives the render pass — the Go translation of the
// original daemon's single-threaded calloop main loop.
package engine

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/rajveermalviya/go-wayland/wayland"

	"github.com/MHashir09/cvh-icons/internal/config"
	"github.com/MHashir09/cvh-icons/internal/icons"
	"github.com/MHashir09/cvh-icons/internal/render"
	"github.com/MHashir09/cvh-icons/internal/script"
	"github.com/MHashir09/cvh-icons/internal/surfaces"
	"github.com/MHashir09/cvh-icons/internal/wire"
)

// CompositorClient is the subset of *wire.Client the engine drives; tests
// substitute a fake so the event-loop logic can run without a real
// Wayland connection.
type CompositorClient interface {
	surfaces.Compositor
	Geometry() (x, y, w, h int)
	PointerEvents() <-chan wire.PointerEvent
	ResolveSurface(id wayland.ObjectID) (surfaces.ID, bool)
	RunDispatchLoop(ctx context.Context)
}

var _ CompositorClient = (*wire.Client)(nil)

// Engine owns every icon and surface for one desktop directory.
type Engine struct {
	cfg     config.Config
	log     *zap.Logger
	client  CompositorClient
	mgr     *surfaces.Manager
	rast    render.Rasteriser
	script  script.Client
	watcher *fsnotify.Watcher

	byPath map[string]*icons.Icon
	dirty  bool

	lastGeomW, lastGeomH int
	lastEnteredSurface   wayland.ObjectID
}

// New wires an Engine from its already-constructed collaborators.
func New(cfg config.Config, log *zap.Logger, client CompositorClient, scriptClient script.Client, rast render.Rasteriser) (*Engine, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(cfg.DesktopDir); err != nil {
		watcher.Close()
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		log:     log,
		client:  client,
		mgr:     surfaces.New(client, log),
		rast:    rast,
		script:  scriptClient,
		watcher: watcher,
		byPath:  make(map[string]*icons.Icon),
	}
	return e, nil
}

// ScanDesktop populates the engine from the desktop directory's current
// contents, skipping dotfiles.
func (e *Engine) ScanDesktop() error {
	entries, err := os.ReadDir(e.cfg.DesktopDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if isHidden(entry.Name()) {
			continue
		}
		path := filepath.Join(e.cfg.DesktopDir, entry.Name())
		e.addIcon(path)
	}
	e.dirty = true
	return nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// defaultOutputWidth is the fallback primary-output width (§3 Output) used
// to place a freshly-added icon before the first geometry poll has run.
const defaultOutputWidth = 1920

// addIcon implements C4's add: classify, construct the Icon, choose its
// grid cell from the current icon count, and request a surface at that
// position. A create failure leaves the icon mapped but surface-less; it
// recovers on the next reposition_all.
func (e *Engine) addIcon(path string) {
	if _, ok := e.byPath[path]; ok {
		return
	}
	info, err := os.Lstat(path)
	if err != nil {
		return
	}

	index := len(e.byPath)
	ic := icons.New(path, info)
	e.byPath[path] = ic
	e.dirty = true

	outputWidth := e.lastGeomW
	if outputWidth <= 0 {
		outputWidth = defaultOutputWidth
	}
	cellW, cellH := e.cfg.CellSize()
	columns := icons.Columns(outputWidth, cellW, e.cfg.InsetX)
	pos := ic.RequestPosition(index, index+1, columns, cellW, cellH, e.cfg.InsetX, e.cfg.InsetY)

	if err := e.mgr.Add(path, pos.X, pos.Y, e.cfg.IconSize, e.cfg.IconSize+e.cfg.LabelHeight); err != nil && e.log != nil {
		e.log.Warn("surface create failed, icon left surface-less", zap.String("path", path), zap.Error(err))
	}
}

func (e *Engine) removeIcon(path string) {
	if _, ok := e.byPath[path]; !ok {
		return
	}
	delete(e.byPath, path)
	e.mgr.Remove(path)
	e.dirty = true
}

// Run drives the loop until ctx is cancelled. Within every tick, the order
// is fixed: compositor dispatch (run on its own goroutine, drained here),
// input fan-out, geometry poll/reposition, filesystem events, the
// update() pass, and finally the render pass.
func (e *Engine) Run(ctx context.Context) error {
	defer e.watcher.Close()

	go e.client.RunDispatchLoop(ctx)

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.drainPointerEvents()
			e.pollGeometry()
			e.drainFsEvents()
			e.updatePass()
			e.renderPass()
		}
	}
}

func (e *Engine) drainPointerEvents() {
	for {
		select {
		case ev := <-e.client.PointerEvents():
			e.handlePointerEvent(ev)
		default:
			return
		}
	}
}

func (e *Engine) handlePointerEvent(ev wire.PointerEvent) {
	switch ev.Kind {
	case wire.PointerButton:
		if !ev.Pressed {
			return
		}
		ic, path, ok := e.iconForSurface(e.lastEnteredSurface)
		if !ok {
			return
		}
		action := ic.OnClick(e.script, ev.Button)
		e.dirty = true
		if e.log != nil {
			e.log.Info("icon clicked", zap.String("path", path), zap.String("action", action.Kind))
		}
	case wire.PointerEnter:
		e.lastEnteredSurface = ev.Surface
		if ic, _, ok := e.iconForSurface(ev.Surface); ok {
			ic.SetHovered(true)
			if ic.NeedsRender() {
				e.dirty = true
			}
		}
	case wire.PointerLeave:
		if ic, _, ok := e.iconForSurface(e.lastEnteredSurface); ok {
			ic.SetHovered(false)
			if ic.NeedsRender() {
				e.dirty = true
			}
		}
		e.lastEnteredSurface = 0
	case wire.PointerMotion:
		// Position within the surface isn't rendered; only hover state is.
	}
}

// iconForSurface resolves a wire-level surface object ID back to the Icon
// bound to it, via the surface manager's path<->ID bimap.
func (e *Engine) iconForSurface(surfaceObj wayland.ObjectID) (*icons.Icon, string, bool) {
	id, ok := e.client.ResolveSurface(surfaceObj)
	if !ok {
		return nil, "", false
	}
	path, ok := e.mgr.PathFor(id)
	if !ok {
		return nil, "", false
	}
	ic, ok := e.byPath[path]
	if !ok {
		return nil, "", false
	}
	return ic, path, true
}

func (e *Engine) pollGeometry() {
	_, _, w, h := e.client.Geometry()
	if w == e.lastGeomW && h == e.lastGeomH {
		return
	}
	e.lastGeomW, e.lastGeomH = w, h
	e.repositionAll(w)
}

func (e *Engine) repositionAll(outputWidth int) {
	cellW, cellH := e.cfg.CellSize()
	columns := icons.Columns(outputWidth, cellW, e.cfg.InsetX)

	paths := e.sortedPaths()
	for i, path := range paths {
		ic := e.byPath[path]
		pos := ic.RequestPosition(i, len(paths), columns, cellW, cellH, e.cfg.InsetX, e.cfg.InsetY)
		e.mgr.Add(path, pos.X, pos.Y, e.cfg.IconSize, e.cfg.IconSize+e.cfg.LabelHeight)
		e.mgr.Reposition(path, pos.X, pos.Y)
	}
	e.dirty = true
}

func (e *Engine) sortedPaths() []string {
	paths := make([]string, 0, len(e.byPath))
	for p := range e.byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (e *Engine) drainFsEvents() {
	for {
		select {
		case ev := <-e.watcher.Events:
			e.handleFsEvent(ev)
		case err := <-e.watcher.Errors:
			if e.log != nil && err != nil {
				e.log.Warn("filesystem watch error", zap.Error(err))
			}
		default:
			return
		}
	}
}

func (e *Engine) handleFsEvent(ev fsnotify.Event) {
	if isHidden(filepath.Base(ev.Name)) {
		return
	}
	switch {
	case ev.Has(fsnotify.Create):
		e.addIcon(ev.Name)
	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		e.removeIcon(ev.Name)
	case ev.Has(fsnotify.Write):
		ic, ok := e.byPath[ev.Name]
		if !ok {
			return
		}
		ic.Update()
		ic.MarkDirty()
		e.dirty = true
	}
}

func (e *Engine) updatePass() {
	var gone []string
	for path, ic := range e.byPath {
		ic.Update()
		if ic.Status == icons.Gone {
			gone = append(gone, path)
		}
	}
	for _, path := range gone {
		e.removeIcon(path)
	}
	if len(gone) > 0 {
		e.repositionAll(e.lastGeomW)
	}
}

// renderPass draws every icon that needs it. The engine's dirty flag is
// cleared only when every icon that needed a render this pass succeeded;
// a not-yet-configured surface or a rasteriser failure leaves it set so
// the next tick retries.
func (e *Engine) renderPass() {
	if !e.dirty {
		return
	}

	allSucceeded := true
	cellW, cellH := e.cfg.IconSize, e.cfg.IconSize+e.cfg.LabelHeight

	for path, ic := range e.byPath {
		if !ic.NeedsRender() {
			continue
		}

		in := render.Input{
			IconSize:    e.cfg.IconSize,
			LabelHeight: e.cfg.LabelHeight,
			GridSpacing: e.cfg.GridSpacing,
		}
		img, err := ic.RequestRender(e.script, e.rast, in, e.log)
		if err != nil {
			allSucceeded = false
			continue
		}

		err = e.mgr.Attach(path, img.Pix, cellW, cellH, img.Stride)
		switch {
		case err == nil:
			ic.MarkRendered()
		case err == wire.ErrNotConfigured:
			allSucceeded = false
		default:
			allSucceeded = false
			if e.log != nil {
				e.log.Warn("surface attach failed", zap.String("path", path), zap.Error(err))
			}
		}
	}

	if allSucceeded {
		e.dirty = false
	}
}
