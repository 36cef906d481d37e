package engine

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rajveermalviya/go-wayland/wayland"

	"github.com/MHashir09/cvh-icons/internal/config"
	"github.com/MHashir09/cvh-icons/internal/logging"
	"github.com/MHashir09/cvh-icons/internal/render"
	"github.com/MHashir09/cvh-icons/internal/surfaces"
	"github.com/MHashir09/cvh-icons/internal/wire"
)

type fakeClient struct {
	nextID     surfaces.ID
	created    map[surfaces.ID]bool
	attachFail map[surfaces.ID]bool
	events     chan wire.PointerEvent
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		created:    make(map[surfaces.ID]bool),
		attachFail: make(map[surfaces.ID]bool),
		events:     make(chan wire.PointerEvent, 8),
	}
}

func (f *fakeClient) CreateSurface(x, y, w, h int) (surfaces.ID, error) {
	f.nextID++
	f.created[f.nextID] = true
	return f.nextID, nil
}

func (f *fakeClient) DestroySurface(id surfaces.ID) error {
	delete(f.created, id)
	return nil
}

func (f *fakeClient) Reposition(id surfaces.ID, x, y int) error { return nil }

func (f *fakeClient) Attach(id surfaces.ID, pixels []byte, w, h, stride int) error {
	if f.attachFail[id] {
		return errors.New("simulated attach failure")
	}
	return nil
}

func (f *fakeClient) Geometry() (x, y, w, h int) { return 0, 0, 1920, 1080 }

func (f *fakeClient) PointerEvents() <-chan wire.PointerEvent { return f.events }

func (f *fakeClient) ResolveSurface(id wayland.ObjectID) (surfaces.ID, bool) { return 0, false }

func (f *fakeClient) RunDispatchLoop(ctx context.Context) { <-ctx.Done() }

type fakeRasteriser struct {
	fail bool
}

func (r *fakeRasteriser) Render(in render.Input) (*image.RGBA, error) {
	if r.fail {
		return nil, errors.New("simulated render failure")
	}
	img := image.NewRGBA(image.Rect(0, 0, in.IconSize, in.IconSize+in.LabelHeight))
	return img, nil
}

func fsnotifyCreateEvent(name string) fsnotify.Event {
	return fsnotify.Event{Name: name, Op: fsnotify.Create}
}

func fsnotifyWriteEvent(name string) fsnotify.Event {
	return fsnotify.Event{Name: name, Op: fsnotify.Write}
}

func newTestEngine(t *testing.T, dir string) (*Engine, *fakeClient) {
	t.Helper()
	cfg := config.Defaults()
	cfg.DesktopDir = dir
	cfg.TickInterval = 5 * time.Millisecond

	client := newFakeClient()
	e, err := New(cfg, logging.Nop(), client, nil, &fakeRasteriser{})
	if err != nil {
		t.Fatal(err)
	}
	return e, client
}

func TestScanDesktopSkipsHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "visible.txt"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644)

	e, _ := newTestEngine(t, dir)
	if err := e.ScanDesktop(); err != nil {
		t.Fatal(err)
	}
	if len(e.byPath) != 1 {
		t.Fatalf("byPath has %d entries, want 1", len(e.byPath))
	}
	if _, ok := e.byPath[filepath.Join(dir, "visible.txt")]; !ok {
		t.Error("visible.txt should have been scanned")
	}
}

func TestAddIconIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	os.WriteFile(p, []byte("x"), 0o644)

	e, _ := newTestEngine(t, dir)
	e.addIcon(p)
	e.addIcon(p)
	if len(e.byPath) != 1 {
		t.Fatalf("byPath has %d entries, want 1", len(e.byPath))
	}
}

func TestRemoveIconIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	os.WriteFile(p, []byte("x"), 0o644)

	e, _ := newTestEngine(t, dir)
	e.addIcon(p)
	e.removeIcon(p)
	e.removeIcon(p)
	if len(e.byPath) != 0 {
		t.Fatalf("byPath has %d entries, want 0", len(e.byPath))
	}
}

func TestFsEventModifyIgnoredWhenUnmapped(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	os.WriteFile(p, []byte("x"), 0o644)

	e, _ := newTestEngine(t, dir)
	// a.txt was never scanned/added, so a Write event for it must be a no-op.
	e.handleFsEvent(fsnotifyWriteEvent(p))
	if len(e.byPath) != 0 {
		t.Fatalf("byPath has %d entries, want 0 (unmapped write should be ignored)", len(e.byPath))
	}
}

func TestFsEventCreateAddsUnconditionally(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "new.txt")
	os.WriteFile(p, []byte("x"), 0o644)

	e, _ := newTestEngine(t, dir)
	e.handleFsEvent(fsnotifyCreateEvent(p))
	if _, ok := e.byPath[p]; !ok {
		t.Fatal("Create event should add the icon unconditionally")
	}
}

func TestDirtyFlagStaysSetAfterPartialRenderFailure(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0o644)

	e, client := newTestEngine(t, dir)
	if err := e.ScanDesktop(); err != nil {
		t.Fatal(err)
	}
	e.repositionAll(1920)

	// Make one of the two created surfaces fail to attach.
	for id := range client.created {
		client.attachFail[id] = true
		break
	}

	e.renderPass()
	if !e.dirty {
		t.Fatal("dirty flag should remain set after one attach failed")
	}

	for id := range client.attachFail {
		client.attachFail[id] = false
	}
	e.renderPass()
	if e.dirty {
		t.Fatal("dirty flag should clear once every icon renders successfully")
	}
}
