package wire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"go.uber.org/zap"

	"github.com/rajveermalviya/go-wayland/wayland"

	"github.com/MHashir09/cvh-icons/internal/surfaces"
)

// ErrNotConfigured is the soft error Attach returns for a surface that
// hasn't received its first layer_surface.configure yet; callers treat it
// as retryable, not a failure.
var ErrNotConfigured = errors.New("wire: surface not configured")

const defaultOutputWidth, defaultOutputHeight = 1920, 1080

const poolInitialCapacity = 1 << 20 // 1 MiB, matching the original's SlotPool size

// iconSurface is everything the client tracks per surface.ID: the layer
// surface, its backing buffer region, and whether a configure has arrived.
type iconSurface struct {
	surface      *Surface
	layerSurface *LayerSurface
	buffer       *Buffer
	configured   bool

	offset, size   int32
	w, h, stride   int32
}

// Client is the compositor-facing half of the daemon: it owns the Wayland
// connection, the shared shm pool, output geometry, and seat/pointer
// binding, and implements surfaces.Compositor so the surface manager can
// drive it without knowing about Wayland at all.
type Client struct {
	log       *zap.Logger
	namespace string

	conn       *wayland.Conn
	display    *Display
	registry   *Registry
	compositor *Compositor
	shm        *Shm
	seat       *Seat
	layerShell *LayerShell
	output     *Output
	pointer    *Pointer

	pointerEvents chan PointerEvent

	pool     *ShmPool
	poolFile *os.File
	poolData []byte
	poolCap  int32
	poolNext int32

	outX, outY, outW, outH int

	nextID      surfaces.ID
	surfaces    map[surfaces.ID]*iconSurface
	wireToIcon  map[wayland.ObjectID]surfaces.ID
}

// New builds an unconnected Client; call Connect to bind to the compositor.
func New(namespace string, log *zap.Logger) *Client {
	return &Client{
		log:           log,
		namespace:     namespace,
		pointerEvents: make(chan PointerEvent, 64),
		surfaces:      make(map[surfaces.ID]*iconSurface),
		wireToIcon:    make(map[wayland.ObjectID]surfaces.ID),
		nextID:        1,
		outW:          defaultOutputWidth,
		outH:          defaultOutputHeight,
	}
}

// Connect dials the compositor, binds every required global, and blocks
// until the initial registry round-trip completes.
func (c *Client) Connect(displayName string) error {
	conn, err := wayland.Connect(displayName)
	if err != nil {
		return fmt.Errorf("wire: connect: %w", err)
	}
	c.conn = conn

	c.display = NewDisplay(conn, &DisplayHandlers{
		OnError: func(objectID, code uint32, message string) {
			if c.log != nil {
				c.log.Error("wayland protocol error", zap.Uint32("object", objectID), zap.Uint32("code", code))
			}
		},
	})

	c.compositor = NewCompositor()
	c.shm = NewShm()
	c.seat = NewSeat(&SeatHandlers{OnCapabilities: c.handleSeatCapabilities})
	c.layerShell = NewLayerShell()
	c.output = NewOutput(&OutputHandlers{
		OnGeometry: func(x, y int) { c.outX, c.outY = x, y },
		OnMode:     func(w, h int) { c.outW, c.outH = w, h },
	})

	c.registry = c.display.GetRegistry(&RegistryHandlers{OnGlobal: func(name uint32, iface string, version uint32) {}})
	c.registry.Bind(c.compositor, c.shm, c.seat, c.layerShell, c.output)

	if err := c.roundtrip(); err != nil {
		return err
	}

	if c.compositor.conn == nil || c.shm.conn == nil || c.layerShell.conn == nil {
		return fmt.Errorf("wire: compositor did not advertise a required global (wl_compositor/wl_shm/zwlr_layer_shell_v1)")
	}

	if err := c.initPool(); err != nil {
		return err
	}

	return nil
}

func (c *Client) roundtrip() error {
	done := make(chan struct{})
	c.display.Sync(func() { close(done) })
	for {
		if err := c.conn.Dispatch(); err != nil {
			return fmt.Errorf("wire: roundtrip dispatch: %w", err)
		}
		select {
		case <-done:
			return nil
		default:
		}
	}
}

func (c *Client) handleSeatCapabilities(caps uint32) {
	if caps&SeatCapabilityPointer != 0 && c.pointer == nil {
		c.pointer = c.seat.GetPointer(c.pointerEvents)
	}
}

func (c *Client) initPool() error {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		return fmt.Errorf("wire: XDG_RUNTIME_DIR is not set")
	}
	f, err := os.CreateTemp(dir, "cvh-icons-shm-*")
	if err != nil {
		return fmt.Errorf("wire: create shm tmpfile: %w", err)
	}
	if err := f.Truncate(poolInitialCapacity); err != nil {
		f.Close()
		return fmt.Errorf("wire: truncate shm tmpfile: %w", err)
	}
	os.Remove(f.Name())

	data, err := syscall.Mmap(int(f.Fd()), 0, poolInitialCapacity, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return fmt.Errorf("wire: mmap shm pool: %w", err)
	}

	c.poolFile = f
	c.poolData = data
	c.poolCap = poolInitialCapacity
	c.pool = c.shm.CreatePool(int(f.Fd()), c.poolCap)
	return nil
}

func (c *Client) allocRegion(size int32) (int32, error) {
	if c.poolNext+size > c.poolCap {
		newCap := c.poolCap * 2
		for newCap < c.poolNext+size {
			newCap *= 2
		}
		if err := c.poolFile.Truncate(int64(newCap)); err != nil {
			return 0, fmt.Errorf("wire: grow shm pool file: %w", err)
		}
		if err := syscall.Munmap(c.poolData); err != nil {
			return 0, fmt.Errorf("wire: unmap shm pool: %w", err)
		}
		data, err := syscall.Mmap(int(c.poolFile.Fd()), 0, int(newCap), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
		if err != nil {
			return 0, fmt.Errorf("wire: remap grown shm pool: %w", err)
		}
		c.poolData = data
		c.poolCap = newCap
		if err := c.pool.Resize(newCap); err != nil {
			return 0, fmt.Errorf("wire: resize shm pool: %w", err)
		}
	}
	offset := c.poolNext
	c.poolNext += size
	return offset, nil
}

// Geometry returns the last-known output offset and size, falling back to
// 1920x1080 when no wl_output.mode has arrived yet.
func (c *Client) Geometry() (x, y, w, h int) {
	return c.outX, c.outY, c.outW, c.outH
}

// PointerEvents exposes the pointer fan-out channel for the engine's input
// step.
func (c *Client) PointerEvents() <-chan PointerEvent {
	return c.pointerEvents
}

// RunDispatchLoop pumps the Wayland connection until ctx is done, feeding
// PointerEvents and Output callbacks asynchronously. This is the Go
// translation of the calloop-driven compositor dispatch the original ran
// inline in its single-threaded loop; there is no calloop equivalent in
// this module's dependency set, so dispatch runs on its own goroutine and
// hands events to the engine over channels instead.
func (c *Client) RunDispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := c.conn.Dispatch(); err != nil {
			if c.log != nil {
				c.log.Error("wayland dispatch failed", zap.Error(err))
			}
			return
		}
	}
}

// --- surfaces.Compositor ------------------------------------------------

func (c *Client) CreateSurface(x, y, w, h int) (surfaces.ID, error) {
	wlSurface := c.compositor.CreateSurface()

	id := c.nextID
	c.nextID++

	ls := c.layerShell.GetLayerSurface(wlSurface, c.output, LayerBackground, c.namespace, nil)
	entry := &iconSurface{surface: wlSurface, layerSurface: ls, w: int32(w), h: int32(h), stride: int32(w) * 4, size: int32(w) * int32(h) * 4}

	ls.handlers = &LayerSurfaceHandlers{
		OnConfigure: func(serial uint32, width, height int) {
			entry.configured = true
			ls.AckConfigure(serial)
		},
		OnClosed: func() {
			entry.configured = false
		},
	}

	ls.SetAnchor(AnchorTop | AnchorLeft)
	ls.SetSize(uint32(w), uint32(h))
	ls.SetExclusiveZone(-1)
	ls.SetKeyboardInteractivity(KeyboardInteractivityNone)
	ls.SetMargin(int32(y), 0, 0, int32(x))
	wlSurface.Commit()

	offset, err := c.allocRegion(entry.size)
	if err != nil {
		return 0, err
	}
	entry.offset = offset

	c.surfaces[id] = entry
	c.wireToIcon[wlSurface.ID()] = id
	return id, nil
}

// ResolveSurface maps a wl_surface wire object ID, as carried on pointer
// events, back to the surfaces.ID the surface manager uses.
func (c *Client) ResolveSurface(objID wayland.ObjectID) (surfaces.ID, bool) {
	id, ok := c.wireToIcon[objID]
	return id, ok
}

func (c *Client) DestroySurface(id surfaces.ID) error {
	entry, ok := c.surfaces[id]
	if !ok {
		return nil
	}
	delete(c.surfaces, id)
	delete(c.wireToIcon, entry.surface.ID())
	if entry.buffer != nil {
		entry.buffer.Destroy()
	}
	entry.layerSurface.Destroy()
	return entry.surface.Destroy()
}

func (c *Client) Reposition(id surfaces.ID, x, y int) error {
	entry, ok := c.surfaces[id]
	if !ok {
		return nil
	}
	if err := entry.layerSurface.SetMargin(int32(y), 0, 0, int32(x)); err != nil {
		return err
	}
	return entry.surface.Commit()
}

// Attach converts premultiplied RGBA pixels to little-endian ARGB8888 (the
// B,G,R,A byte order wl_shm expects), copies them into this surface's
// region of the shared pool, and commits a fresh buffer. Attaching before
// the first configure is a silent no-op (ErrNotConfigured), matching the
// original daemon's soft-fail convention.
func (c *Client) Attach(id surfaces.ID, pixels []byte, w, h, stride int) error {
	entry, ok := c.surfaces[id]
	if !ok {
		return nil
	}
	if !entry.configured {
		return ErrNotConfigured
	}
	if len(pixels) != 4*w*h {
		return fmt.Errorf("wire: attach: pixel buffer length %d != 4*%d*%d", len(pixels), w, h)
	}

	dst := c.poolData[entry.offset : entry.offset+entry.size]
	for i := 0; i+4 <= len(pixels); i += 4 {
		r, g, b, a := pixels[i], pixels[i+1], pixels[i+2], pixels[i+3]
		dst[i+0] = b
		dst[i+1] = g
		dst[i+2] = r
		dst[i+3] = a
	}

	if entry.buffer != nil {
		entry.buffer.Destroy()
	}
	entry.buffer = c.pool.CreateBuffer(entry.offset, int32(w), int32(h), int32(stride), ShmFormatArgb8888, func() {})

	if err := entry.surface.Attach(entry.buffer, 0, 0); err != nil {
		return err
	}
	if err := entry.surface.Damage(0, 0, int32(w), int32(h)); err != nil {
		return err
	}
	return entry.surface.Commit()
}

var _ surfaces.Compositor = (*Client)(nil)
