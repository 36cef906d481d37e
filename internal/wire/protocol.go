package wire

import (
	"github.com/rajveermalviya/go-wayland/wayland"
)

// Layer shell request/event opcodes are assigned in protocol order, wl_*
// core requests likewise; these mirror what wayland-scanner would emit into
// the generated package this stands in for.
const (
	opDisplaySync       uint16 = 0
	opDisplayGetRegistry uint16 = 1

	opRegistryBind uint16 = 0

	opCompositorCreateSurface uint16 = 0

	opSurfaceDestroy uint16 = 0
	opSurfaceAttach  uint16 = 1
	opSurfaceDamage  uint16 = 2
	opSurfaceCommit  uint16 = 6

	opShmCreatePool uint16 = 0

	opShmPoolCreateBuffer uint16 = 0
	opShmPoolDestroy      uint16 = 1

	opBufferDestroy uint16 = 0

	opSeatGetPointer uint16 = 0
	opSeatRelease    uint16 = 3

	opPointerRelease uint16 = 1

	opLayerShellGetLayerSurface uint16 = 0

	opLayerSurfaceSetSize               uint16 = 0
	opLayerSurfaceSetAnchor             uint16 = 1
	opLayerSurfaceSetExclusiveZone      uint16 = 2
	opLayerSurfaceSetMargin             uint16 = 3
	opLayerSurfaceSetKeyboardInteractivity uint16 = 4
	opLayerSurfaceAckConfigure          uint16 = 6
	opLayerSurfaceDestroy               uint16 = 7
)

// LayerShellLayer selects which compositor-managed stacking layer a surface
// belongs to.
type LayerShellLayer uint32

const (
	LayerBackground LayerShellLayer = 0
	LayerBottom     LayerShellLayer = 1
	LayerTop        LayerShellLayer = 2
	LayerOverlay    LayerShellLayer = 3
)

// Anchor edges, bitwise-combinable.
const (
	AnchorTop    uint32 = 1
	AnchorBottom uint32 = 2
	AnchorLeft   uint32 = 4
	AnchorRight  uint32 = 8
)

// KeyboardInteractivity modes for zwlr_layer_surface_v1.
const (
	KeyboardInteractivityNone      uint32 = 0
	KeyboardInteractivityExclusive uint32 = 1
	KeyboardInteractivityOnDemand  uint32 = 2
)

// ShmFormat mirrors wl_shm.format; this client only ever uses Argb8888.
type ShmFormat uint32

const ShmFormatArgb8888 ShmFormat = 0

// --- Display ---------------------------------------------------------

type DisplayHandlers struct {
	OnError func(objectID uint32, code uint32, message string)
}

type Display struct {
	object
	handlers *DisplayHandlers
}

func NewDisplay(conn *wayland.Conn, handlers *DisplayHandlers) *Display {
	d := &Display{object: newObject(conn), handlers: handlers}
	conn.Register(d)
	conn.RegisterDispatcher(d.id, d.dispatch)
	return d
}

func (d *Display) dispatch(opcode uint16, data []byte) {
	if opcode == 0 && d.handlers != nil && d.handlers.OnError != nil {
		objID, _ := readUint32(data, 0)
		code, _ := readUint32(data, 4)
		d.handlers.OnError(objID, code, "")
	}
}

func (d *Display) GetRegistry(handlers *RegistryHandlers) *Registry {
	reg := &Registry{object: newObject(d.conn), handlers: handlers, binders: map[string]globalBinder{}}
	d.conn.RegisterDispatcher(reg.id, reg.dispatch)
	d.sendRequest(opDisplayGetRegistry, reg.id)
	return reg
}

// Sync requests a round-trip callback, fired once every prior request has
// been processed by the server.
func (d *Display) Sync(done func()) {
	cb := &callback{object: newObject(d.conn), done: done}
	d.conn.RegisterDispatcher(cb.id, cb.dispatch)
	d.sendRequest(opDisplaySync, cb.id)
}

type callback struct {
	object
	done func()
}

func (c *callback) dispatch(opcode uint16, data []byte) {
	if opcode == 0 && c.done != nil {
		c.done()
	}
}

// --- Registry ---------------------------------------------------------

type RegistryHandlers struct {
	OnGlobal func(name uint32, iface string, version uint32)
}

type globalBinder interface {
	interfaceName() string
	bindGlobal(reg *Registry, name uint32, version uint32)
}

type Registry struct {
	object
	handlers *RegistryHandlers
	binders  map[string]globalBinder
}

func (r *Registry) dispatch(opcode uint16, data []byte) {
	if opcode != 0 {
		return // global_remove: nothing here currently tracks removable globals
	}
	name, err := readUint32(data, 0)
	if err != nil {
		return
	}
	iface, next, err := readString(data, 4)
	if err != nil {
		return
	}
	version, err := readUint32(data, next)
	if err != nil {
		return
	}

	if r.handlers != nil && r.handlers.OnGlobal != nil {
		r.handlers.OnGlobal(name, iface, version)
	}
	r.bind(name, iface, version)
}

// Bind registers objects that should be bound as soon as a matching global
// interface name is announced, generalizing the teacher's wayland.Registrar
// pattern to an explicit, locally-owned binder set.
func (r *Registry) Bind(binders ...globalBinder) {
	for _, b := range binders {
		r.binders[b.interfaceName()] = b
	}
}

func (r *Registry) bind(name uint32, iface string, version uint32) {
	if b, ok := r.binders[iface]; ok {
		b.bindGlobal(r, name, version)
	}
}

func (r *Registry) sendBind(newID wayland.ObjectID, name uint32) {
	r.sendRequest(opRegistryBind, name, newID)
}

func (r *Registry) Destroy() error {
	return nil
}

// --- Compositor ---------------------------------------------------------

type Compositor struct {
	object
}

func (c *Compositor) interfaceName() string { return "wl_compositor" }

func (c *Compositor) bindGlobal(reg *Registry, name, version uint32) {
	c.object = newObject(reg.conn)
	reg.conn.RegisterDispatcher(c.id, func(uint16, []byte) {})
	reg.sendBind(c.id, name)
}

func NewCompositor() *Compositor { return &Compositor{} }

func (c *Compositor) CreateSurface() *Surface {
	s := &Surface{object: newObject(c.conn)}
	c.conn.RegisterDispatcher(s.id, s.dispatch)
	c.sendRequest(opCompositorCreateSurface, s.id)
	return s
}

// --- Surface ---------------------------------------------------------

type Surface struct {
	object
}

func (s *Surface) dispatch(opcode uint16, data []byte) {}

func (s *Surface) Attach(buf *Buffer, x, y int32) error {
	return s.sendRequest(opSurfaceAttach, buf.id, x, y)
}

func (s *Surface) Damage(x, y, w, h int32) error {
	return s.sendRequest(opSurfaceDamage, x, y, w, h)
}

func (s *Surface) Commit() error {
	return s.sendRequest(opSurfaceCommit)
}

func (s *Surface) Destroy() error {
	return s.destroy(opSurfaceDestroy)
}

// --- Shm / ShmPool / Buffer --------------------------------------------

type Shm struct {
	object
}

func (s *Shm) interfaceName() string { return "wl_shm" }

func (s *Shm) bindGlobal(reg *Registry, name, version uint32) {
	s.object = newObject(reg.conn)
	reg.conn.RegisterDispatcher(s.id, func(uint16, []byte) {}) // wl_shm.format events are not needed; Argb8888 is mandatory
	reg.sendBind(s.id, name)
}

func NewShm() *Shm { return &Shm{} }

func (s *Shm) CreatePool(fd int, size int32) *ShmPool {
	p := &ShmPool{object: newObject(s.conn)}
	s.sendRequest(opShmCreatePool, p.id, fd, size)
	return p
}

type ShmPool struct {
	object
}

func (p *ShmPool) CreateBuffer(offset, w, h, stride int32, format ShmFormat, onRelease func()) *Buffer {
	b := &Buffer{object: newObject(p.conn), onRelease: onRelease}
	p.conn.RegisterDispatcher(b.id, b.dispatch)
	p.sendRequest(opShmPoolCreateBuffer, b.id, offset, w, h, stride, uint32(format))
	return b
}

func (p *ShmPool) Resize(size int32) error {
	return p.sendRequest(2, size)
}

func (p *ShmPool) Destroy() error {
	return p.destroy(opShmPoolDestroy)
}

type Buffer struct {
	object
	onRelease func()
}

func (b *Buffer) dispatch(opcode uint16, data []byte) {
	if opcode == 0 && b.onRelease != nil {
		b.onRelease()
	}
}

func (b *Buffer) Destroy() error {
	return b.destroy(opBufferDestroy)
}

// --- Seat / Pointer ---------------------------------------------------

const (
	SeatCapabilityPointer  uint32 = 1
	SeatCapabilityKeyboard uint32 = 2
)

type SeatHandlers struct {
	OnCapabilities func(caps uint32)
}

type Seat struct {
	object
	handlers *SeatHandlers
}

func (s *Seat) interfaceName() string { return "wl_seat" }

func (s *Seat) bindGlobal(reg *Registry, name, version uint32) {
	s.object = newObject(reg.conn)
	reg.conn.RegisterDispatcher(s.id, s.dispatch)
	reg.sendBind(s.id, name)
}

func NewSeat(handlers *SeatHandlers) *Seat { return &Seat{handlers: handlers} }

func (s *Seat) dispatch(opcode uint16, data []byte) {
	if opcode == 0 && s.handlers != nil && s.handlers.OnCapabilities != nil {
		caps, _ := readUint32(data, 0)
		s.handlers.OnCapabilities(caps)
	}
}

// PointerEvent is the fully-decoded, tagged union of everything the engine
// needs from wl_pointer; axis/scroll events are intentionally not modeled
// (this daemon has no scrollable UI).
type PointerEvent struct {
	Kind    PointerEventKind
	Surface wayland.ObjectID
	X, Y    int
	Button  uint32
	Pressed bool
}

type PointerEventKind int

const (
	PointerEnter PointerEventKind = iota
	PointerLeave
	PointerMotion
	PointerButton
	PointerFrame
)

type Pointer struct {
	object
	events chan<- PointerEvent
	x, y   int
}

func (s *Seat) GetPointer(events chan<- PointerEvent) *Pointer {
	p := &Pointer{object: newObject(s.conn), events: events}
	s.conn.RegisterDispatcher(p.id, p.dispatch)
	s.sendRequest(opSeatGetPointer, p.id)
	return p
}

func (p *Pointer) dispatch(opcode uint16, data []byte) {
	switch opcode {
	case 0: // enter
		surf, _ := readUint32(data, 4)
		rawX, _ := readUint32(data, 8)
		rawY, _ := readUint32(data, 12)
		p.x, p.y = decodeFixed(int32(rawX)), decodeFixed(int32(rawY))
		p.emit(PointerEvent{Kind: PointerEnter, Surface: wayland.ObjectID(surf), X: p.x, Y: p.y})
	case 1: // leave
		p.emit(PointerEvent{Kind: PointerLeave})
	case 2: // motion
		rawX, _ := readUint32(data, 4)
		rawY, _ := readUint32(data, 8)
		p.x, p.y = decodeFixed(int32(rawX)), decodeFixed(int32(rawY))
		p.emit(PointerEvent{Kind: PointerMotion, X: p.x, Y: p.y})
	case 3: // button
		button, _ := readUint32(data, 8)
		state, _ := readUint32(data, 12)
		p.emit(PointerEvent{Kind: PointerButton, X: p.x, Y: p.y, Button: button, Pressed: state != 0})
	case 4: // axis, ignored
	case 5: // frame
		p.emit(PointerEvent{Kind: PointerFrame})
	}
}

func (p *Pointer) emit(ev PointerEvent) {
	if p.events == nil {
		return
	}
	select {
	case p.events <- ev:
	default:
	}
}

func (p *Pointer) Release() error {
	return p.sendRequest(opPointerRelease)
}

// --- Output ---------------------------------------------------------

type OutputHandlers struct {
	OnGeometry func(x, y int)
	OnMode     func(width, height int)
}

type Output struct {
	object
	handlers *OutputHandlers
}

func (o *Output) interfaceName() string { return "wl_output" }

func (o *Output) bindGlobal(reg *Registry, name, version uint32) {
	o.object = newObject(reg.conn)
	reg.conn.RegisterDispatcher(o.id, o.dispatch)
	reg.sendBind(o.id, name)
}

func NewOutput(handlers *OutputHandlers) *Output { return &Output{handlers: handlers} }

func (o *Output) dispatch(opcode uint16, data []byte) {
	if o.handlers == nil {
		return
	}
	switch opcode {
	case 0: // geometry
		x, _ := readUint32(data, 0)
		y, _ := readUint32(data, 4)
		if o.handlers.OnGeometry != nil {
			o.handlers.OnGeometry(int(int32(x)), int(int32(y)))
		}
	case 1: // mode
		w, _ := readUint32(data, 4)
		h, _ := readUint32(data, 8)
		if o.handlers.OnMode != nil {
			o.handlers.OnMode(int(int32(w)), int(int32(h)))
		}
	}
}

// --- LayerShell / LayerSurface ------------------------------------------

type LayerShell struct {
	object
}

func (l *LayerShell) interfaceName() string { return "zwlr_layer_shell_v1" }

func (l *LayerShell) bindGlobal(reg *Registry, name, version uint32) {
	l.object = newObject(reg.conn)
	reg.conn.RegisterDispatcher(l.id, func(uint16, []byte) {})
	reg.sendBind(l.id, name)
}

func NewLayerShell() *LayerShell { return &LayerShell{} }

type LayerSurfaceHandlers struct {
	OnConfigure func(serial uint32, width, height int)
	OnClosed    func()
}

func (l *LayerShell) GetLayerSurface(surface *Surface, output *Output, layer LayerShellLayer, namespace string, handlers *LayerSurfaceHandlers) *LayerSurface {
	ls := &LayerSurface{object: newObject(l.conn), handlers: handlers}
	l.conn.RegisterDispatcher(ls.id, ls.dispatch)
	var outputID wayland.ObjectID
	if output != nil {
		outputID = output.id
	}
	l.sendRequest(opLayerShellGetLayerSurface, ls.id, surface.id, outputID, uint32(layer), namespace)
	return ls
}

type LayerSurface struct {
	object
	handlers *LayerSurfaceHandlers
}

func (ls *LayerSurface) dispatch(opcode uint16, data []byte) {
	if ls.handlers == nil {
		return
	}
	switch opcode {
	case 0: // configure
		serial, _ := readUint32(data, 0)
		w, _ := readUint32(data, 4)
		h, _ := readUint32(data, 8)
		if ls.handlers.OnConfigure != nil {
			ls.handlers.OnConfigure(serial, int(w), int(h))
		}
	case 1: // closed
		if ls.handlers.OnClosed != nil {
			ls.handlers.OnClosed()
		}
	}
}

func (ls *LayerSurface) SetAnchor(anchor uint32) error {
	return ls.sendRequest(opLayerSurfaceSetAnchor, anchor)
}

func (ls *LayerSurface) SetSize(w, h uint32) error {
	return ls.sendRequest(opLayerSurfaceSetSize, w, h)
}

func (ls *LayerSurface) SetExclusiveZone(zone int32) error {
	return ls.sendRequest(opLayerSurfaceSetExclusiveZone, zone)
}

func (ls *LayerSurface) SetMargin(top, right, bottom, left int32) error {
	return ls.sendRequest(opLayerSurfaceSetMargin, top, right, bottom, left)
}

func (ls *LayerSurface) SetKeyboardInteractivity(mode uint32) error {
	return ls.sendRequest(opLayerSurfaceSetKeyboardInteractivity, mode)
}

func (ls *LayerSurface) AckConfigure(serial uint32) error {
	return ls.sendRequest(opLayerSurfaceAckConfigure, serial)
}

func (ls *LayerSurface) Destroy() error {
	return ls.destroy(opLayerSurfaceDestroy)
}
