// Package wire is the generated-style protocol layer the compositor client
// is built on: wl_compositor, wl_shm, wl_seat, wl_output and the
// zwlr_layer_shell_v1 extension, wired directly to a
// github.com/rajveermalviya/go-wayland/wayland connection the same way the
// scanner-generated "proto" package this project's teacher relied on would
// have been, but generalized from a single popup surface to a grid of
// background-layer icon surfaces with output-geometry tracking and
// seat/pointer binding.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/rajveermalviya/go-wayland/wayland"
)

// object is the embeddable base every protocol type shares: a bound
// connection and an allocated wire ID, mirroring wayland-scanner output.
type object struct {
	conn *wayland.Conn
	id   wayland.ObjectID
}

func newObject(conn *wayland.Conn) object {
	return object{conn: conn, id: conn.NextID()}
}

// ID satisfies wayland.Proxy.
func (o *object) ID() wayland.ObjectID { return o.id }

// Conn returns the owning connection, for requests that need to allocate
// further objects.
func (o *object) Conn() *wayland.Conn { return o.conn }

func (o *object) sendRequest(opcode uint16, args ...any) error {
	return o.conn.SendRequest(o.id, opcode, args...)
}

func (o *object) destroy(opcode uint16) error {
	return o.sendRequest(opcode)
}

// putFixed24_8 packs a Wayland fixed-point value from an integer, used by
// requests that accept wl_fixed_t but where this client only ever sends
// whole pixels.
func putFixed24_8(v int32) int32 {
	return v << 8
}

// decodeFixed unpacks a wl_fixed_t event argument into a plain int,
// truncating the fractional part — pointer motion here only needs
// pixel-granularity positions.
func decodeFixed(raw int32) int {
	return int(raw >> 8)
}

func readUint32(buf []byte, off int) (uint32, error) {
	if off+4 > len(buf) {
		return 0, fmt.Errorf("wire: short read at offset %d", off)
	}
	return binary.LittleEndian.Uint32(buf[off:]), nil
}

// readString decodes a Wayland wire string argument (a u32 byte length
// including the trailing NUL, the bytes themselves, then padding to a
// 4-byte boundary) starting at off, returning the string and the offset of
// the next argument.
func readString(buf []byte, off int) (string, int, error) {
	n, err := readUint32(buf, off)
	if err != nil {
		return "", off, err
	}
	start := off + 4
	end := start + int(n) - 1 // drop the trailing NUL
	if end < start || end > len(buf) {
		return "", off, fmt.Errorf("wire: short string read at offset %d", off)
	}
	s := string(buf[start:end])
	next := start + (int(n)+3)&^3
	return s, next, nil
}
