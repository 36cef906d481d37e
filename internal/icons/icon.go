// Package icons models a single desktop entry: its classification, its
// grid slot, and the three operations the engine drives it through each
// tick — update, request_position and request_render — plus on_click.
package icons

import (
	"image"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/MHashir09/cvh-icons/internal/classify"
	"github.com/MHashir09/cvh-icons/internal/render"
	"github.com/MHashir09/cvh-icons/internal/script"
)

// Status is the lifecycle state of one icon.
type Status int

const (
	// Active icons still exist on disk and are redrawn whenever they need a
	// render.
	Active Status = iota
	// Gone icons were removed from disk; the engine retires their surface
	// on the next pass and then drops the Icon entirely.
	Gone
)

// Icon is one entry in the desktop directory.
type Icon struct {
	Path    string
	Kind    classify.Kind
	Label   string
	Status  Status
	Hovered bool

	needsRender bool
	lastPos     image.Point
}

// New classifies path and builds an Icon in the Active state, with a render
// due on its first tick.
func New(path string, info os.FileInfo) *Icon {
	return &Icon{
		Path:        path,
		Kind:        classify.Classify(path, info),
		Label:       filepath.Base(path),
		Status:      Active,
		needsRender: true,
	}
}

// Update re-checks the icon against the filesystem. It marks the icon Gone
// when the path no longer exists and reclassifies it (marking it dirty) when
// its kind changed — e.g. a file replaced by a directory of the same name.
func (ic *Icon) Update() {
	info, err := os.Lstat(ic.Path)
	if err != nil {
		ic.Status = Gone
		return
	}
	if kind := classify.Classify(ic.Path, info); kind != ic.Kind {
		ic.Kind = kind
		ic.needsRender = true
	}
}

// RequestPosition returns this icon's top-left pixel position for the given
// grid index, within a grid of the given cell size and inset. total is
// accepted for symmetry with the original's request_position signature but
// is not used — a short last row is left ragged rather than centered.
func (ic *Icon) RequestPosition(index, total, columns, cellW, cellH, insetX, insetY int) image.Point {
	if columns <= 0 {
		columns = 1
	}
	col := index % columns
	row := index / columns
	pos := image.Point{
		X: insetX + col*cellW,
		Y: insetY + row*cellH,
	}
	ic.lastPos = pos
	return pos
}

// NeedsRender reports whether this icon must be redrawn on the next render
// pass.
func (ic *Icon) NeedsRender() bool {
	return ic.needsRender
}

// MarkRendered clears the per-icon render flag; the engine calls this only
// after a successful attach for this icon.
func (ic *Icon) MarkRendered() {
	ic.needsRender = false
}

// MarkDirty forces a re-render on the next pass, e.g. on hover-state change.
func (ic *Icon) MarkDirty() {
	ic.needsRender = true
}

// SetHovered updates the hover flag, marking the icon dirty when it actually
// changes. PointerEnter/PointerLeave drive this per icon.
func (ic *Icon) SetHovered(hovered bool) {
	if ic.Hovered == hovered {
		return
	}
	ic.Hovered = hovered
	ic.needsRender = true
}

// RequestRender produces this icon's pixels, preferring a script-supplied
// draw-command list and falling back to the built-in rasteriser.
func (ic *Icon) RequestRender(client script.Client, rast render.Rasteriser, cfg render.Input, log *zap.Logger) (*image.RGBA, error) {
	in := cfg
	in.Kind = ic.Kind
	in.Label = ic.Label
	in.Path = ic.Path
	in.Hover = ic.Hovered

	if client != nil {
		if cmds, ok := client.RequestRender(ic.Path, ic.Kind); ok {
			in.Commands = cmds
		}
	}

	img, err := rast.Render(in)
	if err != nil && log != nil {
		log.Warn("icon render failed", zap.String("path", ic.Path), zap.Error(err))
	}
	return img, err
}

// NormalizeButton maps an evdev button code to the conventional
// 1=left/2=middle/3=right numbering; codes outside the known set pass
// through unchanged.
func NormalizeButton(code uint32) int {
	switch code {
	case 272:
		return 1
	case 273:
		return 3
	case 274:
		return 2
	default:
		return int(code)
	}
}

// OnClick resolves a click, preferring the script runtime's decision and
// falling back to a built-in default action.
func (ic *Icon) OnClick(client script.Client, evdevButton uint32) script.Action {
	button := NormalizeButton(evdevButton)

	if client != nil {
		if action, ok := client.OnClick(ic.Path, ic.Kind, button); ok {
			return action
		}
	}

	if button != 1 {
		return script.Action{Kind: "ignore"}
	}
	switch ic.Kind {
	case classify.Folder:
		return script.Action{Kind: "open", Arg: ic.Path}
	case classify.Executable:
		return script.Action{Kind: "launch", Arg: ic.Path}
	default:
		return script.Action{Kind: "open", Arg: ic.Path}
	}
}
