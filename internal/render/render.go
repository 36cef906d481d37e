// Package render draws the pixels for a single desktop icon: a glyph or
// thumbnail plus a filename label, the same two-stage composition the
// original daemon's built-in IconRenderer performs when no script widget
// claims the icon.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"
	"strings"

	"github.com/KononK/resize"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/MHashir09/cvh-icons/internal/classify"
	"github.com/MHashir09/cvh-icons/internal/script"
)

// Input is everything the rasteriser needs to produce one icon's pixels.
type Input struct {
	Kind        classify.Kind
	Label       string
	Path        string // source path, consulted for Image-kind thumbnail decode
	IconSize    int
	LabelHeight int
	GridSpacing int
	Hover       bool
	Thumbnail   image.Image // pre-decoded thumbnail; takes precedence over Path
	Commands    []script.DrawCommand
}

// Rasteriser produces the RGBA pixels for one grid cell.
type Rasteriser interface {
	Render(in Input) (*image.RGBA, error)
}

var glyphColor = map[classify.Kind]color.NRGBA{
	classify.Folder:     {R: 0xe8, G: 0xc2, B: 0x6a, A: 0xff},
	classify.File:       {R: 0xd0, G: 0xd0, B: 0xd0, A: 0xff},
	classify.Symlink:    {R: 0x9f, G: 0xc8, B: 0xe8, A: 0xff},
	classify.Executable: {R: 0x8f, G: 0xd8, B: 0x8f, A: 0xff},
	classify.Image:      {R: 0xe0, G: 0x9f, B: 0xc8, A: 0xff},
	classify.Document:   {R: 0xc0, G: 0xc0, B: 0xe8, A: 0xff},
	classify.Archive:    {R: 0xd8, G: 0xa0, B: 0x70, A: 0xff},
	classify.Video:      {R: 0xc8, G: 0x80, B: 0x80, A: 0xff},
	classify.Audio:      {R: 0x80, G: 0xc8, B: 0xc0, A: 0xff},
	classify.Unknown:    {R: 0xa0, G: 0xa0, B: 0xa0, A: 0xff},
}

// Default is the built-in rasteriser: a flat glyph (or scaled thumbnail for
// images), a hover highlight, and a centered filename label below it.
type Default struct {
	Face     font.Face
	FontSize int
}

// NewDefault loads the first available system font at the given point size;
// a nil Face is a soft failure — labels are simply skipped, matching the
// script-runtime's own soft-fail convention.
func NewDefault(fontSize int) *Default {
	face, _ := loadSystemFont(float64(fontSize))
	return &Default{Face: face, FontSize: fontSize}
}

var systemFontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"/usr/share/fonts/liberation/LiberationSans-Regular.ttf",
}

func loadSystemFont(size float64) (font.Face, error) {
	for _, path := range systemFontPaths {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		fnt, err := opentype.Parse(content)
		if err != nil {
			continue
		}
		face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err == nil {
			return face, nil
		}
	}
	return nil, fmt.Errorf("render: no system font found")
}

// Render draws one cell: IconSize x (IconSize+LabelHeight).
func (d *Default) Render(in Input) (*image.RGBA, error) {
	w := in.IconSize
	h := in.IconSize + in.LabelHeight
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	if len(in.Commands) > 0 {
		applyCommands(img, in.Commands)
		return img, nil
	}

	if in.Hover {
		draw.Draw(img, img.Bounds(), &image.Uniform{color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x22}}, image.Point{}, draw.Src)
	}

	thumbnail := in.Thumbnail
	if thumbnail == nil && in.Kind == classify.Image && in.Path != "" {
		thumbnail = decodeThumbnail(in.Path)
	}

	iconRect := image.Rect(0, 0, in.IconSize, in.IconSize)
	if thumbnail != nil {
		thumb := resize.Resize(uint(in.IconSize), uint(in.IconSize), thumbnail, resize.Lanczos3)
		draw.Draw(img, iconRect, thumb, image.Point{}, draw.Over)
	} else {
		c := glyphColor[in.Kind]
		inset := in.IconSize / 8
		glyph := image.Rect(inset, inset, in.IconSize-inset, in.IconSize-inset)
		draw.Draw(img, glyph, &image.Uniform{c}, image.Point{}, draw.Over)
	}

	if d.Face != nil && in.Label != "" {
		drawLabel(img, d.Face, in.Label, w, in.IconSize, in.LabelHeight)
	}

	return img, nil
}

// decodeThumbnail loads and decodes path's image contents for an Image-kind
// icon; a decode failure (unsupported format, unreadable file) is silent —
// the caller falls back to the flat glyph.
func decodeThumbnail(path string) image.Image {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil
	}
	return img
}

func applyCommands(img *image.RGBA, cmds []script.DrawCommand) {
	for _, c := range cmds {
		switch c.Kind {
		case "rect":
			col := parseHexColor(c.Color)
			draw.Draw(img, image.Rect(c.X, c.Y, c.X+c.W, c.Y+c.H), &image.Uniform{col}, image.Point{}, draw.Over)
		case "image":
			// image commands are not drawn; only "rect" commands are
			// rasterised here.
			continue
		case "text":
			continue
		}
	}
}

func parseHexColor(s string) color.NRGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) < 6 {
		return color.NRGBA{A: 0xff}
	}
	r, _ := strconv.ParseUint(s[0:2], 16, 8)
	g, _ := strconv.ParseUint(s[2:4], 16, 8)
	b, _ := strconv.ParseUint(s[4:6], 16, 8)
	a := uint64(0xff)
	if len(s) >= 8 {
		a, _ = strconv.ParseUint(s[6:8], 16, 8)
	}
	return color.NRGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a)}
}

func drawLabel(img *image.RGBA, face font.Face, label string, cellW, iconSize, labelHeight int) {
	width := fixed.Int26_6(0)
	for _, r := range label {
		adv, ok := face.GlyphAdvance(r)
		if !ok {
			continue
		}
		width += adv
	}

	x := (fixed.I(cellW) - width) / 2
	if x < 0 {
		x = 0
	}
	metrics := face.Metrics()
	baseline := fixed.I(iconSize) + (fixed.I(labelHeight)-metrics.Ascent-metrics.Descent)/2 + metrics.Ascent

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: baseline},
	}
	d.DrawString(label)
}

var _ Rasteriser = (*Default)(nil)
