package icons

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MHashir09/cvh-icons/internal/classify"
)

func newTestIcon(t *testing.T, path string) *Icon {
	t.Helper()
	info, err := os.Lstat(path)
	if err != nil {
		t.Fatal(err)
	}
	return New(path, info)
}

func TestNewIconClassifiesAndIsDirty(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "photo.png")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	ic := newTestIcon(t, p)
	if ic.Kind != classify.Image {
		t.Errorf("Kind = %v, want Image", ic.Kind)
	}
	if !ic.NeedsRender() {
		t.Error("a freshly created icon should need a render")
	}
	if ic.Label != "photo.png" {
		t.Errorf("Label = %q, want photo.png", ic.Label)
	}
}

func TestUpdateMarksGoneWhenRemoved(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	ic := newTestIcon(t, p)
	if err := os.Remove(p); err != nil {
		t.Fatal(err)
	}
	ic.Update()
	if ic.Status != Gone {
		t.Errorf("Status = %v, want Gone", ic.Status)
	}
}

func TestUpdateReclassifiesOnKindChange(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "thing")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	ic := newTestIcon(t, p)
	ic.MarkRendered()

	if err := os.Remove(p); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(p, 0o755); err != nil {
		t.Fatal(err)
	}
	ic.Update()
	if ic.Kind != classify.Folder {
		t.Errorf("Kind = %v, want Folder after replacement", ic.Kind)
	}
	if !ic.NeedsRender() {
		t.Error("kind change should re-dirty the icon")
	}
}

func TestRequestPositionGridLayout(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a")
	os.WriteFile(p, []byte("x"), 0o644)
	ic := newTestIcon(t, p)

	cellW, cellH, insetX, insetY, columns := 80, 104, 16, 16, 3

	cases := []struct {
		index  int
		wantX  int
		wantY  int
	}{
		{0, 16, 16},
		{1, 96, 16},
		{2, 176, 16},
		{3, 16, 120},
		{4, 96, 120},
	}
	for _, c := range cases {
		pos := ic.RequestPosition(c.index, 5, columns, cellW, cellH, insetX, insetY)
		if pos.X != c.wantX || pos.Y != c.wantY {
			t.Errorf("index %d: pos = (%d,%d), want (%d,%d)", c.index, pos.X, pos.Y, c.wantX, c.wantY)
		}
	}
}

func TestNormalizeButton(t *testing.T) {
	cases := map[uint32]int{
		272: 1,
		273: 3,
		274: 2,
		275: 275,
	}
	for code, want := range cases {
		if got := NormalizeButton(code); got != want {
			t.Errorf("NormalizeButton(%d) = %d, want %d", code, got, want)
		}
	}
}

func TestOnClickDefaultsWhenNoScript(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "sub")
	os.Mkdir(p, 0o755)
	ic := newTestIcon(t, p)

	action := ic.OnClick(nil, 272)
	if action.Kind != "open" {
		t.Errorf("OnClick(folder) = %+v, want open", action)
	}

	action = ic.OnClick(nil, 273)
	if action.Kind != "ignore" {
		t.Errorf("OnClick(right-click) = %+v, want ignore", action)
	}
}

func TestColumnsNeverZero(t *testing.T) {
	if got := Columns(10, 80, 16); got != 1 {
		t.Errorf("Columns(narrow) = %d, want 1", got)
	}
	if got := Columns(1920, 80, 16); got <= 1 {
		t.Errorf("Columns(wide) = %d, want > 1", got)
	}
}
