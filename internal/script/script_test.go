package script

import (
	"testing"

	"github.com/MHashir09/cvh-icons/internal/classify"
)

func TestFindScriptsMissingFallsBack(t *testing.T) {
	c := NewProcessClient([]string{t.TempDir()}, nil)
	if _, _, ok := c.findScripts(classify.File); ok {
		t.Fatal("findScripts should fail when no scripts are present")
	}
}

func TestRequestPositionFallsBackWithoutScripts(t *testing.T) {
	c := NewProcessClient([]string{t.TempDir()}, nil)
	if _, ok := c.RequestPosition("/tmp/whatever", classify.File); ok {
		t.Fatal("RequestPosition should report false when no script is configured")
	}
}

func TestRequestRenderFallsBackWithoutScripts(t *testing.T) {
	c := NewProcessClient([]string{t.TempDir()}, nil)
	if cmds, ok := c.RequestRender("/tmp/whatever", classify.Folder); ok || cmds != nil {
		t.Fatal("RequestRender should report false/nil when no script is configured")
	}
}

func TestOnClickFallsBackWithoutScripts(t *testing.T) {
	c := NewProcessClient([]string{t.TempDir()}, nil)
	if _, ok := c.OnClick("/tmp/whatever", classify.Executable, 1); ok {
		t.Fatal("OnClick should report false when no script is configured")
	}
}
