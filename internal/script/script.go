// Package script talks to the per-icon external renderer: a two-file script
// pair (an ipc_handler plus a kind-specific widget script) spawned as a
// child process and driven over JSON on stdin/stdout. A missing or
// unspawnable script is not an error — callers fall back to the built-in
// rasteriser.
package script

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/MHashir09/cvh-icons/internal/classify"
)

// Position is the widget's requested pixel offset within its grid cell.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DrawCommand is a single primitive the script asked the rasteriser to
// perform. Kind is one of "rect", "text", "image".
type DrawCommand struct {
	Kind  string `json:"kind"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	W     int    `json:"w"`
	H     int    `json:"h"`
	Color string `json:"color,omitempty"`
	Text  string `json:"text,omitempty"`
	Path  string `json:"path,omitempty"`
}

// Action is what a click on the widget resolved to, e.g. "open", "launch",
// "ignore".
type Action struct {
	Kind string `json:"kind"`
	Arg  string `json:"arg,omitempty"`
}

type request struct {
	Op     string `json:"op"`
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	Button int    `json:"button,omitempty"`
}

type response struct {
	Position *Position     `json:"position,omitempty"`
	Commands []DrawCommand `json:"commands,omitempty"`
	Action   *Action       `json:"action,omitempty"`
}

// Client is the contract the engine drives per icon.
type Client interface {
	RequestPosition(path string, kind classify.Kind) (Position, bool)
	RequestRender(path string, kind classify.Kind) ([]DrawCommand, bool)
	OnClick(path string, kind classify.Kind, button int) (Action, bool)
}

// ProcessClient spawns "ipc_handler.lua {kindscript}" for every request,
// searching each configured directory (and its widgets/ subdirectory) for
// the pair of scripts.
type ProcessClient struct {
	Dirs    []string
	Timeout time.Duration
	Log     *zap.Logger
}

// NewProcessClient builds a ProcessClient with a sane default timeout.
func NewProcessClient(dirs []string, log *zap.Logger) *ProcessClient {
	return &ProcessClient{Dirs: dirs, Timeout: 500 * time.Millisecond, Log: log}
}

func (c *ProcessClient) findScripts(kind classify.Kind) (handler, widget string, ok bool) {
	for _, dir := range c.Dirs {
		for _, sub := range []string{dir, filepath.Join(dir, "widgets")} {
			h := filepath.Join(sub, "ipc_handler.lua")
			w := filepath.Join(sub, kind.ScriptName())
			if fileExists(h) && fileExists(w) {
				return h, w, true
			}
		}
	}
	return "", "", false
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

func (c *ProcessClient) run(kind classify.Kind, req request) (response, bool) {
	handler, widget, ok := c.findScripts(kind)
	if !ok {
		return response{}, false
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "lua", handler, widget)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		c.logWarn("script stdin pipe", req.Path, err)
		return response{}, false
	}

	if err := cmd.Start(); err != nil {
		c.logWarn("script spawn", req.Path, err)
		return response{}, false
	}

	enc := json.NewEncoder(stdin)
	if err := enc.Encode(req); err != nil {
		stdin.Close()
		cmd.Wait()
		c.logWarn("script request encode", req.Path, err)
		return response{}, false
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		c.logWarn("script exec", req.Path, err)
		return response{}, false
	}

	var resp response
	scanner := bufio.NewScanner(&stdout)
	if !scanner.Scan() {
		return response{}, false
	}
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		c.logWarn("script reply decode", req.Path, err)
		return response{}, false
	}
	return resp, true
}

func (c *ProcessClient) logWarn(stage, path string, err error) {
	if c.Log == nil {
		return
	}
	c.Log.Warn("script runtime fallback", zap.String("stage", stage), zap.String("path", path), zap.Error(err))
}

// RequestPosition asks the widget script where it wants to be drawn inside
// its cell.
func (c *ProcessClient) RequestPosition(path string, kind classify.Kind) (Position, bool) {
	resp, ok := c.run(kind, request{Op: "position", Path: path, Kind: kind.String()})
	if !ok || resp.Position == nil {
		return Position{}, false
	}
	return *resp.Position, true
}

// RequestRender asks the widget script for its draw-command list.
func (c *ProcessClient) RequestRender(path string, kind classify.Kind) ([]DrawCommand, bool) {
	resp, ok := c.run(kind, request{Op: "render", Path: path, Kind: kind.String()})
	if !ok {
		return nil, false
	}
	return resp.Commands, true
}

// OnClick asks the widget script to resolve a click on this icon.
func (c *ProcessClient) OnClick(path string, kind classify.Kind, button int) (Action, bool) {
	resp, ok := c.run(kind, request{Op: "click", Path: path, Kind: kind.String(), Button: button})
	if !ok || resp.Action == nil {
		return Action{}, false
	}
	return *resp.Action, true
}

var _ Client = (*ProcessClient)(nil)

// ErrNoScript is returned by callers that want to distinguish "no script
// configured" from a true I/O failure; ProcessClient itself never returns
// it directly (fallback is signalled by the bool return), but other Client
// implementations may wrap it.
var ErrNoScript = fmt.Errorf("script: no handler/widget script pair found")
