// Command cvhicons runs the desktop-icon daemon: it connects to a
// layer-shell Wayland compositor, lays out the configured desktop directory
// as a grid of icon surfaces, and keeps them in sync with the filesystem
// until interrupted.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MHashir09/cvh-icons/internal/config"
	"github.com/MHashir09/cvh-icons/internal/engine"
	"github.com/MHashir09/cvh-icons/internal/logging"
	"github.com/MHashir09/cvh-icons/internal/render"
	"github.com/MHashir09/cvh-icons/internal/script"
	"github.com/MHashir09/cvh-icons/internal/wire"
)

type cmdRoot struct {
	configPath  string
	desktopDir  string
	scriptDirs  []string
	namespace   string
	iconSize    int
	fontSize    int
	gridSpacing int
	display     string
	debug       bool
}

func (c *cmdRoot) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cvhicons",
		Short: "Desktop icons for layer-shell Wayland compositors",
		Long: `Description:
  cvhicons renders desktop icons directly onto the background layer of a
  wlr-layer-shell compositor, without a full desktop shell.
`,
		RunE: c.Run,
	}

	flags := cmd.Flags()
	flags.StringVar(&c.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&c.desktopDir, "desktop-dir", "", "directory to render as desktop icons (default: ~/Desktop)")
	flags.StringSliceVar(&c.scriptDirs, "script-dir", nil, "directory to search for icon scripts (repeatable)")
	flags.StringVar(&c.namespace, "namespace", "", "layer-shell surface namespace")
	flags.IntVar(&c.iconSize, "icon-size", 0, "icon size in pixels")
	flags.IntVar(&c.fontSize, "font-size", 0, "label font size in points")
	flags.IntVar(&c.gridSpacing, "grid-spacing", 0, "spacing between grid cells in pixels")
	flags.StringVar(&c.display, "display", "", "Wayland display name (default: $WAYLAND_DISPLAY)")
	flags.BoolVar(&c.debug, "debug", false, "enable debug logging")

	return cmd
}

func (c *cmdRoot) Run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	c.applyFlags(&cfg)

	log, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync()

	client := wire.New(cfg.Namespace, log)
	if err := client.Connect(c.display); err != nil {
		return fmt.Errorf("connecting to compositor: %w", err)
	}

	scriptClient := script.NewProcessClient(cfg.ScriptDirs, log)
	rast := render.NewDefault(cfg.FontSize)

	eng, err := engine.New(cfg, log, client, scriptClient, rast)
	if err != nil {
		return fmt.Errorf("initializing engine: %w", err)
	}

	if err := eng.ScanDesktop(); err != nil {
		return fmt.Errorf("scanning desktop directory %q: %w", cfg.DesktopDir, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return eng.Run(ctx)
}

func (c *cmdRoot) applyFlags(cfg *config.Config) {
	if c.desktopDir != "" {
		cfg.DesktopDir = c.desktopDir
	}
	if len(c.scriptDirs) > 0 {
		cfg.ScriptDirs = c.scriptDirs
	}
	if c.namespace != "" {
		cfg.Namespace = c.namespace
	}
	if c.iconSize > 0 {
		cfg.IconSize = c.iconSize
	}
	if c.fontSize > 0 {
		cfg.FontSize = c.fontSize
	}
	if c.gridSpacing > 0 {
		cfg.GridSpacing = c.gridSpacing
	}
	if c.debug {
		cfg.Debug = true
	}
}

func main() {
	root := &cmdRoot{}
	if err := root.Command().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
