// Command hex1bdemo is the one representative runnable binary: it wires
// hostio.TermAdapter + hostio.Engine + paint.Render together over a small
// widget tree (a ticking counter, a quit button, and a text box) to
// exercise the whole build→reconcile→measure→arrange→paint→diff→emit
// pipeline against a real terminal.
//
// Grounded on the teacher's cmd/demo/main.go (signals.New state + a
// background goroutine ticking it + screen.OnKey quit handling), adapted
// from the teacher's push-style Screen/Renderable API onto this engine's
// pull-style Build/invalidate model: nothing here holds a signals.Signal,
// the build callback simply reads shared state guarded by a mutex and the
// background goroutine calls engine.Invalidate() instead of Signal.Set
// triggering a redraw.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hex1b/config"
	"hex1b/cursor"
	"hex1b/diagnostics"
	"hex1b/document"
	"hex1b/focus"
	"hex1b/hostio"
	"hex1b/markup"
	"hex1b/node"
	"hex1b/paint"
	"hex1b/runloop"
	"hex1b/widget"
)

type demoState struct {
	mu    sync.Mutex
	ticks int
}

func (s *demoState) tick() {
	s.mu.Lock()
	s.ticks++
	s.mu.Unlock()
}

func (s *demoState) snapshot() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

func main() {
	cfg := config.Default()

	root := &cobra.Command{
		Use:   "hex1bdemo",
		Short: "A small representative hex1b TUI, exercised against a real terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				overlayFromFile(cmd, &cfg, path)
			}
			return run(cfg)
		},
	}
	config.BindFlags(root.Flags(), &cfg)
	root.Flags().String("config", "", "path to a YAML config file (overrides defaults; flags above override this)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// overlayFromFile loads path as a YAML config.Config and copies any field
// the user did not already override with an explicit flag, so precedence
// runs defaults < config file < flags.
func overlayFromFile(cmd *cobra.Command, cfg *config.Config, path string) {
	fileCfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hex1bdemo: %v (continuing with flag/default values)\n", err)
		return
	}
	if !cmd.Flags().Changed("fps") {
		cfg.FrameCeilingFPS = fileCfg.FrameCeilingFPS
	}
	if !cmd.Flags().Changed("coalesce-ms") {
		cfg.CoalesceTimeoutMs = fileCfg.CoalesceTimeoutMs
	}
	if !cmd.Flags().Changed("fuse-gap") {
		cfg.DiffFuseGap = fileCfg.DiffFuseGap
	}
	if !cmd.Flags().Changed("diag-sock") {
		cfg.DiagnosticsSocket = fileCfg.DiagnosticsSocket
	}
}

func run(cfg config.Config) error {
	log, _ := zap.NewDevelopment()
	defer log.Sync()

	term := hostio.NewTermAdapter()
	state := &demoState{}

	doc := document.NewFromString("")
	cursors := cursor.New()
	history := cursor.NewHistory()

	var engine *hostio.Engine
	build := func() widget.Widget {
		return &widget.VStack{
			Items: []widget.Item{
				{Child: markup.Widget("title", "**hex1b demo** — a small representative TUI")},
				{Child: markup.Widget("count", fmt.Sprintf("tick: **%d**", state.snapshot()))},
				{Child: &widget.Button{WidgetKey: "quit", Label: "[ quit ]", OnActivate: func() {
					if engine != nil {
						engine.RequestStop()
					}
				}}},
				{Child: &widget.TextBox{
					WidgetKey:   "input",
					Doc:         doc,
					Cursors:     cursors,
					History:     history,
					Placeholder: "type here, Tab to reach the quit button",
				}},
			},
		}
	}

	loopCfg := runloop.Config{
		FrameCeilingFPS: cfg.FrameCeilingFPS,
		TickInterval:    16 * time.Millisecond,
	}
	engine = hostio.NewEngine(term, term, build, paint.Render, loopCfg, cfg.DiffFuseGap, log)
	engine.AddGlobalBinding(quitOnEscape(engine))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		engine.RequestStop()
	}()

	stopTicker := make(chan struct{})
	go func() {
		t := time.NewTicker(time.Second)
		defer t.Stop()
		for {
			select {
			case <-stopTicker:
				return
			case <-t.C:
				state.tick()
				engine.Invalidate()
			}
		}
	}()
	defer close(stopTicker)

	if cfg.DiagnosticsSocket != "" {
		diag := diagnostics.NewServer(cfg.DiagnosticsSocket, "hex1bdemo", engine, log)
		go func() {
			if err := diag.ListenAndServe(); err != nil {
				log.Warn("diagnostics server stopped", zap.Error(err))
			}
		}()
		defer diag.Close()
	}

	code := engine.Run(ctx)
	if code != 0 {
		os.Exit(code)
	}
	return nil
}

// quitOnEscape is a focus.GlobalBinding: Esc requests a clean shutdown
// regardless of which node currently holds focus, the same "always
// reachable" quit path the teacher's screen.OnKey(tui.KeyEsc) handlers use
// across every cmd/example*.
func quitOnEscape(engine *hostio.Engine) focus.GlobalBinding {
	return func(ev node.KeyEvent) focus.Handling {
		if ev.Name == "Escape" {
			engine.RequestStop()
			return focus.Handled
		}
		return focus.Unhandled
	}
}
