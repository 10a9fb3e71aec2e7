package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/chirp/internal/core/config"
	"github.com/colonyops/chirp/internal/core/logging"
	"github.com/colonyops/chirp/internal/render"
	"github.com/colonyops/chirp/internal/script"
	"github.com/colonyops/chirp/internal/toast"
	"github.com/colonyops/chirp/pkg/deferred"
	"github.com/colonyops/chirp/pkg/iojson"
	"github.com/colonyops/chirp/pkg/timer"
)

const (
	clearScreen   = "\033[H\033[2J"
	defaultLinger = 30 * time.Second
)

type RunCmd struct {
	flags *Flags

	// flags
	scriptPath  string
	jsonOutput  bool
	watchConfig bool
	width       int
	linger      time.Duration
}

// NewRunCmd creates a new run command
func NewRunCmd(flags *Flags) *RunCmd {
	return &RunCmd{flags: flags, linger: defaultLinger}
}

// Register adds the run command to the application
func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Replay a notification script",
		UsageText: "chirp run [--script FILE] [--json] [--watch-config]",
		Description: `Hosts a notification dispatcher and replays a script of timed notify, update
and dismiss steps against it. Without --script the built-in demo runs.

The toast stack is redrawn whenever it changes. Use --json to stream
lifecycle events as JSON lines instead.

The command exits once the script has finished and every notification has
been removed, or when --linger elapses after the last step.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "script",
				Aliases:     []string{"s"},
				Usage:       "path to a YAML script (defaults to the built-in demo)",
				Destination: &cmd.scriptPath,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "stream lifecycle events as JSON lines",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "watch-config",
				Usage:       "apply toast settings from the config file while running",
				Destination: &cmd.watchConfig,
			},
			&cli.IntFlag{
				Name:        "width",
				Usage:       "toast width in columns (overrides render.width)",
				Destination: &cmd.width,
			},
			&cli.DurationFlag{
				Name:        "linger",
				Usage:       "how long to wait for remaining notifications after the last step",
				Value:       defaultLinger,
				Destination: &cmd.linger,
			},
		},
		Action: cmd.Run,
	})

	return app
}

type eventLine struct {
	Event   toast.EventKind `json:"event"`
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Variant string          `json:"variant"`
	Status  string          `json:"status"`
	At      time.Time       `json:"at"`
}

// Run replays the configured script. It is also the root command's default
// action, in which case the demo script runs with default settings.
func (cmd *RunCmd) Run(ctx context.Context, c *cli.Command) error {
	cfg, err := config.Load(cmd.flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	s, err := cmd.loadScript()
	if err != nil {
		return err
	}

	dispatcher, err := toast.NewDispatcher(cfg.ToastSettings(), toast.WithLogger(logging.Component("toast")))
	if err != nil {
		return fmt.Errorf("create dispatcher: %w", err)
	}
	defer dispatcher.Close()

	out := c.Root().Writer
	if out == nil {
		out = os.Stdout
	}

	if cmd.jsonOutput {
		dispatcher.Subscribe(func(e toast.Event) {
			line := eventLine{
				Event:   e.Kind,
				ID:      e.Notification.ID,
				Title:   e.Notification.Title,
				Variant: string(e.Notification.Variant),
				Status:  string(e.Notification.Status),
				At:      e.At,
			}
			if err := iojson.WriteLine(out, line); err != nil {
				log.Error().Err(err).Msg("failed to write event")
			}
		})
	} else {
		redraw, err := cmd.redrawer(out, dispatcher, cfg)
		if err != nil {
			return err
		}
		defer redraw.Cancel()
		dispatcher.Subscribe(func(toast.Event) { redraw.Trigger(struct{}{}) })
	}

	removed := make(chan struct{}, 1)
	dispatcher.Subscribe(func(e toast.Event) {
		if e.Kind != toast.EventRemoved {
			return
		}
		select {
		case removed <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cmd.watchConfig {
		watcher := config.NewWatcher(cmd.flags.ConfigPath, func(next *config.Config) {
			if err := dispatcher.Configure(next.ToastSettings()); err != nil {
				log.Warn().Err(err).Msg("ignoring reloaded toast settings")
			}
		}, logging.Component("config"))

		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.Warn().Err(err).Msg("config watcher stopped")
			}
		}()
	}

	runner := script.NewRunner(dispatcher, script.ClockSleeper(timer.System), logging.Component("script"))
	if _, err := runner.Run(ctx, s); err != nil {
		return fmt.Errorf("run script %s: %w", s.Name, err)
	}

	deadline := time.NewTimer(cmd.linger)
	defer deadline.Stop()

	for len(dispatcher.Snapshot()) > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-removed:
		case <-deadline.C:
			log.Info().Int("remaining", len(dispatcher.Snapshot())).Msg("linger elapsed")
			return nil
		}
	}

	return nil
}

func (cmd *RunCmd) loadScript() (*script.Script, error) {
	if cmd.scriptPath == "" {
		return script.Demo()
	}
	return script.Load(cmd.scriptPath)
}

// redrawer coalesces bursts of events into a single repaint of the stack.
func (cmd *RunCmd) redrawer(out io.Writer, d *toast.Dispatcher, cfg *config.Config) (*deferred.Debouncer[struct{}], error) {
	width := cfg.Render.Width
	if cmd.width > 0 {
		width = cmd.width
	}

	interactive := false
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		interactive = true
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols-2 < width {
			width = max(cols-2, 10)
		}
	}

	return deferred.NewDebouncer(func(struct{}) error {
		frame := render.Stack(d.Snapshot(), width)
		if interactive {
			frame = clearScreen + frame
		}
		_, err := fmt.Fprintln(out, frame)
		return err
	}, cfg.Render.RedrawDebounce, deferred.WithLogger(logging.Component("redraw")))
}
