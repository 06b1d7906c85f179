// Package cli wires the scoreboard commands: file editing, presentation and
// the HTTP server.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	service "github.com/okian/scoreboard/internal/app"
	"github.com/okian/scoreboard/internal/config"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/spf13/cobra"
)

// commandRuntime carries what every command needs once flags are parsed.
type commandRuntime struct {
	cfg     *config.Config
	log     logger.Logger
	logFile *os.File

	logLevel string
	logPath  string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	rt := &commandRuntime{}

	cmd := &cobra.Command{
		Use:   "scoreboard",
		Short: "Edit team scoreboards and reveal them one score at a time",
		Long: `Scoreboard keeps a grid of scores per team and category in a CSV or
JSON file and presents it as a paced reveal, on the terminal, as plain text,
or on a browser display driven by the built-in server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.init(cmd.Context(), cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return rt.close()
		},
	}

	cmd.PersistentFlags().StringVar(&rt.logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
	cmd.PersistentFlags().StringVar(&rt.logPath, "log-file", "", "append log records to this file instead of stderr")

	cmd.AddCommand(
		newNewCommand(rt),
		newShowCommand(rt),
		newAddTeamCommand(rt),
		newAddCategoryCommand(rt),
		newSetCommand(rt),
		newPresentCommand(rt),
		newServeCommand(rt),
	)
	return cmd
}

// Execute runs the command tree with ctx and the process arguments.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// init loads configuration (defaults, file, env) and then applies flags.
func (rt *commandRuntime) init(ctx context.Context, stderr io.Writer) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if rt.logLevel != "" {
		cfg.LogLevel = rt.logLevel
	}
	rt.cfg = cfg

	out := stderr
	if rt.logPath != "" {
		f, err := os.OpenFile(rt.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		rt.logFile = f
		out = f
	}
	return rt.setupLogger(ctx, out)
}

// setupLogger (re)initializes the global logger on w at the configured level.
func (rt *commandRuntime) setupLogger(ctx context.Context, w io.Writer) error {
	if err := logger.Init(logger.WithOutput(w), logger.WithFormat(rt.cfg.LogFormat)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	rt.log = logger.Get()
	if err := logger.SetLevelString(rt.cfg.LogLevel); err != nil {
		rt.log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", rt.cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

func (rt *commandRuntime) close() error {
	if rt.logFile == nil {
		return nil
	}
	err := rt.logFile.Close()
	rt.logFile = nil
	return err
}

// session creates a Session using the configured reveal defaults.
func (rt *commandRuntime) session(opts ...service.Option) *service.Session {
	base := []service.Option{
		service.WithLogger(rt.log),
		service.WithRevealDefaults(rt.cfg.InterStepDelay(), rt.cfg.ShowRunningTotals),
	}
	return service.New(append(base, opts...)...)
}
