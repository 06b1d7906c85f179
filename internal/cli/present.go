package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/okian/scoreboard/internal/adapters/surface"
	service "github.com/okian/scoreboard/internal/app"
	"github.com/okian/scoreboard/internal/config"
	"github.com/okian/scoreboard/internal/domain/reveal"
	"github.com/okian/scoreboard/internal/domain/types"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/spf13/cobra"
)

// stopTimeout bounds how long a presenter waits for a cancelled run to settle.
const stopTimeout = 5 * time.Second

// ErrUnsupportedSurface is returned for a surface present cannot drive.
var ErrUnsupportedSurface = errors.New("unsupported surface")

type presentFlags struct {
	delay         time.Duration
	runningTotals bool
	surface       string
}

func newPresentCommand(rt *commandRuntime) *cobra.Command {
	var f presentFlags
	cmd := &cobra.Command{
		Use:   "present FILE",
		Short: "Reveal a scoreboard one score at a time",
		Long: `Reveal every score category by category, then each team's total.
The terminal surface shows a live board (press q to stop); the text surface
prints one line per step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.delay <= 0 {
				f.delay = rt.cfg.InterStepDelay()
			}
			if !cmd.Flags().Changed("running-totals") {
				f.runningTotals = rt.cfg.ShowRunningTotals
			}
			if f.surface == "" {
				f.surface = rt.cfg.TargetSurface
			}

			switch f.surface {
			case config.SurfaceText:
				return rt.presentText(cmd.Context(), cmd.OutOrStdout(), args[0], f)
			case config.SurfaceTerminal:
				if rt.logPath == "" {
					// The board owns the screen.
					if err := rt.setupLogger(cmd.Context(), io.Discard); err != nil {
						return err
					}
				}
				return rt.presentTerminal(cmd.Context(), args[0], f)
			default:
				return fmt.Errorf("%w: %q (use terminal or text; browser displays are driven by serve)", ErrUnsupportedSurface, f.surface)
			}
		},
	}
	cmd.Flags().DurationVarP(&f.delay, "delay", "d", 0, "pause between steps (default from config)")
	cmd.Flags().BoolVar(&f.runningTotals, "running-totals", false, "show cumulative totals after every category")
	cmd.Flags().StringVar(&f.surface, "surface", "", "where to present: terminal or text (default from config)")
	return cmd
}

func (rt *commandRuntime) presentText(ctx context.Context, w io.Writer, path string, f presentFlags) error {
	sess, view, err := rt.openForPresent(ctx, path)
	if err != nil {
		return err
	}

	if _, err := sess.StartReveal(ctx, revealRequest(f, surface.NewText(w, view.Teams))); err != nil {
		return err
	}
	status, err := sess.WaitReveal(ctx)
	if err != nil {
		rt.stop(sess)
		return nil
	}
	return runError(status)
}

func (rt *commandRuntime) presentTerminal(ctx context.Context, path string, f presentFlags) error {
	sess, view, err := rt.openForPresent(ctx, path)
	if err != nil {
		return err
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	term := surface.NewTerminal(title, view.Teams, view.Categories, func() {
		_, _ = sess.CancelReveal(context.WithoutCancel(ctx))
	}, tea.WithAltScreen())

	if _, err := sess.StartReveal(ctx, revealRequest(f, term)); err != nil {
		return err
	}
	go func() {
		status, err := sess.WaitReveal(ctx)
		state, _ := reveal.ParseState(status.State)
		if err == nil {
			err = runError(status)
		}
		term.Finish(state, err)
	}()

	runErr := term.Run()
	rt.stop(sess)
	if runErr != nil {
		return fmt.Errorf("terminal: %w", runErr)
	}
	return nil
}

func (rt *commandRuntime) openForPresent(ctx context.Context, path string) (*service.Session, types.Scoreboard, error) {
	sess := rt.session()
	if err := sess.Open(ctx, path); err != nil {
		return nil, types.Scoreboard{}, err
	}
	view, err := sess.View(ctx)
	if err != nil {
		return nil, types.Scoreboard{}, err
	}
	return sess, view, nil
}

// stop cancels whatever is still running and waits for it briefly.
func (rt *commandRuntime) stop(sess *service.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := sess.Shutdown(ctx); err != nil {
		rt.log.Warn(ctx, "reveal did not stop in time", logger.Error(err))
	}
}

func revealRequest(f presentFlags, sf reveal.Surface) service.RevealRequest {
	runningTotals := f.runningTotals
	return service.RevealRequest{
		InterStepDelay:    f.delay,
		ShowRunningTotals: &runningTotals,
		Surface:           sf,
	}
}

// runError turns a failed run into an error; a user cancel is not one.
func runError(status types.RevealStatus) error {
	if status.Error == "" {
		return nil
	}
	return fmt.Errorf("reveal %s: %s", status.State, status.Error)
}
