package reveal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
)

// DefaultInterStepDelay paces a reveal when Options.InterStepDelay is not positive.
const DefaultInterStepDelay = 1500 * time.Millisecond

// State of a Sequencer.
type State int

const (
	Idle State = iota
	Running
	Completed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseState maps a name produced by String back to its State.
func ParseState(name string) (State, bool) {
	for _, s := range []State{Idle, Running, Completed, Cancelled} {
		if s.String() == name {
			return s, true
		}
	}
	return Idle, false
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == Completed || s == Cancelled }

// Surface receives steps. The sequencer never creates or owns it.
type Surface interface {
	Render(ctx context.Context, step Step) error
	Clear(ctx context.Context) error
}

// Options configures one run.
type Options struct {
	// InterStepDelay paces the run; DefaultInterStepDelay when not positive.
	InterStepDelay time.Duration
	// ShowRunningTotals adds cumulative totals after every category.
	ShowRunningTotals bool
	// Surface is where steps are rendered. Required.
	Surface Surface
}

// SequencerOption customizes a Sequencer.
type SequencerOption func(*Sequencer)

// WithLogger sets the logger used for run transitions.
func WithLogger(l logger.Logger) SequencerOption {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}

// Sequencer drives a single reveal run. It is single-use: once Completed or
// Cancelled a new Sequencer is needed, so a stale timer can never fire into
// a later run.
type Sequencer struct {
	id     string
	logger logger.Logger

	mu       sync.Mutex
	state    State
	steps    []Step
	next     int
	rendered int
	delay    time.Duration
	surface  Surface
	err      error

	cancelCh chan struct{}
	done     chan struct{}

	// afterTake runs between taking a step and rendering it. Tests only.
	afterTake func()
}

// NewSequencer creates an Idle sequencer.
func NewSequencer(opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		id:       uuid.NewString(),
		logger:   logger.GetOr(logger.Nop()),
		cancelCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("reveal")
	return s
}

// ID identifies this sequencer in logs.
func (s *Sequencer) ID() string { return s.id }

// State returns the current state.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the fault that cancelled the run, if any.
func (s *Sequencer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Rendered returns how many steps were pushed to the surface.
func (s *Sequencer) Rendered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rendered
}

// Total returns the number of steps in the plan, zero before Start.
func (s *Sequencer) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

// Plan returns a copy of the planned steps, nil before Start.
func (s *Sequencer) Plan() []Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.steps == nil {
		return nil
	}
	out := make([]Step, len(s.steps))
	for i, step := range s.steps {
		out[i] = step.clone()
	}
	return out
}

// Done is closed once the run reaches a terminal state and the driver has
// returned. It never closes for a sequencer that was not started.
func (s *Sequencer) Done() <-chan struct{} { return s.done }

// Wait blocks until the run ends or ctx is done.
func (s *Sequencer) Wait(ctx context.Context) (State, error) {
	select {
	case <-s.done:
		return s.State(), s.Err()
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}
}

// Start validates src and opts, snapshots the plan and begins the run. On
// error the sequencer stays Idle and the surface is not touched. ctx bounds
// the whole run: when it is done the run is cancelled.
func (s *Sequencer) Start(ctx context.Context, src Source, opts Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return fmt.Errorf("%w: start while %s", ErrInvalidState, s.state)
	}
	if opts.Surface == nil {
		return fmt.Errorf("%w: no surface", ErrInvalidOptions)
	}

	steps, err := BuildPlan(src, PlanOptions{ShowRunningTotals: opts.ShowRunningTotals})
	if err != nil {
		_ = metrics.RecordRevealRun(metrics.OutcomeRejected)
		s.logger.Warn(ctx, "reveal rejected", logger.String("run", s.id), logger.Error(err))
		return err
	}

	s.steps = steps
	s.surface = opts.Surface
	s.delay = opts.InterStepDelay
	if s.delay <= 0 {
		s.delay = DefaultInterStepDelay
	}
	s.state = Running
	_ = metrics.RecordRevealRun(metrics.OutcomeStarted)
	s.logger.Info(ctx, "reveal started",
		logger.String("run", s.id),
		logger.Int("steps", len(steps)),
		logger.Duration("delay", s.delay),
		logger.Bool("running_totals", opts.ShowRunningTotals),
	)

	go s.run(ctx)
	return nil
}

// Cancel stops a running reveal. After it returns Render is not called
// again; a Render already in progress may finish. It is safe to call from
// inside Surface.Render.
func (s *Sequencer) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Running {
		return fmt.Errorf("%w: cancel while %s", ErrInvalidState, s.state)
	}
	s.cancelLocked(nil)
	s.logger.Info(context.Background(), "reveal cancelled",
		logger.String("run", s.id),
		logger.Int("rendered", s.rendered),
	)
	return nil
}

// cancelLocked moves a running sequencer to Cancelled. Caller holds mu.
func (s *Sequencer) cancelLocked(cause error) {
	s.state = Cancelled
	s.err = cause
	close(s.cancelCh)
	outcome := metrics.OutcomeCancelled
	if cause != nil && !errors.Is(cause, context.Canceled) && !errors.Is(cause, context.DeadlineExceeded) {
		outcome = metrics.OutcomeFailed
	}
	_ = metrics.RecordRevealRun(outcome)
}

// run is the driver loop. It consults Next under the lock and releases the
// lock before talking to the surface.
func (s *Sequencer) run(ctx context.Context) {
	defer close(s.done)

	if err := safeCall(func() error { return s.surface.Clear(ctx) }); err != nil {
		s.fail(ctx, fmt.Errorf("%w: clear: %w", ErrPlayback, err))
		return
	}

	var lastRender time.Time

	for {
		s.mu.Lock()
		if err := ctx.Err(); err != nil && s.state == Running {
			s.cancelLocked(err)
		}
		action := Next(Cursor{
			Next:      s.next,
			Total:     len(s.steps),
			Cancelled: s.state != Running,
			SinceLast: time.Since(lastRender),
			Delay:     s.delay,
		})

		switch action.Kind {
		case ActionStop:
			s.mu.Unlock()
			return

		case ActionComplete:
			s.state = Completed
			_ = metrics.RecordRevealRun(metrics.OutcomeCompleted)
			rendered := s.rendered
			s.mu.Unlock()
			s.logger.Info(ctx, "reveal completed", logger.String("run", s.id), logger.Int("rendered", rendered))
			return

		case ActionRender:
			step := s.steps[action.Index].clone()
			s.next++
			s.mu.Unlock()

			if s.afterTake != nil {
				s.afterTake()
			}
			// A Cancel that returned after the step was taken still wins.
			select {
			case <-s.cancelCh:
				continue
			default:
			}

			lastRender = time.Now()
			if err := safeCall(func() error { return s.surface.Render(ctx, step) }); err != nil {
				s.fail(ctx, fmt.Errorf("%w: step %d: %w", ErrPlayback, step.Index, err))
				return
			}
			metrics.RecordRevealStep(string(step.Kind))

			s.mu.Lock()
			s.rendered++
			s.mu.Unlock()

		case ActionWait:
			s.mu.Unlock()
			timer := time.NewTimer(action.Wait)
			select {
			case <-timer.C:
			case <-s.cancelCh:
			case <-ctx.Done():
				s.mu.Lock()
				if s.state == Running {
					s.cancelLocked(ctx.Err())
					s.logger.Info(ctx, "reveal cancelled by context", logger.String("run", s.id))
				}
				s.mu.Unlock()
			}
			timer.Stop()
		}
	}
}

// fail forces Cancelled after a playback fault. A fault after the run was
// already cancelled is only logged at debug level.
func (s *Sequencer) fail(ctx context.Context, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Running {
		s.logger.Debug(ctx, "playback fault after cancel", logger.String("run", s.id), logger.Error(err))
		return
	}
	s.cancelLocked(err)
	s.logger.Error(ctx, "reveal failed", logger.String("run", s.id), logger.Error(err))
}

// safeCall turns a panic in surface code into an error.
func safeCall(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
