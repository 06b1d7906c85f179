package reveal

import "time"

// ActionKind is what the driver does next.
type ActionKind int

const (
	// ActionRender pushes Action.Index to the surface now.
	ActionRender ActionKind = iota
	// ActionWait suspends for Action.Wait before asking again.
	ActionWait
	// ActionComplete ends the run normally.
	ActionComplete
	// ActionStop ends the run because it was cancelled.
	ActionStop
)

func (k ActionKind) String() string {
	switch k {
	case ActionRender:
		return "render"
	case ActionWait:
		return "wait"
	case ActionComplete:
		return "complete"
	case ActionStop:
		return "stop"
	default:
		return "unknown"
	}
}

// Action is the scheduler's decision.
type Action struct {
	Kind  ActionKind
	Index int
	Wait  time.Duration
}

// Cursor is everything the scheduler looks at.
type Cursor struct {
	// Next is the index of the next step to render.
	Next int
	// Total is the number of steps in the plan.
	Total int
	// Cancelled is set once the run left Running.
	Cancelled bool
	// SinceLast is the time elapsed since the previous step was rendered.
	SinceLast time.Duration
	// Delay is the pacing between two steps.
	Delay time.Duration
}

// Next maps a cursor to the next action. It is pure: the same cursor always
// yields the same action. The first step renders immediately; each later
// step waits until Delay has elapsed since the previous one.
func Next(c Cursor) Action {
	switch {
	case c.Cancelled:
		return Action{Kind: ActionStop, Index: c.Next}
	case c.Next >= c.Total:
		return Action{Kind: ActionComplete, Index: c.Next}
	case c.Next == 0, c.SinceLast >= c.Delay:
		return Action{Kind: ActionRender, Index: c.Next}
	default:
		return Action{Kind: ActionWait, Index: c.Next, Wait: c.Delay - c.SinceLast}
	}
}
