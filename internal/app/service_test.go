package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/scoreboard/internal/adapters/repository"
	"github.com/okian/scoreboard/internal/adapters/surface"
	service "github.com/okian/scoreboard/internal/app"
	"github.com/okian/scoreboard/internal/domain/reveal"
	"github.com/okian/scoreboard/internal/domain/scoreboard"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingSurface struct {
	mu     sync.Mutex
	steps  []reveal.Step
	boards []surface.Board
}

func (r *recordingSurface) Render(_ context.Context, step reveal.Step) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step)
	return nil
}

func (r *recordingSurface) Clear(context.Context) error { return nil }

func (r *recordingSurface) SetBoard(board surface.Board) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boards = append(r.boards, board)
	return nil
}

func (r *recordingSurface) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.steps)
}

func TestSessionEditing(t *testing.T) {
	ctx := context.Background()

	Convey("Given a session without a document", t, func() {
		s := service.New()

		Convey("Then every editing command fails with no document", func() {
			So(errors.Is(s.AddTeam(ctx, "A"), service.ErrNoDocument), ShouldBeTrue)
			So(errors.Is(s.AddCategory(ctx, "Q", nil), service.ErrNoDocument), ShouldBeTrue)
			_, err := s.SetScore(ctx, "A", "Q", "1")
			So(errors.Is(err, service.ErrNoDocument), ShouldBeTrue)
			_, err = s.View(ctx)
			So(errors.Is(err, service.ErrNoDocument), ShouldBeTrue)
			So(errors.Is(s.Save(ctx, "x.csv"), service.ErrNoDocument), ShouldBeTrue)
			So(errors.Is(s.Close(ctx), service.ErrNoDocument), ShouldBeTrue)
		})

		Convey("When a 2x2 document is created", func() {
			So(s.NewDocument(ctx, 2, 2), ShouldBeNil)

			Convey("Then the view has generated names, zero totals and is dirty", func() {
				view, err := s.View(ctx)
				So(err, ShouldBeNil)
				So(view.Teams, ShouldResemble, []string{"Team 1", "Team 2"})
				So(view.Categories, ShouldResemble, []string{"Category 1", "Category 2"})
				So(view.Totals[0].IsZero(), ShouldBeTrue)
				So(view.Presentable, ShouldBeTrue)
				So(view.Dirty, ShouldBeTrue)
			})

			Convey("And scores can be set by name or position", func() {
				upd, err := s.SetScore(ctx, "Team 2", "1", "4.5")
				So(err, ShouldBeNil)
				So(upd.Changed, ShouldBeTrue)
				So(upd.Team, ShouldEqual, "Team 2")
				So(upd.Category, ShouldEqual, "Category 1")
				So(upd.Total.Equal(decimal.RequireFromString("4.5")), ShouldBeTrue)

				upd, err = s.SetScore(ctx, "2", "Category 1", "4.50")
				So(err, ShouldBeNil)
				So(upd.Changed, ShouldBeFalse)
			})

			Convey("And bad references and values are rejected", func() {
				_, err := s.SetScore(ctx, "Nobody", "1", "1")
				So(errors.Is(err, service.ErrNotFound), ShouldBeTrue)
				_, err = s.SetScore(ctx, "3", "1", "1")
				So(errors.Is(err, scoreboard.ErrIndexOutOfRange), ShouldBeTrue)
				_, err = s.SetScore(ctx, "1", "1", "1,5")
				So(errors.Is(err, service.ErrInvalidScore), ShouldBeTrue)
			})

			Convey("And teams and categories can be appended", func() {
				So(s.AddTeam(ctx, "Gamma"), ShouldBeNil)
				So(s.AddCategory(ctx, "Bonus", []string{"1", "2", "3"}), ShouldBeNil)
				So(s.AddCategory(ctx, "Zero", nil), ShouldBeNil)

				view, _ := s.View(ctx)
				So(view.Teams, ShouldHaveLength, 3)
				So(view.Categories, ShouldHaveLength, 4)
				So(view.Totals[2].Equal(decimal.NewFromInt(3)), ShouldBeTrue)
			})

			Convey("And malformed appends leave the document unchanged", func() {
				before, _ := s.View(ctx)
				So(errors.Is(s.AddTeam(ctx, "Team 1"), scoreboard.ErrDuplicateName), ShouldBeTrue)
				So(errors.Is(s.AddCategory(ctx, "Q", []string{"1"}), scoreboard.ErrShapeMismatch), ShouldBeTrue)
				So(errors.Is(s.AddCategory(ctx, "Q", []string{"1", "x"}), service.ErrInvalidScore), ShouldBeTrue)
				after, _ := s.View(ctx)
				So(after, ShouldResemble, before)
			})

			Convey("And closing drops it", func() {
				So(s.Close(ctx), ShouldBeNil)
				_, err := s.View(ctx)
				So(errors.Is(err, service.ErrNoDocument), ShouldBeTrue)
			})

			Convey("And the returned matrix is a copy", func() {
				m, err := s.Matrix()
				So(err, ShouldBeNil)
				_, _ = m.SetScore(0, 0, decimal.NewFromInt(9))
				view, _ := s.View(ctx)
				So(view.Scores[0][0].IsZero(), ShouldBeTrue)
			})
		})
	})
}

func TestSessionFiles(t *testing.T) {
	ctx := context.Background()

	Convey("Given a session backed by a file store", t, func() {
		dir := t.TempDir()
		s := service.New(service.WithStore(repository.NewFileStore()))
		So(s.NewDocument(ctx, 2, 1), ShouldBeNil)
		_, err := s.SetScore(ctx, "1", "1", "7")
		So(err, ShouldBeNil)

		Convey("When saving without a path", func() {
			err := s.Save(ctx, "")

			Convey("Then it needs a file name", func() {
				So(errors.Is(err, service.ErrNoPath), ShouldBeTrue)
			})
		})

		Convey("When saved and reopened in another session", func() {
			path := filepath.Join(dir, "quiz.csv")
			So(s.Save(ctx, path), ShouldBeNil)

			other := service.New()
			So(other.Open(ctx, path), ShouldBeNil)

			Convey("Then the document is the same and clean", func() {
				want, _ := s.Matrix()
				loaded, _ := other.Matrix()
				So(loaded.Equal(want), ShouldBeTrue)
				got, _ := other.View(ctx)
				So(got.Path, ShouldEqual, path)
				So(got.Dirty, ShouldBeFalse)
				saved, _ := s.View(ctx)
				So(saved.Dirty, ShouldBeFalse)
			})

			Convey("And a second save reuses the path", func() {
				So(s.AddTeam(ctx, "Late"), ShouldBeNil)
				So(s.Save(ctx, ""), ShouldBeNil)
				So(other.Open(ctx, path), ShouldBeNil)
				got, _ := other.View(ctx)
				So(got.Teams, ShouldContain, "Late")
			})
		})

		Convey("When opening a file that fails to load", func() {
			err := s.Open(ctx, filepath.Join(dir, "missing.json"))

			Convey("Then the current document is kept", func() {
				So(err, ShouldNotBeNil)
				view, err := s.View(ctx)
				So(err, ShouldBeNil)
				So(view.Teams, ShouldHaveLength, 2)
			})
		})
	})
}

func TestSessionReveal(t *testing.T) {
	ctx := context.Background()

	Convey("Given a session with a presentable document", t, func() {
		sf := &recordingSurface{}
		s := service.New(service.WithSurface(sf), service.WithRevealDefaults(time.Millisecond, false))
		So(s.NewDocument(ctx, 2, 2), ShouldBeNil)

		Convey("Then the initial reveal status is idle", func() {
			So(s.RevealStatus(ctx).State, ShouldEqual, "idle")
			_, err := s.CancelReveal(ctx)
			So(errors.Is(err, reveal.ErrInvalidState), ShouldBeTrue)
		})

		Convey("When a reveal runs to the end", func() {
			status, err := s.StartReveal(ctx, service.RevealRequest{})
			So(err, ShouldBeNil)
			So(status.ID, ShouldNotBeEmpty)

			waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			final, err := s.WaitReveal(waitCtx)

			Convey("Then every step reached the default surface after the board", func() {
				So(err, ShouldBeNil)
				So(final.State, ShouldEqual, "completed")
				So(final.Rendered, ShouldEqual, 6)
				So(sf.count(), ShouldEqual, 6)
				So(sf.boards, ShouldHaveLength, 1)
				So(sf.boards[0].Teams, ShouldResemble, []string{"Team 1", "Team 2"})
			})

			Convey("And another reveal can be started", func() {
				on := true
				_, err := s.StartReveal(ctx, service.RevealRequest{ShowRunningTotals: &on})
				So(err, ShouldBeNil)
				final, err := s.WaitReveal(waitCtx)
				So(err, ShouldBeNil)
				So(final.Total, ShouldEqual, 8)
			})
		})

		Convey("When a slow reveal is running", func() {
			_, err := s.StartReveal(ctx, service.RevealRequest{InterStepDelay: time.Hour})
			So(err, ShouldBeNil)

			Convey("Then a second start is refused", func() {
				_, err := s.StartReveal(ctx, service.RevealRequest{})
				So(errors.Is(err, reveal.ErrInvalidState), ShouldBeTrue)
				_, _ = s.CancelReveal(ctx)
			})

			Convey("And editing continues while it runs", func() {
				_, err := s.SetScore(ctx, "1", "1", "5")
				So(err, ShouldBeNil)
				_, _ = s.CancelReveal(ctx)
			})

			Convey("And cancelling stops it", func() {
				status, err := s.CancelReveal(ctx)
				So(err, ShouldBeNil)
				So(status.State, ShouldEqual, "cancelled")
				_, err = s.CancelReveal(ctx)
				So(errors.Is(err, reveal.ErrInvalidState), ShouldBeTrue)
			})

			Convey("And shutdown stops it", func() {
				waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				So(s.Shutdown(waitCtx), ShouldBeNil)
				So(s.RevealStatus(ctx).State, ShouldEqual, "cancelled")
			})
		})

		Convey("When the document has no teams", func() {
			So(s.NewDocument(ctx, 0, 2), ShouldBeNil)
			_, err := s.StartReveal(ctx, service.RevealRequest{})

			Convey("Then it is not presentable and nothing is announced", func() {
				So(errors.Is(err, reveal.ErrNotPresentable), ShouldBeTrue)
				So(sf.boards, ShouldBeEmpty)
				So(s.RevealStatus(ctx).State, ShouldEqual, "idle")
			})
		})
	})

	Convey("Given a session without a default surface", t, func() {
		s := service.New()
		So(s.NewDocument(ctx, 1, 1), ShouldBeNil)

		Convey("Then a reveal needs one", func() {
			_, err := s.StartReveal(ctx, service.RevealRequest{})
			So(errors.Is(err, reveal.ErrInvalidOptions), ShouldBeTrue)
		})
	})
}

func TestSessionStats(t *testing.T) {
	Convey("Given a session with a document", t, func() {
		s := service.New()
		So(s.NewDocument(context.Background(), 3, 2), ShouldBeNil)

		Convey("Then stats describe it", func() {
			stats := s.GetStats()
			So(stats["open"], ShouldBeTrue)
			So(stats["teams"], ShouldEqual, 3)
			So(stats["categories"], ShouldEqual, 2)
		})
	})
}
