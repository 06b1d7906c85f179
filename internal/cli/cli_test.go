package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	service "github.com/okian/scoreboard/internal/app"
	"github.com/okian/scoreboard/internal/domain/reveal"
	"github.com/okian/scoreboard/internal/domain/scoreboard"
	"github.com/okian/scoreboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// execute runs the command tree with args and returns what it printed.
func execute(args ...string) (string, error) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func viewOf(path string) types.Scoreboard {
	out, err := execute("show", path, "--json")
	So(err, ShouldBeNil)
	var view types.Scoreboard
	So(json.Unmarshal([]byte(out), &view), ShouldBeNil)
	return view
}

func TestRootCommand(t *testing.T) {
	Convey("The root command lists every subcommand", t, func() {
		root := NewRootCommand()
		So(root.Use, ShouldEqual, "scoreboard")

		names := map[string]bool{}
		for _, c := range root.Commands() {
			names[c.Name()] = true
		}
		for _, want := range []string{"new", "show", "add-team", "add-category", "set", "present", "serve"} {
			So(names[want], ShouldBeTrue)
		}
	})
}

func TestEditingCommands(t *testing.T) {
	Convey("Given a fresh scoreboard file", t, func() {
		path := filepath.Join(t.TempDir(), "quiz.csv")
		out, err := execute("new", path, "--teams", "2", "--categories", "3")
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "2 teams and 3 categories")

		Convey("Then show prints the grid with a totals row", func() {
			out, err := execute("show", path)
			So(err, ShouldBeNil)
			So(out, ShouldContainSubstring, "Team 2")
			So(out, ShouldContainSubstring, "Category 3")
			So(out, ShouldContainSubstring, "Σ Total")
		})

		Convey("When creating it again", func() {
			_, err := execute("new", path)

			Convey("Then the existing file is kept unless forced", func() {
				So(errors.Is(err, ErrFileExists), ShouldBeTrue)
				_, err = execute("new", path, "--force", "--teams", "1", "--categories", "1")
				So(err, ShouldBeNil)
				So(viewOf(path).Teams, ShouldResemble, []string{"Team 1"})
			})
		})

		Convey("When a team and a category are appended and a score is set", func() {
			_, err := execute("add-team", path, "Owls")
			So(err, ShouldBeNil)
			_, err = execute("add-category", path, "Finale", "--scores", "1,2.5,-3")
			So(err, ShouldBeNil)
			out, err := execute("set", path, "Owls", "1", "4")
			So(err, ShouldBeNil)

			Convey("Then every edit is saved to the file", func() {
				So(out, ShouldContainSubstring, "Owls / Category 1 = 4 (total 1)")
				view := viewOf(path)
				So(view.Teams, ShouldResemble, []string{"Team 1", "Team 2", "Owls"})
				So(view.Categories, ShouldResemble, []string{"Category 1", "Category 2", "Category 3", "Finale"})
				So(view.Totals[1].String(), ShouldEqual, "2.5")
				So(view.Totals[2].String(), ShouldEqual, "1")
			})

			Convey("And setting the same value reports no change", func() {
				out, err := execute("set", path, "3", "Category 1", "4.0")
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "already")
			})
		})

		Convey("When a command names something that does not exist", func() {
			_, errTeam := execute("set", path, "Nobody", "1", "4")
			_, errPos := execute("set", path, "1", "9", "4")
			_, errValue := execute("set", path, "1", "1", "lots")
			_, errShape := execute("add-category", path, "Bonus", "--scores", "1")
			_, errDup := execute("add-team", path, "Team 1")

			Convey("Then the domain error is returned and the file is untouched", func() {
				So(errors.Is(errTeam, service.ErrNotFound), ShouldBeTrue)
				So(errors.Is(errPos, scoreboard.ErrIndexOutOfRange), ShouldBeTrue)
				So(errors.Is(errValue, service.ErrInvalidScore), ShouldBeTrue)
				So(errors.Is(errShape, scoreboard.ErrShapeMismatch), ShouldBeTrue)
				So(errors.Is(errDup, scoreboard.ErrDuplicateName), ShouldBeTrue)
				So(viewOf(path).Categories, ShouldHaveLength, 3)
			})
		})
	})

	Convey("Given a path that does not exist", t, func() {
		_, err := execute("show", filepath.Join(t.TempDir(), "missing.json"))

		Convey("Then show fails with the file error", func() {
			So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
		})
	})
}

func TestPresentCommand(t *testing.T) {
	Convey("Given a 2x2 scoreboard", t, func() {
		path := filepath.Join(t.TempDir(), "final.json")
		_, err := execute("new", path, "--teams", "2", "--categories", "2")
		So(err, ShouldBeNil)
		_, err = execute("set", path, "2", "2", "7")
		So(err, ShouldBeNil)

		Convey("When presenting as text", func() {
			out, err := execute("present", path, "--surface", "text", "--delay", "1ms")
			So(err, ShouldBeNil)
			lines := strings.Split(strings.TrimSpace(out), "\n")

			Convey("Then every step prints in reveal order", func() {
				So(lines, ShouldResemble, []string{
					"--- reveal ---",
					"Category 1 / Team 1: 0",
					"Category 1 / Team 2: 0",
					"Category 2 / Team 1: 0",
					"Category 2 / Team 2: 7",
					"Total / Team 1: 0",
					"Total / Team 2: 7",
				})
			})
		})

		Convey("When presenting with running totals", func() {
			out, err := execute("present", path, "--surface", "text", "--delay", "1ms", "--running-totals")
			So(err, ShouldBeNil)

			Convey("Then cumulative totals follow every category", func() {
				So(out, ShouldContainSubstring, "after Category 1: Team 1 0, Team 2 0")
				So(out, ShouldContainSubstring, "after Category 2: Team 1 0, Team 2 7")
			})
		})

		Convey("When presenting to a browser surface", func() {
			_, err := execute("present", path, "--surface", "websocket")

			Convey("Then the surface is rejected", func() {
				So(errors.Is(err, ErrUnsupportedSurface), ShouldBeTrue)
			})
		})
	})

	Convey("Given a scoreboard without categories", t, func() {
		path := filepath.Join(t.TempDir(), "empty.csv")
		_, err := execute("new", path, "--teams", "2", "--categories", "0")
		So(err, ShouldBeNil)

		Convey("Then it cannot be presented", func() {
			_, err := execute("present", path, "--surface", "text")
			So(errors.Is(err, reveal.ErrNotPresentable), ShouldBeTrue)
		})
	})
}

func TestPrintBoard(t *testing.T) {
	Convey("Given a board without teams", t, func() {
		var out bytes.Buffer
		So(printBoard(&out, types.Scoreboard{Categories: []string{"Q1"}}), ShouldBeNil)

		Convey("Then a note is printed instead of a table", func() {
			So(out.String(), ShouldContainSubstring, "No teams yet.")
		})
	})
}
