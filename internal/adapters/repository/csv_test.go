package repository_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/okian/scoreboard/internal/adapters/repository"
	"github.com/okian/scoreboard/internal/domain/scoreboard"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sample() *scoreboard.Matrix {
	m, err := scoreboard.FromGrid(
		[]string{"Alpha", "Beta, the second", "Gamma"},
		[]string{"Round 1", "Round 2"},
		[][]decimal.Decimal{
			{d("10"), d("3")},
			{d("7.5"), d("-1")},
			{d("0"), d(".25")},
		},
	)
	if err != nil {
		panic(err)
	}
	return m
}

func TestCSVRoundTrip(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scoreboard with quoted names and fractional scores", t, func() {
		m := sample()

		Convey("When it is saved as CSV", func() {
			var buf bytes.Buffer
			So(repository.CSV{}.Save(ctx, m, &buf), ShouldBeNil)

			Convey("Then rows are categories and columns are teams", func() {
				lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
				So(lines, ShouldHaveLength, 3)
				So(lines[0], ShouldEqual, `Category,Alpha,"Beta, the second",Gamma`)
				So(lines[1], ShouldEqual, "Round 1,10,7.5,0")
				So(lines[2], ShouldEqual, "Round 2,3,-1,0.25")
			})

			Convey("And loading it back yields an equal matrix", func() {
				loaded, err := repository.CSV{}.Load(ctx, &buf)
				So(err, ShouldBeNil)
				So(loaded.Equal(m), ShouldBeTrue)
			})
		})
	})

	Convey("Given a header-only document", t, func() {
		loaded, err := repository.CSV{}.Load(ctx, strings.NewReader("category,A,B\n"))

		Convey("Then teams load without categories", func() {
			So(err, ShouldBeNil)
			So(loaded.TeamNames(), ShouldResemble, []string{"A", "B"})
			So(loaded.CategoryCount(), ShouldEqual, 0)
		})
	})
}

func TestCSVPaddedNames(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scoreboard built from padded names", t, func() {
		m, err := scoreboard.FromGrid([]string{" Solo "}, []string{"Q1 "}, [][]decimal.Decimal{{d("2")}})
		So(err, ShouldBeNil)
		So(m.AddTeam("Duo  "), ShouldBeNil)
		So(m.AddCategory(" Q2", []decimal.Decimal{d("1"), d("3")}), ShouldBeNil)

		Convey("When it is saved and loaded as CSV", func() {
			var buf bytes.Buffer
			So(repository.CSV{}.Save(ctx, m, &buf), ShouldBeNil)
			loaded, err := repository.CSV{}.Load(ctx, &buf)

			Convey("Then the loaded matrix equals the saved one", func() {
				So(err, ShouldBeNil)
				So(loaded.Equal(m), ShouldBeTrue)
				So(loaded.TeamNames(), ShouldResemble, []string{"Solo", "Duo"})
				So(loaded.CategoryNames(), ShouldResemble, []string{"Q1", "Q2"})
			})
		})
	})

	Convey("Given a document whose team names only differ by padding", t, func() {
		m, err := repository.CSV{}.Load(ctx, strings.NewReader("Category,\" A\",A\nQ1,1,2\n"))

		Convey("Then it is rejected as a duplicate", func() {
			So(errors.Is(err, repository.ErrFormat), ShouldBeTrue)
			So(errors.Is(err, scoreboard.ErrDuplicateName), ShouldBeTrue)
			So(m, ShouldBeNil)
		})
	})
}

func TestCSVRejects(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"wrong corner marker", "Team,A\nQ1,1\n"},
		{"short row", "Category,A,B\nQ1,1\n"},
		{"long row", "Category,A\nQ1,1,2\n"},
		{"comma decimal", "Category,A\nQ1,\"1,5\"\n"},
		{"exponent", "Category,A\nQ1,1e3\n"},
		{"word", "Category,A\nQ1,ten\n"},
		{"empty cell", "Category,A\nQ1,\n"},
		{"duplicate team", "Category,A,A\nQ1,1,2\n"},
		{"duplicate category", "Category,A\nQ1,1\nQ1,2\n"},
		{"blank team", "Category,A, \nQ1,1,2\n"},
		{"blank category", "Category,A\n,1\n"},
		{"bad quoting", "Category,\"A\nQ1,1\n"},
	}

	Convey("Given malformed CSV documents", t, func() {
		for _, tc := range cases {
			Convey("When loading "+tc.name, func() {
				m, err := repository.CSV{}.Load(ctx, strings.NewReader(tc.input))

				Convey("Then it fails with a format error and no matrix", func() {
					So(errors.Is(err, repository.ErrFormat), ShouldBeTrue)
					So(m, ShouldBeNil)
				})
			})
		}
	})

	Convey("Given well-formed number spellings", t, func() {
		m, err := repository.CSV{}.Load(ctx, strings.NewReader("Category,A,B,C,D\nQ1,+1,-.5,2.,007\n"))

		Convey("Then they all parse", func() {
			So(err, ShouldBeNil)
			totals := m.Totals()
			So(totals[0].Equal(d("1")), ShouldBeTrue)
			So(totals[1].Equal(d("-0.5")), ShouldBeTrue)
			So(totals[2].Equal(d("2")), ShouldBeTrue)
			So(totals[3].Equal(d("7")), ShouldBeTrue)
		})
	})
}
