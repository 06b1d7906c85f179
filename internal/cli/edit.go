package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	service "github.com/okian/scoreboard/internal/app"
	"github.com/spf13/cobra"
)

// ErrFileExists is returned by new when the target exists and --force is not set.
var ErrFileExists = errors.New("file already exists")

func newNewCommand(rt *commandRuntime) *cobra.Command {
	var (
		teams      int
		categories int
		force      bool
	)
	cmd := &cobra.Command{
		Use:   "new FILE",
		Short: "Create a zero-filled scoreboard file",
		Long: `Create a scoreboard with generated team and category names and every
score set to zero. The format follows the extension: .csv or .json.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%w: %s (use --force to overwrite)", ErrFileExists, path)
				}
			}
			if teams < 0 {
				teams = rt.cfg.DefaultTeams
			}
			if categories < 0 {
				categories = rt.cfg.DefaultCategories
			}

			ctx := cmd.Context()
			sess := rt.session()
			if err := sess.NewDocument(ctx, teams, categories); err != nil {
				return err
			}
			if err := sess.Save(ctx, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s with %d teams and %d categories\n", path, teams, categories)
			return nil
		},
	}
	cmd.Flags().IntVarP(&teams, "teams", "t", -1, "number of teams (default from config)")
	cmd.Flags().IntVarP(&categories, "categories", "c", -1, "number of categories (default from config)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func newAddTeamCommand(rt *commandRuntime) *cobra.Command {
	return &cobra.Command{
		Use:   "add-team FILE NAME",
		Short: "Append a team with zero scores",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.edit(cmd, args[0], func(sess *service.Session) error {
				if err := sess.AddTeam(cmd.Context(), args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added team %q\n", args[1])
				return nil
			})
		},
	}
}

func newAddCategoryCommand(rt *commandRuntime) *cobra.Command {
	var scores []string
	cmd := &cobra.Command{
		Use:   "add-category FILE NAME",
		Short: "Append a category",
		Long: `Append a category. Scores are given in team order; without --scores
every team gets zero.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.edit(cmd, args[0], func(sess *service.Session) error {
				var values []string
				if cmd.Flags().Changed("scores") {
					values = make([]string, len(scores))
					for i, s := range scores {
						values[i] = strings.TrimSpace(s)
					}
				}
				if err := sess.AddCategory(cmd.Context(), args[1], values); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added category %q\n", args[1])
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&scores, "scores", "s", nil, "comma-separated scores in team order")
	return cmd
}

func newSetCommand(rt *commandRuntime) *cobra.Command {
	return &cobra.Command{
		Use:   "set FILE TEAM CATEGORY VALUE",
		Short: "Set one score",
		Long: `Set the score of TEAM in CATEGORY. TEAM and CATEGORY are names or
1-based positions; VALUE is a decimal number.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			ctx := cmd.Context()
			sess := rt.session()
			if err := sess.Open(ctx, path); err != nil {
				return err
			}
			update, err := sess.SetScore(ctx, args[1], args[2], args[3])
			if err != nil {
				return err
			}
			if !update.Changed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s / %s is already %s\n", update.Team, update.Category, update.Value)
				return nil
			}
			if err := sess.Save(ctx, ""); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s / %s = %s (total %s)\n", update.Team, update.Category, update.Value, update.Total)
			return nil
		},
	}
}

// edit opens path, applies fn and saves the result in place.
func (rt *commandRuntime) edit(cmd *cobra.Command, path string, fn func(*service.Session) error) error {
	ctx := cmd.Context()
	sess := rt.session()
	if err := sess.Open(ctx, path); err != nil {
		return err
	}
	if err := fn(sess); err != nil {
		return err
	}
	return sess.Save(ctx, "")
}
