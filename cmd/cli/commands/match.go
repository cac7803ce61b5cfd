package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calderhart/instructor-rota/pkg/core/services"
)

// MatchCmd creates the match command
func MatchCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match instructors to training slots in a date window",
		Long:  "Run the matching engine over the query window. Without --dry-run, results are persisted as Pending assignments and priority credits are consumed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			force, _ := cmd.Flags().GetBool("force")
			debugScores, _ := cmd.Flags().GetBool("debug-scores")

			app.Logger.Debug("match command",
				zap.String("from", from),
				zap.String("to", to),
				zap.Bool("dry_run", dryRun))

			result, err := services.RunMatching(app.Ctx, app.Store, app.Cfg, app.Logger, from, to, services.MatchOptions{
				DryRun:      dryRun,
				Force:       force,
				DebugScores: debugScores,
			})
			if err != nil {
				return fmt.Errorf("matching failed: %w", err)
			}

			fmt.Printf("\nMatching results %s..%s\n\n", from, to)
			if result.Outcome == nil {
				fmt.Printf("No results: %s\n", result.Reason)
				return nil
			}

			outcome := result.Outcome
			fmt.Printf("Assigned:  %d\n", outcome.Stats.TotalAssigned)
			fmt.Printf("Shortfall: %d\n", outcome.Stats.TotalShortfall)
			for unitID, count := range outcome.Stats.PerUnit {
				fmt.Printf("  unit %s: %d\n", unitID, count)
			}
			fmt.Println()

			for _, r := range outcome.Results {
				role := ""
				if r.Role != "" {
					role = fmt.Sprintf(" [%s]", r.Role)
				}
				fmt.Printf("  %s  slot %s  %s%s  (%.1f)\n", r.Date, r.SlotID, r.CandidateID, role, r.Score)
			}

			if len(outcome.Imbalances) > 0 {
				fmt.Printf("\nTeam balance signals:\n")
				for _, im := range outcome.Imbalances {
					fmt.Printf("  week %s: team %s had no assignments\n", im.ISOWeek, im.TeamID)
				}
			}

			if debugScores {
				fmt.Printf("\nScore breakdowns (top candidates per slot):\n")
				for _, bd := range outcome.Breakdowns {
					fmt.Printf("  slot %s  %s  total %.1f\n", bd.SlotID, bd.CandidateID, bd.Total)
					for _, contrib := range bd.Contributions {
						fmt.Printf("    %-18s raw %.2f  weighted %.1f\n", contrib.Scorer, contrib.Raw, contrib.Weighted)
					}
				}
			}

			switch {
			case dryRun:
				fmt.Println("\nThis was a dry run. Use without --dry-run to persist assignments.")
			case result.Persisted > 0:
				fmt.Printf("\n%d assignments persisted.\n", result.Persisted)
			case outcome.Stats.TotalShortfall > 0:
				fmt.Println("\nNot persisted due to shortfall. Use --force to persist anyway.")
			}
			return nil
		},
	}

	cmd.Flags().String("from", "", "Window start date (yyyy-mm-dd)")
	cmd.Flags().String("to", "", "Window end date (yyyy-mm-dd)")
	cmd.Flags().Bool("dry-run", false, "Compute only, persist nothing")
	cmd.Flags().Bool("force", false, "Persist even with a shortfall")
	cmd.Flags().Bool("debug-scores", false, "Show per-slot score breakdowns")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}
