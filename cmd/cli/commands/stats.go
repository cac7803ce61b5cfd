package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calderhart/instructor-rota/pkg/core/services"
)

// StatsCmd creates the stats command: a dry matching run that reports risk
// ordering and fill statistics without touching the database.
func StatsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Preview matching statistics for a date window",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")

			result, err := services.RunMatching(app.Ctx, app.Store, app.Cfg, app.Logger, from, to, services.MatchOptions{
				DryRun: true,
			})
			if err != nil {
				return fmt.Errorf("stats run failed: %w", err)
			}

			fmt.Printf("\nMatching preview %s..%s\n\n", from, to)
			if result.Outcome == nil {
				fmt.Printf("No results: %s\n", result.Reason)
				return nil
			}

			outcome := result.Outcome
			fmt.Printf("Bundles by risk (riskiest first):\n")
			for _, risk := range outcome.Risks {
				fmt.Printf("  %-20s minSlack %3d  overlap %3d  risk %3d\n",
					risk.BundleID, risk.MinSlack, risk.OverlapPenalty, risk.RiskScore)
			}
			fmt.Printf("\nWould assign %d, shortfall %d\n", outcome.Stats.TotalAssigned, outcome.Stats.TotalShortfall)
			for unitID, count := range outcome.Stats.PerUnit {
				fmt.Printf("  unit %s: %d\n", unitID, count)
			}
			return nil
		},
	}

	cmd.Flags().String("from", "", "Window start date (yyyy-mm-dd)")
	cmd.Flags().String("to", "", "Window end date (yyyy-mm-dd)")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("to")

	return cmd
}
