package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calderhart/instructor-rota/pkg/core/services"
)

// RespondCmd creates the respond command
func RespondCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "respond",
		Short: "Record a candidate's accept or reject for a pending assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			candidateID, _ := cmd.Flags().GetString("candidate")
			slotID, _ := cmd.Flags().GetString("slot")
			accept, _ := cmd.Flags().GetBool("accept")
			reject, _ := cmd.Flags().GetBool("reject")

			if accept == reject {
				return fmt.Errorf("exactly one of --accept or --reject is required")
			}

			app.Logger.Debug("respond command",
				zap.String("candidate", candidateID),
				zap.String("slot", slotID),
				zap.Bool("accept", accept))

			svc := services.NewLifecycleService(app.Store, app.Cfg, app.Logger, nil)
			if err := svc.Respond(app.Ctx, candidateID, slotID, accept); err != nil {
				return fmt.Errorf("response failed: %w", err)
			}

			if accept {
				fmt.Printf("Assignment (%s, %s) accepted.\n", candidateID, slotID)
			} else {
				fmt.Printf("Assignment (%s, %s) rejected; penalty issued.\n", candidateID, slotID)
			}
			return nil
		},
	}

	cmd.Flags().String("candidate", "", "Candidate ID")
	cmd.Flags().String("slot", "", "Slot ID")
	cmd.Flags().Bool("accept", false, "Accept the assignment")
	cmd.Flags().Bool("reject", false, "Reject the assignment")
	cmd.MarkFlagRequired("candidate")
	cmd.MarkFlagRequired("slot")

	return cmd
}
