package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calderhart/instructor-rota/pkg/core/model"
	"github.com/calderhart/instructor-rota/pkg/core/services"
)

// CancelCmd creates the cancel command
func CancelCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel an accepted assignment (admin)",
		Long:  "Withdraw an accepted assignment. Attribution 'candidate' applies reject semantics with a penalty; 'organization' cancels without one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			candidateID, _ := cmd.Flags().GetString("candidate")
			slotID, _ := cmd.Flags().GetString("slot")
			attribution, _ := cmd.Flags().GetString("attribution")
			actorID, _ := cmd.Flags().GetString("actor")

			app.Logger.Debug("cancel command",
				zap.String("candidate", candidateID),
				zap.String("slot", slotID),
				zap.String("attribution", attribution))

			svc := services.NewLifecycleService(app.Store, app.Cfg, app.Logger, nil)
			actor := services.Actor{ID: actorID, IsAdmin: true}
			err := svc.Cancel(app.Ctx, actor, candidateID, slotID, model.CancelAttribution(attribution))
			if err != nil {
				return fmt.Errorf("cancel failed: %w", err)
			}

			fmt.Printf("Assignment (%s, %s) canceled (%s).\n", candidateID, slotID, attribution)
			return nil
		},
	}

	cmd.Flags().String("candidate", "", "Candidate ID")
	cmd.Flags().String("slot", "", "Slot ID")
	cmd.Flags().String("attribution", string(model.AttributedToOrganization), "Attribution: candidate or organization")
	cmd.Flags().String("actor", "cli-admin", "Acting admin identifier")
	cmd.MarkFlagRequired("candidate")
	cmd.MarkFlagRequired("slot")

	return cmd
}
