package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/calderhart/instructor-rota/cmd/cli/commands"
	"github.com/calderhart/instructor-rota/internal/config"
	"github.com/calderhart/instructor-rota/pkg/postgres"
	"github.com/calderhart/instructor-rota/pkg/utils/logging"
)

var (
	env string
	app *commands.AppContext
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "instructor-rota",
		Short: "Instructor rota CLI - match instructors to training sessions",
		Long:  `A CLI tool for matching instructors to multi-day training sessions, handling responses, and managing assignment lifecycles.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				if app.Logger != nil {
					app.Logger.Sync()
				}
				if app.Store != nil {
					app.Store.Close()
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.MatchCmd(appRef()))
	rootCmd.AddCommand(commands.RespondCmd(appRef()))
	rootCmd.AddCommand(commands.CancelCmd(appRef()))
	rootCmd.AddCommand(commands.StatsCmd(appRef()))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// appRef returns the shared AppContext, allocated up front so commands can
// hold a stable pointer before initApp fills it in.
func appRef() *commands.AppContext {
	if app == nil {
		app = &commands.AppContext{Ctx: context.Background()}
	}
	return app
}

// initApp sets up logger, config, and the database pool
func initApp() error {
	a := appRef()
	var err error

	a.Logger, err = logging.InitLogger(env)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.Logger.Info("Starting application", zap.String("environment", env))

	a.Cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.Logger.Debug("Configuration loaded successfully")

	a.Store, err = postgres.NewDB(a.Ctx, a.Cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	a.Store.WithLookback(a.Cfg.AssignmentLookbackMonths, a.Cfg.RejectionLookbackMonths)

	if err := a.Store.RunMigrations(a.Ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	a.Logger.Info("Database initialized successfully")

	return nil
}
