package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/ecoguardian/internal/model"
	"github.com/sakif/ecoguardian/internal/server"
	"github.com/sakif/ecoguardian/internal/service"
)

type userReport struct {
	UserID    string                `json:"userId"`
	Username  string                `json:"username"`
	Stats     model.StatsSnapshot   `json:"stats"`
	Analytics model.AnalyticsReport `json:"analytics"`
	Progress  model.GoalProgress    `json:"progress"`
}

func newReportCmd(a *app) *cobra.Command {
	var (
		userID   string
		username string
		goalID   string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a user's stats, analytics, insights and goal progress as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (userID == "") == (username == "") {
				return errors.New("exactly one of --user or --username is required")
			}

			store, err := server.OpenStore(a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			var user *model.User
			if userID != "" {
				user, err = store.GetUserByID(ctx, userID)
			} else {
				user, err = store.GetUserByUsername(ctx, username)
			}
			if err != nil {
				return fmt.Errorf("finding user: %w", err)
			}

			entries := service.NewEntryService(store, nil, a.logger)
			goals := service.NewGoalService(store, store, nil, a.logger)

			rep := userReport{UserID: user.ID, Username: user.Username}
			if rep.Stats, err = entries.Stats(ctx, user.ID); err != nil {
				return err
			}
			if rep.Analytics, err = entries.Analytics(ctx, user.ID); err != nil {
				return err
			}
			if rep.Progress, err = goals.Progress(ctx, user.ID, goalID); err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().StringVar(&username, "username", "", "Username (case-insensitive)")
	cmd.Flags().StringVar(&goalID, "goal", "", "Goal ID (default: the active goal)")
	return cmd
}
