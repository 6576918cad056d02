package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sakif/ecoguardian/internal/config"
)

// app carries what every subcommand needs once the root has loaded it.
type app struct {
	envFile string
	cfg     config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "server",
		Short:         "EcoGuardian carbon footprint tracker",
		Long:          "EcoGuardian records carbon emission entries per user and serves stats, trend analytics and goal progress over HTTP.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "Path to a .env file (default .env, ignored when missing)")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newReportCmd(a),
	)
	return root
}

// load reads the configuration and builds the logger. Logs go to stderr so
// commands that print JSON keep stdout clean.
func (a *app) load(cmd *cobra.Command) error {
	var files []string
	if a.envFile != "" {
		files = append(files, a.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(a.logger)
	return nil
}
