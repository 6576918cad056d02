package main

import (
	"github.com/spf13/cobra"

	"github.com/sakif/ecoguardian/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd)
		},
	}
}

func (a *app) serve(cmd *cobra.Command) error {
	srv, err := server.New(cmd.Context(), a.cfg, a.logger)
	if err != nil {
		return err
	}
	return srv.Start()
}
