package cmd

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/tender-acquirer/internal/api"
	"github.com/JakeFAU/tender-acquirer/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serves the search API over HTTP",
		Long: `Starts the HTTP API. The listen port comes from server.port, or from PORT
when that is set.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			logger := appInstance.Logger()
			srv := api.NewServer(appInstance.Searcher(), logger.Named("api"))
			cfg := server.Config{Port: servePort(appInstance.Config().Server.Port)}
			return server.Run(cmd.Context(), cfg, srv.Handler(), logger.Named("server"))
		},
	}
}

func servePort(configured int) int {
	if p, err := strconv.Atoi(os.Getenv("PORT")); err == nil && p > 0 {
		return p
	}
	return configured
}
