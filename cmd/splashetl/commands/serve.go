package commands

import (
	"github.com/spf13/cobra"
	"github.com/spyai-labs/etl-gcp-splash/internal/server"
	"go.uber.org/fx"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the run trigger and status API until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		fx.New(
			pipelineModules(),
			server.Module,
		).Run()
	},
}
