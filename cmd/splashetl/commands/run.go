package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spyai-labs/etl-gcp-splash/internal/config"
	"github.com/spyai-labs/etl-gcp-splash/internal/pipeline"
	"github.com/spyai-labs/etl-gcp-splash/internal/syncwindow"
	"go.uber.org/fx"
)

var (
	runMode    *string
	runSources *string
	runID      *string
)

func init() {
	runMode = runCmd.Flags().String("mode", "", "Sync mode: incremental, incremental_window or historical_full. Defaults to SYNC_MODE.")
	runSources = runCmd.Flags().String("sources", "", "Comma separated sources to run. Defaults to SPLASH_ETL_SOURCES.")
	runID = runCmd.Flags().String("run-id", "", "Run id to record. Generated when empty.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--mode <sync mode>] [--sources event,group_contact]",
	Short: "Runs one extract, transform and load pass and exits.",
	RunE: func(cmd *cobra.Command, args []string) error {
		var p *pipeline.Pipeline
		app := fx.New(
			pipelineModules(),
			fx.Populate(&p),
		)

		startCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		if err := app.Start(startCtx); err != nil {
			return fmt.Errorf("start: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = app.Stop(stopCtx)
		}()

		res, err := p.Run(cmd.Context(), pipeline.Request{
			RunID:   *runID,
			Mode:    syncwindow.Mode(*runMode),
			Sources: config.ParseList(*runSources),
		})
		if err != nil {
			return fmt.Errorf("run %s: %w", res.Metadata.RunID, err)
		}
		return nil
	},
}
