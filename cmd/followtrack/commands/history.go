package commands

import (
	"github.com/FranksOps/followtrack/internal/config"
	"github.com/FranksOps/followtrack/internal/report"
	"github.com/FranksOps/followtrack/internal/storage"
	"github.com/spf13/cobra"
)

var historyFormat string

func init() {
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "text", "output format: text, json, csv or html")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [handle...]",
	Short: "Summarize the persisted follower history.",
	Long: `history prints one summary per handle found in the configured history
backend: sample count, first and last sample, minimum, maximum, net change and
the change over the last 24 hours. Handles default to every tracked handle.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := openBackend(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		store := storage.NewStore(backend, log)
		defer store.Close()

		doc := store.Load(cmd.Context())
		handles := make([]string, 0, len(args))
		for _, a := range args {
			handles = append(handles, config.ParseHandles(a)...)
		}
		return report.Write(cmd.OutOrStdout(), historyFormat, report.GenerateSummaries(doc, handles...))
	},
}
