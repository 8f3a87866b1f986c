package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jsphweid/harptab/file"
	"github.com/jsphweid/harptab/progress"
	"github.com/spf13/cobra"
)

func init() {
	addSearchFlags(analyzeCmd)
	analyzeCmd.Flags().Bool("keys", false, "list harmonica keys that play the melody without transposing")
	analyzeCmd.Flags().Bool("json", false, "print the result as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <score>",
	Short: "Reports how well a score fits a harmonica",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := pipelineOptions(cmd)
		if err != nil {
			return err
		}
		score, err := file.ReadScore(args[0])
		if err != nil {
			return err
		}
		conv, err := newConverter(progress.Log(slog.Default()))
		if err != nil {
			return err
		}
		a, err := conv.Analyze(cmd.Context(), score, opts)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(a.Response())
		}
		fmt.Fprintln(out, renderAnalysis(a, opts.HarmonicaType+" "+opts.HarmonicaKey))
		if keys, _ := cmd.Flags().GetBool("keys"); keys {
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderKeys(a.Keys))
		}
		return nil
	},
}
