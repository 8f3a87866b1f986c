package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/jsphweid/harptab/constants"
	"github.com/jsphweid/harptab/file"
	"github.com/jsphweid/harptab/pipeline"
	"github.com/jsphweid/harptab/progress"
	"github.com/spf13/cobra"
)

func init() {
	addSearchFlags(batchCmd)
	batchCmd.Flags().String("out", "./out", "directory for the .json, .ly and .mid files")
	batchCmd.Flags().Bool("ly", false, "also write LilyPond source for each score")
	batchCmd.Flags().Bool("midi", false, "also write the transposed melody of each score as MIDI")
	batchCmd.Flags().Duration("debounce", 0, "minimum time between batch progress lines")
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch <dir> [max files]",
	Short: "Converts every score under a directory",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var maxNum int
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("max files: %w", err)
			}
			maxNum = n
		}

		opts, err := pipelineOptions(cmd)
		if err != nil {
			return err
		}
		outDir, _ := cmd.Flags().GetString("out")
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}

		paths, err := file.GatherScorePaths(args[0], maxNum)
		if err != nil {
			return err
		}
		fileNumMap := file.CreateFileNumMap(paths)

		logger := slog.Default()
		conv, err := newConverter(progress.Log(logger))
		if err != nil {
			return err
		}
		batch := progress.Reporter{
			Session:  pipeline.NewSessionID(),
			Observer: progress.Debounced(progress.Log(logger), constants.GetProgressDebounce()),
		}
		withLy, _ := cmd.Flags().GetBool("ly")
		withMidi, _ := cmd.Flags().GetBool("midi")

		batch.Start(progress.StageBatch)
		var failed int
		for _, num := range fileNumMap.Nums() {
			if err := cmd.Context().Err(); err != nil {
				return batch.Fail(progress.StageBatch, err)
			}

			path := fileNumMap[num]
			batch.Update(progress.StageBatch, fmt.Sprintf("%d/%d %s", num+1, len(fileNumMap), path))

			out := outputs{}
			if withLy {
				out.ly = file.OutputPath(num, path, outDir, ".ly")
			}
			if withMidi {
				out.midi = file.OutputPath(num, path, outDir, ".mid")
			}
			res, err := convertFile(cmd.Context(), conv, pipeline.NewSessionID(), path, opts, out)
			if err != nil {
				failed++
				logger.Warn("batch: score skipped", "file", num, "path", path, "error", err)
				continue
			}
			if err := writeResultFile(file.OutputPath(num, path, outDir, ".json"), res); err != nil {
				return batch.Fail(progress.StageBatch, err)
			}
		}

		if failed > 0 {
			return batch.Fail(progress.StageBatch, fmt.Errorf("%d of %d scores failed", failed, len(fileNumMap)))
		}
		batch.Done(progress.StageBatch, fmt.Sprintf("%d scores", len(fileNumMap)))
		return nil
	},
}

func writeResultFile(path string, res *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res.Response()); err != nil {
		return err
	}
	return f.Close()
}
