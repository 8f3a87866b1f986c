package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jsphweid/harptab/file"
	"github.com/jsphweid/harptab/lilypond"
	"github.com/jsphweid/harptab/midi"
	"github.com/jsphweid/harptab/pipeline"
	"github.com/jsphweid/harptab/progress"
	"github.com/spf13/cobra"
)

func init() {
	addSearchFlags(convertCmd)
	convertCmd.Flags().Int("shift", 0, "apply this transposition instead of searching for one")
	convertCmd.Flags().String("ly", "", "write LilyPond source to this path")
	convertCmd.Flags().String("midi", "", "write the transposed melody as a MIDI file to this path")
	convertCmd.Flags().Bool("json", false, "print the result as JSON")
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert <score>",
	Short: "Converts a score into harmonica tablature",
	Long: `Reads a MusicXML (.xml, .musicxml, .mxl), MIDI (.mid, .midi) or JSON score,
extracts its melody and prints tablature for the configured harmonica.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := pipelineOptions(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("shift") {
			shift, _ := cmd.Flags().GetInt("shift")
			opts.ForceShift = &shift
		}

		conv, err := newConverter(progress.Log(slog.Default()))
		if err != nil {
			return err
		}
		ly, _ := cmd.Flags().GetString("ly")
		mid, _ := cmd.Flags().GetString("midi")
		res, err := convertFile(cmd.Context(), conv, pipeline.NewSessionID(), args[0], opts, outputs{ly: ly, midi: mid})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res.Response())
		}
		fmt.Fprintln(out, renderResult(res))
		return nil
	},
}

// outputs names the files a conversion writes besides its printed result.
// Empty paths are skipped.
type outputs struct {
	ly   string
	midi string
}

// convertFile reads path and runs it through conv under session, then writes
// the requested outputs.
func convertFile(ctx context.Context, conv *pipeline.Converter, session, path string, opts pipeline.Options, out outputs) (*pipeline.Result, error) {
	r := progress.Reporter{Session: session, Observer: conv.Observer}

	r.Start(progress.StageOCR)
	score, err := file.ReadScore(path)
	if err != nil {
		return nil, r.Fail(progress.StageOCR, err)
	}
	r.Done(progress.StageOCR, path)

	res, err := conv.ConvertSession(ctx, session, score, opts)
	if err != nil {
		return nil, err
	}

	if out.ly != "" {
		r.Start(progress.StagePDF)
		if err := writeLilypond(out.ly, res); err != nil {
			return nil, r.Fail(progress.StagePDF, err)
		}
		r.Done(progress.StagePDF, out.ly)
	}
	if out.midi != "" {
		if err := midi.WriteMelodyFile(out.midi, res.Melody); err != nil {
			return nil, err
		}
		slog.Info("cmd: wrote MIDI file", "path", out.midi)
	}
	return res, nil
}

func writeLilypond(path string, res *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	opts := lilypond.Options{
		Subtitle: fmt.Sprintf("%s harmonica in %s", strings.ToUpper(res.NoteMap.Type()[:1])+res.NoteMap.Type()[1:], res.NoteMap.Key()),
		Style:    res.Options.Style,
	}
	if err := lilypond.Generate(f, res.Melody, res.Tablature, opts); err != nil {
		return err
	}
	return f.Close()
}
