package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/jsphweid/harptab/constants"
	"github.com/jsphweid/harptab/db"
	"github.com/jsphweid/harptab/model"
	"github.com/jsphweid/harptab/notemap"
	"github.com/jsphweid/harptab/pipeline"
	"github.com/jsphweid/harptab/progress"
	"github.com/jsphweid/harptab/tab"
	"github.com/jsphweid/harptab/transposer"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	debug      bool
	configPath string
)

// flagKeys ties command line flags to configuration keys. Several commands
// share a flag name, so binding happens for the command actually run.
var flagKeys = map[string]string{
	"maps-dir":     constants.KeyMapsDir,
	"maps-table":   constants.KeyMapsTable,
	"type":         constants.KeyHarmonicaType,
	"key":          constants.KeyHarmonicaKey,
	"min-shift":    constants.KeySearchMinShift,
	"max-shift":    constants.KeySearchMaxShift,
	"min-coverage": constants.KeySearchCoverage,
	"order":        constants.KeySearchOrder,
	"addr":         constants.KeyServeAddr,
	"debounce":     constants.KeyProgressDebounce,
}

var rootCmd = &cobra.Command{
	Use:   "harptab",
	Short: "Harmonica tablature from sheet music",
	Long: `harptab turns the melody of a score (MusicXML, MIDI or JSON) into
harmonica tablature, transposing it when the harmonica cannot play it as written.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		if err := constants.LoadConfig(configPath); err != nil {
			return fmt.Errorf("could not read config: %w", err)
		}
		return bindFlags(cmd.Flags())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log at debug level")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./harptab.yaml or $HOME/.harptab/harptab.yaml)")
	rootCmd.PersistentFlags().String("maps-dir", "", "directory of <type>_<key>.yaml harmonica tables")
	rootCmd.PersistentFlags().String("maps-table", "", "DynamoDB table holding harmonica tables")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	cobra.CheckErr(err)
}

func bindFlags(flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// addSearchFlags registers the flags shared by every command that runs the
// conversion chain.
func addSearchFlags(cmd *cobra.Command) {
	cmd.Flags().String("type", "", "harmonica type (diatonic, chromatic)")
	cmd.Flags().String("key", "", "harmonica key")
	cmd.Flags().Int("min-shift", 0, "lowest transposition tried, in semitones")
	cmd.Flags().Int("max-shift", 0, "highest transposition tried, in semitones")
	cmd.Flags().Float64("min-coverage", 0, "share of notes that must be playable")
	cmd.Flags().String("order", "", "search order (magnitude, ascending)")
	cmd.Flags().String("max-technique", "", "hardest technique allowed (e.g. natural, bend-half, overblow)")
	cmd.Flags().Bool("drop-rests", false, "leave rests out of the tablature")
	cmd.Flags().String("style", "", "notation style (arrows, letters, symbols)")
}

// newSource picks the harmonica table store: a directory, a DynamoDB table,
// or the tables compiled into the binary.
func newSource() (notemap.Source, error) {
	if dir := constants.GetMapsDir(); dir != "" {
		slog.Debug("cmd: harmonica tables from directory", "dir", dir)
		return notemap.Cached(notemap.Dir(dir)), nil
	}
	if table := constants.GetMapsTable(); table != "" {
		client, err := db.NewClient(constants.GetMapsEndpoint(), constants.GetMapsRegion())
		if err != nil {
			return nil, err
		}
		slog.Debug("cmd: harmonica tables from DynamoDB", "table", table)
		return notemap.Cached(&db.DynamoSource{Client: client, Table: table}), nil
	}
	return notemap.Cached(notemap.Embedded()), nil
}

func newConverter(observer progress.Observer) (*pipeline.Converter, error) {
	src, err := newSource()
	if err != nil {
		return nil, err
	}
	return &pipeline.Converter{Maps: src, Observer: observer, Logger: slog.Default()}, nil
}

// pipelineOptions reads the configured defaults, already overridden by any
// bound flags, plus the per-run flags of cmd.
func pipelineOptions(cmd *cobra.Command) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	opts.HarmonicaType = constants.GetHarmonicaType()
	opts.HarmonicaKey = constants.GetHarmonicaKey()

	order, err := transposer.ParseOrder(constants.GetSearchOrder())
	if err != nil {
		return opts, err
	}
	opts.Search = transposer.Options{
		MinShift:    constants.GetMinShift(),
		MaxShift:    constants.GetMaxShift(),
		MinCoverage: constants.GetMinCoverage(),
		Order:       order,
	}
	if err := opts.Search.Validate(); err != nil {
		return opts, err
	}

	flags := cmd.Flags()
	if s, _ := flags.GetString("style"); s != "" {
		if opts.Style, err = tab.ParseStyle(s); err != nil {
			return opts, err
		}
	}
	if s, _ := flags.GetString("max-technique"); s != "" {
		t, err := model.ParseTechnique(s)
		if err != nil {
			return opts, err
		}
		opts.MaxTechnique = &t
	}
	opts.DropRests, _ = flags.GetBool("drop-rests")
	return opts, nil
}
