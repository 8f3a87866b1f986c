package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jsphweid/harptab/constants"
	"github.com/jsphweid/harptab/db"
	"github.com/jsphweid/harptab/notemap"
	"github.com/jsphweid/harptab/util"
	"github.com/spf13/cobra"
)

func init() {
	mapsShowCmd.Flags().Bool("json", false, "print the hole diagram as JSON")
	mapsUploadCmd.Flags().String("from", "", "directory of tables to upload (default: the built-in tables)")

	mapsCmd.AddCommand(mapsListCmd, mapsShowCmd, mapsUploadCmd)
	rootCmd.AddCommand(mapsCmd)
}

var mapsCmd = &cobra.Command{
	Use:   "maps",
	Short: "Lists and inspects harmonica tables",
}

var mapsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the available harmonica tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := newSource()
		if err != nil {
			return err
		}
		l, ok := src.(notemap.Lister)
		if !ok {
			return errors.New("harmonica table source cannot list its tables")
		}
		ids, err := l.List()
		if err != nil {
			return err
		}

		groups := notemap.Group(ids)
		out := cmd.OutOrStdout()
		for _, harpType := range util.SortedKeys(groups) {
			fmt.Fprintln(out, labelStyle.Render(harpType+":"), strings.Join(groups[harpType], " "))
		}
		return nil
	},
}

var mapsShowCmd = &cobra.Command{
	Use:   "show <type> <key>",
	Short: "Prints the hole diagram of a harmonica",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := newSource()
		if err != nil {
			return err
		}
		nm, err := src.Load(args[0], args[1])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(nm.Diagram())
		}
		fmt.Fprintln(out, renderDiagram(nm))
		return nil
	},
}

var mapsUploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Copies harmonica tables into the DynamoDB table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table := constants.GetMapsTable()
		if table == "" {
			return errors.New("no DynamoDB table configured (--maps-table or HARPTAB_MAPS_TABLE)")
		}
		client, err := db.NewClient(constants.GetMapsEndpoint(), constants.GetMapsRegion())
		if err != nil {
			return err
		}
		dst := &db.DynamoSource{Client: client, Table: table, Logger: slog.Default()}

		src := notemap.Embedded()
		if from, _ := cmd.Flags().GetString("from"); from != "" {
			src = notemap.Dir(from)
		}
		return uploadTables(src, dst)
	},
}

// tableSink receives stored tables, as db.DynamoSource does.
type tableSink interface {
	Put(f notemap.File) error
}

func uploadTables(src notemap.Source, dst tableSink) error {
	l, lok := src.(notemap.Lister)
	f, fok := src.(notemap.Filer)
	if !lok || !fok {
		return errors.New("harmonica table source cannot hand out its tables")
	}
	ids, err := l.List()
	if err != nil {
		return err
	}
	for _, id := range ids {
		table, err := f.File(id.Type, id.Key)
		if err != nil {
			return err
		}
		if err := dst.Put(table); err != nil {
			return fmt.Errorf("uploading %s %s: %w", id.Type, id.Key, err)
		}
		slog.Info("maps: uploaded table", "type", id.Type, "key", id.Key)
	}
	return nil
}
