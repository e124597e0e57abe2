package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/graphrx/medadvisor"
	"github.com/graphrx/medadvisor/pkg/config"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load discharge notes and drug-database records into the graph",
	Long: `Run the ingestion pipeline: load drug-database records, parse and
load discharge notes, then enrich note medications with clinical
fields from the drug database.

Either source can be skipped by passing an empty path.`,
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().String("notes-dir", "", "directory of discharge note .txt files")
	loadCmd.Flags().String("drugbank-file", "", "drug-database CSV file")
	loadCmd.Flags().Int("limit", 0, "maximum number of note files to process (0 = no limit)")

	viper.BindPFlag("data.notes_dir", loadCmd.Flags().Lookup("notes-dir"))
	viper.BindPFlag("data.drugbank_file", loadCmd.Flags().Lookup("drugbank-file"))
	viper.BindPFlag("data.note_limit", loadCmd.Flags().Lookup("limit"))
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client, err := medadvisor.New(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer client.Close(ctx)

	result, err := client.Loader.RunPipeline(ctx, cfg.Data.DrugbankFile, cfg.Data.NotesDir, cfg.Data.NoteLimit)
	if err != nil {
		return err
	}

	fmt.Printf("Loaded %d medications, %d notes, enriched %d medication nodes\n",
		result.Medications, result.Notes, result.Enriched)
	return nil
}
