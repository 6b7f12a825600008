package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/jobrecall/internal/indexer"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Load job records into the catalogue and vector store",
	Long: `Loads structured job records (JSON array, single object or JSON lines) into the SQLite
catalogue and embeds their titles, skills, job functions and responsibilities.

Examples:
  jobrecall index --file jobs.json
  jobrecall index --dir ./corpus`,
	RunE: runIndex,
}

var (
	indexFile string
	indexDir  string
)

func init() {
	indexCmd.Flags().StringVarP(&indexFile, "file", "f", "", "job records file")
	indexCmd.Flags().StringVarP(&indexDir, "dir", "d", "", "directory of job record files (.json, .jsonl)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if (indexFile == "") == (indexDir == "") {
		return errors.New("exactly one of --file or --dir is required")
	}
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	components, err := initializeComponents(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()
	if components.Indexer == nil {
		return fmt.Errorf("indexing needs the sqlite backend, got %q", cfg.Storage.Backend)
	}

	var n int
	if indexFile != "" {
		n, err = components.Indexer.IndexFile(cmd.Context(), indexFile)
	} else {
		n, err = components.Indexer.IndexDirectory(cmd.Context(), indexDir, indexer.DefaultExtensions)
	}
	// keep whatever was indexed before a failure
	if saveErr := components.SaveVectors(cfg.Vector.IndexPath); saveErr != nil {
		logger.Warn("vector index save failed", zap.String("path", cfg.Vector.IndexPath), zap.Error(saveErr))
	}
	if err != nil {
		return fmt.Errorf("indexed %d jobs before failing: %w", n, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d jobs\n", n)
	return nil
}
