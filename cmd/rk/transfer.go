package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/jacksmith/rk/internal/cli"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import records from a JSON file",
	Long: `Add the records of a JSON array, as written by 'rk export' or by the
JSON backend, to the configured store.

Entries whose id already exists, that lack required fields or that hold
invalid values are skipped and reported. Entries without an id get a new
one. All accepted entries are written in one save.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export [file.json]",
	Short: "Export records as JSON",
	Long: `Write every record as a JSON array, in the layout the JSON backend uses.
Without a file, or with "-", the array is written to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	ctx := commandContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.repo.Import(ctx, data)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d %s(s).\n", len(result.Added), s.kind())
	if len(result.Skipped) > 0 {
		fmt.Printf("Skipped %d:\n", len(result.Skipped))
		for _, reason := range result.Skipped {
			fmt.Printf("  %s\n", cli.Yellow(reason))
		}
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) == 0 || args[0] == "-" {
		_, err := s.repo.Export(ctx, os.Stdout)
		return err
	}

	var buf bytes.Buffer
	n, err := s.repo.Export(ctx, &buf)
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[0], err)
	}

	fmt.Printf("Exported %d %s(s) to %s\n", n, s.kind(), args[0])
	return nil
}
