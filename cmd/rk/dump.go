package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jacksmith/rk/internal/model"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print all records as YAML",
	Long: `Print every record as a YAML document for reading or sharing.

This is the layout the YAML backend stores. Use 'rk export' for JSON.`,
	Args: cobra.NoArgs,
	RunE: runDump,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	return dumpRecords(ctx, s)
}

func dumpRecords(ctx context.Context, s *session) error {
	records, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Printf("# no %ss\n", s.kind())
		return nil
	}

	data, err := model.MarshalRecordsYAML(s.repo.Schema(), records)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
