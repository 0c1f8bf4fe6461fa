package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jacksmith/rk/internal/cli"
	"github.com/jacksmith/rk/internal/model"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show record details",
	Long: `Show every field of a record.

The ID can be abbreviated to any unique prefix.`,
	Args:              cobra.ExactArgs(1),
	RunE:              runShow,
	ValidArgsFunction: completeRecordIDs,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := openSession(commandContext(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	id, err := s.resolveID(args[0])
	if err != nil {
		return err
	}
	rec, ok := s.repo.Get(id)
	if !ok {
		return &cli.NotFoundError{Type: s.kind(), ID: id}
	}

	showRecord(s.repo.Schema(), rec, time.Now())
	return nil
}

func showRecord(schema *model.Schema, rec model.Record, now time.Time) {
	// Print header
	fmt.Printf("%s %s\n", schema.Kind, cli.Bold(rec.ID))

	table := cli.NewTable()
	if cli.HasState(schema) {
		table.AddRow("State:", cli.FormatState(model.ComputeState(rec, now)))
	}

	var long []model.Field
	for _, f := range schema.Fields {
		v := rec.Get(f.Name)
		if strings.Contains(v, "\n") {
			long = append(long, f)
			continue
		}
		if f.Name == model.FieldPriority {
			v = cli.FormatPriority(v)
		}
		table.AddRow(fieldLabel(f.Name)+":", cli.Dash(v))
	}

	// Timestamps
	table.AddRow("Created:", rec.Created.Local().Format(time.RFC3339))
	table.AddRow("Updated:", rec.Updated.Local().Format(time.RFC3339))
	table.Render(os.Stdout)

	for _, f := range long {
		fmt.Println()
		fmt.Printf("%s:\n", fieldLabel(f.Name))
		for _, line := range strings.Split(rec.Get(f.Name), "\n") {
			fmt.Printf("  %s\n", line)
		}
	}
}
