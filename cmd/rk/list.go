package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jacksmith/rk/internal/cli"
	"github.com/jacksmith/rk/internal/model"
	"github.com/jacksmith/rk/internal/ops"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List records",
	Long: `List every record of the configured kind.

Filter flags:
  --overdue   Show only records whose due date has passed
  --open      Hide done and cancelled records

  --by-due    Sort by due date, earliest first

Without --by-due, records are listed in storage order (newest first for
SQLite, insertion order otherwise).`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var (
	listOverdue bool
	listOpen    bool
	listByDue   bool
)

func init() {
	listCmd.Flags().BoolVar(&listOverdue, "overdue", false, "show only overdue records")
	listCmd.Flags().BoolVar(&listOpen, "open", false, "hide done and cancelled records")
	listCmd.Flags().BoolVar(&listByDue, "by-due", false, "sort by due date")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.repo.List(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	results := ops.Annotate(records, ops.ListOptions{Overdue: listOverdue, Open: listOpen}, now)
	if listByDue {
		ops.SortByDueDate(results)
	}

	if len(results) == 0 {
		fmt.Printf("No %ss found.\n", s.kind())
		return nil
	}

	printRecords(s.repo.Schema(), recordsOf(results), now)
	return nil
}

func recordsOf(results []ops.RecordResult) []model.Record {
	records := make([]model.Record, len(results))
	for i, r := range results {
		records[i] = r.Record
	}
	return records
}

// printRecords renders records as a table on stdout.
func printRecords(schema *model.Schema, records []model.Record, now time.Time) {
	cli.RecordTable(schema, records, now).Render(os.Stdout)
}
