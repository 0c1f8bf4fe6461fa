package main

import (
	"fmt"
	"time"

	"github.com/jacksmith/rk/internal/model"
	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find [field=value...]",
	Short: "Search records",
	Long: `Find records matching every given field=value predicate.

Fields with a fixed set of values (status, priority) match exactly; every
other field matches if it contains the value. Matching ignores case.
Without arguments every record is listed.

Examples:
  rk find status=pending
  rk find title=milk priority=high
  rk find --kind=contact email=example.com`,
	RunE:              runFind,
	ValidArgsFunction: completeAssignments,
}

func init() {
	rootCmd.AddCommand(findCmd)
}

func runFind(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	schema := s.repo.Schema()
	var records []model.Record
	if len(args) == 0 {
		records, err = s.repo.List(ctx)
	} else {
		var fields map[string]string
		fields, err = parseAssignments(schema, args, false)
		if err != nil {
			return err
		}
		filter := model.Filter(fields)
		if err := filter.Validate(schema); err != nil {
			return err
		}
		records, err = s.repo.Search(ctx, filter)
	}
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Printf("No matching %ss.\n", s.kind())
		return nil
	}

	printRecords(schema, records, time.Now())
	return nil
}
