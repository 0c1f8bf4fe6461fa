package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [<value>] [field=value...]",
	Short: "Add a new record",
	Long: `Add a new record of the configured kind.

Fields are given as field=value pairs. A leading argument without "=" sets
the first field of the kind (title for tasks and todos, name for contacts).
Omitted optional fields take their defaults.

Examples:
  rk add "Buy milk"
  rk add title="Pay rent" priority=high due_date=2030-01-01
  rk add --kind=contact name="Ada" phone="+44 20 7946 0000" email=ada@example.com`,
	Args:              cobra.MinimumNArgs(1),
	RunE:              runAdd,
	ValidArgsFunction: completeAssignments,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	fields, err := parseAssignments(s.repo.Schema(), args, true)
	if err != nil {
		return err
	}

	rec, err := s.repo.Create(ctx, fields)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s %s\n", s.kind(), rec.ID)
	return nil
}
