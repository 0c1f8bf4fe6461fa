package main

import (
	"fmt"

	"github.com/jacksmith/rk/internal/cli"
	"github.com/jacksmith/rk/internal/model"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <id> [field=value...]",
	Short: "Edit a record",
	Long: `Change fields of a record.

Give field=value pairs to set specific fields, or -i to edit every field in
$EDITOR. Fields not mentioned keep their values. An empty value clears an
optional field; a field with a default falls back to it.

Examples:
  rk edit 6f1c status=completed
  rk edit 6f1c title="New title" due_date=
  rk edit 6f1c -i`,
	Args:              cobra.MinimumNArgs(1),
	RunE:              runEdit,
	ValidArgsFunction: completeRecordIDs,
}

var editInteractive bool

func init() {
	editCmd.Flags().BoolVarP(&editInteractive, "interactive", "i", false, "edit in $EDITOR")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openSession(ctx)
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

	var changes map[string]string
	if editInteractive {
		if len(args) > 1 {
			return fmt.Errorf("-i cannot be combined with field=value arguments")
		}
		changes, err = editInteractively(s.repo.Schema(), rec)
	} else {
		if len(args) == 1 {
			return fmt.Errorf("nothing to change: give field=value arguments or -i")
		}
		changes, err = parseAssignments(s.repo.Schema(), args[1:], false)
	}
	if err != nil {
		return err
	}

	if len(changes) == 0 {
		fmt.Println("No changes.")
		return nil
	}

	if _, ok, err := s.repo.Update(ctx, id, changes); err != nil {
		return err
	} else if !ok {
		return &cli.NotFoundError{Type: s.kind(), ID: id}
	}

	fmt.Printf("%s updated.\n", model.ShortID(id))
	return nil
}

// editInteractively opens the record in $EDITOR and returns the fields the
// user changed.
func editInteractively(schema *model.Schema, rec model.Record) (map[string]string, error) {
	content, err := cli.RecordDocument(schema, rec)
	if err != nil {
		return nil, err
	}

	edited, err := cli.EditInEditor(content, ".yaml")
	if err != nil {
		return nil, err
	}

	fields, err := cli.ParseRecordDocument(schema, edited)
	if err != nil {
		return nil, err
	}
	return changedFields(rec.Fields, fields), nil
}
