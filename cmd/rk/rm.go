package main

import (
	"fmt"

	"github.com/jacksmith/rk/internal/cli"
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a record",
	Long: `Delete a record permanently.

The ID can be abbreviated to any unique prefix. Take a backup first if you
may want it back.`,
	Args:              cobra.ExactArgs(1),
	RunE:              runRm,
	ValidArgsFunction: completeRecordIDs,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
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

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return &cli.NotFoundError{Type: s.kind(), ID: id}
	}

	fmt.Printf("Deleted %s %s\n", s.kind(), id)
	return nil
}
