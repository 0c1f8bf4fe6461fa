package main

import (
	"fmt"

	"github.com/jacksmith/rk/internal/cli"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check stored records",
	Long: `Re-validate every stored record.

Records edited by hand or written by other tools can hold values rk would
reject on input. This reports:
- Malformed IDs
- Missing required fields
- Invalid field values (bad enum values, dates, phone numbers, emails)
- Values that are not in normalized form
- Records updated before they were created

Due dates in the past are not reported. Exits non-zero if any issue is found.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := openSession(commandContext(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	issues := s.repo.Check()
	if len(issues) == 0 {
		fmt.Println(cli.Green("No issues found."))
		return nil
	}

	fmt.Printf("Found %d issue(s):\n\n", len(issues))
	for _, issue := range issues {
		fmt.Println(issue.String())
	}

	return fmt.Errorf("%d issue(s) found", len(issues))
}
