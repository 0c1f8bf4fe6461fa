package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jacksmith/rk/internal/cli"
	"github.com/jacksmith/rk/internal/storage"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a timestamped backup",
	Long: `Write a copy of the records next to the data file, named
<file>.backup_YYYYMMDD_HHMMSS. Only the newest max_backups copies are kept
(see .rkconfig.yaml); older ones are deleted.`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "List backups, newest first",
	Args:  cobra.NoArgs,
	RunE:  runBackups,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(backupsCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	path, err := s.repo.Backup(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Backup written to %s\n", path)
	return nil
}

func runBackups(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path, err := cfg.StorePath()
	if err != nil {
		return err
	}

	backups, err := storage.ListBackups(path)
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		fmt.Printf("No backups of %s.\n", path)
		return nil
	}

	table := cli.NewTable()
	for _, b := range backups {
		size := "-"
		if info, err := os.Stat(b); err == nil && !info.IsDir() {
			size = fmt.Sprintf("%d bytes", info.Size())
		}
		table.AddRow(filepath.Base(b), cli.Gray(size))
	}
	table.Render(os.Stdout)
	return nil
}
