// Package main is the entry point for the rk CLI.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jacksmith/rk/internal/cli"
	"github.com/jacksmith/rk/internal/model"
	"github.com/jacksmith/rk/internal/storage"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "rk",
	Short: "rk - a record keeper with pluggable storage",
	Long: `rk keeps small sets of records (tasks, todos or contacts) in a file or
embedded database of your choice: CSV, JSON, YAML, SQLite or Badger.

Every change is written through immediately and file backends are replaced
atomically. Backups are timestamped copies next to the data file; only the
newest few are kept.

Settings come from .rkconfig.yaml in the current directory and can be
overridden with --kind, --backend and --file.`,
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	// Show help when no subcommand is provided
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Global flags. Empty values fall back to the config file.
var (
	flagConfig  string
	flagKind    string
	flagBackend string
	flagFile    string
)

func init() {
	// Completion is provided by our own command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Set version template
	rootCmd.SetVersionTemplate("rk version {{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfig, "config", storage.ConfigFile, "config file")
	flags.StringVarP(&flagKind, "kind", "k", "", "record kind ("+strings.Join(model.Kinds(), ", ")+")")
	flags.StringVarP(&flagBackend, "backend", "b", "", "storage backend ("+strings.Join(storage.Backends(), ", ")+")")
	flags.StringVarP(&flagFile, "file", "f", "", "data file or directory (default depends on kind and backend)")

	rootCmd.RegisterFlagCompletionFunc("kind", completeWords(model.Kinds()))
	rootCmd.RegisterFlagCompletionFunc("backend", completeWords(storage.Backends()))
}
