package main

import (
	"os"
	"strings"

	"github.com/jacksmith/rk/internal/cli"
	"github.com/jacksmith/rk/internal/model"
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for rk.

To load completions:

Bash:
  $ source <(rk completion bash)
  # To load completions for each session, execute once:
  # Linux:
  $ rk completion bash > /etc/bash_completion.d/rk
  # macOS:
  $ rk completion bash > $(brew --prefix)/etc/bash_completion.d/rk

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc
  # To load completions for each session, execute once:
  $ rk completion zsh > "${fpath[1]}/_rk"
  # You will need to start a new shell for this setup to take effect.

Fish:
  $ rk completion fish | source
  # To load completions for each session, execute once:
  $ rk completion fish > ~/.config/fish/completions/rk.fish
`,
}

var completionBashCmd = &cobra.Command{
	Use:   "bash",
	Short: "Generate bash completion script",
	Long:  "Generate the autocompletion script for bash.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rootCmd.GenBashCompletion(os.Stdout)
	},
}

var completionZshCmd = &cobra.Command{
	Use:   "zsh",
	Short: "Generate zsh completion script",
	Long:  "Generate the autocompletion script for zsh.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rootCmd.GenZshCompletion(os.Stdout)
	},
}

var completionFishCmd = &cobra.Command{
	Use:   "fish",
	Short: "Generate fish completion script",
	Long:  "Generate the autocompletion script for fish.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rootCmd.GenFishCompletion(os.Stdout, true)
	},
}

func init() {
	completionCmd.AddCommand(completionBashCmd)
	completionCmd.AddCommand(completionZshCmd)
	completionCmd.AddCommand(completionFishCmd)
	rootCmd.AddCommand(completionCmd)
}

// completeWords returns a completion function offering a fixed word list.
func completeWords(words []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var completions []string
		for _, w := range words {
			if strings.HasPrefix(w, strings.ToLower(toComplete)) {
				completions = append(completions, w)
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeRecordIDs completes the first argument with record IDs, described
// by the record's first field.
func completeRecordIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		if cmd.Name() == "edit" {
			return completeAssignments(cmd, args, toComplete)
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	s, err := openSession(commandContext(cmd))
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer s.Close()

	schema := s.repo.Schema()
	var completions []string
	toCompleteLower := strings.ToLower(toComplete)
	for _, id := range s.repo.IDs() {
		if !strings.HasPrefix(strings.ToLower(id), toCompleteLower) {
			continue
		}
		rec, _ := s.repo.Get(id)
		desc := ""
		if len(schema.Fields) > 0 {
			first, _, _ := strings.Cut(rec.Get(schema.Fields[0].Name), "\n")
			desc = cli.Truncate(first, 40)
		}
		completions = append(completions, id+"\t"+desc)
	}

	return completions, cobra.ShellCompDirectiveNoFileComp
}

// completeAssignments completes field=value arguments: field names first,
// then the allowed values of enum fields.
func completeAssignments(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	schema, err := model.LookupSchema(cfg.Kind)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var completions []string
	if name, value, ok := strings.Cut(toComplete, "="); ok {
		f, found := schema.Field(name)
		if !found || f.Kind != model.KindEnum {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		for _, choice := range f.Choices {
			if strings.HasPrefix(choice, strings.ToLower(value)) {
				completions = append(completions, name+"="+choice)
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}

	for _, f := range schema.Fields {
		if strings.HasPrefix(f.Name, strings.ToLower(toComplete)) {
			completions = append(completions, f.Name+"=")
		}
	}
	return completions, cobra.ShellCompDirectiveNoSpace | cobra.ShellCompDirectiveNoFileComp
}
