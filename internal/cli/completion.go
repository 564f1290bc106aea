package cli

import (
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pzmod/pkg/modlist"
	"github.com/matzehuels/pzmod/pkg/serverconfig"
)

// completionCommand creates the completion command.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for pzmod.

Besides subcommands and flags, the scripts complete values read from the
server config given with --file, without contacting the Steam Workshop:

  pzmod -f servertest.ini mods remove <TAB>     installed Workshop IDs
  pzmod -f servertest.ini mods add 123 --after <TAB>   enabled mod IDs
  pzmod -f servertest.ini get <TAB>             setting names

Bash:
  $ source <(pzmod completion bash)

Zsh:
  $ pzmod completion zsh > "${fpath[1]}/_pzmod"

Fish:
  $ pzmod completion fish > ~/.config/fish/completions/pzmod.fish

PowerShell:
  PS> pzmod completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		// Completion must not depend on a readable settings file.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(stdout, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeList completes the entries of a list setting in the --file
// config, skipping those already given as arguments.
func (c *CLI) completeList(key string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		f, err := os.Open(c.flags.file)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		defer f.Close()
		doc, err := serverconfig.Read(f)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		var out []string
		for _, v := range modlist.Get(doc, key) {
			if !slices.Contains(args, v) {
				out = append(out, v)
			}
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}
}
