package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	flags := &generateFlags{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "compdb",
		Short: "Generate compile_commands.json from bazel aquery output",
		Long: `compdb converts the JSON output of 'bazel aquery' into a compilation
database (compile_commands.json) for clang-tidy, clangd and similar tools.

Arguments known to break clang tooling are stripped from every command, and
the translation unit of each action is detected by its file suffix.

Examples:
  # Generate compile_commands.json in the current directory
  bazel aquery "mnemonic(CppCompile, //xla/...)" --output=jsonproto | compdb

  # Write somewhere else and record a different working directory
  compdb -i aquery.json -o build/compile_commands.json -d /src/xla

  # Regenerate whenever a new aquery dump is written
  compdb generate --watch -i aquery.json
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, flags)
		},
	}

	flags.register(cmd)
	cmd.AddCommand(newGenerateCmd(flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
