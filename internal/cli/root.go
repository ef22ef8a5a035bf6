// Package cli provides the command-line interface of the dalc developer tool.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/leapstack-labs/dalc/internal/cli/commands"
	"github.com/leapstack-labs/dalc/internal/config"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dalc",
		Short: "dalc - DAL query compiler",
		Long: `dalc compiles DAL queries against a type schema into SQL, converts them to
and from JCR documents, and prints the schema it compiles against.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfgFile, _ := cmd.Root().PersistentFlags().GetString("config")
			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = config.WithConfig(ctx, cfg)
			ctx = context.WithValue(ctx, config.LoggerKey(), logger)
			cmd.SetContext(ctx)

			if cfg.File != "" {
				logger.Debug("using config file", "path", cfg.File)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./dalc.yaml)")
	flags.StringP("schema", "s", "", "Path to the YAML type schema")
	flags.String("base-package", "", "Package tried for unqualified type names")
	flags.String("system-package", "", "Package of built-in types (default platform.basic)")
	flags.Int("max-depth", 0, "Maximum restriction nesting depth (default 32)")
	flags.StringP("output", "o", "", "Output format (sql|json|dal|table)")
	flags.BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.OutputFormats, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewCompileCommand())
	rootCmd.AddCommand(commands.NewDecodeCommand())
	rootCmd.AddCommand(commands.NewSchemaCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
