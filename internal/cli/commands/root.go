// Package commands implements the rest-catalog-server CLI.
package commands

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ManikGarg316/rest-catalog-server/internal/envconfig"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// environ snapshots the process environment; tests replace it
var environ = func() map[string]string {
	return envconfig.Environ(os.Environ())
}

// NewRootCommand creates the root command. Without a subcommand it serves.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rest-catalog-server",
		Short: "Serve table catalogs over the REST catalog protocol",
		Long: color.CyanString(`rest-catalog-server - multi-backend REST catalog

Each backend is configured from CATALOG_* environment variables
(CATALOG_A__B_C becomes the property a-b.c) and served under its own
path prefix, /catalog1 and /catalog2 by default.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, serveOptions{})
		},
	}

	rootCmd.PersistentFlags().String("config", "", "deployment file (overrides REST_CONFIG_FILE)")

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewResolveCommand())
	rootCmd.AddCommand(NewRoutesCommand())
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)

			titleColor.Fprint(out, "Version: ")
			fmt.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			fmt.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			fmt.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx as the commands' context
func ExecuteContext(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
