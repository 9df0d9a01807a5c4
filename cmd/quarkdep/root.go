// Command quarkdep builds a Quark source tree's import dependency
// graph and prints it as a tree, topological order, or JSON.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarklang/quarkdep/internal/cli"
)

var (
	quarkVersion string
	quarkPath    string
	stubRoot     string
	stubArchive  string
	trim         bool
)

var rootCmd = &cobra.Command{
	Use:          "quarkdep [root files...]",
	Short:        "Build and print the import dependency graph of a Quark source tree",
	Long:         "quarkdep resolves the import statements in one or more Quark source\nfiles, BFS-walks their transitive dependencies, collapses any cycles\ninto node sets, and prints the result as a tree, a topological order,\nor JSON.",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBuild,
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVarP(&quarkVersion, "quark-version", "V", "0.1", "Quark language version (M.N)")
	rootCmd.PersistentFlags().StringVarP(&quarkPath, "quarkpath", "p", "", "colon-separated module search path")
	rootCmd.PersistentFlags().StringVarP(&stubRoot, "stubroot", "T", "", "external native-stub root directory")
	rootCmd.PersistentFlags().StringVar(&stubArchive, "stub-archive", "", "tar or tar.gz archive of native stubs, layered after --stubroot")
	rootCmd.PersistentFlags().BoolVar(&trim, "trim", false, "prune System and Builtin subtrees from the graph")

	rootCmd.Flags().Bool("tree", false, "print the dependency tree instead of a topological listing")
	rootCmd.Flags().Bool("json", false, "print the deps list as JSON instead of text")
	rootCmd.Flags().String("config", "", "path to a .quarkdep.yml project file")
}

// Execute runs the root command, printing any error to stderr and
// exiting with an ExitError's code on failure (or 1 for any other
// error), the way agent-readyness's cmd.Execute unwraps its own typed
// exit error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
