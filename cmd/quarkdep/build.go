package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quarklang/quarkdep/config"
	"github.com/quarklang/quarkdep/depgraph"
	"github.com/quarklang/quarkdep/env"
	"github.com/quarklang/quarkdep/fsys"
	"github.com/quarklang/quarkdep/internal/cli"
	"github.com/quarklang/quarkdep/output"
)

func runBuild(cmd *cobra.Command, args []string) error {
	environment, err := buildEnvironment()
	if err != nil {
		return err
	}

	ig, err := depgraph.NewImportGraph(environment, args, trim)
	if err != nil {
		return fmt.Errorf("quarkdep: build graph: %w", err)
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	treeOut, _ := cmd.Flags().GetBool("tree")
	reporter := output.NewReporter(cmd.OutOrStdout())

	if configPath, _ := cmd.Flags().GetString("config"); configPath != "" {
		cfg, cfgErr := loadConfig(configPath)
		if cfgErr != nil {
			return cfgErr
		}
		reporter.ReportProjectsOnly(cfg.IsProject)
	}

	switch {
	case jsonOut:
		if err := output.RenderJSON(cmd.OutOrStdout(), ig.DependencyGraph); err != nil {
			return fmt.Errorf("quarkdep: render json: %w", err)
		}
	case treeOut:
		if err := reporter.RenderTree(ig.DependencyGraph); err != nil {
			return fmt.Errorf("quarkdep: render tree: %w", err)
		}
	default:
		if err := reporter.RenderTopoSort(ig.DependencyGraph); err != nil {
			return fmt.Errorf("quarkdep: render topological order: %w", err)
		}
	}

	summary, err := output.Summary(ig.DependencyGraph)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), summary)
	return nil
}

// buildEnvironment assembles the search path and version an
// ImportGraph resolves against, from the --quarkpath, --stubroot,
// --stub-archive, and --quark-version flags. A .quarkdep.yml file named
// by --config is not consulted here.
func buildEnvironment() (*env.Environment, error) {
	version, err := env.ParseLangVersion(quarkVersion)
	if err != nil {
		return nil, cli.NewExitError(1, "quarkdep: invalid --quark-version %q: %s", quarkVersion, err)
	}

	var searchPath []fsys.FileSystem
	if quarkPath != "" {
		for _, dir := range strings.Split(quarkPath, ":") {
			if dir == "" {
				continue
			}
			if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
				return nil, cli.NewExitError(1, "quarkdep: --quarkpath entry %q is not a directory", dir)
			}
			searchPath = append(searchPath, fsys.NewOSFileSystem(dir))
		}
	}
	if len(searchPath) == 0 {
		searchPath = append(searchPath, fsys.NewOSFileSystem("."))
	}

	if stubRoot != "" {
		info, statErr := os.Stat(stubRoot)
		if statErr != nil || !info.IsDir() {
			return nil, cli.NewExitError(1, "quarkdep: --stubroot %q is missing or not a directory", stubRoot)
		}
		searchPath = append(searchPath, fsys.NewOSFileSystem(stubRoot))
	}

	if stubArchive != "" {
		archiveFS, archErr := fsys.NewArchiveFileSystemFromTar(stubArchive, "")
		if archErr != nil {
			return nil, cli.NewExitError(1, "quarkdep: --stub-archive %q: %s", stubArchive, archErr)
		}
		searchPath = append(searchPath, archiveFS)
	}

	return env.New(searchPath, version), nil
}

// loadConfig loads a .quarkdep.yml and returns it so runBuild
// can pass its Projects prefix list (via IsProject) to the reporter's
// ReportProjectsOnly filter — reachable from a --config flag, never
// consulted by the core itself.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("quarkdep: load config: %w", err)
	}
	return cfg, nil
}
