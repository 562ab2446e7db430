// Package cmd wires the pathfind command line to the matcher and walker.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrison/pathfind/internal/config"
	"github.com/harrison/pathfind/internal/logger"
	"github.com/harrison/pathfind/internal/matcher"
	"github.com/harrison/pathfind/internal/walker"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for pathfind
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pathfind [dir]",
		Short: "Find filesystem entries matching a set of predicates",
		Long: `Pathfind recursively enumerates filesystem entries under a directory
and reports those matching every given predicate (AND semantics).

Predicates may be repeated; each occurrence adds an independent
restriction. Size predicates use binary units (K/M/G = powers of 1024)
with an optional sign: +10M means strictly larger than 10 MiB, -512K
strictly smaller than 512 KiB, 4096 exactly 4096 bytes. Leading-dash
values need the equals form: --size=-512K.

Configuration is loaded from .pathfind.yaml if present.
CLI flags override configuration file settings.

Examples:
  pathfind . --name '*.log'
  pathfind /var --type f --size +10M
  pathfind src --iname '*.MD' --depth 2
  pathfind . --regex '^\d+-' --exclude node_modules --exclude .git
  pathfind . --type f --watch`,
		Version:      Version,
		Args:         cobra.MaximumNArgs(1),
		RunE:         runFind,
		SilenceUsage: true,
	}

	cmd.Flags().StringArray("name", nil, "Case-sensitive name glob (repeatable)")
	cmd.Flags().StringArray("iname", nil, "Case-insensitive name glob (repeatable)")
	cmd.Flags().StringArray("regex", nil, "Regular expression tested against entry names (repeatable)")
	cmd.Flags().StringArray("size", nil, "Size predicate such as +10M, -512K or 4096 (repeatable)")
	cmd.Flags().StringArray("type", nil, "Entry type: f (file), d (directory) or s (symlink) (repeatable)")
	cmd.Flags().Int("depth", -1, "Maximum traversal depth, root is 0 (default unbounded)")
	cmd.Flags().StringArray("exclude", nil, "Prune directories whose name matches this glob (repeatable)")
	cmd.Flags().Bool("watch", false, "Keep running and report new matches as the tree changes")
	cmd.Flags().Bool("quiet", false, "Suppress warnings for unreadable entries")
	cmd.Flags().String("config", "", "Path to config file (default .pathfind.yaml)")

	return cmd
}

// runFind implements the find logic
func runFind(cmd *cobra.Command, args []string) error {
	// The working-directory default is applied here, once; the walker
	// never reads ambient process state.
	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	criteria, excludes, err := buildCriteria(cmd, cfg)
	if err != nil {
		return err
	}

	quiet, _ := cmd.Flags().GetBool("quiet")
	quiet = quiet || cfg.Quiet

	diag := logger.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if cfg.NoColor {
		diag.DisableColor()
	}

	if _, err := os.Lstat(root); err != nil {
		return fmt.Errorf("%s: no such file or directory", root)
	}

	out := cmd.OutOrStdout()
	opts := walker.Options{
		Criteria: criteria,
		Exclude:  excludes,
		OnError: func(path string, err error) {
			if !quiet {
				diag.Warnf("%v", err)
			}
		},
	}
	for path := range walker.Walk(root, opts) {
		fmt.Fprintln(out, path)
	}

	watchFlag, _ := cmd.Flags().GetBool("watch")
	if !watchFlag {
		return nil
	}
	return runWatch(cmd, root, criteria, excludes, diag)
}

// loadConfig resolves the config path and loads it. An explicitly named
// file must exist; the default file is optional.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("failed to access config file: %w", err)
		}
		return config.LoadConfig(configPath)
	}
	return config.LoadConfig(config.DefaultFileName)
}

// buildCriteria turns predicate flags and config defaults into the walk
// inputs. Any malformed predicate fails here, before traversal starts.
func buildCriteria(cmd *cobra.Command, cfg *config.Config) (matcher.Criteria, []string, error) {
	var matchers []matcher.Matcher

	names, _ := cmd.Flags().GetStringArray("name")
	for _, pattern := range names {
		m, err := matcher.NewNameGlob(pattern, true)
		if err != nil {
			return matcher.Criteria{}, nil, err
		}
		matchers = append(matchers, m)
	}

	inames, _ := cmd.Flags().GetStringArray("iname")
	for _, pattern := range inames {
		m, err := matcher.NewNameGlob(pattern, false)
		if err != nil {
			return matcher.Criteria{}, nil, err
		}
		matchers = append(matchers, m)
	}

	regexes, _ := cmd.Flags().GetStringArray("regex")
	for _, expr := range regexes {
		m, err := matcher.NewRegex(expr)
		if err != nil {
			return matcher.Criteria{}, nil, err
		}
		matchers = append(matchers, m)
	}

	sizes, _ := cmd.Flags().GetStringArray("size")
	for _, token := range sizes {
		m, err := matcher.NewSize(token)
		if err != nil {
			return matcher.Criteria{}, nil, err
		}
		matchers = append(matchers, m)
	}

	types, _ := cmd.Flags().GetStringArray("type")
	for _, token := range types {
		m, err := matcher.NewType(token)
		if err != nil {
			return matcher.Criteria{}, nil, err
		}
		matchers = append(matchers, m)
	}

	maxDepth := cfg.MaxDepth
	if cmd.Flags().Changed("depth") {
		maxDepth, _ = cmd.Flags().GetInt("depth")
	}

	excludeFlags, _ := cmd.Flags().GetStringArray("exclude")
	excludes := append(append([]string{}, cfg.Exclude...), excludeFlags...)
	for _, pattern := range excludes {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return matcher.Criteria{}, nil, fmt.Errorf("%w: %q", matcher.ErrInvalidPattern, pattern)
		}
	}

	return matcher.NewCriteria(matchers, maxDepth), excludes, nil
}
