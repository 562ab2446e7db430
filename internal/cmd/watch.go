package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/harrison/pathfind/internal/logger"
	"github.com/harrison/pathfind/internal/matcher"
	"github.com/harrison/pathfind/internal/watch"
)

// runWatch keeps the process alive after the initial walk, printing paths
// that start to satisfy the criteria as the tree changes. Stops on
// interrupt.
func runWatch(cmd *cobra.Command, root string, criteria matcher.Criteria, excludes []string, diag *logger.Console) error {
	w, err := watch.New(root, criteria, excludes)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	out := cmd.OutOrStdout()
	for {
		select {
		case path := <-w.Matches():
			fmt.Fprintln(out, path)
		case err := <-w.Errors():
			diag.Warnf("watch: %v", err)
		case err := <-done:
			return err
		}
	}
}
