package main

import (
	"fmt"
	"os"

	"github.com/harrison/pathfind/internal/cmd"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "pathfind: %v\n", err)
		os.Exit(1)
	}
}
