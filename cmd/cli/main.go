package main

import (
	"fmt"
	"os"

	"convtest/internal/config"
	"convtest/internal/container"

	"github.com/spf13/cobra"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	c, err := container.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := newRootCmd(c).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(c *container.Container) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "convtest",
		Short:         "Simulate and analyze two-variant conversion experiments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newRunCmd(c),
		newEstimateCmd(c),
		newTestCmd(c),
		newAnalyzeCmd(c),
		newReplicateCmd(c),
		newServeCmd(c),
	)
	return rootCmd
}
