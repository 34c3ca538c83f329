package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "api",
		Short:         "SME financial analysis API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// path config.yaml
	defaultPath := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "path to config.yaml")

	root.AddCommand(
		newServeCmd(&configPath),
		newMigrateCmd(&configPath),
		newConfigCmd(&configPath),
	)
	return root
}
