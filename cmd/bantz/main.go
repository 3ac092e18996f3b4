// Command bantz is the interactive CLI for the turn pipeline: a readline
// chat loop in front of the planner, the react controller and the finalizer.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var configPath string

func main() {
	root := &cobra.Command{
		Use:          "bantz",
		Short:        "Voice-assistant turn pipeline",
		Long:         "bantz routes user utterances to tools through a plan, act, observe, replan loop and writes fact-guarded replies.",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default ~/.bantz/config.yaml)")

	root.AddCommand(newChatCmd())
	root.AddCommand(newConfigCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
