// Command napihostctl is a smoke-test CLI for the napihost runtime: it boots
// a Context/Environment, registers one of the demo in-process "add-ons"
// from spec.md §8's end-to-end scenarios, drives it, and prints the
// result — an executable proof the abi.Table behaves the way a real
// dlopen'd add-on would observe it, without a native compiler anywhere in
// the loop. Grounded on aledsdavies-opal/cli/main.go's cobra root-command
// shape (persistent flags, one RunE per subcommand).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/rs/zerolog"

	"github.com/napi-go/napihost/config"
	"github.com/napi-go/napihost/logging"
)

func main() {
	var (
		scenario string
		debug    bool
	)

	rootCmd := &cobra.Command{
		Use:   "napihostctl",
		Short: "Drive napihost demo add-ons for smoke testing",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Boot an environment and run one demo scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := zerolog.InfoLevel
			if debug {
				level = zerolog.DebugLevel
			}
			log := logging.New(os.Stderr, level)
			cfg := config.Default()
			return runScenario(cmd.OutOrStdout(), cfg, log, scenario)
		},
	}
	runCmd.Flags().StringVarP(&scenario, "scenario", "s", "e1", "demo scenario to run: e1 (echo add-on), e2 (counter class)")
	runCmd.Flags().BoolVar(&debug, "debug", false, "enable debug-level logging")

	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
