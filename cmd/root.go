package cmd

import (
	"fmt"
	"os"

	"github.com/smclab/gosmc/cmd/list"
	"github.com/smclab/gosmc/cmd/perf"
	"github.com/smclab/gosmc/cmd/read"
	"github.com/smclab/gosmc/cmd/serve"
	"github.com/smclab/gosmc/cmd/watch"
	"github.com/spf13/cobra"
)

const (
	Version = "0.4.2"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "gosmc",
		Short: "system management controller client",
		Long: fmt.Sprintf(`gosmc (v%s)

A user-space client for the system management controller, exposing
sensor keys (temperatures, fan speeds, power readings) through a
simulated device or a forwarding agent.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of gosmc",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gosmc v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(read.ReadCmd)
	RootCmd.AddCommand(list.ListCmd)
	RootCmd.AddCommand(watch.WatchCmd)
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
