package cmd

import (
	"fmt"
	"os"

	"github.com/cato541265/sockrpc/cmd/bench"
	"github.com/cato541265/sockrpc/cmd/ping"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "sockrpc",
		Short: "asynchronous multiplexing RPC socket client",
		Long: fmt.Sprintf(`sockrpc (v%s)

A generic asynchronous RPC client that multiplexes in-flight requests
across a managed pool of long-lived socket connections, with automatic
reconnect, failover and typed timeouts.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of sockrpc",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sockrpc v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(ping.PingCmd)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
