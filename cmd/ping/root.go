package ping

import (
	"fmt"
	"os"
	"time"

	"github.com/cato541265/sockrpc/client"
	"github.com/cato541265/sockrpc/cmd/util"
	"github.com/cato541265/sockrpc/common"
	"github.com/cato541265/sockrpc/protocol"
	"github.com/spf13/cobra"
)

// PingCmd sends a single echo request to the configured endpoint and prints
// the round trip time
var PingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send a single echo request to an endpoint",
	Long: util.WrapHelp(
		`Connects to the configured endpoint, sends one echo request using the
binary protocol and prints the round trip time or the typed error.`),
	PreRun: func(cmd *cobra.Command, args []string) {
		util.InitClientConfig(cmd)
	},
	Run: func(cmd *cobra.Command, args []string) {
		config := util.GetClientConfig()
		common.InitLoggers(config.LogLevel)

		c := client.New(config, protocol.NewBinaryProtocol())
		defer c.Close()

		if !c.TryRegisterEndpoint("primary", util.GetEndpoint(), nil) {
			fmt.Println("failed to register endpoint")
			os.Exit(1)
		}

		done := make(chan error, 1)
		start := time.Now()

		req := c.NewRequest("ping", nil, config.ReceiveTimeoutMs,
			func(err error) {
				done <- err
			},
			func(msg protocol.IMessage) {
				done <- nil
			},
		)
		req.SetPayload(protocol.MarshalBinaryFrame(req.SeqID(), []byte("ping")))

		c.Send(req)

		if err := <-done; err != nil {
			fmt.Printf("ping failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("pong from %s in %v\n", util.GetEndpoint(), time.Since(start))
	},
}

func init() {
	util.SetupClientFlags(PingCmd)
}
