package bench

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cato541265/sockrpc/client"
	"github.com/cato541265/sockrpc/cmd/util"
	"github.com/cato541265/sockrpc/common"
	"github.com/cato541265/sockrpc/protocol"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// BenchCmd fires a batch of echo requests against the configured endpoint
// and reports latency percentiles and throughput
var BenchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark an endpoint with echo requests",
	Long: util.WrapHelp(
		`Fires a configurable number of concurrent echo requests using the
binary protocol and reports a latency histogram and the achieved
throughput.`),
	PreRun: func(cmd *cobra.Command, args []string) {
		util.InitClientConfig(cmd)
	},
	Run: func(cmd *cobra.Command, args []string) {
		config := util.GetClientConfig()
		common.InitLoggers(config.LogLevel)

		requests := viper.GetInt("requests")
		concurrency := viper.GetInt("concurrency")
		payloadSize := viper.GetInt("payload-size")

		c := client.New(config, protocol.NewBinaryProtocol())
		defer c.Close()

		if !c.TryRegisterEndpoint("primary", util.GetEndpoint(), nil) {
			fmt.Println("failed to register endpoint")
			os.Exit(1)
		}

		timer := gometrics.NewTimer()
		body := make([]byte, payloadSize)

		var (
			wg       sync.WaitGroup
			failures int64
			failMu   sync.Mutex
			sem      = make(chan struct{}, concurrency)
		)

		benchStart := time.Now()
		for i := 0; i < requests; i++ {
			sem <- struct{}{}
			wg.Add(1)

			start := time.Now()
			req := c.NewRequest("echo", nil, config.ReceiveTimeoutMs,
				func(err error) {
					failMu.Lock()
					failures++
					failMu.Unlock()
					<-sem
					wg.Done()
				},
				func(msg protocol.IMessage) {
					timer.UpdateSince(start)
					<-sem
					wg.Done()
				},
			)
			req.SetPayload(protocol.MarshalBinaryFrame(req.SeqID(), body))
			c.Send(req)
		}
		wg.Wait()
		elapsed := time.Since(benchStart)

		snapshot := timer.Snapshot()
		fmt.Printf("requests  : %d (%d failed)\n", requests, failures)
		fmt.Printf("elapsed   : %v\n", elapsed)
		fmt.Printf("throughput: %.0f req/s\n", float64(requests)/elapsed.Seconds())
		fmt.Printf("latency   : min %v / mean %v / p95 %v / max %v\n",
			time.Duration(snapshot.Min()),
			time.Duration(int64(snapshot.Mean())),
			time.Duration(int64(snapshot.Percentile(0.95))),
			time.Duration(snapshot.Max()),
		)
	},
}

func init() {
	util.SetupClientFlags(BenchCmd)

	BenchCmd.PersistentFlags().Int("requests", 10000, util.WrapHelp("Total number of requests to send"))
	BenchCmd.PersistentFlags().Int("concurrency", 64, util.WrapHelp("Maximum number of in-flight requests"))
	BenchCmd.PersistentFlags().Int("payload-size", 128, util.WrapHelp("Echo payload size in bytes"))
}
