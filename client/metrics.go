package client

import (
	"github.com/VictoriaMetrics/metrics"
)

// --------------------------------------------------------------------------
// Client Metrics
// --------------------------------------------------------------------------

var (
	metricRequestsSent    = metrics.NewCounter(`sockrpc_requests_sent_total`)
	metricRequestsPending = metrics.NewCounter(`sockrpc_requests_pending_total`)
	metricSendRetries     = metrics.NewCounter(`sockrpc_send_retries_total`)
	metricSendFailures    = metrics.NewCounter(`sockrpc_send_failures_total`)
	metricResults         = metrics.NewCounter(`sockrpc_results_total`)
	metricReceiveTimeouts = metrics.NewCounter(`sockrpc_receive_timeouts_total`)
	metricPendingTimeouts = metrics.NewCounter(`sockrpc_pending_timeouts_total`)
	metricUnknownMessages = metrics.NewCounter(`sockrpc_unknown_messages_total`)
	metricParseErrors     = metrics.NewCounter(`sockrpc_parse_errors_total`)
	metricDisconnects     = metrics.NewCounter(`sockrpc_disconnects_total`)
)
