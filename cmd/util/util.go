package util

import (
	"strings"

	"github.com/cato541265/sockrpc/common"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// helpWidth is the column the flag help text folds at
const helpWidth = 50

// WrapHelp folds help text to helpWidth columns, one word at a time
func WrapHelp(text string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(words[0])
	col := len(words[0])

	for _, word := range words[1:] {
		if col+1+len(word) > helpWidth {
			b.WriteByte('\n')
			col = 0
		} else {
			b.WriteByte(' ')
			col++
		}
		b.WriteString(word)
		col += len(word)
	}
	return b.String()
}

// SetupClientFlags adds the common client connection flags to a command
func SetupClientFlags(cmd *cobra.Command) {
	key := "endpoint"
	cmd.PersistentFlags().String(key, "localhost:8400", WrapHelp("The address of the remote endpoint"))

	key = "timeout-send"
	cmd.PersistentFlags().Int(key, common.DefaultSendTimeoutMs, WrapHelp("How long a request may wait for a connection before failing (in ms)"))

	key = "timeout-receive"
	cmd.PersistentFlags().Int(key, common.DefaultReceiveTimeoutMs, WrapHelp("How long a sent request may wait for its response (in ms)"))

	key = "socket-write-buffer"
	cmd.PersistentFlags().Int(key, common.DefaultSocketBufferSize, WrapHelp("The size of the kernel send buffer (in bytes)"))

	key = "socket-read-buffer"
	cmd.PersistentFlags().Int(key, common.DefaultSocketBufferSize, WrapHelp("The size of the kernel receive buffer (in bytes)"))

	key = "message-buffer"
	cmd.PersistentFlags().Int(key, common.DefaultMessageBufferSize, WrapHelp("The initial size of the per connection message buffer (in bytes)"))

	key = "tcp-nodelay"
	cmd.PersistentFlags().Bool(key, true, WrapHelp("Whether to enable TCP_NODELAY"))

	key = "tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapHelp("The keepalive interval (in seconds, 0 = disabled)"))

	key = "tcp-linger"
	cmd.PersistentFlags().Int(key, 0, WrapHelp("The linger time on close (in seconds)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "info", WrapHelp("Log level (debug, info, warn, error)"))
}

// InitClientConfig initializes configuration from environment variables and
// binds the command's flags
func InitClientConfig(cmd *cobra.Command) {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("sockrpc")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	_ = viper.BindPFlags(cmd.Flags())
}

// GetClientConfig reads the client configuration from viper
func GetClientConfig() common.ClientConfig {
	conf := common.DefaultClientConfig()

	conf.SendTimeoutMs = viper.GetInt("timeout-send")
	conf.ReceiveTimeoutMs = viper.GetInt("timeout-receive")
	conf.MessageBufferSize = viper.GetInt("message-buffer")
	conf.Socket.WriteBufferSize = viper.GetInt("socket-write-buffer")
	conf.Socket.ReadBufferSize = viper.GetInt("socket-read-buffer")
	conf.TCP.TCPNoDelay = viper.GetBool("tcp-nodelay")
	conf.TCP.TCPKeepAliveSec = viper.GetInt("tcp-keepalive")
	conf.TCP.TCPLingerSec = viper.GetInt("tcp-linger")
	conf.LogLevel = viper.GetString("log-level")

	return conf
}

// GetEndpoint reads the endpoint address from viper
func GetEndpoint() string {
	return viper.GetString("endpoint")
}
