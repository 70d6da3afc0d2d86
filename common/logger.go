// Package common provides configuration and logging utilities shared by
// every sockrpc package
package common

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// severity tags kept short so connection ids and sequence ids line up in
// interleaved output
var severityTags = map[logger.LogLevel]string{
	logger.CRITICAL: "CRIT",
	logger.ERROR:    "ERR ",
	logger.WARNING:  "WARN",
	logger.INFO:     "INFO",
	logger.DEBUG:    "DBG ",
}

// sockLogger routes records below WARNING to stdout and the rest to stderr,
// so socket errors stay visible when stdout is piped away. The level is
// atomic: SetLevel races with the I/O goroutines that log.
type sockLogger struct {
	name  string
	level atomic.Int32
	out   *log.Logger
	err   *log.Logger
}

func (l *sockLogger) SetLevel(level logger.LogLevel) {
	l.level.Store(int32(level))
}

func (l *sockLogger) enabled(level logger.LogLevel) bool {
	return logger.LogLevel(l.level.Load()) >= level
}

func (l *sockLogger) Debugf(format string, args ...interface{}) {
	l.write(logger.DEBUG, format, args...)
}

func (l *sockLogger) Infof(format string, args ...interface{}) {
	l.write(logger.INFO, format, args...)
}

func (l *sockLogger) Warningf(format string, args ...interface{}) {
	l.write(logger.WARNING, format, args...)
}

func (l *sockLogger) Errorf(format string, args ...interface{}) {
	l.write(logger.ERROR, format, args...)
}

func (l *sockLogger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.err.Printf("CRIT %s: %s", l.name, msg)
	panic(msg)
}

func (l *sockLogger) write(level logger.LogLevel, format string, args ...interface{}) {
	if !l.enabled(level) {
		return
	}

	sink := l.out
	if level <= logger.WARNING {
		sink = l.err
	}
	sink.Printf("%s %s: %s", severityTags[level], l.name, fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// CreateLogger implements the dragonboat logger Factory interface
func CreateLogger(pkgName string) logger.ILogger {
	l := &sockLogger{
		name: pkgName,
		out:  log.New(os.Stdout, "", log.Ldate|log.Ltime|log.Lmicroseconds),
		err:  log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	l.level.Store(int32(logger.INFO))
	return l
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// parseLogLevel converts a string level to logger.LogLevel. Unknown levels
// fall back to INFO instead of failing, a misspelled env var should not
// take the client down.
func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logger.DEBUG
	case "", "info":
		return logger.INFO
	case "warning", "warn":
		return logger.WARNING
	case "error":
		return logger.ERROR
	case "critical", "crit":
		return logger.CRITICAL
	default:
		log.Printf("unknown log level %q, using info", level)
		return logger.INFO
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// loggerNames lists the sockrpc logger names whose level InitLoggers sets.
// "sockrpc/protocol" is included although the protocol package does not log.
var loggerNames = []string{
	"sockrpc/client",
	"sockrpc/endpoint",
	"sockrpc/pool",
	"sockrpc/transport",
	"sockrpc/protocol",
}

// InitLoggers installs the custom logger factory and configures the level
// of every sockrpc logger
func InitLoggers(level string) {
	logger.SetLoggerFactory(CreateLogger)

	parsed := parseLogLevel(level)
	for _, name := range loggerNames {
		logger.GetLogger(name).SetLevel(parsed)
	}
}
