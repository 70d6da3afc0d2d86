// Package cmd contains the sockrpc command line interface: a ping command
// for connectivity checks, a bench command for load measurements and the
// usual version plumbing. Configuration flows through cobra flags, viper
// environment bindings (SOCKRPC_ prefix) and optional .env files.
package cmd
