package main

import "github.com/cato541265/sockrpc/cmd"

func main() {
	cmd.Execute()
}
