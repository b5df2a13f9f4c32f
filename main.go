// Package main is the entry point for the contrack application
package main

import "github.com/ethpandaops/contrack/cmd"

func main() {
	cmd.Execute()
}
