// Package main provides the hhkit CLI for editing Hardhat project
// configuration and recording contract deployments.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", colorRed("Error:"), err)
		os.Exit(1)
	}
}
