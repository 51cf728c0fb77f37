package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd(version).Execute(); err != nil {
		os.Exit(70) // Exit code 70: internal software error
	}
}
