// Copyright (c) 2025 Botship contributors
// Botship - Raspberry Pi robot fleet deployment
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for Botship.
//
// Usage:
//
//	go run . [flags]
//	./botship [flags]
//
// This launches the Botship CLI. See --help for options.
package main

import (
	"os"

	log "github.com/charmbracelet/log"

	"github.com/botship/botship/internal/cli"
)

// main is the entrypoint for the Botship CLI.
func main() {
	if err := cli.Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
