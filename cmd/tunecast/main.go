// Package main is the production entry point for the TuneCast server.
//
// Build:
//
//	go build -o build/tunecast ./cmd/tunecast
//
// Run:
//
//	./build/tunecast serve --config tunecast.yaml
//	./build/tunecast seed -f seed.yaml
//	./build/tunecast import --playlist <id> ./music
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
