// Package main is the entry point for the TuneCast desktop monitor, which
// plays an endpoint the way its embed page does.
//
// Build:
//
//	go build -o build/tunecast-monitor ./cmd/tunecast-monitor
//
// Run:
//
//	./build/tunecast-monitor -server http://localhost:8080 -slug 123456789
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/tejashwikalptaru/tunecast/internal/app"
	"github.com/tejashwikalptaru/tunecast/internal/logger"
)

func main() {
	config := app.DefaultMonitorConfig()

	flag.StringVar(&config.ServerURL, "server", "", "server URL (default: the saved one)")
	flag.StringVar(&config.Slug, "slug", "", "endpoint slug to open (default: the saved one)")
	level := flag.String("log-level", "", "log level: debug, info, warn or error")
	version := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *version {
		fmt.Println(app.GetVersionInfo().FullString())
		return
	}
	if *level != "" {
		parsed, ok := logger.ParseLevel(*level)
		if !ok {
			log.Fatalf("unknown log level %q", *level)
		}
		config.LogLevel = parsed
	}

	monitor, err := app.NewMonitor(config)
	if err != nil {
		log.Fatalf("Failed to create monitor: %v", err)
	}
	defer monitor.Shutdown()

	// Blocks until the window is closed
	monitor.Run()
}
