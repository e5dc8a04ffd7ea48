package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	maxConcurrent := flag.Int("max-concurrent", 256, "maximum concurrent HTTP requests")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *maxConcurrent); err != nil {
		fmt.Fprintf(os.Stderr, "geo-location-service: %v\n", err)
		os.Exit(1)
	}
}
