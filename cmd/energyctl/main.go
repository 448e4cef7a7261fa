package main

import (
	"fmt"
	"os"

	"energydash/internal/cli"
	"energydash/internal/log"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// keep stdout clean for list and export
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Component: "energyctl",
		Handler:   log.NewHandler(os.Stderr, cfg.LogFormat, log.ParseLevel(cfg.LogLevel)),
	})

	ctx, stop := cli.SignalContext(logger)
	app := newApp(cfg, logger)
	err = app.rootCommand().ExecuteContext(ctx)
	app.close()
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
