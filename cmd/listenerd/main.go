package main

import (
	"context"
	"flag"
	"fmt"
	"listenerd/internal/di"
	"listenerd/internal/structures"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to the YAML config file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "mirror logs to stdout")
	flag.BoolVar(&flags.Once, "once", false, "run a single collection pass and exit")
	flag.Parse()

	app, err := di.InitApp(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "listenerd: %v\n", err)
		os.Exit(1)
	}

	if flags.Once {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		err = app.RunOnce(ctx)
		stop()
	} else {
		err = app.Run()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "listenerd: %v\n", err)
		os.Exit(1)
	}
}
