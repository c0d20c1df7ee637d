package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"blastbot/internal/app"
)

func main() {
	var (
		cfgPath string
		mode    string
		target  string
	)
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	flag.StringVar(&mode, "mode", "dispatch", "run mode: dispatch | stats | leave")
	flag.StringVar(&target, "target", "", "destination token for -mode leave")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	defer a.Close()

	switch mode {
	case "dispatch":
		err = a.RunDispatch(ctx)
	case "stats":
		err = a.RunStats(ctx)
	case "leave":
		if target == "" {
			err = fmt.Errorf("-mode leave requires -target")
		} else {
			err = a.RunLeave(ctx, target)
		}
	default:
		err = fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}
