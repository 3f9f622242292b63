package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sceneforge/sceneforge/internal/runtime"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := runtime.LoadConfig()
	if err != nil {
		fmt.Println("Error loading configuration:", err)
		os.Exit(1)
	}
	rt, err := runtime.New(cfg)
	if err != nil {
		fmt.Println("Error creating runtime:", err)
		os.Exit(1)
	}

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	if err := rt.Start(ctx); err != nil {
		fmt.Println("Error starting runtime:", err)
		os.Exit(1)
	}

	<-stopCh
	cancel()
	if err := rt.Stop(); err != nil {
		fmt.Println("Error stopping runtime:", err)
	}
}
