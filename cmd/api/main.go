package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/suiscode/ai-resume/internal/bootstrap"
	"github.com/suiscode/ai-resume/internal/shared/config"
)

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bootstrap.Serve(ctx, app); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
