// Command worker long-polls the notifications queue outside Lambda.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/suiscode/ai-resume/internal/bootstrap"
	"github.com/suiscode/ai-resume/internal/queue"
	"github.com/suiscode/ai-resume/internal/shared/config"
	"github.com/suiscode/ai-resume/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	if strings.TrimSpace(cfg.QueueURL) == "" {
		log.Fatal("RA_SQS_QUEUE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	awsCfg, err := queue.LoadAWSConfig(ctx, cfg.AWSRegion)
	if err != nil {
		log.Fatalf("load aws config: %v", err)
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	defer app.Close()

	p := &poller{
		client:      sqs.NewFromConfig(awsCfg),
		queueURL:    cfg.QueueURL,
		processor:   app.Notifier,
		concurrency: cfg.WorkerConcurrency,
		visibility:  cfg.QueueVisibility,
		drain:       cfg.ShutdownTimeout,
	}
	telemetry.Info("worker.started", map[string]any{
		"queue_url":   cfg.QueueURL,
		"concurrency": p.concurrency,
		"visibility":  p.visibility.String(),
	})
	p.run(ctx)
	telemetry.Info("worker.stopped", nil)
}
