// Command lambda-worker consumes the notifications queue as an SQS event source.
// The event source mapping must enable ReportBatchItemFailures.
//
//	GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker
package main

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/suiscode/ai-resume/internal/bootstrap"
	"github.com/suiscode/ai-resume/internal/shared/config"
	"github.com/suiscode/ai-resume/internal/shared/metrics"
	"github.com/suiscode/ai-resume/internal/shared/telemetry"
	"github.com/suiscode/ai-resume/internal/workerproc"
)

// consumer builds the processor on first use and retries a failed build on
// the next batch.
type consumer struct {
	build func() (workerproc.Processor, error)

	mu        sync.Mutex
	processor workerproc.Processor
}

func (w *consumer) get() (workerproc.Processor, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.processor == nil {
		p, err := w.build()
		if err != nil {
			return nil, err
		}
		w.processor = p
	}
	return w.processor, nil
}

func (w *consumer) handle(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	p, err := w.get()
	if err != nil {
		telemetry.Error("worker.bootstrap_failed", map[string]any{"error": err.Error(), "records": len(event.Records)})
		return events.SQSEventResponse{}, err
	}
	return processBatch(ctx, p, event), nil
}

// processBatch reports every record that failed, malformed ones included,
// so SQS redrives them to the dead-letter queue.
func processBatch(ctx context.Context, p workerproc.Processor, event events.SQSEvent) events.SQSEventResponse {
	resp := events.SQSEventResponse{BatchItemFailures: []events.SQSBatchItemFailure{}}
	for _, record := range event.Records {
		res, err := workerproc.Handle(ctx, p, record.Body)
		fields := workerproc.LogFields(res, err)
		fields["sqs_message_id"] = record.MessageId
		if err != nil {
			if workerproc.Unrecoverable(err) {
				metrics.IncNotification("invalid")
				telemetry.Error("worker.notify.invalid", fields)
			} else {
				telemetry.Error("worker.notify.failed", fields)
			}
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
			continue
		}
		telemetry.Info("worker.notify.completed", fields)
	}
	return resp
}

func main() {
	w := &consumer{build: func() (workerproc.Processor, error) {
		app, err := bootstrap.Build(config.Load())
		if err != nil {
			return nil, err
		}
		return app.Notifier, nil
	}}
	lambda.Start(w.handle)
}
