package main

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"golang.org/x/sync/errgroup"

	"github.com/suiscode/ai-resume/internal/shared/metrics"
	"github.com/suiscode/ai-resume/internal/shared/telemetry"
	"github.com/suiscode/ai-resume/internal/workerproc"
)

const (
	receiveBatch    = 10
	receiveWait     = 20 * time.Second
	receiveBackoff  = 2 * time.Second
	receiveCountKey = "ApproximateReceiveCount"
)

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// poller receives batches and hands each message to the processor with at
// most concurrency messages in flight. Messages are deleted once processed or
// once they can never succeed; processing failures are left for redelivery.
type poller struct {
	client      sqsAPI
	queueURL    string
	processor   workerproc.Processor
	concurrency int
	visibility  time.Duration
	drain       time.Duration
}

func (p *poller) run(ctx context.Context) {
	g := new(errgroup.Group)
	g.SetLimit(max(1, p.concurrency))

	for ctx.Err() == nil {
		out, err := p.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:                    aws.String(p.queueURL),
			MaxNumberOfMessages:         receiveBatch,
			WaitTimeSeconds:             int32(receiveWait / time.Second),
			VisibilityTimeout:           int32(p.visibility / time.Second),
			MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{sqstypes.MessageSystemAttributeNameApproximateReceiveCount},
		})
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			telemetry.Error("worker.receive_failed", map[string]any{"error": err.Error()})
			sleep(ctx, receiveBackoff)
			continue
		}
		for _, msg := range out.Messages {
			msg := msg
			// In-flight messages finish on a context that outlives shutdown.
			msgCtx := context.WithoutCancel(ctx)
			g.Go(func() error {
				p.handle(msgCtx, msg)
				return nil
			})
		}
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(p.drain):
		telemetry.Warn("worker.drain_timeout", map[string]any{"timeout": p.drain.String()})
	}
}

func (p *poller) handle(ctx context.Context, msg sqstypes.Message) {
	res, err := workerproc.Handle(ctx, p.processor, aws.ToString(msg.Body))
	fields := workerproc.LogFields(res, err)
	fields["sqs_message_id"] = aws.ToString(msg.MessageId)
	fields["receive_count"] = receiveCount(msg)

	switch {
	case err == nil:
		if p.delete(ctx, msg, fields) {
			telemetry.Info("worker.notify.completed", fields)
		}
	case workerproc.Unrecoverable(err):
		telemetry.Error("worker.notify.invalid", fields)
		metrics.IncNotification("invalid")
		p.delete(ctx, msg, fields)
	default:
		telemetry.Error("worker.notify.failed", fields)
	}
}

func (p *poller) delete(ctx context.Context, msg sqstypes.Message, fields map[string]any) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		telemetry.Error("worker.delete_failed", merge(fields, "missing receipt handle"))
		return false
	}
	_, err := p.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(p.queueURL),
		ReceiptHandle: aws.String(receipt),
	})
	if err != nil {
		telemetry.Error("worker.delete_failed", merge(fields, err.Error()))
		return false
	}
	return true
}

func merge(fields map[string]any, deleteErr string) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["delete_error"] = deleteErr
	return out
}

func receiveCount(msg sqstypes.Message) int {
	n, _ := strconv.Atoi(msg.Attributes[receiveCountKey])
	return n
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
