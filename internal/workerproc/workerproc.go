// Package workerproc turns a raw queue body into a notification outcome.
// It is shared by the long-polling worker and the Lambda SQS handler.
package workerproc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/suiscode/ai-resume/internal/queue"
)

// Stage names where handling a message stopped.
type Stage string

const (
	StageDecode   Stage = "decode"
	StageValidate Stage = "validate"
	StageProcess  Stage = "process"
)

var (
	errEmptyBody   = errors.New("empty message body")
	errNoProcessor = errors.New("notification processor not configured")
)

// Processor handles one validated resume.analyzed message and reports an outcome label.
type Processor interface {
	Process(ctx context.Context, msg queue.Message) (string, error)
}

// Result is a handled message. Message is populated as far as decoding got.
type Result struct {
	Message queue.Message
	Outcome string
}

// Error describes a failed message.
type Error struct {
	Stage   Stage
	BodyLen int
	BodySHA string
	Err     error
}

func (e *Error) Error() string { return fmt.Sprintf("%s message: %v", e.Stage, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Unrecoverable reports whether redelivering the message can never succeed.
func Unrecoverable(err error) bool {
	var merr *Error
	return errors.As(err, &merr) && merr.Stage != StageProcess
}

// Handle decodes, validates and processes body.
func Handle(ctx context.Context, p Processor, body string) (Result, error) {
	if p == nil {
		return Result{}, &Error{Stage: StageProcess, Err: errNoProcessor}
	}
	fail := func(stage Stage, err error) *Error {
		e := &Error{Stage: stage, BodyLen: len(body), Err: err}
		if stage != StageProcess && body != "" {
			sum := sha256.Sum256([]byte(body))
			e.BodySHA = hex.EncodeToString(sum[:])
		}
		return e
	}

	if strings.TrimSpace(body) == "" {
		return Result{}, fail(StageDecode, errEmptyBody)
	}
	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return Result{}, fail(StageDecode, err)
	}
	res := Result{Message: msg}
	if err := msg.Validate(); err != nil {
		return res, fail(StageValidate, err)
	}

	res.Outcome, err = p.Process(ctx, msg)
	if err != nil {
		return res, fail(StageProcess, err)
	}
	return res, nil
}

// LogFields returns the structured fields both workers log for a handled message.
func LogFields(res Result, err error) map[string]any {
	fields := map[string]any{"resume_id": res.Message.ResumeID}
	if res.Message.RequestID != "" {
		fields["request_id"] = res.Message.RequestID
	}
	if res.Outcome != "" {
		fields["outcome"] = res.Outcome
	}
	if err == nil {
		return fields
	}
	fields["error"] = err.Error()
	var merr *Error
	if errors.As(err, &merr) {
		fields["stage"] = string(merr.Stage)
		if merr.BodySHA != "" {
			fields["body_len"] = merr.BodyLen
			fields["body_sha256"] = merr.BodySHA
		}
	}
	return fields
}
