package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

const fallbackRegion = "us-east-1"

// SendAPI is the part of the SQS client used for publishing.
type SendAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQS publishes messages to one queue. FIFO queues (URL ending in .fifo)
// group by user and deduplicate by resume.
type SQS struct {
	api  SendAPI
	url  string
	fifo bool
}

// LoadAWSConfig loads the default credential chain, defaulting the region to us-east-1.
func LoadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	if region = strings.TrimSpace(region); region == "" {
		region = fallbackRegion
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// NewSQS builds a publisher from a loaded AWS config.
func NewSQS(cfg aws.Config, queueURL string) (*SQS, error) {
	return NewSQSWithAPI(sqs.NewFromConfig(cfg), queueURL)
}

func NewSQSWithAPI(api SendAPI, queueURL string) (*SQS, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, errors.New("queue url is required")
	}
	return &SQS{api: api, url: queueURL, fifo: strings.HasSuffix(queueURL, ".fifo")}, nil
}

func (s *SQS) Send(ctx context.Context, msg Message) error {
	body, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	in := &sqs.SendMessageInput{
		QueueUrl:          aws.String(s.url),
		MessageBody:       aws.String(string(body)),
		MessageAttributes: attributes(msg),
	}
	if s.fifo {
		in.MessageGroupId = aws.String(msg.UserID)
		in.MessageDeduplicationId = aws.String(msg.ResumeID)
	}
	if _, err := s.api.SendMessage(ctx, in); err != nil {
		return fmt.Errorf("send %s for resume %s: %w", EventResumeAnalyzed, msg.ResumeID, err)
	}
	return nil
}

func attributes(msg Message) map[string]sqstypes.MessageAttributeValue {
	str := func(v string) sqstypes.MessageAttributeValue {
		return sqstypes.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(v)}
	}
	attrs := map[string]sqstypes.MessageAttributeValue{"event": str(EventResumeAnalyzed)}
	if msg.RequestID != "" {
		attrs["requestId"] = str(msg.RequestID)
	}
	return attrs
}

var _ Client = (*SQS)(nil)
