package deliverers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/mickamy/maildrain"
)

// SQSAPI is the subset of *sqs.Client used by SQS.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQS relays queue items to an SQS queue. The message is accepted once SQS returns a message id.
type SQS struct {
	client   SQSAPI
	queueURL string
	fifo     bool
}

// NewSQS creates an SQS deliverer. Queues whose URL ends in ".fifo" get group and deduplication ids.
func NewSQS(client SQSAPI, queueURL string) (*SQS, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: sqs client is required", ErrInvalidConfig)
	}
	if queueURL == "" {
		return nil, fmt.Errorf("%w: sqs queue url is required", ErrInvalidConfig)
	}
	return &SQS{
		client:   client,
		queueURL: queueURL,
		fifo:     strings.HasSuffix(queueURL, ".fifo"),
	}, nil
}

// Deliver implements maildrain.Deliverer.
func (s *SQS) Deliver(ctx context.Context, item maildrain.QueueItem) (maildrain.DeliveryResult, error) {
	body, err := json.Marshal(newWebhookPayload(item))
	if err != nil {
		return maildrain.DeliveryResult{}, err
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(body)),
	}
	if s.fifo {
		input.MessageGroupId = aws.String("maildrain")
		input.MessageDeduplicationId = aws.String(strconv.FormatInt(item.ID, 10))
	}

	out, err := s.client.SendMessage(ctx, input)
	if err != nil {
		return maildrain.DeliveryResult{}, fmt.Errorf("sqs send: %w", err)
	}
	if out == nil || aws.ToString(out.MessageId) == "" {
		return maildrain.Rejected("sqs returned no message id"), nil
	}
	return maildrain.Accepted(), nil
}
