package deliverers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mickamy/maildrain/deliverers"
)

type mockSQS struct {
	mock.Mock
}

func (m *mockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*sqs.SendMessageOutput)
	return out, args.Error(1)
}

func TestSQSDeliverAccepted(t *testing.T) {
	t.Parallel()
	client := &mockSQS{}
	client.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
		var payload map[string]any
		if err := json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &payload); err != nil {
			return false
		}
		return aws.ToString(in.QueueUrl) == "https://sqs.local/queue" &&
			payload["subject"] == "Welcome" &&
			in.MessageGroupId == nil
	})).Return(&sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil)

	d, err := deliverers.NewSQS(client, "https://sqs.local/queue")
	require.NoError(t, err)
	res, err := d.Deliver(context.Background(), testItem())
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	client.AssertExpectations(t)
}

func TestSQSDeliverFIFO(t *testing.T) {
	t.Parallel()
	client := &mockSQS{}
	client.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
		return aws.ToString(in.MessageGroupId) == "maildrain" && aws.ToString(in.MessageDeduplicationId) == "7"
	})).Return(&sqs.SendMessageOutput{MessageId: aws.String("m-2")}, nil)

	d, err := deliverers.NewSQS(client, "https://sqs.local/mail.fifo")
	require.NoError(t, err)
	res, err := d.Deliver(context.Background(), testItem())
	require.NoError(t, err)
	assert.True(t, res.Accepted)
}

func TestSQSDeliverFailures(t *testing.T) {
	t.Parallel()
	fault := errors.New("throttled")
	client := &mockSQS{}
	client.On("SendMessage", mock.Anything, mock.Anything).Return(nil, fault).Once()
	client.On("SendMessage", mock.Anything, mock.Anything).Return(&sqs.SendMessageOutput{}, nil).Once()

	d, err := deliverers.NewSQS(client, "https://sqs.local/queue")
	require.NoError(t, err)

	_, err = d.Deliver(context.Background(), testItem())
	assert.ErrorIs(t, err, fault)

	res, err := d.Deliver(context.Background(), testItem())
	require.NoError(t, err)
	assert.False(t, res.Accepted)
}

func TestNewSQSValidates(t *testing.T) {
	t.Parallel()
	_, err := deliverers.NewSQS(nil, "https://sqs.local/queue")
	assert.ErrorIs(t, err, deliverers.ErrInvalidConfig)
	_, err = deliverers.NewSQS(&mockSQS{}, "")
	assert.ErrorIs(t, err, deliverers.ErrInvalidConfig)
}
