package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"taskmanager-api/domain"
)

// queueClient is the subset of *azqueue.QueueClient used by QueueSink.
type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
	Create(ctx context.Context, o *azqueue.CreateOptions) (azqueue.CreateResponse, error)
}

// QueueSink writes events as JSON messages to an Azure Storage queue.
type QueueSink struct {
	client queueClient
	name   string
}

// NewQueueSink connects to queue using a storage account connection string.
func NewQueueSink(connStr, queue string) (*QueueSink, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: time.Second * 30,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	qc, err := azqueue.NewQueueClientFromConnectionString(connStr, queue, &opts)
	if err != nil {
		return nil, err
	}
	return &QueueSink{client: qc, name: queue}, nil
}

func (q *QueueSink) Send(ctx context.Context, ev domain.Event) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := q.client.EnqueueMessage(ctx, string(data), nil); err != nil {
		return err
	}
	return nil
}

// EnsureQueue creates the queue unless it already exists.
func (q *QueueSink) EnsureQueue(ctx context.Context) error {
	_, err := q.client.Create(ctx, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.ErrorCode == "QueueAlreadyExists" {
			return nil
		}
		return err
	}
	log.WithField("queue", q.name).Info("queue created")
	return nil
}

// LogSink only logs events. It is used when no queue is configured.
type LogSink struct{}

func (LogSink) Send(ctx context.Context, ev domain.Event) error {
	log.WithFields(log.Fields{
		"event":      ev.Type,
		"id":         ev.ID,
		"entityType": ev.EntityType,
		"entityId":   ev.EntityID,
	}).Info("domain event")
	return nil
}
