package interfaces

import (
	"context"

	"github.com/ternarybob/specto/internal/models"
)

// QueueManager - interface for the persistent processing queue
type QueueManager interface {
	// Enqueue adds a message to the queue. A message for a report that
	// already has a pending message is dropped silently.
	Enqueue(ctx context.Context, msg models.QueueMessage) error

	// Receive pulls the next visible message. Returns models.ErrNoMessage
	// when the queue is empty, plus a delete func to call after processing.
	Receive(ctx context.Context) (*models.QueueMessage, func() error, error)

	// Close closes the queue.
	Close() error
}
