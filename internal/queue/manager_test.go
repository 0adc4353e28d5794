package queue

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/specto/internal/models"
)

func newTestQueue(t *testing.T, visibilityTimeout time.Duration, maxReceive int) *Manager {
	t.Helper()

	opts := badger.DefaultOptions(t.TempDir()).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mgr, err := NewManager(db, "test", visibilityTimeout, maxReceive)
	require.NoError(t, err)
	return mgr
}

func TestQueue_EnqueueReceiveDelete(t *testing.T) {
	q := newTestQueue(t, time.Minute, 3)
	ctx := context.Background()

	msg := models.QueueMessage{ReportID: "rpt_1", Type: models.MessageTypeProcessReport}
	require.NoError(t, q.Enqueue(ctx, msg))

	received, deleteFn, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rpt_1", received.ReportID)
	assert.Equal(t, models.MessageTypeProcessReport, received.Type)

	require.NoError(t, deleteFn())

	_, _, err = q.Receive(ctx)
	assert.ErrorIs(t, err, ErrNoMessage)
}

func TestQueue_EmptyReturnsNoMessage(t *testing.T) {
	q := newTestQueue(t, time.Minute, 3)

	_, _, err := q.Receive(context.Background())
	assert.ErrorIs(t, err, ErrNoMessage)
}

func TestQueue_DedupCollapsesPendingMessages(t *testing.T) {
	q := newTestQueue(t, time.Minute, 3)
	ctx := context.Background()

	msg := models.QueueMessage{ReportID: "rpt_1", Type: models.MessageTypeProcessReport}
	require.NoError(t, q.Enqueue(ctx, msg))
	require.NoError(t, q.Enqueue(ctx, msg))
	require.NoError(t, q.Enqueue(ctx, msg))

	_, deleteFn, err := q.Receive(ctx)
	require.NoError(t, err)
	require.NoError(t, deleteFn())

	_, _, err = q.Receive(ctx)
	assert.ErrorIs(t, err, ErrNoMessage)
}

func TestQueue_DedupClearsAfterDelete(t *testing.T) {
	q := newTestQueue(t, time.Minute, 3)
	ctx := context.Background()

	msg := models.QueueMessage{ReportID: "rpt_1", Type: models.MessageTypeProcessReport}
	require.NoError(t, q.Enqueue(ctx, msg))

	_, deleteFn, err := q.Receive(ctx)
	require.NoError(t, err)
	require.NoError(t, deleteFn())

	// The report can be queued again after its message is consumed
	require.NoError(t, q.Enqueue(ctx, msg))

	received, deleteFn, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rpt_1", received.ReportID)
	require.NoError(t, deleteFn())
}

func TestQueue_ClaimedMessageIsInvisible(t *testing.T) {
	q := newTestQueue(t, time.Minute, 3)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, models.QueueMessage{ReportID: "rpt_1", Type: models.MessageTypeProcessReport}))

	_, _, err := q.Receive(ctx)
	require.NoError(t, err)

	// Claimed but not deleted: invisible until the timeout passes
	_, _, err = q.Receive(ctx)
	assert.ErrorIs(t, err, ErrNoMessage)
}

func TestQueue_RedeliveryAfterVisibilityTimeout(t *testing.T) {
	q := newTestQueue(t, 50*time.Millisecond, 3)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, models.QueueMessage{ReportID: "rpt_1", Type: models.MessageTypeProcessReport}))

	_, _, err := q.Receive(ctx)
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	received, deleteFn, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rpt_1", received.ReportID)
	require.NoError(t, deleteFn())
}

func TestQueue_PoisonMessageDroppedAfterMaxReceives(t *testing.T) {
	q := newTestQueue(t, 10*time.Millisecond, 2)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, models.QueueMessage{ReportID: "rpt_1", Type: models.MessageTypeProcessReport}))

	// Consume the receive budget without deleting
	for i := 0; i < 2; i++ {
		_, _, err := q.Receive(ctx)
		require.NoError(t, err)
		time.Sleep(25 * time.Millisecond)
	}

	// The third attempt drops the poison message
	_, _, err := q.Receive(ctx)
	assert.ErrorIs(t, err, ErrNoMessage)

	// Dedup marker is cleared with the drop, so the report can re-enter
	require.NoError(t, q.Enqueue(ctx, models.QueueMessage{ReportID: "rpt_1", Type: models.MessageTypeProcessReport}))
	received, deleteFn, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rpt_1", received.ReportID)
	require.NoError(t, deleteFn())
}

func TestQueue_OldestMessageFirst(t *testing.T) {
	q := newTestQueue(t, time.Minute, 3)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, models.QueueMessage{ReportID: "rpt_1", Type: models.MessageTypeProcessReport}))
	time.Sleep(2 * time.Millisecond)
	require.NoError(t, q.Enqueue(ctx, models.QueueMessage{ReportID: "rpt_2", Type: models.MessageTypeProcessReport}))

	first, deleteFn, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rpt_1", first.ReportID)
	require.NoError(t, deleteFn())

	second, deleteFn, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rpt_2", second.ReportID)
	require.NoError(t, deleteFn())
}
