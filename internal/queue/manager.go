package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/ternarybob/specto/internal/interfaces"
	"github.com/ternarybob/specto/internal/models"
)

// ErrNoMessage is returned when the queue is empty
var ErrNoMessage = models.ErrNoMessage

// storedMessage wraps a queue message with delivery bookkeeping
type storedMessage struct {
	ID           string              `json:"id"`
	Body         models.QueueMessage `json:"body"`
	EnqueuedAt   time.Time           `json:"enqueued_at"`
	VisibleAt    time.Time           `json:"visible_at"`
	ReceiveCount int                 `json:"receive_count"`
}

// Manager implements a persistent processing queue on BadgerDB.
// A visibility index keyed by timestamp lets workers claim the oldest
// ready message; claimed messages become invisible for the configured
// timeout and reappear if the worker dies before deleting them. A
// per-report dedup marker keeps one pending processing run per report.
type Manager struct {
	db                *badger.DB
	queueName         string
	visibilityTimeout time.Duration
	maxReceive        int
}

// Compile-time interface assertion
var _ interfaces.QueueManager = (*Manager)(nil)

// NewManager creates a new Badger-backed queue manager
func NewManager(db *badger.DB, queueName string, visibilityTimeout time.Duration, maxReceive int) (*Manager, error) {
	if db == nil {
		return nil, errors.New("badger db is required")
	}
	if queueName == "" {
		return nil, errors.New("queue name is required")
	}
	if visibilityTimeout <= 0 {
		visibilityTimeout = 5 * time.Minute
	}
	if maxReceive <= 0 {
		maxReceive = 3
	}

	return &Manager{
		db:                db,
		queueName:         queueName,
		visibilityTimeout: visibilityTimeout,
		maxReceive:        maxReceive,
	}, nil
}

// Enqueue adds a message to the queue. A message for a report that is
// already pending is dropped silently, so repeated triggers collapse into
// one processing run.
func (m *Manager) Enqueue(ctx context.Context, msg models.QueueMessage) error {
	id := uuid.New().String()

	qMsg := storedMessage{
		ID:         id,
		Body:       msg,
		EnqueuedAt: time.Now(),
		VisibleAt:  time.Now(), // Immediately visible
	}

	data, err := json.Marshal(qMsg)
	if err != nil {
		return fmt.Errorf("failed to marshal queue message: %w", err)
	}

	return m.db.Update(func(txn *badger.Txn) error {
		// Dedup: skip if this report already has a pending message
		dedupKey := m.dedupKey(msg.ReportID)
		if _, err := txn.Get(dedupKey); err == nil {
			return nil
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if err := txn.Set(m.msgKey(id), data); err != nil {
			return err
		}
		if err := txn.Set(m.indexKey(qMsg.VisibleAt, id), []byte{}); err != nil {
			return err
		}
		return txn.Set(dedupKey, []byte(id))
	})
}

// Receive pulls the next visible message from the queue.
// Returns ErrNoMessage when nothing is ready, otherwise the message and a
// delete function the worker calls after processing.
func (m *Manager) Receive(ctx context.Context) (*models.QueueMessage, func() error, error) {
	var qMsg storedMessage
	var msgID string
	var oldIndexKey []byte

	err := m.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		prefix := m.indexPrefix()
		it := txn.NewIterator(opts)
		defer it.Close()

		now := time.Now()
		found := false

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)

			ts, id, err := m.parseIndexKey(key)
			if err != nil {
				continue // Skip invalid keys
			}

			// Keys sort by timestamp, so the first future entry ends the scan
			if ts.After(now) {
				break
			}

			itemMsg, err := txn.Get(m.msgKey(id))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					// Index without data, clean up
					if err := txn.Delete(key); err != nil {
						return err
					}
					continue
				}
				return err
			}

			if err := itemMsg.Value(func(val []byte) error {
				return json.Unmarshal(val, &qMsg)
			}); err != nil {
				return err
			}

			// Drop poison messages that exceeded max receives
			if qMsg.ReceiveCount >= m.maxReceive {
				if err := txn.Delete(key); err != nil {
					return err
				}
				if err := txn.Delete(m.msgKey(id)); err != nil {
					return err
				}
				if err := txn.Delete(m.dedupKey(qMsg.Body.ReportID)); err != nil && err != badger.ErrKeyNotFound {
					return err
				}
				continue
			}

			found = true
			msgID = id
			oldIndexKey = key
			break
		}

		if !found {
			return ErrNoMessage
		}

		// Claim: bump receive count and push visibility forward
		qMsg.ReceiveCount++
		qMsg.VisibleAt = time.Now().Add(m.visibilityTimeout)

		newData, err := json.Marshal(qMsg)
		if err != nil {
			return err
		}
		if err := txn.Set(m.msgKey(msgID), newData); err != nil {
			return err
		}
		if err := txn.Delete(oldIndexKey); err != nil {
			return err
		}
		return txn.Set(m.indexKey(qMsg.VisibleAt, msgID), []byte{})
	})

	if err != nil {
		return nil, nil, err
	}

	deleteFn := func() error {
		return m.db.Update(func(txn *badger.Txn) error {
			msgKey := m.msgKey(msgID)
			item, err := txn.Get(msgKey)
			if err != nil {
				if err == badger.ErrKeyNotFound {
					return nil // Already deleted
				}
				return err
			}

			var currentMsg storedMessage
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &currentMsg)
			}); err != nil {
				return err
			}

			if err := txn.Delete(m.indexKey(currentMsg.VisibleAt, msgID)); err != nil && err != badger.ErrKeyNotFound {
				return err
			}
			if err := txn.Delete(m.dedupKey(currentMsg.Body.ReportID)); err != nil && err != badger.ErrKeyNotFound {
				return err
			}
			return txn.Delete(msgKey)
		})
	}

	return &qMsg.Body, deleteFn, nil
}

// Close closes the queue manager (no-op, the DB is managed externally)
func (m *Manager) Close() error {
	return nil
}

// Helpers

func (m *Manager) msgKey(id string) []byte {
	return []byte(fmt.Sprintf("queue:%s:msg:%s", m.queueName, id))
}

func (m *Manager) dedupKey(reportID string) []byte {
	return []byte(fmt.Sprintf("queue:%s:dedup:%s", m.queueName, reportID))
}

func (m *Manager) indexPrefix() []byte {
	return []byte(fmt.Sprintf("queue:%s:index:", m.queueName))
}

func (m *Manager) indexKey(visibleAt time.Time, id string) []byte {
	ts := visibleAt.UnixNano()
	// Zero pad to 20 digits to ensure string sorting works like number sorting
	return []byte(fmt.Sprintf("queue:%s:index:%020d:%s", m.queueName, ts, id))
}

func (m *Manager) parseIndexKey(key []byte) (time.Time, string, error) {
	prefix := m.indexPrefix()
	if len(key) <= len(prefix) {
		return time.Time{}, "", fmt.Errorf("invalid key length")
	}

	suffix := string(key[len(prefix):])
	// Suffix is "{20-digit-ts}:{id}"
	if len(suffix) < 21 {
		return time.Time{}, "", fmt.Errorf("invalid suffix length")
	}

	tsStr := suffix[:20]
	id := suffix[21:]

	var ts int64
	if _, err := fmt.Sscanf(tsStr, "%d", &ts); err != nil {
		return time.Time{}, "", err
	}

	return time.Unix(0, ts), id, nil
}
