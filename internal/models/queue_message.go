package models

import "errors"

// ErrNoMessage is returned when the queue is empty
var ErrNoMessage = errors.New("no messages in queue")

// Queue message types routed to worker handlers.
const (
	MessageTypeProcessReport = "process_report"
)

// QueueMessage is the structure stored in the processing queue.
// Keep it simple - just enough to route the work to a handler.
type QueueMessage struct {
	ReportID string `json:"report_id"`
	Type     string `json:"type"`
}
