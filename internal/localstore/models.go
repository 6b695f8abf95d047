package localstore

import (
	"time"

	"fixmybarangay/internal/report"
)

// KindCreateReport is the only queue item kind currently produced.
const KindCreateReport = "create-report"

// QueueItem is one deferred report submission awaiting delivery.
type QueueItem struct {
	ID         string
	Kind       string
	Submission report.Submission
	EnqueuedAt time.Time
	RetryCount int
	LastError  string
}

// DropReason records why an item was dead-lettered.
type DropReason string

const (
	DropRetriesExhausted DropReason = "retries_exhausted"
	DropPermanentError   DropReason = "permanent_error"
)

// DeadLetter is a queue item that was dropped instead of delivered.
type DeadLetter struct {
	QueueItem
	DroppedAt time.Time
	Reason    DropReason
}

// ReportFilter narrows cached-report reads by indexed fields.
type ReportFilter struct {
	Category string
	Status   string
}
