package core

import "time"

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// LedgerEvent announces a committed transaction write. AccountIDs lists every
// account whose balance the write touched.
type LedgerEvent struct {
	Kind          EventKind `json:"kind"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	AccountIDs    []string  `json:"account_ids"`
	Timestamp     time.Time `json:"timestamp"`
}

func (k EventKind) Valid() bool {
	switch k {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	}
	return false
}
