package models

import (
	"database/sql"
	"time"
)

// Ticket statuses. A ticket starts open and becomes responded once an
// administrator attaches a response; no other transitions exist.
const (
	TicketStatusOpen      = "open"
	TicketStatusResponded = "responded"
)

// Ticket represents a support request with a lifecycle from open to responded.
type Ticket struct {
	ID          int64          `json:"id" db:"id"`
	SubmitterID sql.NullInt64  `json:"submitter_id" db:"submitter_id"` // NULL for anonymous tickets
	Subject     string         `json:"subject" db:"subject"`
	Description string         `json:"description" db:"description"`
	Category    string         `json:"category" db:"category"`
	Status      string         `json:"status" db:"status"`
	Response    sql.NullString `json:"response" db:"response"`
	Attachment  sql.NullString `json:"attachment" db:"attachment"` // stored-file reference
	CreateTime  time.Time      `json:"create_time" db:"create_time"`

	// SubmitterUsername is populated by the admin listing join; empty otherwise.
	SubmitterUsername string `json:"submitter_username,omitempty" db:"submitter_username"`
}

// IsOpen reports whether the ticket still awaits a response.
func (t *Ticket) IsOpen() bool {
	return t.Status == TicketStatusOpen
}
