package models

import "time"

// Session represents an active browser session. The record carries a copy of
// the authenticated account's identity so the authorization gates never have
// to hit the credential store on the hot path; the admin flag is always
// derived from this copy, never stored independently.
type Session struct {
	ID          string    `json:"id"`
	AccountID   int64     `json:"account_id"`
	Username    string    `json:"username"`
	IsAdmin     bool      `json:"is_admin"`
	CreateTime  time.Time `json:"create_time"`
	LastRequest time.Time `json:"last_request"`

	// Flash holds one-time notices surviving the next redirect.
	Flash []string `json:"flash,omitempty"`
}

// IsAuthenticated reports whether the session belongs to a logged-in
// account; anonymous sessions only carry flash messages.
func (s *Session) IsAuthenticated() bool {
	return s.AccountID != 0
}
