// Package session manages server-side browser sessions and the one-time
// flash messages that ride on them.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// ErrNotFound is returned when a session ID resolves no live session.
var ErrNotFound = errors.New("session not found")

// Store persists sessions keyed by a server-issued opaque identifier.
// Expiry policy is owned by the store (TTL); callers never see expired
// sessions.
type Store interface {
	// Create establishes a session for the given account and returns it.
	// A nil account yields an anonymous session, which exists only to carry
	// flash messages across redirects.
	Create(ctx context.Context, account *models.Account) (*models.Session, error)
	// Get resolves a session ID, refreshing its last-request time.
	Get(ctx context.Context, id string) (*models.Session, error)
	// Destroy removes a session; destroying a missing session is not an error.
	Destroy(ctx context.Context, id string) error
	// AddFlash appends a one-time notice to the session.
	AddFlash(ctx context.Context, id, message string) error
	// ConsumeFlash returns and clears the pending notices.
	ConsumeFlash(ctx context.Context, id string) ([]string, error)
}

func newSession(account *models.Account) *models.Session {
	now := time.Now()
	s := &models.Session{
		ID:          uuid.NewString(),
		CreateTime:  now,
		LastRequest: now,
	}
	if account != nil {
		s.AccountID = account.ID
		s.Username = account.Username
		s.IsAdmin = account.IsAdmin
	}
	return s
}
