// Package repository provides persistence for accounts and tickets.
package repository

import (
	"context"
	"errors"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// ErrNotFound is returned when a point query resolves no row.
var ErrNotFound = errors.New("not found")

// AccountRepository handles credential store operations.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// TicketRepository handles ticket store operations.
type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	GetByID(ctx context.Context, id int64) (*models.Ticket, error)
	// ListOpen returns all open tickets joined with their submitter's
	// username, in insertion order.
	ListOpen(ctx context.Context) ([]*models.Ticket, error)
	// ListBySubmitter returns the given account's tickets in insertion order.
	ListBySubmitter(ctx context.Context, accountID int64) ([]*models.Ticket, error)
	// Respond sets the response and flips status to responded in a single
	// update; no intermediate state is observable.
	Respond(ctx context.Context, id int64, response string) error
}
