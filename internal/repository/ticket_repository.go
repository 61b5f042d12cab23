package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// SQLTicketRepository persists tickets through sqlx.
type SQLTicketRepository struct {
	db *sqlx.DB
}

// NewSQLTicketRepository creates a new ticket repository.
func NewSQLTicketRepository(db *sqlx.DB) *SQLTicketRepository {
	return &SQLTicketRepository{db: db}
}

// Create inserts a new ticket. Status defaults to open.
func (r *SQLTicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	if ticket.Status == "" {
		ticket.Status = models.TicketStatusOpen
	}
	if ticket.CreateTime.IsZero() {
		ticket.CreateTime = time.Now()
	}

	query := r.db.Rebind(`
		INSERT INTO tickets (submitter_id, subject, description, category, status, response, attachment, create_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)

	if r.db.DriverName() == "postgres" {
		query += " RETURNING id"
		return r.db.QueryRowContext(ctx, query,
			ticket.SubmitterID, ticket.Subject, ticket.Description, ticket.Category,
			ticket.Status, ticket.Response, ticket.Attachment, ticket.CreateTime,
		).Scan(&ticket.ID)
	}

	result, err := r.db.ExecContext(ctx, query,
		ticket.SubmitterID, ticket.Subject, ticket.Description, ticket.Category,
		ticket.Status, ticket.Response, ticket.Attachment, ticket.CreateTime)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	ticket.ID = id
	return nil
}

// GetByID retrieves a ticket by its ID.
func (r *SQLTicketRepository) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	query := r.db.Rebind(`
		SELECT id, submitter_id, subject, description, category, status, response, attachment, create_time
		FROM tickets
		WHERE id = ?`)

	var ticket models.Ticket
	err := r.db.GetContext(ctx, &ticket, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ListOpen returns all open tickets with submitter usernames resolved.
// Insertion order; the open set is expected to be small.
func (r *SQLTicketRepository) ListOpen(ctx context.Context) ([]*models.Ticket, error) {
	query := r.db.Rebind(`
		SELECT t.id, t.submitter_id, t.subject, t.description, t.category,
		       t.status, t.response, t.attachment, t.create_time,
		       COALESCE(a.username, '') AS submitter_username
		FROM tickets t
		LEFT JOIN accounts a ON a.id = t.submitter_id
		WHERE t.status = ?
		ORDER BY t.id`)

	var tickets []*models.Ticket
	if err := r.db.SelectContext(ctx, &tickets, query, models.TicketStatusOpen); err != nil {
		return nil, err
	}
	return tickets, nil
}

// ListBySubmitter returns the given account's tickets in insertion order.
func (r *SQLTicketRepository) ListBySubmitter(ctx context.Context, accountID int64) ([]*models.Ticket, error) {
	query := r.db.Rebind(`
		SELECT id, submitter_id, subject, description, category, status, response, attachment, create_time
		FROM tickets
		WHERE submitter_id = ?
		ORDER BY id`)

	var tickets []*models.Ticket
	if err := r.db.SelectContext(ctx, &tickets, query, accountID); err != nil {
		return nil, err
	}
	return tickets, nil
}

// Respond sets the response and status in one update. Repeating the call
// with the same text is a no-op beyond rewriting identical values.
func (r *SQLTicketRepository) Respond(ctx context.Context, id int64, response string) error {
	query := r.db.Rebind(`UPDATE tickets SET response = ?, status = ? WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, response, models.TicketStatusResponded, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// MySQL reports zero affected rows when the update is a no-op
		// rewrite of identical values, so confirm absence explicitly.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return fmt.Errorf("ticket %d: %w", id, ErrNotFound)
		}
	}
	return nil
}
