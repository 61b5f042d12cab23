// Package service implements the ticket workflow on top of the repositories.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
	"github.com/helpdesk-io/helpdesk-ce/internal/repository"
	"github.com/helpdesk-io/helpdesk-ce/internal/storage"
)

// ErrValidation covers missing required ticket fields.
var ErrValidation = errors.New("validation failed")

// ErrNotFound is returned when a ticket ID resolves nothing.
var ErrNotFound = repository.ErrNotFound

// Attachment is an uploaded file pending storage.
type Attachment struct {
	Filename string
	Content  io.Reader
}

// TicketService owns ticket creation, listing and administrator responses.
type TicketService struct {
	tickets   repository.TicketRepository
	files     storage.Backend
	sanitizer *bluemonday.Policy
	log       *zap.Logger
}

// NewTicketService creates a new ticket service. files may be nil when
// attachment uploads are disabled.
func NewTicketService(tickets repository.TicketRepository, files storage.Backend, log *zap.Logger) *TicketService {
	if log == nil {
		log = zap.NewNop()
	}
	return &TicketService{
		tickets:   tickets,
		files:     files,
		sanitizer: bluemonday.UGCPolicy(),
		log:       log,
	}
}

// Create files a new ticket. submitter may be nil for anonymous submissions;
// the three text fields are required. The attachment, if present, is stored
// through the backend and only its reference is kept on the ticket.
func (s *TicketService) Create(ctx context.Context, submitter *models.Account, subject, description, category string, attachment *Attachment) (*models.Ticket, error) {
	subject = strings.TrimSpace(subject)
	description = strings.TrimSpace(description)
	category = strings.TrimSpace(category)
	if subject == "" || description == "" || category == "" {
		return nil, fmt.Errorf("%w: subject, description and category are required", ErrValidation)
	}

	ticket := &models.Ticket{
		Subject:     s.sanitizer.Sanitize(subject),
		Description: s.sanitizer.Sanitize(description),
		Category:    category,
		Status:      models.TicketStatusOpen,
	}
	if submitter != nil {
		ticket.SubmitterID = sql.NullInt64{Int64: submitter.ID, Valid: true}
	}

	if attachment != nil && s.files != nil {
		ref, err := s.files.Store(ctx, attachment.Filename, attachment.Content)
		if err != nil {
			return nil, err
		}
		ticket.Attachment = sql.NullString{String: ref, Valid: true}
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		// An orphaned attachment is useless without its ticket row.
		if ticket.Attachment.Valid {
			if delErr := s.files.Delete(ctx, ticket.Attachment.String); delErr != nil {
				s.log.Warn("failed to clean up attachment", zap.Error(delErr))
			}
		}
		return nil, err
	}

	s.log.Info("ticket created",
		zap.Int64("ticket_id", ticket.ID),
		zap.String("category", ticket.Category),
		zap.Bool("has_attachment", ticket.Attachment.Valid))
	return ticket, nil
}

// ListOpen returns every open ticket with submitter usernames resolved.
// Administrator scope.
func (s *TicketService) ListOpen(ctx context.Context) ([]*models.Ticket, error) {
	return s.tickets.ListOpen(ctx)
}

// ListForSubmitter returns only the caller's tickets.
func (s *TicketService) ListForSubmitter(ctx context.Context, accountID int64) ([]*models.Ticket, error) {
	return s.tickets.ListBySubmitter(ctx, accountID)
}

// GetByID resolves a single ticket.
func (s *TicketService) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// Respond attaches an administrator response and flips the status to
// responded in a single update. Idempotent on repeated identical calls.
func (s *TicketService) Respond(ctx context.Context, id int64, responseText string) (*models.Ticket, error) {
	responseText = strings.TrimSpace(responseText)
	if responseText == "" {
		return nil, fmt.Errorf("%w: response text is required", ErrValidation)
	}

	if err := s.tickets.Respond(ctx, id, s.sanitizer.Sanitize(responseText)); err != nil {
		return nil, err
	}

	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.Info("ticket responded", zap.Int64("ticket_id", id))
	return ticket, nil
}

// OpenAttachment streams a stored attachment for download.
func (s *TicketService) OpenAttachment(ctx context.Context, ticket *models.Ticket) (io.ReadCloser, error) {
	if s.files == nil || !ticket.Attachment.Valid {
		return nil, storage.ErrNotFound
	}
	return s.files.Open(ctx, ticket.Attachment.String)
}
