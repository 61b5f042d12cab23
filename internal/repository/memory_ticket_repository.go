package repository

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// MemoryTicketRepository implements TicketRepository with in-memory storage.
// This is for development/testing. Production uses the SQL implementation.
type MemoryTicketRepository struct {
	mu       sync.RWMutex
	tickets  map[int64]*models.Ticket
	order    []int64
	nextID   int64
	accounts AccountRepository // optional, for resolving submitter usernames
}

// NewMemoryTicketRepository creates a new in-memory ticket repository.
// accounts may be nil; submitter usernames then stay empty in listings.
func NewMemoryTicketRepository(accounts AccountRepository) *MemoryTicketRepository {
	return &MemoryTicketRepository{
		tickets:  make(map[int64]*models.Ticket),
		nextID:   1,
		accounts: accounts,
	}
}

func (r *MemoryTicketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket.ID = r.nextID
	r.nextID++

	if ticket.Status == "" {
		ticket.Status = models.TicketStatusOpen
	}
	if ticket.CreateTime.IsZero() {
		ticket.CreateTime = time.Now()
	}

	stored := *ticket
	r.tickets[ticket.ID] = &stored
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *MemoryTicketRepository) GetByID(ctx context.Context, id int64) (*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, exists := r.tickets[id]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *ticket
	return &copied, nil
}

func (r *MemoryTicketRepository) ListOpen(ctx context.Context) ([]*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tickets []*models.Ticket
	for _, id := range r.order {
		t := r.tickets[id]
		if t.Status != models.TicketStatusOpen {
			continue
		}
		copied := *t
		if r.accounts != nil && copied.SubmitterID.Valid {
			if account, err := r.accounts.GetByID(ctx, copied.SubmitterID.Int64); err == nil {
				copied.SubmitterUsername = account.Username
			}
		}
		tickets = append(tickets, &copied)
	}
	return tickets, nil
}

func (r *MemoryTicketRepository) ListBySubmitter(ctx context.Context, accountID int64) ([]*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tickets []*models.Ticket
	for _, id := range r.order {
		t := r.tickets[id]
		if !t.SubmitterID.Valid || t.SubmitterID.Int64 != accountID {
			continue
		}
		copied := *t
		tickets = append(tickets, &copied)
	}
	return tickets, nil
}

func (r *MemoryTicketRepository) Respond(ctx context.Context, id int64, response string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, exists := r.tickets[id]
	if !exists {
		return ErrNotFound
	}
	ticket.Response = sql.NullString{String: response, Valid: true}
	ticket.Status = models.TicketStatusResponded
	return nil
}
