package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

// MemoryAccountRepository implements AccountRepository with in-memory storage.
// This is for development/testing. Production uses the SQL implementation.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[int64]*models.Account
	byName   map[string]int64
	nextID   int64
}

// NewMemoryAccountRepository creates a new in-memory account repository.
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[int64]*models.Account),
		byName:   make(map[string]int64),
		nextID:   1,
	}
}

func (r *MemoryAccountRepository) Create(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[account.Username]; exists {
		return fmt.Errorf("username %q already exists", account.Username)
	}

	account.ID = r.nextID
	r.nextID++
	if account.CreateTime.IsZero() {
		account.CreateTime = time.Now()
	}

	stored := *account
	r.accounts[account.ID] = &stored
	r.byName[account.Username] = account.ID
	return nil
}

func (r *MemoryAccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *MemoryAccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byName[username]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *r.accounts[id]
	return &copied, nil
}

func (r *MemoryAccountRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, exists := r.accounts[id]
	if !exists {
		return ErrNotFound
	}
	account.PasswordHash = passwordHash
	return nil
}
