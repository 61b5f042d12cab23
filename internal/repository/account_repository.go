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

// SQLAccountRepository persists accounts through sqlx.
type SQLAccountRepository struct {
	db *sqlx.DB
}

// NewSQLAccountRepository creates a new account repository.
func NewSQLAccountRepository(db *sqlx.DB) *SQLAccountRepository {
	return &SQLAccountRepository{db: db}
}

// Create inserts a new account. The password hash is persisted verbatim.
func (r *SQLAccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.CreateTime.IsZero() {
		account.CreateTime = time.Now()
	}

	query := r.db.Rebind(`
		INSERT INTO accounts (username, password_hash, is_admin, create_time)
		VALUES (?, ?, ?, ?)`)

	if r.db.DriverName() == "postgres" {
		query += " RETURNING id"
		return r.db.QueryRowContext(ctx, query,
			account.Username, account.PasswordHash, account.IsAdmin, account.CreateTime,
		).Scan(&account.ID)
	}

	result, err := r.db.ExecContext(ctx, query,
		account.Username, account.PasswordHash, account.IsAdmin, account.CreateTime)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	account.ID = id
	return nil
}

// GetByID retrieves an account by ID.
func (r *SQLAccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := r.db.Rebind(`
		SELECT id, username, password_hash, is_admin, create_time
		FROM accounts
		WHERE id = ?`)

	var account models.Account
	err := r.db.GetContext(ctx, &account, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByUsername retrieves an account by its unique username.
func (r *SQLAccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := r.db.Rebind(`
		SELECT id, username, password_hash, is_admin, create_time
		FROM accounts
		WHERE username = ?`)

	var account models.Account
	err := r.db.GetContext(ctx, &account, query, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdatePassword replaces the stored hash for the given account.
func (r *SQLAccountRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := r.db.Rebind(`UPDATE accounts SET password_hash = ? WHERE id = ?`)

	result, err := r.db.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("account %d: %w", id, ErrNotFound)
	}
	return nil
}
