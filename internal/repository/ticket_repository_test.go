package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-io/helpdesk-ce/internal/models"
)

func TestSQLTicketRepositoryCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSQLTicketRepository(db)

	mock.ExpectQuery(`INSERT INTO tickets`).
		WithArgs(sqlmock.AnyArg(), "Printer broken", "Toner out", "hardware",
			models.TicketStatusOpen, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	ticket := &models.Ticket{
		SubmitterID: sql.NullInt64{Int64: 1, Valid: true},
		Subject:     "Printer broken",
		Description: "Toner out",
		Category:    "hardware",
	}
	require.NoError(t, repo.Create(context.Background(), ticket))
	assert.Equal(t, int64(42), ticket.ID)
	assert.Equal(t, models.TicketStatusOpen, ticket.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLTicketRepositoryListOpen(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSQLTicketRepository(db)

	cols := []string{"id", "submitter_id", "subject", "description", "category",
		"status", "response", "attachment", "create_time", "submitter_username"}
	rows := sqlmock.NewRows(cols).
		AddRow(1, 1, "Printer broken", "Toner out", "hardware",
			models.TicketStatusOpen, nil, nil, time.Now(), "alice").
		AddRow(2, nil, "VPN down", "No tunnel", "network",
			models.TicketStatusOpen, nil, nil, time.Now(), "")
	mock.ExpectQuery(`SELECT (.+) FROM tickets t`).
		WithArgs(models.TicketStatusOpen).
		WillReturnRows(rows)

	tickets, err := repo.ListOpen(context.Background())
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "alice", tickets[0].SubmitterUsername)
	assert.False(t, tickets[1].SubmitterID.Valid)
}

func TestSQLTicketRepositoryRespond(t *testing.T) {
	t.Run("single update sets response and status", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSQLTicketRepository(db)

		mock.ExpectExec(`UPDATE tickets SET response`).
			WithArgs("Replaced toner", models.TicketStatusResponded, int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Respond(context.Background(), 1, "Replaced toner"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero affected rows rechecks existence", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewSQLTicketRepository(db)

		mock.ExpectExec(`UPDATE tickets SET response`).
			WithArgs("Replaced toner", models.TicketStatusResponded, int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT (.+) FROM tickets`).WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		err := repo.Respond(context.Background(), 9, "Replaced toner")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryTicketRepository(t *testing.T) {
	accounts := NewMemoryAccountRepository()
	alice := &models.Account{Username: "alice", PasswordHash: "x"}
	require.NoError(t, accounts.Create(context.Background(), alice))

	repo := NewMemoryTicketRepository(accounts)
	ctx := context.Background()

	t1 := &models.Ticket{
		SubmitterID: sql.NullInt64{Int64: alice.ID, Valid: true},
		Subject:     "Printer broken", Description: "Toner out", Category: "hardware",
	}
	t2 := &models.Ticket{Subject: "VPN down", Description: "No tunnel", Category: "network"}
	require.NoError(t, repo.Create(ctx, t1))
	require.NoError(t, repo.Create(ctx, t2))

	t.Run("open listing resolves submitter usernames in insertion order", func(t *testing.T) {
		open, err := repo.ListOpen(ctx)
		require.NoError(t, err)
		require.Len(t, open, 2)
		assert.Equal(t, "alice", open[0].SubmitterUsername)
		assert.Empty(t, open[1].SubmitterUsername)
	})

	t.Run("submitter listing is scoped to the caller", func(t *testing.T) {
		mine, err := repo.ListBySubmitter(ctx, alice.ID)
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, t1.ID, mine[0].ID)
	})

	t.Run("respond flips status and drops the ticket from the open set", func(t *testing.T) {
		require.NoError(t, repo.Respond(ctx, t1.ID, "Replaced toner"))

		got, err := repo.GetByID(ctx, t1.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TicketStatusResponded, got.Status)
		assert.Equal(t, "Replaced toner", got.Response.String)

		open, err := repo.ListOpen(ctx)
		require.NoError(t, err)
		assert.Len(t, open, 1)
	})

	t.Run("respond on unknown id", func(t *testing.T) {
		assert.ErrorIs(t, repo.Respond(ctx, 999, "x"), ErrNotFound)
	})
}
