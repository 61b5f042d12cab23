package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountPassword(t *testing.T) {
	t.Run("set and check", func(t *testing.T) {
		a := &Account{Username: "alice"}
		require.NoError(t, a.SetPassword("pw1234", 10))

		assert.NotEqual(t, "pw1234", a.PasswordHash)
		assert.True(t, strings.HasPrefix(a.PasswordHash, "$2"))
		assert.True(t, a.CheckPassword("pw1234"))
		assert.False(t, a.CheckPassword("wrong"))
	})

	t.Run("out of range cost falls back to default", func(t *testing.T) {
		a := &Account{Username: "bob"}
		require.NoError(t, a.SetPassword("secret", 99))
		assert.True(t, a.CheckPassword("secret"))
	})

	t.Run("hash differs per call via random salt", func(t *testing.T) {
		a, b := &Account{}, &Account{}
		require.NoError(t, a.SetPassword("same", 10))
		require.NoError(t, b.SetPassword("same", 10))
		assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
	})
}

func TestTicketIsOpen(t *testing.T) {
	tk := &Ticket{Status: TicketStatusOpen}
	assert.True(t, tk.IsOpen())
	tk.Status = TicketStatusResponded
	assert.False(t, tk.IsOpen())
}
