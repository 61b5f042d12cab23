package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Account represents a registered credential holder, optionally an administrator.
type Account struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose in JSON
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	CreateTime   time.Time `json:"create_time" db:"create_time"`
}

// SetPassword hashes the plaintext and stores the result on the account.
// This is the only place plaintext meets the model; repositories persist
// PasswordHash verbatim, so saving an unchanged account never re-hashes.
func (a *Account) SetPassword(password string, cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hashed)
	return nil
}

// CheckPassword compares the plaintext against the stored hash.
func (a *Account) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password))
	return err == nil
}
