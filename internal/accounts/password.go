package accounts

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"moneyrider/internal/core"
)

// Scheme turns passwords into the stored form and checks them.
type Scheme interface {
	Name() string
	Hash(password string) (string, error)
	// Verify reports whether password matches stored and whether stored
	// should be replaced by a fresh Hash.
	Verify(stored, password string) (ok, rehash bool)
}

// SchemeByName returns the scheme for "plain" or "bcrypt".
func SchemeByName(name string) (Scheme, error) {
	switch name {
	case "", "plain":
		return Plain{}, nil
	case "bcrypt":
		return Bcrypt{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown password scheme %q", core.ErrInvalidInput, name)
	}
}

// Plain stores passwords verbatim and compares them exactly. It keeps the
// accounts file readable by older installs and is not a secure choice.
type Plain struct{}

func (Plain) Name() string { return "plain" }

func (Plain) Hash(password string) (string, error) { return password, nil }

func (Plain) Verify(stored, password string) (bool, bool) {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1, false
}

// Bcrypt stores bcrypt hashes. Entries that are not bcrypt hashes are
// treated as plaintext from before the switch and flagged for rehash.
type Bcrypt struct {
	Cost int
}

func (Bcrypt) Name() string { return "bcrypt" }

func (b Bcrypt) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password longer than 72 bytes", core.ErrInvalidInput)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (Bcrypt) Verify(stored, password string) (bool, bool) {
	if _, err := bcrypt.Cost([]byte(stored)); err != nil {
		ok, _ := Plain{}.Verify(stored, password)
		return ok, ok
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil, false
}
