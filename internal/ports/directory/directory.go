package directory

import (
	"context"
	"errors"
)

var ErrUserNotFound = errors.New("user not found")

// User es lo mínimo que se necesita para resolver grants por email.
type User struct {
	ID    string
	Email string
	Name  string
}

// UserDirectory resuelve la identidad de un usuario por su ID.
type UserDirectory interface {
	Lookup(ctx context.Context, userID string) (User, error)
}
