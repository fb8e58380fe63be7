package sharing

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrNotAuthorized   = errors.New("not authorized")
	ErrExpiredLink     = errors.New("this share link has expired")
	ErrExhaustedLink   = errors.New("maximum access limit reached")
	ErrInvalidPassword = errors.New("invalid password")
	ErrPasswordNeeded  = errors.New("password required")
)

// ThrottledError indica demasiados intentos fallidos de password.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %d seconds", e.RetryAfterSeconds())
}

// RetryAfterSeconds redondea hacia arriba; nunca devuelve 0 mientras siga bloqueado.
func (e *ThrottledError) RetryAfterSeconds() int {
	s := int(math.Ceil(e.RetryAfter.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}

// IntegrityError marca estado persistido corrupto (hash malformado, settings faltantes).
// No se expone al cliente; se loguea y se responde 500.
type IntegrityError struct {
	DocumentID string
	Reason     string
	Err        error
}

func (e *IntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("integrity: document %s: %s: %v", e.DocumentID, e.Reason, e.Err)
	}
	return fmt.Sprintf("integrity: document %s: %s", e.DocumentID, e.Reason)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}
