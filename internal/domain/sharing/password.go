package sharing

import (
	"errors"
	"strings"

	"github.com/alexedwards/argon2id"
)

// PasswordHasher hashea y verifica passwords de links con argon2id.
type PasswordHasher struct {
	params *argon2id.Params
	// referencia válida para igualar timing cuando el hash guardado está malformado
	reference string
}

// NewPasswordHasher usa argon2id.DefaultParams (64MiB, 1 iteración): decenas de ms por verificación.
func NewPasswordHasher() *PasswordHasher {
	return NewPasswordHasherWithParams(argon2id.DefaultParams)
}

func NewPasswordHasherWithParams(p *argon2id.Params) *PasswordHasher {
	if p == nil {
		p = argon2id.DefaultParams
	}
	ref, err := argon2id.CreateHash("reference-password", p)
	if err != nil {
		panic("sharing: argon2id reference hash: " + err.Error())
	}
	return &PasswordHasher{params: p, reference: ref}
}

func (h *PasswordHasher) HashPassword(plain string) (string, error) {
	if plain == "" {
		return "", ErrInvalidInput
	}
	return argon2id.CreateHash(plain, h.params)
}

// VerifyPassword devuelve false ante mismatch. Un hash malformado es IntegrityError,
// pero antes se corre una comparación completa contra la referencia.
func (h *PasswordHasher) VerifyPassword(plain, encoded string) (bool, error) {
	if !strings.HasPrefix(encoded, "$argon2id$") {
		_, _ = argon2id.ComparePasswordAndHash(plain, h.reference)
		return false, &IntegrityError{Reason: "malformed password hash"}
	}

	ok, err := argon2id.ComparePasswordAndHash(plain, encoded)
	if err != nil {
		_, _ = argon2id.ComparePasswordAndHash(plain, h.reference)
		return false, &IntegrityError{Reason: "malformed password hash", Err: err}
	}
	return ok, nil
}

// withDocument completa el DocumentID de un IntegrityError que viene del hasher.
func withDocument(err error, docID string) error {
	var ie *IntegrityError
	if errors.As(err, &ie) && ie.DocumentID == "" {
		ie.DocumentID = docID
	}
	return err
}
