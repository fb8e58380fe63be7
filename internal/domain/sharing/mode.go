package sharing

// ShareMode es una variante cerrada: Disabled, Public o PublicWithPassword.
// La ausencia de password es un hecho de tipo, no un chequeo de string vacío.
type ShareMode interface {
	modeName() string
}

type Disabled struct{}

type Public struct{}

type PublicWithPassword struct {
	Hash string
}

func (Disabled) modeName() string           { return "disabled" }
func (Public) modeName() string             { return "public" }
func (PublicWithPassword) modeName() string { return "public_with_password" }

// ModeName expone el nombre estable del modo (para persistencia y respuestas).
func ModeName(m ShareMode) string {
	if m == nil {
		return Disabled{}.modeName()
	}
	return m.modeName()
}

// RequiresPassword devuelve el hash si el modo exige password.
func RequiresPassword(m ShareMode) (string, bool) {
	p, ok := m.(PublicWithPassword)
	if !ok {
		return "", false
	}
	return p.Hash, true
}

// ModeFromColumns reconstruye el modo desde columnas persistidas (is_public + password_hash).
func ModeFromColumns(isPublic bool, passwordHash string) ShareMode {
	if !isPublic {
		return Disabled{}
	}
	if passwordHash != "" {
		return PublicWithPassword{Hash: passwordHash}
	}
	return Public{}
}

// ModeColumns es el inverso de ModeFromColumns.
func ModeColumns(m ShareMode) (isPublic bool, passwordHash string) {
	switch v := m.(type) {
	case Public:
		return true, ""
	case PublicWithPassword:
		return true, v.Hash
	default:
		return false, ""
	}
}
