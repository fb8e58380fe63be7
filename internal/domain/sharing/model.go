package sharing

import (
	"strings"
	"time"
)

const (
	DefaultMaxAccessAttempts = 5
	AttemptCooldown          = 15 * time.Minute
	ViewDedupWindow          = 5 * time.Minute
)

// GrantSource distingue grants emitidos por el owner de los registrados al canjear un link.
type GrantSource string

const (
	SourceOwner GrantSource = "owner"
	SourceLink  GrantSource = "link"
)

type Grant struct {
	Principal   string
	Permissions PermissionSet
	Source      GrantSource
	SharedAt    time.Time
	ExpiresAt   *time.Time
	// TokenHash es el hash del link que originó un grant SourceLink.
	TokenHash string
}

func (g Grant) ExpiredAt(now time.Time) bool {
	return g.ExpiresAt != nil && now.After(*g.ExpiresAt)
}

type AccessRecord struct {
	Email       string
	Timestamp   time.Time
	AccessToken string // jti de la sesión emitida, nunca el secreto del link
}

type Visitor struct {
	Timestamp time.Time
	UserAgent string
	IP        string
}

type ShareSettings struct {
	Mode ShareMode

	CreatedAt time.Time
	ExpiresAt *time.Time

	AllowDownload bool
	AllowComments bool

	MaxAccessAttempts int
	AccessAttempts    int
	LastAccessAttempt *time.Time

	MaxAccesses *int // nil = ilimitado
	AccessCount int

	AccessHistory []AccessRecord
	Visitors      []Visitor
}

// Document es la proyección de compartición de un documento.
type Document struct {
	ID      string
	OwnerID string

	ShareToken string // sha256 hex del secreto activo
	Settings   ShareSettings
	SharedWith []Grant
}

func (d Document) IsPublic() bool {
	_, disabled := d.Settings.Mode.(Disabled)
	return d.Settings.Mode != nil && !disabled
}

// Identity es quien hace el request. UserID vacío = anónimo.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

func (i Identity) Anonymous() bool {
	return strings.TrimSpace(i.UserID) == ""
}

func NormalizePrincipal(p string) string {
	p = strings.TrimSpace(p)
	if strings.Contains(p, "@") {
		return strings.ToLower(p)
	}
	return p
}

// Matches compara un principal (userID o email) contra la identidad.
func (i Identity) Matches(principal string) bool {
	principal = NormalizePrincipal(principal)
	if principal == "" || i.Anonymous() {
		return false
	}
	if principal == strings.TrimSpace(i.UserID) {
		return true
	}
	email := NormalizePrincipal(i.Email)
	return email != "" && principal == email
}

// NewSettings devuelve settings con los defaults de un link recién creado.
func NewSettings(mode ShareMode, now time.Time) ShareSettings {
	if mode == nil {
		mode = Disabled{}
	}
	return ShareSettings{
		Mode:              mode,
		CreatedAt:         now,
		AllowDownload:     true,
		AllowComments:     true,
		MaxAccessAttempts: DefaultMaxAccessAttempts,
	}
}

func (s ShareSettings) clone() ShareSettings {
	out := s
	out.AccessHistory = append([]AccessRecord(nil), s.AccessHistory...)
	out.Visitors = append([]Visitor(nil), s.Visitors...)
	if s.ExpiresAt != nil {
		t := *s.ExpiresAt
		out.ExpiresAt = &t
	}
	if s.LastAccessAttempt != nil {
		t := *s.LastAccessAttempt
		out.LastAccessAttempt = &t
	}
	if s.MaxAccesses != nil {
		n := *s.MaxAccesses
		out.MaxAccesses = &n
	}
	return out
}

// Clone copia profunda; los repos in-memory la usan para no compartir slices.
func (d Document) Clone() Document {
	out := d
	out.Settings = d.Settings.clone()
	out.SharedWith = append([]Grant(nil), d.SharedWith...)
	return out
}
