package sharing

import (
	"context"
	"time"
)

// LinkUpdate reemplaza token y settings del link. Los logs (AccessHistory, Visitors)
// son append-only: los repos conservan los existentes e ignoran los de Settings.
type LinkUpdate struct {
	TokenHash string
	Settings  ShareSettings
}

// ShareUpdate es la escritura compuesta del owner. Los repos la aplican de forma
// atómica: o quedan grant y link, o no queda ninguno.
type ShareUpdate struct {
	Grant *Grant
	// GrantIfAbsent: solo inserta si el principal no tiene grant (grants de origen link);
	// un grant link de otro token se reemplaza (ver SupersedesLinkGrant).
	GrantIfAbsent bool
	Link          *LinkUpdate
}

// Repository persiste la proyección de compartición. Las operaciones sobre contadores
// deben ser atómicas (condicionales) en el storage, nunca leer-comparar-escribir.
type Repository interface {
	GetByID(ctx context.Context, id string) (Document, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (Document, error)
	ListSharedWith(ctx context.Context, who Identity) ([]Document, error)

	ApplyShare(ctx context.Context, docID string, upd ShareUpdate) (Document, error)
	RemoveGrant(ctx context.Context, docID, principal string) (Document, error)
	DisableLink(ctx context.Context, docID string) (Document, error)

	// ReserveAttempt cuenta un intento de password si no está bloqueado (ver ReserveAttempt).
	// tokenHash es el token presentado: si ya no es el vigente devuelve ErrNotFound.
	ReserveAttempt(ctx context.Context, docID, tokenHash string, now time.Time) (ShareSettings, error)
	ResetAttempts(ctx context.Context, docID string) error
	// Redeem incrementa AccessCount solo si tokenHash sigue vigente y CanRedeem se cumple
	// contra el último estado.
	Redeem(ctx context.Context, docID, tokenHash string, rec AccessRecord, now time.Time) (ShareSettings, error)
	AppendVisitor(ctx context.Context, docID string, v Visitor) error
}

// SessionClaims describe una sesión de acceso emitida tras un canje exitoso.
type SessionClaims struct {
	ID          string
	DocumentID  string
	TokenHash   string
	Email       string
	Permissions PermissionSet
	ExpiresAt   time.Time
}

// SessionTokens emite y valida sesiones de acceso (JWT en producción).
type SessionTokens interface {
	Issue(ctx context.Context, c SessionClaims) (string, SessionClaims, error)
	Parse(ctx context.Context, raw string) (SessionClaims, error)
}

// ViewDeduper responde si esta es la primera vista del visitante dentro de window.
type ViewDeduper interface {
	FirstView(ctx context.Context, docID, visitorKey string, window time.Duration) (bool, error)
}
