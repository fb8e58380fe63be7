package sharing

import (
	"context"
	"errors"
	"strings"
	"time"

	"pdfshare/internal/platform/logger"

	"github.com/google/uuid"
)

type Deps struct {
	Hasher   *PasswordHasher
	Sessions SessionTokens // opcional: sin sesiones cada request canjea
	Views    ViewDeduper   // opcional: sin dedup cada vista cuenta como visitante
	Logger   logger.Logger
}

type Service struct {
	repo     Repository
	hasher   *PasswordHasher
	sessions SessionTokens
	views    ViewDeduper
	log      logger.Logger
	now      func() time.Time
}

func NewService(repo Repository, deps Deps) *Service {
	if deps.Hasher == nil {
		deps.Hasher = NewPasswordHasher()
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	return &Service{
		repo:     repo,
		hasher:   deps.Hasher,
		sessions: deps.Sessions,
		views:    deps.Views,
		log:      deps.Logger.With(map[string]any{"component": "sharing"}),
		now:      time.Now,
	}
}

// LinkOptions configura un link nuevo. Punteros nil = default.
type LinkOptions struct {
	Password          string
	ExpiresAt         *time.Time
	AllowDownload     *bool
	AllowComments     *bool
	MaxAccesses       *int
	MaxAccessAttempts int
}

type CreateLinkInput struct {
	DocumentID string
	OwnerID    string
	Options    LinkOptions
}

// LinkResult lleva el secreto crudo: es la única vez que sale del servicio.
type LinkResult struct {
	Token    string
	Document Document
}

// CreateLink genera (o regenera) el link público. El token anterior queda invalidado.
func (s *Service) CreateLink(ctx context.Context, in CreateLinkInput) (LinkResult, error) {
	doc, err := s.ownedDocument(ctx, in.DocumentID, in.OwnerID)
	if err != nil {
		return LinkResult{}, err
	}

	now := s.now()
	settings, err := s.buildSettings(in.Options, now)
	if err != nil {
		return LinkResult{}, err
	}

	raw, hash := GenerateToken()
	updated, err := s.repo.ApplyShare(ctx, doc.ID, ShareUpdate{
		Link: &LinkUpdate{TokenHash: hash, Settings: settings},
	})
	if err != nil {
		return LinkResult{}, err
	}

	s.log.Info("share link created", map[string]any{
		"doc_id":       doc.ID,
		"token_prefix": tokenPrefix(hash),
		"mode":         ModeName(settings.Mode),
	})
	return LinkResult{Token: raw, Document: updated}, nil
}

type GrantInput struct {
	DocumentID  string
	OwnerID     string
	Principal   string // userID o email
	Permissions PermissionSet
	ExpiresAt   *time.Time

	// WithLink activa el flujo compuesto "compartir con email": además del grant
	// asegura un link activo. FreshLink fuerza regenerarlo.
	WithLink  bool
	FreshLink bool
	Link      LinkOptions
}

type GrantResult struct {
	Grant Grant
	// Token solo viene si se generó un link en esta operación.
	Token    string
	Document Document
}

// ShareWithGrant hace upsert del grant y, si corresponde, genera el link, en una sola
// escritura atómica del repo.
func (s *Service) ShareWithGrant(ctx context.Context, in GrantInput) (GrantResult, error) {
	doc, err := s.ownedDocument(ctx, in.DocumentID, in.OwnerID)
	if err != nil {
		return GrantResult{}, err
	}

	principal := NormalizePrincipal(in.Principal)
	if principal == "" || principal == doc.OwnerID {
		return GrantResult{}, ErrInvalidInput
	}

	now := s.now()
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return GrantResult{}, ErrInvalidInput
	}

	perms := in.Permissions
	if perms.Empty() {
		perms = PermissionSet{CanView: true}
	}
	// comentar o descargar sin poder ver no tiene sentido
	perms.CanView = true

	g := Grant{
		Principal:   principal,
		Permissions: perms,
		Source:      SourceOwner,
		SharedAt:    now,
		ExpiresAt:   in.ExpiresAt,
	}
	upd := ShareUpdate{Grant: &g}

	var raw string
	if in.WithLink && (in.FreshLink || !hasActiveLink(doc, now)) {
		settings, err := s.buildSettings(in.Link, now)
		if err != nil {
			return GrantResult{}, err
		}
		var hash string
		raw, hash = GenerateToken()
		upd.Link = &LinkUpdate{TokenHash: hash, Settings: settings}
	}

	updated, err := s.repo.ApplyShare(ctx, doc.ID, upd)
	if err != nil {
		return GrantResult{}, err
	}

	s.log.Info("access granted", map[string]any{
		"doc_id":       doc.ID,
		"principal":    principal,
		"link_created": raw != "",
	})
	return GrantResult{Grant: g, Token: raw, Document: updated}, nil
}

func (s *Service) RevokeGrant(ctx context.Context, docID, ownerID, principal string) (Document, error) {
	doc, err := s.ownedDocument(ctx, docID, ownerID)
	if err != nil {
		return Document{}, err
	}
	principal = NormalizePrincipal(principal)
	if principal == "" {
		return Document{}, ErrInvalidInput
	}

	updated, err := s.repo.RemoveGrant(ctx, doc.ID, principal)
	if err != nil {
		return Document{}, err
	}
	s.log.Info("access revoked", map[string]any{"doc_id": doc.ID, "principal": principal})
	return updated, nil
}

func (s *Service) ListGrants(ctx context.Context, docID, ownerID string) ([]Grant, error) {
	doc, err := s.ownedDocument(ctx, docID, ownerID)
	if err != nil {
		return nil, err
	}
	return doc.SharedWith, nil
}

// DisableLink apaga el link público; los grants explícitos siguen vigentes.
func (s *Service) DisableLink(ctx context.Context, docID, ownerID string) (Document, error) {
	doc, err := s.ownedDocument(ctx, docID, ownerID)
	if err != nil {
		return Document{}, err
	}
	return s.repo.DisableLink(ctx, doc.ID)
}

type LinkStatus struct {
	State    LinkState
	Mode     string
	Settings ShareSettings
}

func (s *Service) LinkStatus(ctx context.Context, docID, ownerID string) (LinkStatus, error) {
	doc, err := s.ownedDocument(ctx, docID, ownerID)
	if err != nil {
		return LinkStatus{}, err
	}
	return LinkStatus{
		State:    State(doc.Settings, s.now()),
		Mode:     ModeName(doc.Settings.Mode),
		Settings: doc.Settings,
	}, nil
}

// ResolveByID resuelve permisos sin token (owner o grant explícito).
func (s *Service) ResolveByID(ctx context.Context, docID string, who Identity) (Resolution, error) {
	doc, err := s.repo.GetByID(ctx, strings.TrimSpace(docID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Resolution{}, ErrNotFound
		}
		return Resolution{}, err
	}
	res := Resolve(doc, Requester{Identity: who}, s.now())
	if res.Permissions.Empty() {
		return Resolution{}, DenyError(who)
	}
	return res, nil
}

// Authorize es ResolveByID + chequeo de la acción pedida.
func (s *Service) Authorize(ctx context.Context, docID string, who Identity, action Action) (Resolution, error) {
	res, err := s.ResolveByID(ctx, docID, who)
	if err != nil {
		return Resolution{}, err
	}
	if !res.Permissions.Allows(action) {
		return Resolution{}, ErrNotAuthorized
	}
	return res, nil
}

// SharedWithMe lista documentos con grant vigente para la identidad.
func (s *Service) SharedWithMe(ctx context.Context, who Identity) ([]Document, error) {
	if who.Anonymous() {
		return nil, ErrInvalidInput
	}
	docs, err := s.repo.ListSharedWith(ctx, who)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if _, ok := grantPermissions(d, who, now); ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *Service) ownedDocument(ctx context.Context, docID, ownerID string) (Document, error) {
	docID = strings.TrimSpace(docID)
	ownerID = strings.TrimSpace(ownerID)
	if docID == "" || ownerID == "" {
		return Document{}, ErrInvalidInput
	}
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if doc.OwnerID != ownerID {
		return Document{}, ErrForbidden
	}
	return doc, nil
}

func (s *Service) buildSettings(o LinkOptions, now time.Time) (ShareSettings, error) {
	var mode ShareMode = Public{}
	if o.Password != "" {
		h, err := s.hasher.HashPassword(o.Password)
		if err != nil {
			return ShareSettings{}, err
		}
		mode = PublicWithPassword{Hash: h}
	}

	settings := NewSettings(mode, now)

	if o.ExpiresAt != nil {
		if !o.ExpiresAt.After(now) {
			return ShareSettings{}, ErrInvalidInput
		}
		t := o.ExpiresAt.UTC()
		settings.ExpiresAt = &t
	}
	if o.AllowDownload != nil {
		settings.AllowDownload = *o.AllowDownload
	}
	if o.AllowComments != nil {
		settings.AllowComments = *o.AllowComments
	}
	if o.MaxAccesses != nil {
		if *o.MaxAccesses < 1 {
			return ShareSettings{}, ErrInvalidInput
		}
		n := *o.MaxAccesses
		settings.MaxAccesses = &n
	}
	if o.MaxAccessAttempts < 0 {
		return ShareSettings{}, ErrInvalidInput
	}
	if o.MaxAccessAttempts > 0 {
		settings.MaxAccessAttempts = o.MaxAccessAttempts
	}
	return settings, nil
}

func hasActiveLink(doc Document, now time.Time) bool {
	return doc.IsPublic() && doc.ShareToken != "" && CanRedeem(doc.Settings, now) == nil
}

// checkIntegrity detecta estados persistidos que dejarían el chequeo indefinido.
func checkIntegrity(doc Document) error {
	if !doc.IsPublic() {
		return nil
	}
	if doc.ShareToken == "" {
		return &IntegrityError{DocumentID: doc.ID, Reason: "public document without share token"}
	}
	if doc.Settings.CreatedAt.IsZero() {
		return &IntegrityError{DocumentID: doc.ID, Reason: "public document without share settings"}
	}
	if h, ok := RequiresPassword(doc.Settings.Mode); ok && h == "" {
		return &IntegrityError{DocumentID: doc.ID, Reason: "empty password hash"}
	}
	return nil
}

func (s *Service) reportIntegrity(err error) {
	var ie *IntegrityError
	if !errors.As(err, &ie) {
		return
	}
	s.log.Error("share state integrity fault", map[string]any{
		"integrity": true,
		"doc_id":    ie.DocumentID,
		"reason":    ie.Reason,
	})
}

func newAccessID() string { return uuid.NewString() }
