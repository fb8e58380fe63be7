package sharing

import (
	"context"
	"errors"
	"strings"
	"time"
)

// TokenAccess es un intento de acceso vía link.
type TokenAccess struct {
	Token    string // secreto crudo presentado
	Password string
	Session  string // sesión previa (X-Share-Session)
	Identity Identity
	Action   Action
	Visitor  Visitor
}

type AccessResult struct {
	Document    Document
	Permissions PermissionSet
	Paths       []Path

	// Session/SessionExpiresAt vienen solo cuando se emitió una sesión nueva.
	Session          string
	SessionExpiresAt time.Time
}

// AccessByToken resuelve un acceso con token: owner y grants explícitos no consumen
// el link; si no, pasa por el guard (expiración, cupo, throttling), password y canje
// atómico, en ese orden.
func (s *Service) AccessByToken(ctx context.Context, in TokenAccess) (AccessResult, error) {
	raw := strings.TrimSpace(in.Token)
	if raw == "" {
		return AccessResult{}, ErrNotFound
	}
	if in.Action == "" {
		in.Action = ActionView
	}

	hash := HashToken(raw)
	doc, err := s.repo.GetByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AccessResult{}, ErrNotFound
		}
		return AccessResult{}, err
	}
	if err := checkIntegrity(doc); err != nil {
		s.reportIntegrity(err)
		return AccessResult{}, err
	}

	now := s.now()
	who := in.Identity

	// owner y grant explícito: sin tocar contadores
	direct := Resolve(doc, Requester{Identity: who}, now)
	if direct.Permissions.Allows(in.Action) {
		s.trackView(ctx, doc, in, now)
		return AccessResult{Document: doc, Permissions: direct.Permissions, Paths: direct.Paths}, nil
	}

	if !doc.IsPublic() {
		return AccessResult{}, DenyError(who)
	}

	if in.Session != "" {
		res, ok, err := s.accessWithSession(ctx, doc, in, hash, now)
		if err != nil {
			return AccessResult{}, err
		}
		if ok {
			s.trackView(ctx, doc, in, now)
			return res, nil
		}
	}

	if err := CheckActive(doc.Settings, now); err != nil {
		return AccessResult{}, err
	}

	// la acción pedida tiene que estar permitida antes de consumir un canje
	if !direct.Permissions.Union(linkPermissions(doc.Settings)).Allows(in.Action) {
		return AccessResult{}, ErrNotAuthorized
	}

	req := Requester{Identity: who, TokenHash: hash}
	if pwHash, needs := RequiresPassword(doc.Settings.Mode); needs {
		if err := s.verifyLinkPassword(ctx, doc, hash, pwHash, in.Password, now); err != nil {
			return AccessResult{}, err
		}
		req.PasswordVerified = true
	}

	accessID := newAccessID()
	settings, err := s.repo.Redeem(ctx, doc.ID, hash, AccessRecord{
		Email:       NormalizePrincipal(who.Email),
		Timestamp:   now,
		AccessToken: accessID,
	}, now)
	if err != nil {
		if errors.Is(err, ErrExhaustedLink) || errors.Is(err, ErrExpiredLink) {
			s.log.Debug("redemption rejected", map[string]any{"doc_id": doc.ID, "reason": err.Error()})
		}
		return AccessResult{}, err
	}
	doc.Settings = settings
	req.Redeemed = true

	res := Resolve(doc, req, now)
	out := AccessResult{Document: doc, Permissions: res.Permissions, Paths: res.Paths}

	if s.sessions != nil {
		token, claims, err := s.sessions.Issue(ctx, SessionClaims{
			ID:          accessID,
			DocumentID:  doc.ID,
			TokenHash:   doc.ShareToken,
			Email:       NormalizePrincipal(who.Email),
			Permissions: linkPermissions(doc.Settings),
		})
		if err != nil {
			s.log.Warn("share session not issued", map[string]any{"doc_id": doc.ID, "err": err})
		} else {
			out.Session = token
			out.SessionExpiresAt = claims.ExpiresAt
		}
	}

	s.recordLinkGrant(ctx, doc, who, now)
	s.trackView(ctx, doc, in, now)

	s.log.Info("share link redeemed", map[string]any{
		"doc_id":       doc.ID,
		"token_prefix": tokenPrefix(hash),
		"access_count": settings.AccessCount,
		"action":       string(in.Action),
	})
	return out, nil
}

// verifyLinkPassword reserva el intento de forma atómica (persistido antes de
// verificar) y lo resetea solo si el password es correcto.
func (s *Service) verifyLinkPassword(ctx context.Context, doc Document, tokenHash, pwHash, plain string, now time.Time) error {
	if plain == "" {
		return ErrPasswordNeeded
	}

	if _, err := s.repo.ReserveAttempt(ctx, doc.ID, tokenHash, now); err != nil {
		return err
	}

	ok, err := s.hasher.VerifyPassword(plain, pwHash)
	if err != nil {
		err = withDocument(err, doc.ID)
		s.reportIntegrity(err)
		return err
	}
	if !ok {
		s.log.Info("share password rejected", map[string]any{"doc_id": doc.ID})
		return ErrInvalidPassword
	}

	if err := s.repo.ResetAttempts(ctx, doc.ID); err != nil {
		return err
	}
	return nil
}

// accessWithSession valida una sesión previa. ok=false significa "ignorar la sesión
// y seguir por el camino normal" (sesión inválida o de otro link).
func (s *Service) accessWithSession(ctx context.Context, doc Document, in TokenAccess, hash string, now time.Time) (AccessResult, bool, error) {
	if s.sessions == nil {
		return AccessResult{}, false, nil
	}
	claims, err := s.sessions.Parse(ctx, in.Session)
	if err != nil {
		return AccessResult{}, false, nil
	}
	if claims.DocumentID != doc.ID || !TokenMatches(doc.ShareToken, claims.TokenHash) {
		return AccessResult{}, false, nil
	}
	if doc.Settings.ExpiresAt != nil && now.After(*doc.Settings.ExpiresAt) {
		return AccessResult{}, false, ErrExpiredLink
	}

	res := Resolve(doc, Requester{Identity: in.Identity, TokenHash: hash, Redeemed: true}, now)
	if res.Via(PathLink) {
		// la sesión nunca da más de lo que el link daba al emitirla
		grant, _ := grantPermissions(doc, in.Identity, now)
		res.Permissions = grant.Union(linkPermissions(doc.Settings).Intersect(claims.Permissions))
	}
	if !res.Permissions.Allows(in.Action) {
		return AccessResult{}, false, ErrNotAuthorized
	}
	return AccessResult{Document: doc, Permissions: res.Permissions, Paths: res.Paths}, true, nil
}

// recordLinkGrant deja constancia de un usuario autenticado que entró por link, para
// que aparezca en "compartidos conmigo". Sus permisos quedan acotados por el link.
func (s *Service) recordLinkGrant(ctx context.Context, doc Document, who Identity, now time.Time) {
	if who.Anonymous() || who.UserID == doc.OwnerID {
		return
	}
	g := Grant{
		Principal:   NormalizePrincipal(who.UserID),
		Permissions: linkPermissions(doc.Settings),
		Source:      SourceLink,
		SharedAt:    now,
		ExpiresAt:   doc.Settings.ExpiresAt,
		TokenHash:   doc.ShareToken,
	}
	if _, err := s.repo.ApplyShare(ctx, doc.ID, ShareUpdate{Grant: &g, GrantIfAbsent: true}); err != nil {
		s.log.Warn("link grant not recorded", map[string]any{"doc_id": doc.ID, "err": err})
	}
}

// trackView es telemetría: una vista por visitante cada ViewDedupWindow. No afecta
// AccessCount, que cuenta canjes sin deduplicar.
func (s *Service) trackView(ctx context.Context, doc Document, in TokenAccess, now time.Time) {
	if in.Action != ActionView {
		return
	}
	v := in.Visitor
	v.Timestamp = now

	if s.views != nil {
		key := visitorKey(in.Identity, v)
		first, err := s.views.FirstView(ctx, doc.ID, key, ViewDedupWindow)
		if err != nil {
			s.log.Warn("view dedup unavailable", map[string]any{"doc_id": doc.ID, "err": err})
		} else if !first {
			return
		}
	}

	if err := s.repo.AppendVisitor(ctx, doc.ID, v); err != nil {
		s.log.Warn("visitor not recorded", map[string]any{"doc_id": doc.ID, "err": err})
	}
}

func visitorKey(who Identity, v Visitor) string {
	if !who.Anonymous() {
		return "u:" + who.UserID
	}
	return "a:" + v.IP + "|" + v.UserAgent
}
