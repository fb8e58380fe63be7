package sharing

import (
	"crypto/subtle"
	"errors"
	"time"
)

// Requester agrupa lo que el caller presentó en este request.
type Requester struct {
	Identity Identity

	// TokenHash es HashToken(token presentado); vacío si no vino token.
	TokenHash string
	// PasswordVerified: el password del link se verificó en este request.
	PasswordVerified bool
	// Redeemed: el request ya ganó el canje atómico o trae una sesión válida.
	// El cupo ya fue aplicado por el repo, así que solo se re-chequea expiración.
	Redeemed bool
}

type Path string

const (
	PathOwner Path = "owner"
	PathGrant Path = "grant"
	PathLink  Path = "link"
)

type Resolution struct {
	Permissions PermissionSet
	Paths       []Path
}

func (r Resolution) Via(p Path) bool {
	for _, x := range r.Paths {
		if x == p {
			return true
		}
	}
	return false
}

// Resolve decide permisos con precedencia owner > grant explícito > link público > nada.
// Si más de un camino otorga acceso, los permisos son la unión. No tiene efectos.
func Resolve(doc Document, req Requester, now time.Time) Resolution {
	who := req.Identity

	// 1) Owner: todo, sin mirar ciclo de vida ni password.
	if !who.Anonymous() && who.UserID == doc.OwnerID {
		return Resolution{Permissions: FullPermissions(), Paths: []Path{PathOwner}}
	}

	var out Resolution

	// 2) Grants explícitos (puede haber uno por userID y otro por email).
	if perms, ok := grantPermissions(doc, who, now); ok {
		out.Permissions = out.Permissions.Union(perms)
		out.Paths = append(out.Paths, PathGrant)
	}

	// 3) Link público.
	if linkUnlocked(doc, req, now) {
		out.Permissions = out.Permissions.Union(linkPermissions(doc.Settings))
		out.Paths = append(out.Paths, PathLink)
	}

	return out
}

// DenyError es el error a devolver cuando Resolve no otorga nada. Un anónimo
// recibe lo mismo que para un documento inexistente.
func DenyError(who Identity) error {
	if who.Anonymous() {
		return ErrNotFound
	}
	return ErrNotAuthorized
}

func grantPermissions(doc Document, who Identity, now time.Time) (PermissionSet, bool) {
	if who.Anonymous() {
		return PermissionSet{}, false
	}
	var perms PermissionSet
	found := false
	for _, g := range doc.SharedWith {
		if !who.Matches(g.Principal) || g.ExpiredAt(now) {
			continue
		}
		p := g.Permissions
		if g.Source == SourceLink {
			// un grant de origen link vale mientras su token sea el vigente
			if !doc.IsPublic() || !TokenMatches(doc.ShareToken, g.TokenHash) {
				continue
			}
			if errors.Is(CheckActive(doc.Settings, now), ErrExpiredLink) {
				continue
			}
			p = p.Intersect(linkPermissions(doc.Settings))
		}
		perms = perms.Union(p)
		found = true
	}
	return perms, found && !perms.Empty()
}

func linkUnlocked(doc Document, req Requester, now time.Time) bool {
	if !doc.IsPublic() || req.TokenHash == "" || doc.ShareToken == "" {
		return false
	}
	if !TokenMatches(doc.ShareToken, req.TokenHash) {
		return false
	}
	if req.Redeemed {
		return doc.Settings.ExpiresAt == nil || !now.After(*doc.Settings.ExpiresAt)
	}
	if CheckActive(doc.Settings, now) != nil {
		return false
	}
	if _, needs := RequiresPassword(doc.Settings.Mode); needs && !req.PasswordVerified {
		return false
	}
	return true
}

// TokenMatches compara digests en tiempo constante.
func TokenMatches(stored, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
