package sharing

// UpsertGrant es idempotente por principal: re-otorgar reemplaza, nunca duplica.
// Conserva la posición original del principal en la lista.
func UpsertGrant(sharedWith []Grant, g Grant) []Grant {
	g.Principal = NormalizePrincipal(g.Principal)
	out := make([]Grant, 0, len(sharedWith)+1)
	replaced := false
	for _, existing := range sharedWith {
		if NormalizePrincipal(existing.Principal) != g.Principal {
			out = append(out, existing)
			continue
		}
		if !replaced {
			out = append(out, g)
			replaced = true
		}
	}
	if !replaced {
		out = append(out, g)
	}
	return out
}

// RemoveGrant quita al principal; si no existía devuelve la lista igual.
func RemoveGrant(sharedWith []Grant, principal string) []Grant {
	principal = NormalizePrincipal(principal)
	out := make([]Grant, 0, len(sharedWith))
	for _, g := range sharedWith {
		if NormalizePrincipal(g.Principal) == principal {
			continue
		}
		out = append(out, g)
	}
	return out
}

// FindGrant devuelve el primer grant que matchea la identidad (vigente o no).
func FindGrant(sharedWith []Grant, who Identity) (Grant, bool) {
	for _, g := range sharedWith {
		if who.Matches(g.Principal) {
			return g, true
		}
	}
	return Grant{}, false
}

// SupersedesLinkGrant dice si g debe reemplazar a existing aunque se pida GrantIfAbsent:
// solo pasa entre grants de origen link salidos de tokens distintos.
func SupersedesLinkGrant(existing, g Grant) bool {
	return existing.Source == SourceLink && g.Source == SourceLink && existing.TokenHash != g.TokenHash
}
