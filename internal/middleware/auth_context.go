package middleware

import (
	"context"
	"net/http"
	"strings"

	"pdfshare/internal/platform/logger"
	"pdfshare/internal/ports/auth"
	"pdfshare/internal/ports/directory"
)

type ctxKey string

const claimsKey ctxKey = "claims"

const (
	HeaderDebugUserID    = "X-Debug-User-ID"
	HeaderDebugUserEmail = "X-Debug-User-Email"
)

// AuthOptions configura AuthContext. Todo es opcional.
type AuthOptions struct {
	Verifier  auth.AuthVerifier
	Directory directory.UserDirectory
	Logger    logger.Logger
}

// AuthContext:
// - Si Verifier != nil y viene Bearer token => intenta Verify() y setea claims.
// - Si Verifier == nil => modo dev: X-Debug-User-ID (y opcional X-Debug-User-Email) setean claims.
// - Si las claims no traen email y hay Directory, se completan desde ahí (los grants por email lo necesitan).
// - Si no hay claims, el request sigue igual; los handlers decidirán si exigen auth.
func AuthContext(opts AuthOptions) func(http.Handler) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := resolveClaims(r, opts.Verifier, log)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if claims.Email == "" && opts.Directory != nil {
				u, err := opts.Directory.Lookup(r.Context(), claims.UserID)
				if err != nil {
					log.Debug("directory lookup failed", map[string]any{"user_id": claims.UserID, "err": err})
				} else {
					claims.Email = u.Email
					if claims.Name == "" {
						claims.Name = u.Name
					}
				}
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func resolveClaims(r *http.Request, verifier auth.AuthVerifier, log logger.Logger) (auth.Claims, bool) {
	// Dev mode: permitir inyectar user sin verifier
	if verifier == nil {
		uid := strings.TrimSpace(r.Header.Get(HeaderDebugUserID))
		if uid == "" {
			return auth.Claims{}, false
		}
		return auth.Claims{
			UserID: uid,
			Email:  strings.TrimSpace(r.Header.Get(HeaderDebugUserEmail)),
		}, true
	}

	token := bearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return auth.Claims{}, false
	}

	claims, err := verifier.Verify(r.Context(), token)
	if err != nil {
		// No cortamos aquí. El handler decide 401/403/404.
		log.Debug("bearer rejected", map[string]any{"err": err})
		return auth.Claims{}, false
	}
	return claims, true
}

func WithClaims(ctx context.Context, c auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
