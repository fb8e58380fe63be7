package sharing

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const tokenBytes = 32

// GenerateToken devuelve el secreto crudo (para el owner, una sola vez) y su digest.
// Si crypto/rand falla no hay recuperación posible: panic.
func GenerateToken() (raw string, hash string) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("sharing: crypto/rand unavailable: %v", err))
	}
	raw = base64.RawURLEncoding.EncodeToString(b)
	return raw, HashToken(raw)
}

// HashToken es determinístico: es clave de búsqueda, no un gate de password.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// tokenPrefix sirve para logs; nunca loguear el hash completo ni el secreto.
func tokenPrefix(hash string) string {
	if len(hash) <= 8 {
		return hash
	}
	return hash[:8]
}
