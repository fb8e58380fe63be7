package sharing

import "time"

type LinkState string

const (
	StateActive    LinkState = "active"
	StateExpired   LinkState = "expired"
	StateExhausted LinkState = "exhausted"
	StateThrottled LinkState = "throttled"
	StateDisabled  LinkState = "disabled"
)

// CheckActive evalúa el ciclo de vida del link en orden: expiración, cupo, throttling.
// Expired y Exhausted son terminales; Throttled se levanta solo al pasar el cooldown.
func CheckActive(s ShareSettings, now time.Time) error {
	if s.ExpiresAt != nil && now.After(*s.ExpiresAt) {
		return ErrExpiredLink
	}
	if s.MaxAccesses != nil && s.AccessCount >= *s.MaxAccesses {
		return ErrExhaustedLink
	}
	if wait, throttled := throttleRemaining(s, now); throttled {
		return &ThrottledError{RetryAfter: wait}
	}
	return nil
}

// State es la vista de CheckActive para el owner.
func State(s ShareSettings, now time.Time) LinkState {
	if _, off := s.Mode.(Disabled); off || s.Mode == nil {
		return StateDisabled
	}
	switch err := CheckActive(s, now); {
	case err == nil:
		return StateActive
	case err == ErrExpiredLink:
		return StateExpired
	case err == ErrExhaustedLink:
		return StateExhausted
	default:
		return StateThrottled
	}
}

// RecordAttempt aplica el resultado de una verificación de password. Pura: el caller persiste.
func RecordAttempt(s ShareSettings, success bool, now time.Time) ShareSettings {
	out := s.clone()
	if success {
		out.AccessAttempts = 0
		return out
	}
	if cooldownElapsed(out, now) {
		out.AccessAttempts = 0
	}
	out.AccessAttempts++
	t := now
	out.LastAccessAttempt = &t
	return out
}

// RecordRedemption suma un canje y lo registra en el historial. No deduplica.
func RecordRedemption(s ShareSettings, who Identity, accessToken string, now time.Time) ShareSettings {
	out := s.clone()
	out.AccessCount++
	out.AccessHistory = append(out.AccessHistory, AccessRecord{
		Email:       NormalizePrincipal(who.Email),
		Timestamp:   now,
		AccessToken: accessToken,
	})
	return out
}

// CanRedeem es la condición que los repos aplican atómicamente al canjear.
func CanRedeem(s ShareSettings, now time.Time) error {
	if s.ExpiresAt != nil && now.After(*s.ExpiresAt) {
		return ErrExpiredLink
	}
	if s.MaxAccesses != nil && s.AccessCount >= *s.MaxAccesses {
		return ErrExhaustedLink
	}
	return nil
}

// ReserveAttempt es la condición + transformación que los repos aplican atómicamente
// antes de verificar un password: si está bloqueado devuelve ThrottledError; si no,
// cuenta el intento (un éxito posterior lo resetea a 0).
func ReserveAttempt(s ShareSettings, now time.Time) (ShareSettings, error) {
	if wait, throttled := throttleRemaining(s, now); throttled {
		return s, &ThrottledError{RetryAfter: wait}
	}
	return RecordAttempt(s, false, now), nil
}

func maxAttempts(s ShareSettings) int {
	if s.MaxAccessAttempts <= 0 {
		return DefaultMaxAccessAttempts
	}
	return s.MaxAccessAttempts
}

func cooldownElapsed(s ShareSettings, now time.Time) bool {
	if s.LastAccessAttempt == nil {
		return true
	}
	return !now.Before(s.LastAccessAttempt.Add(AttemptCooldown))
}

func throttleRemaining(s ShareSettings, now time.Time) (time.Duration, bool) {
	if s.AccessAttempts < maxAttempts(s) || cooldownElapsed(s, now) {
		return 0, false
	}
	return s.LastAccessAttempt.Add(AttemptCooldown).Sub(now), true
}
