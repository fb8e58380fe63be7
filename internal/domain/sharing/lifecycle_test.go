package sharing

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestCheckActive_FreshLinkIsActive(t *testing.T) {
	s := NewSettings(Public{}, t0)
	if err := CheckActive(s, t0); err != nil {
		t.Fatalf("expected active, got %v", err)
	}
	if State(s, t0) != StateActive {
		t.Fatalf("expected state active, got %s", State(s, t0))
	}
}

func TestCheckActive_Expired(t *testing.T) {
	s := NewSettings(Public{}, t0)
	s.ExpiresAt = timePtr(t0.Add(time.Hour))

	if err := CheckActive(s, t0.Add(time.Hour)); err != nil {
		t.Fatalf("expiry instant itself is still valid, got %v", err)
	}
	if err := CheckActive(s, t0.Add(time.Hour+time.Second)); !errors.Is(err, ErrExpiredLink) {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestCheckActive_Exhausted(t *testing.T) {
	s := NewSettings(Public{}, t0)
	s.MaxAccesses = intPtr(2)
	s.AccessCount = 2

	if err := CheckActive(s, t0); !errors.Is(err, ErrExhaustedLink) {
		t.Fatalf("expected exhausted, got %v", err)
	}
	if State(s, t0) != StateExhausted {
		t.Fatalf("expected state exhausted")
	}
}

func TestCheckActive_ExpiryTakesPrecedence(t *testing.T) {
	s := NewSettings(Public{}, t0)
	s.ExpiresAt = timePtr(t0.Add(-time.Minute))
	s.MaxAccesses = intPtr(1)
	s.AccessCount = 1
	s.AccessAttempts = 5
	s.LastAccessAttempt = timePtr(t0)

	if err := CheckActive(s, t0); !errors.Is(err, ErrExpiredLink) {
		t.Fatalf("expected expired first, got %v", err)
	}

	// sin expiración: exhausted le gana a throttled
	s.ExpiresAt = nil
	if err := CheckActive(s, t0); !errors.Is(err, ErrExhaustedLink) {
		t.Fatalf("expected exhausted before throttled, got %v", err)
	}
}

func TestRecordAttempt_ThrottlesAfterMaxFailures(t *testing.T) {
	s := NewSettings(PublicWithPassword{Hash: "x"}, t0)

	now := t0
	for i := 0; i < DefaultMaxAccessAttempts; i++ {
		if err := CheckActive(s, now); err != nil {
			t.Fatalf("attempt %d should be allowed, got %v", i+1, err)
		}
		s = RecordAttempt(s, false, now)
		now = now.Add(10 * time.Second)
	}

	err := CheckActive(s, now)
	var te *ThrottledError
	if !errors.As(err, &te) {
		t.Fatalf("expected throttled on 6th attempt, got %v", err)
	}
	last := now.Add(-10 * time.Second)
	want := last.Add(AttemptCooldown).Sub(now)
	if te.RetryAfter != want {
		t.Fatalf("expected retry after %s, got %s", want, te.RetryAfter)
	}
	if State(s, now) != StateThrottled {
		t.Fatalf("expected state throttled")
	}

	// pasado el cooldown queda como nuevo
	later := last.Add(AttemptCooldown)
	if err := CheckActive(s, later); err != nil {
		t.Fatalf("expected active after cooldown, got %v", err)
	}
	s = RecordAttempt(s, false, later)
	if s.AccessAttempts != 1 {
		t.Fatalf("expected counter restarted at 1, got %d", s.AccessAttempts)
	}
}

func TestRecordAttempt_SuccessResets(t *testing.T) {
	s := NewSettings(PublicWithPassword{Hash: "x"}, t0)
	s = RecordAttempt(s, false, t0)
	s = RecordAttempt(s, false, t0)
	s = RecordAttempt(s, true, t0)
	if s.AccessAttempts != 0 {
		t.Fatalf("expected reset, got %d", s.AccessAttempts)
	}
}

func TestReserveAttempt_RefusesWhileThrottled(t *testing.T) {
	s := NewSettings(PublicWithPassword{Hash: "x"}, t0)
	s.MaxAccessAttempts = 2

	var err error
	for i := 0; i < 2; i++ {
		s, err = ReserveAttempt(s, t0)
		if err != nil {
			t.Fatalf("reserve %d: %v", i+1, err)
		}
	}
	before := s.AccessAttempts
	s, err = ReserveAttempt(s, t0.Add(time.Minute))
	var te *ThrottledError
	if !errors.As(err, &te) {
		t.Fatalf("expected throttled, got %v", err)
	}
	if s.AccessAttempts != before {
		t.Fatalf("refused reservation must not count")
	}
}

func TestThrottledError_RetryAfterSecondsRoundsUp(t *testing.T) {
	if got := (&ThrottledError{RetryAfter: 1500 * time.Millisecond}).RetryAfterSeconds(); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := (&ThrottledError{RetryAfter: 0}).RetryAfterSeconds(); got != 1 {
		t.Fatalf("expected minimum 1, got %d", got)
	}
}

func TestRecordRedemption_AppendsHistoryWithoutDedup(t *testing.T) {
	s := NewSettings(Public{}, t0)
	s = RecordRedemption(s, Identity{Email: "A@x.io"}, "acc-1", t0)
	s = RecordRedemption(s, Identity{Email: "a@x.io"}, "acc-2", t0)

	if s.AccessCount != 2 || len(s.AccessHistory) != 2 {
		t.Fatalf("expected 2 redemptions, got count=%d history=%d", s.AccessCount, len(s.AccessHistory))
	}
	if s.AccessHistory[0].Email != "a@x.io" {
		t.Fatalf("expected normalized email, got %q", s.AccessHistory[0].Email)
	}
}

func TestState_Disabled(t *testing.T) {
	s := NewSettings(Disabled{}, t0)
	if State(s, t0) != StateDisabled {
		t.Fatalf("expected disabled")
	}
}
