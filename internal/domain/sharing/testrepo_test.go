package sharing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	mu      sync.Mutex
	byID    map[string]Document
	byToken map[string]string
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Document{}, byToken: map[string]string{}}
}

func (r *testRepo) put(d Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.Settings.Mode == nil {
		d.Settings = NewSettings(Disabled{}, time.Time{})
	}
	r.byID[d.ID] = d.Clone()
	if d.ShareToken != "" {
		r.byToken[d.ShareToken] = d.ID
	}
}

func (r *testRepo) get(id string) Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id].Clone()
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return d.Clone(), nil
}

func (r *testRepo) GetByTokenHash(ctx context.Context, tokenHash string) (Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byToken[tokenHash]
	if !ok {
		return Document{}, ErrNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *testRepo) ListSharedWith(ctx context.Context, who Identity) ([]Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Document{}
	for _, d := range r.byID {
		if _, ok := FindGrant(d.SharedWith, who); ok {
			out = append(out, d.Clone())
		}
	}
	return out, nil
}

func (r *testRepo) ApplyShare(ctx context.Context, docID string, upd ShareUpdate) (Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[docID]
	if !ok {
		return Document{}, ErrNotFound
	}
	if upd.Grant != nil {
		existing, exists := FindGrant(d.SharedWith, Identity{UserID: upd.Grant.Principal, Email: upd.Grant.Principal})
		if !upd.GrantIfAbsent || !exists || SupersedesLinkGrant(existing, *upd.Grant) {
			d.SharedWith = UpsertGrant(d.SharedWith, *upd.Grant)
		}
	}
	if upd.Link != nil {
		s := upd.Link.Settings
		s.AccessHistory = d.Settings.AccessHistory
		s.Visitors = d.Settings.Visitors
		delete(r.byToken, d.ShareToken)
		d.ShareToken = upd.Link.TokenHash
		d.Settings = s
		r.byToken[d.ShareToken] = docID
	}
	r.byID[docID] = d
	return d.Clone(), nil
}

func (r *testRepo) RemoveGrant(ctx context.Context, docID, principal string) (Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[docID]
	if !ok {
		return Document{}, ErrNotFound
	}
	d.SharedWith = RemoveGrant(d.SharedWith, principal)
	r.byID[docID] = d
	return d.Clone(), nil
}

func (r *testRepo) DisableLink(ctx context.Context, docID string) (Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[docID]
	if !ok {
		return Document{}, ErrNotFound
	}
	delete(r.byToken, d.ShareToken)
	d.ShareToken = ""
	d.Settings.Mode = Disabled{}
	r.byID[docID] = d
	return d.Clone(), nil
}

func (r *testRepo) ReserveAttempt(ctx context.Context, docID, tokenHash string, now time.Time) (ShareSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[docID]
	if !ok || !TokenMatches(d.ShareToken, tokenHash) {
		return ShareSettings{}, ErrNotFound
	}
	next, err := ReserveAttempt(d.Settings, now)
	if err != nil {
		return ShareSettings{}, err
	}
	d.Settings = next
	r.byID[docID] = d
	return next.clone(), nil
}

func (r *testRepo) ResetAttempts(ctx context.Context, docID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[docID]
	if !ok {
		return ErrNotFound
	}
	d.Settings = RecordAttempt(d.Settings, true, time.Time{})
	r.byID[docID] = d
	return nil
}

func (r *testRepo) Redeem(ctx context.Context, docID, tokenHash string, rec AccessRecord, now time.Time) (ShareSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[docID]
	if !ok || !d.IsPublic() || !TokenMatches(d.ShareToken, tokenHash) {
		return ShareSettings{}, ErrNotFound
	}
	if err := CanRedeem(d.Settings, now); err != nil {
		return ShareSettings{}, err
	}
	d.Settings = RecordRedemption(d.Settings, Identity{Email: rec.Email}, rec.AccessToken, now)
	r.byID[docID] = d
	return d.Settings.clone(), nil
}

func (r *testRepo) AppendVisitor(ctx context.Context, docID string, v Visitor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.byID[docID]
	if !ok {
		return ErrNotFound
	}
	d.Settings.Visitors = append(d.Settings.Visitors, v)
	r.byID[docID] = d
	return nil
}

// lookupHookRepo corre afterLookup una vez, justo después de GetByTokenHash, para
// simular una escritura del owner en medio de un acceso.
type lookupHookRepo struct {
	*testRepo
	afterLookup func()
}

func (r *lookupHookRepo) GetByTokenHash(ctx context.Context, tokenHash string) (Document, error) {
	d, err := r.testRepo.GetByTokenHash(ctx, tokenHash)
	if hook := r.afterLookup; hook != nil {
		r.afterLookup = nil
		hook()
	}
	return d, err
}

// -------------------------
// Test sessions / views
// -------------------------

type testSessions struct {
	mu     sync.Mutex
	n      int
	issued map[string]SessionClaims
}

func newTestSessions() *testSessions {
	return &testSessions{issued: map[string]SessionClaims{}}
}

func (s *testSessions) Issue(ctx context.Context, c SessionClaims) (string, SessionClaims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	tok := fmt.Sprintf("session-%d", s.n)
	c.ExpiresAt = time.Now().Add(time.Hour)
	s.issued[tok] = c
	return tok, c, nil
}

func (s *testSessions) Parse(ctx context.Context, raw string) (SessionClaims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.issued[raw]
	if !ok {
		return SessionClaims{}, errors.New("unknown session")
	}
	return c, nil
}

type testViews struct {
	seen map[string]bool
}

func (v *testViews) FirstView(ctx context.Context, docID, visitorKey string, window time.Duration) (bool, error) {
	k := docID + "|" + visitorKey
	if v.seen[k] {
		return false, nil
	}
	v.seen[k] = true
	return true, nil
}

// -------------------------
// Helpers
// -------------------------

var (
	testHasherOnce sync.Once
	testHasher     *PasswordHasher
)

// fastHasher baja el costo de argon2id para que los tests no tarden.
func fastHasher() *PasswordHasher {
	testHasherOnce.Do(func() {
		testHasher = NewPasswordHasherWithParams(&argon2id.Params{
			Memory:      1024,
			Iterations:  1,
			Parallelism: 1,
			SaltLength:  16,
			KeyLength:   32,
		})
	})
	return testHasher
}

type testClock struct {
	t time.Time
}

func (c *testClock) now() time.Time          { return c.t }
func (c *testClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(repo Repository) (*Service, *testClock) {
	clock := &testClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := NewService(repo, Deps{Hasher: fastHasher()})
	svc.now = clock.now
	return svc, clock
}

func intPtr(n int) *int              { return &n }
func boolPtr(b bool) *bool           { return &b }
func timePtr(t time.Time) *time.Time { return &t }
