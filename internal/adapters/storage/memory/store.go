package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"pdfshare/internal/domain/documents"
	"pdfshare/internal/domain/sharing"
)

type record struct {
	meta  documents.Document
	share sharing.Document
}

// Store guarda metadata y compartición del mismo documento bajo un único lock,
// así las operaciones condicionales (canje, intentos) son atómicas.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*record
	byToken map[string]string // token hash -> doc id
}

func NewStore() *Store {
	return &Store{
		byID:    make(map[string]*record),
		byToken: make(map[string]string),
	}
}

func (s *Store) Documents() documents.Repository { return &documentsRepo{s: s} }
func (s *Store) Sharing() sharing.Repository     { return &sharingRepo{s: s} }

// documents.Repository

type documentsRepo struct{ s *Store }

func (r *documentsRepo) Create(ctx context.Context, d documents.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if d.ID == "" {
		return errors.New("document id required")
	}
	if _, exists := r.s.byID[d.ID]; exists {
		return errors.New("document already exists")
	}
	r.s.byID[d.ID] = &record{
		meta: d,
		share: sharing.Document{
			ID:       d.ID,
			OwnerID:  d.OwnerID,
			Settings: sharing.NewSettings(sharing.Disabled{}, time.Time{}),
		},
	}
	return nil
}

func (r *documentsRepo) GetByID(ctx context.Context, id string) (documents.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.byID[id]
	if !ok {
		return documents.Document{}, documents.ErrNotFound
	}
	return rec.meta, nil
}

func (r *documentsRepo) ListByOwner(ctx context.Context, ownerID string) ([]documents.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]documents.Document, 0)
	for _, rec := range r.s.byID {
		if rec.meta.OwnerID == ownerID {
			out = append(out, rec.meta)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *documentsRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.byID[id]
	if !ok {
		return documents.ErrNotFound
	}
	if rec.share.ShareToken != "" {
		delete(r.s.byToken, rec.share.ShareToken)
	}
	delete(r.s.byID, id)
	return nil
}

// sharing.Repository

type sharingRepo struct{ s *Store }

func (r *sharingRepo) GetByID(ctx context.Context, id string) (sharing.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.byID[id]
	if !ok {
		return sharing.Document{}, sharing.ErrNotFound
	}
	return rec.share.Clone(), nil
}

func (r *sharingRepo) GetByTokenHash(ctx context.Context, tokenHash string) (sharing.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byToken[tokenHash]
	if !ok || tokenHash == "" {
		return sharing.Document{}, sharing.ErrNotFound
	}
	return r.s.byID[id].share.Clone(), nil
}

func (r *sharingRepo) ListSharedWith(ctx context.Context, who sharing.Identity) ([]sharing.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]sharing.Document, 0)
	for _, rec := range r.s.byID {
		if _, ok := sharing.FindGrant(rec.share.SharedWith, who); ok {
			out = append(out, rec.share.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *sharingRepo) ApplyShare(ctx context.Context, docID string, upd sharing.ShareUpdate) (sharing.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.byID[docID]
	if !ok {
		return sharing.Document{}, sharing.ErrNotFound
	}

	// se arma el resultado completo y se publica de una vez
	next := rec.share.Clone()
	if upd.Grant != nil {
		existing, exists := sharing.FindGrant(next.SharedWith, sharing.Identity{UserID: upd.Grant.Principal, Email: upd.Grant.Principal})
		if !upd.GrantIfAbsent || !exists || sharing.SupersedesLinkGrant(existing, *upd.Grant) {
			next.SharedWith = sharing.UpsertGrant(next.SharedWith, *upd.Grant)
		}
	}
	if upd.Link != nil {
		settings := upd.Link.Settings
		settings.AccessHistory = next.Settings.AccessHistory
		settings.Visitors = next.Settings.Visitors
		if next.ShareToken != "" {
			delete(r.s.byToken, next.ShareToken)
		}
		next.ShareToken = upd.Link.TokenHash
		next.Settings = settings
		r.s.byToken[next.ShareToken] = docID
	}

	rec.share = next
	return next.Clone(), nil
}

func (r *sharingRepo) RemoveGrant(ctx context.Context, docID, principal string) (sharing.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.byID[docID]
	if !ok {
		return sharing.Document{}, sharing.ErrNotFound
	}
	rec.share.SharedWith = sharing.RemoveGrant(rec.share.SharedWith, principal)
	return rec.share.Clone(), nil
}

func (r *sharingRepo) DisableLink(ctx context.Context, docID string) (sharing.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.byID[docID]
	if !ok {
		return sharing.Document{}, sharing.ErrNotFound
	}
	// el token deja de resolver; settings y logs quedan para auditoría
	if rec.share.ShareToken != "" {
		delete(r.s.byToken, rec.share.ShareToken)
	}
	rec.share.ShareToken = ""
	rec.share.Settings.Mode = sharing.Disabled{}
	return rec.share.Clone(), nil
}

func (r *sharingRepo) ReserveAttempt(ctx context.Context, docID, tokenHash string, now time.Time) (sharing.ShareSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.byID[docID]
	if !ok || !sharing.TokenMatches(rec.share.ShareToken, tokenHash) {
		return sharing.ShareSettings{}, sharing.ErrNotFound
	}
	next, err := sharing.ReserveAttempt(rec.share.Settings, now)
	if err != nil {
		return sharing.ShareSettings{}, err
	}
	rec.share.Settings = next
	return rec.share.Clone().Settings, nil
}

func (r *sharingRepo) ResetAttempts(ctx context.Context, docID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.byID[docID]
	if !ok {
		return sharing.ErrNotFound
	}
	rec.share.Settings = sharing.RecordAttempt(rec.share.Settings, true, time.Time{})
	return nil
}

func (r *sharingRepo) Redeem(ctx context.Context, docID, tokenHash string, rec sharing.AccessRecord, now time.Time) (sharing.ShareSettings, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row, ok := r.s.byID[docID]
	if !ok {
		return sharing.ShareSettings{}, sharing.ErrNotFound
	}
	// un token regenerado entre la lectura y el canje ya no cuenta
	if !row.share.IsPublic() || !sharing.TokenMatches(row.share.ShareToken, tokenHash) {
		return sharing.ShareSettings{}, sharing.ErrNotFound
	}
	if err := sharing.CanRedeem(row.share.Settings, now); err != nil {
		return sharing.ShareSettings{}, err
	}
	row.share.Settings = sharing.RecordRedemption(row.share.Settings, sharing.Identity{Email: rec.Email}, rec.AccessToken, now)
	return row.share.Clone().Settings, nil
}

func (r *sharingRepo) AppendVisitor(ctx context.Context, docID string, v sharing.Visitor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.byID[docID]
	if !ok {
		return sharing.ErrNotFound
	}
	rec.share.Settings.Visitors = append(rec.share.Settings.Visitors, v)
	return nil
}
