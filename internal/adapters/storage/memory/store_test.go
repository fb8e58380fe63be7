package memory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pdfshare/internal/adapters/storage/memory"
	"pdfshare/internal/domain/documents"
	"pdfshare/internal/domain/sharing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, store *memory.Store, id, owner string) {
	t.Helper()
	err := store.Documents().Create(context.Background(), documents.Document{
		ID:        id,
		OwnerID:   owner,
		Title:     "report",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
}

func TestStore_ConcurrentRedemptionsRespectLimit(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seed(t, store, "doc-1", "owner-1")

	svc := sharing.NewService(store.Sharing(), sharing.Deps{})
	one := 1
	link, err := svc.CreateLink(ctx, sharing.CreateLinkInput{
		DocumentID: "doc-1",
		OwnerID:    "owner-1",
		Options:    sharing.LinkOptions{MaxAccesses: &one},
	})
	require.NoError(t, err)

	const n = 50
	var (
		wg        sync.WaitGroup
		ok        int32
		exhausted int32
		start     = make(chan struct{})
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.AccessByToken(ctx, sharing.TokenAccess{Token: link.Token})
			switch {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, sharing.ErrExhaustedLink):
				atomic.AddInt32(&exhausted, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.EqualValues(t, 1, ok)
	assert.EqualValues(t, n-1, exhausted)

	doc, err := store.Sharing().GetByID(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Settings.AccessCount)
	assert.Len(t, doc.Settings.AccessHistory, 1)
}

func TestStore_ApplyShareKeepsLogsAndSwapsToken(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seed(t, store, "doc-1", "owner-1")
	repo := store.Sharing()
	now := time.Now()

	_, oldHash := sharing.GenerateToken()
	_, err := repo.ApplyShare(ctx, "doc-1", sharing.ShareUpdate{
		Link: &sharing.LinkUpdate{TokenHash: oldHash, Settings: sharing.NewSettings(sharing.Public{}, now)},
	})
	require.NoError(t, err)
	_, err = repo.Redeem(ctx, "doc-1", oldHash, sharing.AccessRecord{AccessToken: "a1", Timestamp: now}, now)
	require.NoError(t, err)
	require.NoError(t, repo.AppendVisitor(ctx, "doc-1", sharing.Visitor{IP: "1.2.3.4", Timestamp: now}))

	_, newHash := sharing.GenerateToken()
	doc, err := repo.ApplyShare(ctx, "doc-1", sharing.ShareUpdate{
		Grant: &sharing.Grant{Principal: "u-2", Permissions: sharing.PermissionSet{CanView: true}},
		Link:  &sharing.LinkUpdate{TokenHash: newHash, Settings: sharing.NewSettings(sharing.Public{}, now)},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Settings.AccessCount)
	assert.Len(t, doc.Settings.AccessHistory, 1)
	assert.Len(t, doc.Settings.Visitors, 1)
	assert.Len(t, doc.SharedWith, 1)

	_, err = repo.GetByTokenHash(ctx, oldHash)
	assert.ErrorIs(t, err, sharing.ErrNotFound)
	got, err := repo.GetByTokenHash(ctx, newHash)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)

	// GrantIfAbsent no pisa un grant existente
	doc, err = repo.ApplyShare(ctx, "doc-1", sharing.ShareUpdate{
		Grant:         &sharing.Grant{Principal: "u-2", Permissions: sharing.FullPermissions(), Source: sharing.SourceLink},
		GrantIfAbsent: true,
	})
	require.NoError(t, err)
	assert.Equal(t, sharing.PermissionSet{CanView: true}, doc.SharedWith[0].Permissions)
}

func TestStore_StaleTokenCannotRedeemOrReserve(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seed(t, store, "doc-1", "owner-1")
	repo := store.Sharing()
	now := time.Now()
	one := 1

	_, oldHash := sharing.GenerateToken()
	_, err := repo.ApplyShare(ctx, "doc-1", sharing.ShareUpdate{
		Link: &sharing.LinkUpdate{TokenHash: oldHash, Settings: sharing.NewSettings(sharing.Public{}, now)},
	})
	require.NoError(t, err)

	// el owner regenera después de que el pedido leyó el token viejo
	_, newHash := sharing.GenerateToken()
	settings := sharing.NewSettings(sharing.Public{}, now)
	settings.MaxAccesses = &one
	_, err = repo.ApplyShare(ctx, "doc-1", sharing.ShareUpdate{
		Link: &sharing.LinkUpdate{TokenHash: newHash, Settings: settings},
	})
	require.NoError(t, err)

	_, err = repo.Redeem(ctx, "doc-1", oldHash, sharing.AccessRecord{AccessToken: "a1", Timestamp: now}, now)
	assert.ErrorIs(t, err, sharing.ErrNotFound)
	_, err = repo.ReserveAttempt(ctx, "doc-1", oldHash, now)
	assert.ErrorIs(t, err, sharing.ErrNotFound)

	doc, err := repo.GetByID(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Settings.AccessCount)
	assert.Equal(t, 0, doc.Settings.AccessAttempts)
	assert.Empty(t, doc.Settings.AccessHistory)

	got, err := repo.Redeem(ctx, "doc-1", newHash, sharing.AccessRecord{AccessToken: "a2", Timestamp: now}, now)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AccessCount)
}

func TestStore_LinkGrantFromOldTokenIsSuperseded(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seed(t, store, "doc-1", "owner-1")
	repo := store.Sharing()
	now := time.Now()

	_, oldHash := sharing.GenerateToken()
	_, newHash := sharing.GenerateToken()
	linkGrant := func(hash string) *sharing.Grant {
		return &sharing.Grant{Principal: "u-2", Permissions: sharing.FullPermissions(), Source: sharing.SourceLink, SharedAt: now, TokenHash: hash}
	}

	_, err := repo.ApplyShare(ctx, "doc-1", sharing.ShareUpdate{
		Link: &sharing.LinkUpdate{TokenHash: oldHash, Settings: sharing.NewSettings(sharing.Public{}, now)},
	})
	require.NoError(t, err)
	_, err = repo.ApplyShare(ctx, "doc-1", sharing.ShareUpdate{Grant: linkGrant(oldHash), GrantIfAbsent: true})
	require.NoError(t, err)

	doc, err := repo.ApplyShare(ctx, "doc-1", sharing.ShareUpdate{
		Link: &sharing.LinkUpdate{TokenHash: newHash, Settings: sharing.NewSettings(sharing.PublicWithPassword{Hash: "x"}, now)},
	})
	require.NoError(t, err)
	res := sharing.Resolve(doc, sharing.Requester{Identity: sharing.Identity{UserID: "u-2"}}, now)
	assert.True(t, res.Permissions.Empty(), "grant from the replaced token must not authorize")

	doc, err = repo.ApplyShare(ctx, "doc-1", sharing.ShareUpdate{Grant: linkGrant(newHash), GrantIfAbsent: true})
	require.NoError(t, err)
	require.Len(t, doc.SharedWith, 1)
	assert.Equal(t, newHash, doc.SharedWith[0].TokenHash)
}

func TestStore_ReturnedDocumentsAreCopies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seed(t, store, "doc-1", "owner-1")
	repo := store.Sharing()

	_, err := repo.ApplyShare(ctx, "doc-1", sharing.ShareUpdate{Grant: &sharing.Grant{Principal: "u-2"}})
	require.NoError(t, err)

	doc, err := repo.GetByID(ctx, "doc-1")
	require.NoError(t, err)
	doc.SharedWith[0].Principal = "mutated"

	again, err := repo.GetByID(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "u-2", again.SharedWith[0].Principal)
}

func TestStore_DeleteRemovesBothProjections(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	seed(t, store, "doc-1", "owner-1")

	_, hash := sharing.GenerateToken()
	_, err := store.Sharing().ApplyShare(ctx, "doc-1", sharing.ShareUpdate{
		Link: &sharing.LinkUpdate{TokenHash: hash, Settings: sharing.NewSettings(sharing.Public{}, time.Now())},
	})
	require.NoError(t, err)

	require.NoError(t, store.Documents().Delete(ctx, "doc-1"))

	_, err = store.Documents().GetByID(ctx, "doc-1")
	assert.ErrorIs(t, err, documents.ErrNotFound)
	_, err = store.Sharing().GetByTokenHash(ctx, hash)
	assert.ErrorIs(t, err, sharing.ErrNotFound)
	assert.ErrorIs(t, store.Documents().Delete(ctx, "doc-1"), documents.ErrNotFound)
}

func TestViewDeduper_Window(t *testing.T) {
	d := memory.NewViewDeduper()
	ctx := context.Background()

	first, err := d.FirstView(ctx, "doc-1", "a:ip", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, _ := d.FirstView(ctx, "doc-1", "a:ip", time.Minute)
	assert.False(t, again)

	other, _ := d.FirstView(ctx, "doc-2", "a:ip", time.Minute)
	assert.True(t, other)
}
