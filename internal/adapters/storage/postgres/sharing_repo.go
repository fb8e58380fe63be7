package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"pdfshare/internal/domain/sharing"

	sq "github.com/Masterminds/squirrel"
)

// SharingRepo persiste la proyección de compartición sobre la tabla documents
// y sus tablas hijas. Los contadores se actualizan con UPDATE condicionales.
type SharingRepo struct {
	db *sql.DB
}

func NewSharingRepo(db *sql.DB) *SharingRepo {
	return &SharingRepo{db: db}
}

var shareColumns = []string{
	"id", "owner_id", "share_token", "is_public", "password_hash",
	"share_created_at", "expires_at", "allow_download", "allow_comments",
	"max_access_attempts", "access_attempts", "last_access_attempt",
	"max_accesses", "access_count",
}

// effectiveMaxAttempts replica el default de sharing cuando la columna viene en 0.
var effectiveMaxAttempts = fmt.Sprintf(
	"(CASE WHEN max_access_attempts <= 0 THEN %d ELSE max_access_attempts END)",
	sharing.DefaultMaxAccessAttempts,
)

func (r *SharingRepo) GetByID(ctx context.Context, id string) (sharing.Document, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return sharing.Document{}, sharing.ErrNotFound
	}
	return r.load(ctx, r.db, sq.Eq{"id": id})
}

func (r *SharingRepo) GetByTokenHash(ctx context.Context, tokenHash string) (sharing.Document, error) {
	if strings.TrimSpace(tokenHash) == "" {
		return sharing.Document{}, sharing.ErrNotFound
	}
	return r.load(ctx, r.db, sq.Eq{"share_token": tokenHash})
}

func (r *SharingRepo) ListSharedWith(ctx context.Context, who sharing.Identity) ([]sharing.Document, error) {
	principals := []string{strings.TrimSpace(who.UserID)}
	if email := sharing.NormalizePrincipal(who.Email); email != "" {
		principals = append(principals, email)
	}

	q, args, err := qb().Select("DISTINCT document_id").From("document_grants").
		Where(sq.Eq{"principal": principals}).
		OrderBy("document_id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]sharing.Document, 0, len(ids))
	for _, id := range ids {
		d, err := r.load(ctx, r.db, sq.Eq{"id": id})
		if err != nil {
			if errors.Is(err, sharing.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// ApplyShare escribe grant y link en una sola transacción.
func (r *SharingRepo) ApplyShare(ctx context.Context, docID string, upd sharing.ShareUpdate) (sharing.Document, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return sharing.Document{}, err
	}
	defer func() { _ = tx.Rollback() }()

	// lock de la fila para serializar escrituras del owner
	q, args, err := qb().Select("id").From("documents").Where(sq.Eq{"id": docID}).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return sharing.Document{}, err
	}
	var locked string
	if err := tx.QueryRowContext(ctx, q, args...).Scan(&locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sharing.Document{}, sharing.ErrNotFound
		}
		return sharing.Document{}, err
	}

	if g := upd.Grant; g != nil {
		ins := qb().Insert("document_grants").
			Columns("document_id", "principal", "can_view", "can_comment", "can_download", "source", "token_hash", "shared_at", "expires_at").
			Values(docID, sharing.NormalizePrincipal(g.Principal),
				g.Permissions.CanView, g.Permissions.CanComment, g.Permissions.CanDownload,
				string(grantSource(g.Source)), g.TokenHash, g.SharedAt, toNullTime(g.ExpiresAt))
		if upd.GrantIfAbsent {
			// solo se pisa un grant de origen link que salió de otro token
			ins = ins.Suffix(`ON CONFLICT (document_id, principal) DO UPDATE SET
				can_view = EXCLUDED.can_view,
				can_comment = EXCLUDED.can_comment,
				can_download = EXCLUDED.can_download,
				token_hash = EXCLUDED.token_hash,
				shared_at = EXCLUDED.shared_at,
				expires_at = EXCLUDED.expires_at
				WHERE document_grants.source = 'link' AND EXCLUDED.source = 'link'
				AND document_grants.token_hash <> EXCLUDED.token_hash`)
		} else {
			ins = ins.Suffix(`ON CONFLICT (document_id, principal) DO UPDATE SET
				can_view = EXCLUDED.can_view,
				can_comment = EXCLUDED.can_comment,
				can_download = EXCLUDED.can_download,
				source = EXCLUDED.source,
				token_hash = EXCLUDED.token_hash,
				shared_at = EXCLUDED.shared_at,
				expires_at = EXCLUDED.expires_at`)
		}
		q, args, err := ins.ToSql()
		if err != nil {
			return sharing.Document{}, err
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return sharing.Document{}, err
		}
	}

	if l := upd.Link; l != nil {
		s := l.Settings
		isPublic, pwHash := sharing.ModeColumns(s.Mode)
		var maxAccesses sql.NullInt64
		if s.MaxAccesses != nil {
			maxAccesses = sql.NullInt64{Int64: int64(*s.MaxAccesses), Valid: true}
		}
		q, args, err := qb().Update("documents").
			Set("share_token", l.TokenHash).
			Set("is_public", isPublic).
			Set("password_hash", pwHash).
			Set("share_created_at", s.CreatedAt).
			Set("expires_at", toNullTime(s.ExpiresAt)).
			Set("allow_download", s.AllowDownload).
			Set("allow_comments", s.AllowComments).
			Set("max_access_attempts", s.MaxAccessAttempts).
			Set("access_attempts", s.AccessAttempts).
			Set("last_access_attempt", toNullTime(s.LastAccessAttempt)).
			Set("max_accesses", maxAccesses).
			Set("access_count", s.AccessCount).
			Set("updated_at", time.Now().UTC()).
			Where(sq.Eq{"id": docID}).
			ToSql()
		if err != nil {
			return sharing.Document{}, err
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return sharing.Document{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return sharing.Document{}, err
	}
	return r.load(ctx, r.db, sq.Eq{"id": docID})
}

func (r *SharingRepo) RemoveGrant(ctx context.Context, docID, principal string) (sharing.Document, error) {
	q, args, err := qb().Delete("document_grants").
		Where(sq.Eq{"document_id": docID, "principal": sharing.NormalizePrincipal(principal)}).
		ToSql()
	if err != nil {
		return sharing.Document{}, err
	}
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return sharing.Document{}, err
	}
	return r.load(ctx, r.db, sq.Eq{"id": docID})
}

// DisableLink suelta el token; settings y logs quedan para auditoría.
func (r *SharingRepo) DisableLink(ctx context.Context, docID string) (sharing.Document, error) {
	q, args, err := qb().Update("documents").
		Set("share_token", nil).
		Set("is_public", false).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": docID}).
		ToSql()
	if err != nil {
		return sharing.Document{}, err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return sharing.Document{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sharing.Document{}, sharing.ErrNotFound
	}
	return r.load(ctx, r.db, sq.Eq{"id": docID})
}

// ReserveAttempt cuenta el intento solo si el link no está bloqueado, en un único UPDATE.
// cutoff = now - cooldown: un último intento anterior a cutoff ya no bloquea y reinicia la cuenta.
func (r *SharingRepo) ReserveAttempt(ctx context.Context, docID, tokenHash string, now time.Time) (sharing.ShareSettings, error) {
	// Postgres guarda microsegundos
	now = now.Truncate(time.Microsecond)
	cutoff := now.Add(-sharing.AttemptCooldown)

	q, args, err := qb().Update("documents").
		Set("access_attempts", sq.Expr(
			"CASE WHEN last_access_attempt IS NULL OR last_access_attempt <= ? THEN 1 ELSE access_attempts + 1 END", cutoff)).
		Set("last_access_attempt", now).
		Where(sq.Eq{"id": docID, "share_token": tokenHash}).
		Where(sq.Expr("NOT (access_attempts >= "+effectiveMaxAttempts+" AND COALESCE(last_access_attempt > ?, FALSE))", cutoff)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return sharing.ShareSettings{}, err
	}

	var id string
	err = r.db.QueryRowContext(ctx, q, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		// no existe, cambió el token o está bloqueado: se recalcula el motivo desde el estado actual
		d, lerr := r.load(ctx, r.db, sq.Eq{"id": docID})
		if lerr != nil {
			return sharing.ShareSettings{}, lerr
		}
		if !sharing.TokenMatches(d.ShareToken, tokenHash) {
			return sharing.ShareSettings{}, sharing.ErrNotFound
		}
		if _, rerr := sharing.ReserveAttempt(d.Settings, now); rerr != nil {
			return sharing.ShareSettings{}, rerr
		}
		return sharing.ShareSettings{}, &sharing.ThrottledError{RetryAfter: time.Second}
	}
	if err != nil {
		return sharing.ShareSettings{}, err
	}

	d, err := r.load(ctx, r.db, sq.Eq{"id": docID})
	if err != nil {
		return sharing.ShareSettings{}, err
	}
	return d.Settings, nil
}

func (r *SharingRepo) ResetAttempts(ctx context.Context, docID string) error {
	q, args, err := qb().Update("documents").Set("access_attempts", 0).Where(sq.Eq{"id": docID}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sharing.ErrNotFound
	}
	return nil
}

// Redeem incrementa access_count solo si el token presentado sigue siendo el del link
// y éste sigue vigente y con cupo; el historial se inserta en la misma transacción.
func (r *SharingRepo) Redeem(ctx context.Context, docID, tokenHash string, rec sharing.AccessRecord, now time.Time) (sharing.ShareSettings, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return sharing.ShareSettings{}, err
	}
	defer func() { _ = tx.Rollback() }()

	q, args, err := qb().Update("documents").
		Set("access_count", sq.Expr("access_count + 1")).
		Where(sq.Eq{"id": docID, "share_token": tokenHash, "is_public": true}).
		Where(sq.Or{sq.Eq{"expires_at": nil}, sq.GtOrEq{"expires_at": now}}).
		Where(sq.Or{sq.Eq{"max_accesses": nil}, sq.Expr("access_count < max_accesses")}).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return sharing.ShareSettings{}, err
	}

	var id string
	err = tx.QueryRowContext(ctx, q, args...).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		d, lerr := r.load(ctx, r.db, sq.Eq{"id": docID})
		if lerr != nil {
			return sharing.ShareSettings{}, lerr
		}
		if !d.IsPublic() || !sharing.TokenMatches(d.ShareToken, tokenHash) {
			return sharing.ShareSettings{}, sharing.ErrNotFound
		}
		if cerr := sharing.CanRedeem(d.Settings, now); cerr != nil {
			return sharing.ShareSettings{}, cerr
		}
		return sharing.ShareSettings{}, sharing.ErrExhaustedLink
	}
	if err != nil {
		return sharing.ShareSettings{}, err
	}

	q, args, err = qb().Insert("share_access_history").
		Columns("document_id", "email", "access_token", "accessed_at").
		Values(docID, sharing.NormalizePrincipal(rec.Email), rec.AccessToken, rec.Timestamp).
		ToSql()
	if err != nil {
		return sharing.ShareSettings{}, err
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return sharing.ShareSettings{}, err
	}

	if err := tx.Commit(); err != nil {
		return sharing.ShareSettings{}, err
	}

	d, err := r.load(ctx, r.db, sq.Eq{"id": docID})
	if err != nil {
		return sharing.ShareSettings{}, err
	}
	return d.Settings, nil
}

func (r *SharingRepo) AppendVisitor(ctx context.Context, docID string, v sharing.Visitor) error {
	q, args, err := qb().Insert("share_visitors").
		Columns("document_id", "user_agent", "ip", "visited_at").
		Values(docID, v.UserAgent, v.IP, v.Timestamp).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	return err
}

// load arma el Document completo: fila, grants, historial y visitantes.
func (r *SharingRepo) load(ctx context.Context, db queryer, where sq.Sqlizer) (sharing.Document, error) {
	q, args, err := qb().Select(shareColumns...).From("documents").Where(where).ToSql()
	if err != nil {
		return sharing.Document{}, err
	}

	var (
		d              sharing.Document
		token          sql.NullString
		isPublic       bool
		pwHash         string
		shareCreatedAt sql.NullTime
		expiresAt      sql.NullTime
		lastAttempt    sql.NullTime
		maxAccesses    sql.NullInt64
	)
	s := &d.Settings
	if err := db.QueryRowContext(ctx, q, args...).Scan(
		&d.ID,
		&d.OwnerID,
		&token,
		&isPublic,
		&pwHash,
		&shareCreatedAt,
		&expiresAt,
		&s.AllowDownload,
		&s.AllowComments,
		&s.MaxAccessAttempts,
		&s.AccessAttempts,
		&lastAttempt,
		&maxAccesses,
		&s.AccessCount,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sharing.Document{}, sharing.ErrNotFound
		}
		return sharing.Document{}, err
	}

	d.ShareToken = token.String
	s.Mode = sharing.ModeFromColumns(isPublic, pwHash)
	if shareCreatedAt.Valid {
		s.CreatedAt = shareCreatedAt.Time
	}
	s.ExpiresAt = fromNullTime(expiresAt)
	s.LastAccessAttempt = fromNullTime(lastAttempt)
	if maxAccesses.Valid {
		n := int(maxAccesses.Int64)
		s.MaxAccesses = &n
	}

	if d.SharedWith, err = r.loadGrants(ctx, db, d.ID); err != nil {
		return sharing.Document{}, err
	}
	if s.AccessHistory, err = r.loadHistory(ctx, db, d.ID); err != nil {
		return sharing.Document{}, err
	}
	if s.Visitors, err = r.loadVisitors(ctx, db, d.ID); err != nil {
		return sharing.Document{}, err
	}
	return d, nil
}

func (r *SharingRepo) loadGrants(ctx context.Context, db queryer, docID string) ([]sharing.Grant, error) {
	q, args, err := qb().
		Select("principal", "can_view", "can_comment", "can_download", "source", "token_hash", "shared_at", "expires_at").
		From("document_grants").
		Where(sq.Eq{"document_id": docID}).
		OrderBy("position").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sharing.Grant
	for rows.Next() {
		var (
			g      sharing.Grant
			source string
			exp    sql.NullTime
		)
		if err := rows.Scan(&g.Principal, &g.Permissions.CanView, &g.Permissions.CanComment,
			&g.Permissions.CanDownload, &source, &g.TokenHash, &g.SharedAt, &exp); err != nil {
			return nil, err
		}
		g.Source = sharing.GrantSource(source)
		g.ExpiresAt = fromNullTime(exp)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SharingRepo) loadHistory(ctx context.Context, db queryer, docID string) ([]sharing.AccessRecord, error) {
	q, args, err := qb().Select("email", "accessed_at", "access_token").
		From("share_access_history").
		Where(sq.Eq{"document_id": docID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sharing.AccessRecord
	for rows.Next() {
		var rec sharing.AccessRecord
		if err := rows.Scan(&rec.Email, &rec.Timestamp, &rec.AccessToken); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SharingRepo) loadVisitors(ctx context.Context, db queryer, docID string) ([]sharing.Visitor, error) {
	q, args, err := qb().Select("visited_at", "user_agent", "ip").
		From("share_visitors").
		Where(sq.Eq{"document_id": docID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sharing.Visitor
	for rows.Next() {
		var v sharing.Visitor
		if err := rows.Scan(&v.Timestamp, &v.UserAgent, &v.IP); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func grantSource(s sharing.GrantSource) sharing.GrantSource {
	if s == "" {
		return sharing.SourceOwner
	}
	return s
}
