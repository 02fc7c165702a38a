package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"habboverify/internal/models"
)

var ErrRecordNotFound = errors.New("verification record not found")

// VerificationRepository stores Discord user ↔ Habbo claims.
type VerificationRepository interface {
	// FindVerifiedByUser returns the verified claim of userID, or nil, nil if there is none.
	FindVerifiedByUser(ctx context.Context, userID string) (*models.VerifiedUser, error)
	// Create inserts a pending claim.
	Create(ctx context.Context, rec *models.VerifiedUser) error
	// MarkVerified flips the newest pending claim of (userID, habbo). ErrRecordNotFound if none is left.
	MarkVerified(ctx context.Context, userID, habbo string) error
	// FindClaimsByOthers returns every claim on habbo not owned by exceptUserID, verified or not.
	FindClaimsByOthers(ctx context.Context, habbo, exceptUserID string) ([]models.VerifiedUser, error)
	DeleteClaimsByOthers(ctx context.Context, habbo, exceptUserID string) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	// List returns claims ordered by creation time, newest first.
	List(ctx context.Context, verifiedOnly bool) ([]models.VerifiedUser, error)
}

const verificationSchema = `
	CREATE TABLE IF NOT EXISTS verified_users (
		id         BIGSERIAL PRIMARY KEY,
		user_id    TEXT        NOT NULL,
		habbo      TEXT        NOT NULL,
		verified   BOOLEAN     NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS verified_users_user_idx  ON verified_users (user_id, verified);
	CREATE INDEX IF NOT EXISTS verified_users_habbo_idx ON verified_users (habbo);
`

type verificationRepository struct{ db *sql.DB }

func NewVerificationRepository(db *sql.DB) VerificationRepository {
	return &verificationRepository{db: db}
}

// EnsureSchema creates the verified_users table when it is missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, verificationSchema); err != nil {
		return fmt.Errorf("verified_users schema: %w", err)
	}
	return nil
}

func (r *verificationRepository) FindVerifiedByUser(ctx context.Context, userID string) (*models.VerifiedUser, error) {
	const q = `
		SELECT id, user_id, habbo, verified, created_at
		FROM verified_users
		WHERE user_id = $1 AND verified = TRUE
		ORDER BY created_at DESC
		LIMIT 1
	`
	var (
		v  models.VerifiedUser
		id int64
	)
	err := r.db.QueryRowContext(ctx, q, userID).Scan(&id, &v.UserID, &v.Habbo, &v.Verified, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("verified_users find verified: %w", err)
	}
	v.ID = strconv.FormatInt(id, 10)
	return &v, nil
}

func (r *verificationRepository) Create(ctx context.Context, rec *models.VerifiedUser) error {
	const q = `
		INSERT INTO verified_users (user_id, habbo, verified, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	var id int64
	if err := r.db.QueryRowContext(ctx, q, rec.UserID, rec.Habbo, rec.Verified, rec.CreatedAt).Scan(&id); err != nil {
		return fmt.Errorf("verified_users create: %w", err)
	}
	rec.ID = strconv.FormatInt(id, 10)
	return nil
}

func (r *verificationRepository) MarkVerified(ctx context.Context, userID, habbo string) error {
	const q = `
		UPDATE verified_users SET verified = TRUE
		WHERE id = (
			SELECT id FROM verified_users
			WHERE user_id = $1 AND habbo = $2 AND verified = FALSE
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE
		)
	`
	res, err := r.db.ExecContext(ctx, q, userID, habbo)
	if err != nil {
		return fmt.Errorf("verified_users mark verified: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("verified_users mark verified: %w", err)
	}
	if n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *verificationRepository) FindClaimsByOthers(ctx context.Context, habbo, exceptUserID string) ([]models.VerifiedUser, error) {
	const q = `
		SELECT id, user_id, habbo, verified, created_at
		FROM verified_users
		WHERE habbo = $1 AND user_id <> $2
		ORDER BY created_at DESC
	`
	return r.query(ctx, q, habbo, exceptUserID)
}

func (r *verificationRepository) DeleteClaimsByOthers(ctx context.Context, habbo, exceptUserID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM verified_users WHERE habbo = $1 AND user_id <> $2`, habbo, exceptUserID)
	if err != nil {
		return 0, fmt.Errorf("verified_users delete others: %w", err)
	}
	return res.RowsAffected()
}

func (r *verificationRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM verified_users WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("verified_users delete by user: %w", err)
	}
	return res.RowsAffected()
}

func (r *verificationRepository) List(ctx context.Context, verifiedOnly bool) ([]models.VerifiedUser, error) {
	const q = `
		SELECT id, user_id, habbo, verified, created_at
		FROM verified_users
		WHERE ($1::boolean = FALSE OR verified = TRUE)
		ORDER BY created_at DESC
	`
	return r.query(ctx, q, verifiedOnly)
}

func (r *verificationRepository) query(ctx context.Context, q string, args ...any) ([]models.VerifiedUser, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("verified_users query: %w", err)
	}
	defer rows.Close()

	var out []models.VerifiedUser
	for rows.Next() {
		var (
			v  models.VerifiedUser
			id int64
		)
		if err := rows.Scan(&id, &v.UserID, &v.Habbo, &v.Verified, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("verified_users scan: %w", err)
		}
		v.ID = strconv.FormatInt(id, 10)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("verified_users rows: %w", err)
	}
	return out, nil
}
