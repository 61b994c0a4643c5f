package postgres

import (
	"context"
	"time"

	"github.com/imagebox/imagebox/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OtpRepo keeps at most one pending record per email. Expiry is enforced on
// read; DeleteExpired sweeps stale rows in the background.
type OtpRepo struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

func NewOtpRepo(pool *pgxpool.Pool, ttl time.Duration) *OtpRepo {
	return &OtpRepo{pool: pool, ttl: ttl}
}

func (r *OtpRepo) Store(ctx context.Context, record *domain.OtpRecord) error {
	const q = `
INSERT INTO otps (email, code, purpose, staged_email, staged_password_hash, staged_phone, created_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (email) DO UPDATE SET
	code = EXCLUDED.code,
	purpose = EXCLUDED.purpose,
	staged_email = EXCLUDED.staged_email,
	staged_password_hash = EXCLUDED.staged_password_hash,
	staged_phone = EXCLUDED.staged_phone,
	created_at = now()`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var stagedEmail, stagedHash, stagedPhone *string
	if record.Staged != nil {
		stagedEmail = &record.Staged.Email
		stagedHash = &record.Staged.PasswordHash
		stagedPhone = &record.Staged.Phone
	}

	_, err := r.pool.Exec(ctx, q, record.Email, record.Code, string(record.Purpose), stagedEmail, stagedHash, stagedPhone)
	return err
}

func (r *OtpRepo) Get(ctx context.Context, email, code string, purpose domain.Purpose) (*domain.OtpRecord, error) {
	const q = `
SELECT email, code, purpose, staged_email, staged_password_hash, staged_phone, created_at
FROM otps
WHERE email = $1
  AND created_at > now() - ($2 * interval '1 second')
  AND ($3 = '' OR code = $3)
  AND ($4 = '' OR purpose = $4)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		rec         domain.OtpRecord
		purposeStr  string
		stagedEmail *string
		stagedHash  *string
		stagedPhone *string
	)
	err := r.pool.QueryRow(ctx, q, email, r.ttl.Seconds(), code, string(purpose)).Scan(
		&rec.Email, &rec.Code, &purposeStr, &stagedEmail, &stagedHash, &stagedPhone, &rec.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.Purpose = domain.Purpose(purposeStr)
	if stagedEmail != nil || stagedHash != nil || stagedPhone != nil {
		rec.Staged = &domain.StagedUser{}
		if stagedEmail != nil {
			rec.Staged.Email = *stagedEmail
		}
		if stagedHash != nil {
			rec.Staged.PasswordHash = *stagedHash
		}
		if stagedPhone != nil {
			rec.Staged.Phone = *stagedPhone
		}
	}
	return &rec, nil
}

func (r *OtpRepo) Delete(ctx context.Context, email string) error {
	const q = `DELETE FROM otps WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, email)
	return err
}

// DeleteExpired removes records past their TTL (maintenance; reads already
// filter them out).
func (r *OtpRepo) DeleteExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM otps WHERE created_at <= now() - ($1 * interval '1 second')`
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, r.ttl.Seconds())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
