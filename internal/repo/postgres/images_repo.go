package postgres

import (
	"context"
	"time"

	"github.com/imagebox/imagebox/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ImagesRepo struct{ pool *pgxpool.Pool }

func NewImagesRepo(pool *pgxpool.Pool) *ImagesRepo { return &ImagesRepo{pool: pool} }

const imageCols = `id, user_id, title, url, storage_key, position, created_at, updated_at`

func scanImage(row pgx.Row) (*domain.Image, error) {
	var img domain.Image
	err := row.Scan(&img.ID, &img.UserID, &img.Title, &img.URL, &img.StorageKey, &img.Position, &img.CreatedAt, &img.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func (r *ImagesRepo) Create(ctx context.Context, userID int64, title, url, storageKey string) (*domain.Image, error) {
	const q = `
INSERT INTO images (user_id, title, url, storage_key, position)
VALUES ($1, $2, $3, $4, COALESCE((SELECT MAX(position)+1 FROM images WHERE user_id=$1), 0))
RETURNING ` + imageCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanImage(r.pool.QueryRow(ctx, q, userID, title, url, storageKey))
}

func (r *ImagesRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Image, error) {
	const q = `SELECT ` + imageCols + ` FROM images WHERE user_id=$1 ORDER BY position, created_at`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []domain.Image
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, *img)
	}
	return images, rows.Err()
}

func (r *ImagesRepo) FindByID(ctx context.Context, id int64) (*domain.Image, error) {
	const q = `SELECT ` + imageCols + ` FROM images WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	img, err := scanImage(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (r *ImagesRepo) Update(ctx context.Context, id int64, title, url, storageKey string) (*domain.Image, error) {
	const q = `
UPDATE images
SET title = $2,
    url = COALESCE(NULLIF($3, ''), url),
    storage_key = COALESCE(NULLIF($4, ''), storage_key),
    updated_at = now()
WHERE id = $1
RETURNING ` + imageCols
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	img, err := scanImage(r.pool.QueryRow(ctx, q, id, title, url, storageKey))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

func (r *ImagesRepo) Delete(ctx context.Context, id int64) (bool, error) {
	const q = `DELETE FROM images WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Reorder sets each image's position to its index in orderedIDs. Ids not
// owned by userID are ignored by the WHERE clause.
func (r *ImagesRepo) Reorder(ctx context.Context, userID int64, orderedIDs []int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const q = `UPDATE images SET position=$3, updated_at=now() WHERE id=$1 AND user_id=$2`
		for i, id := range orderedIDs {
			if _, err := tx.Exec(ctx, q, id, userID, i); err != nil {
				return err
			}
		}
		return nil
	})
}
