package domain

import "time"

type Image struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	StorageKey string    `json:"storage_key"`
	Position   int       `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ReorderImagesRequest struct {
	OrderedIDs []int64 `json:"ordered_ids"`
}
