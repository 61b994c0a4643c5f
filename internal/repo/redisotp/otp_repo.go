package redisotp

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/imagebox/imagebox/internal/domain"
	"github.com/redis/go-redis/v9"
)

// OtpRepo keeps pending OTP records in Redis under otp:<email>. Expiry rides
// on the native key TTL, which every Store resets.
type OtpRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *OtpRepo {
	return &OtpRepo{client: client, ttl: ttl}
}

func key(email string) string { return "otp:" + email }

func (r *OtpRepo) Store(ctx context.Context, record *domain.OtpRecord) error {
	rec := *record
	rec.CreatedAt = time.Now()

	payload, err := json.Marshal(&rec)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key(record.Email), payload, r.ttl).Err()
}

func (r *OtpRepo) Get(ctx context.Context, email, code string, purpose domain.Purpose) (*domain.OtpRecord, error) {
	payload, err := r.client.Get(ctx, key(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rec domain.OtpRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, err
	}

	if code != "" && rec.Code != code {
		return nil, nil
	}
	if purpose != "" && rec.Purpose != purpose {
		return nil, nil
	}
	return &rec, nil
}

func (r *OtpRepo) Delete(ctx context.Context, email string) error {
	return r.client.Del(ctx, key(email)).Err()
}
