package services

import (
	"context"
	"errors"
	"fmt"

	"assistant-telegram/db"

	"github.com/redis/go-redis/v9"
)

// ErrNoSession means the Telegram user has not linked a platform account and
// restaurant yet. Callers treat it as "not ready", not as a failure.
var ErrNoSession = errors.New("session context missing")

// Session is the resolved identity for one Telegram user: the platform user
// id plus the selected restaurant and its contact email (the schedule lookup
// key). Pure lookup, no logic.
type Session struct {
	UserID          string
	RestaurantID    string
	RestaurantEmail string
}

func sessionKey(tgUserID int64) string {
	return fmt.Sprintf("session:%d", tgUserID)
}

// SaveSession stores the linked identity as a Redis hash.
func SaveSession(ctx context.Context, tgUserID int64, s Session) error {
	return db.Redis.HSet(ctx, sessionKey(tgUserID),
		"user_id", s.UserID,
		"restaurant_id", s.RestaurantID,
		"restaurant_email", s.RestaurantEmail,
	).Err()
}

// LoadSession resolves the identity for a Telegram user. Missing user id or
// restaurant id yields ErrNoSession; the email may legitimately be empty
// (schedule view is then unavailable).
func LoadSession(ctx context.Context, tgUserID int64) (*Session, error) {
	fields, err := db.Redis.HGetAll(ctx, sessionKey(tgUserID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	s := &Session{
		UserID:          fields["user_id"],
		RestaurantID:    fields["restaurant_id"],
		RestaurantEmail: fields["restaurant_email"],
	}
	if s.UserID == "" || s.RestaurantID == "" {
		return nil, ErrNoSession
	}
	return s, nil
}

// ClearSession unlinks the Telegram user.
func ClearSession(ctx context.Context, tgUserID int64) error {
	return db.Redis.Del(ctx, sessionKey(tgUserID)).Err()
}
