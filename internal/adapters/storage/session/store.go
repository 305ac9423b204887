package session

import (
	"context"
	"time"

	domain "academy/internal/domain/session"
)

// Store persists console sessions.
type Store interface {
	Save(ctx context.Context, s domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
