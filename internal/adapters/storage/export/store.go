package export

import (
	"context"

	domain "academy/internal/domain/export"
)

// Store persists emailed-export deliveries.
type Store interface {
	Record(ctx context.Context, d domain.Delivery) error
	ListRecent(ctx context.Context, operatorID int, limit int) ([]domain.Delivery, error)
}
