package export

import (
	"context"
	"fmt"
	"time"

	"academy/internal/adapters/storage"
	domain "academy/internal/domain/export"
	"academy/internal/domain/member"
)

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore creates a delivery store.
func NewSQLStore(db storage.SQLDB) *SQLStore {
	return &SQLStore{db: db}
}

// Record inserts a delivery.
// PRE: d.Validate() == nil
// POST: Delivery is persisted; existing rows are untouched
func (s *SQLStore) Record(ctx context.Context, d domain.Delivery) error {
	if err := d.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO export_delivery (
			id, operator_id, member_kind, center_id,
			start_date, end_date, recipient, size_bytes, sent_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.OperatorID, string(d.Kind), d.CenterID,
		d.Range.Start, d.Range.End, d.Recipient, d.SizeBytes, d.SentAt.Unix())
	if err != nil {
		return fmt.Errorf("insert export_delivery: %w", err)
	}
	return nil
}

// ListRecent returns the operator's latest deliveries, newest first.
// INVARIANT: Store state is not mutated
func (s *SQLStore) ListRecent(ctx context.Context, operatorID int, limit int) ([]domain.Delivery, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, operator_id, member_kind, center_id,
			start_date, end_date, recipient, size_bytes, sent_at
		FROM export_delivery
		WHERE operator_id = ?
		ORDER BY sent_at DESC, id
		LIMIT ?
	`, operatorID, limit)
	if err != nil {
		return nil, fmt.Errorf("list export_delivery: %w", err)
	}
	defer rows.Close()

	out := []domain.Delivery{}
	for rows.Next() {
		var (
			d      domain.Delivery
			kind   string
			sentAt int64
		)
		if err := rows.Scan(&d.ID, &d.OperatorID, &kind, &d.CenterID,
			&d.Range.Start, &d.Range.End, &d.Recipient, &d.SizeBytes, &sentAt); err != nil {
			return nil, err
		}
		d.Kind = member.Kind(kind)
		d.SentAt = time.Unix(sentAt, 0).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

