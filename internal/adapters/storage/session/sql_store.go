package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"academy/internal/adapters/storage"
	"academy/internal/domain/center"
	"academy/internal/domain/operator"
	domain "academy/internal/domain/session"
)

// SQLStore implements Store on SQLite or Postgres.
type SQLStore struct {
	db     storage.SQLDB
	sealer *Sealer
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore creates a session store. Placeholders are written as "?";
// pass a *storage.TimedDB when running on Postgres.
func NewSQLStore(db storage.SQLDB, sealer *Sealer) *SQLStore {
	return &SQLStore{db: db, sealer: sealer}
}

// Save upserts a session.
// PRE: s.ID and s.Token are non-empty
// POST: The token is stored sealed; other sessions are untouched
func (st *SQLStore) Save(ctx context.Context, s domain.Session) error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	sealed, err := st.sealer.Seal(s.Token)
	if err != nil {
		return err
	}
	var homeID int
	var homeName string
	if s.Operator.Center != nil {
		homeID, homeName = s.Operator.Center.ID, s.Operator.Center.Name
	}

	_, err = st.db.ExecContext(ctx, `
		INSERT INTO console_session (
			id, operator_id, operator_name, role,
			home_center_id, home_center_name,
			selected_center_id, last_screen,
			sealed_token, created_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			operator_name = excluded.operator_name,
			role = excluded.role,
			home_center_id = excluded.home_center_id,
			home_center_name = excluded.home_center_name,
			selected_center_id = excluded.selected_center_id,
			last_screen = excluded.last_screen,
			sealed_token = excluded.sealed_token,
			expires_at = excluded.expires_at
	`,
		s.ID, s.Operator.ID, s.Operator.Name, string(s.Operator.Role),
		homeID, homeName,
		s.SelectedCenterID, s.LastScreen,
		sealed, s.CreatedAt.Unix(), s.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("save console_session: %w", err)
	}
	return nil
}

// Get loads a live session.
// POST: Returns domain.ErrNotFound when missing or expired
// INVARIANT: Store state is not mutated
func (st *SQLStore) Get(ctx context.Context, id string) (domain.Session, error) {
	row := st.db.QueryRowContext(ctx, `
		SELECT id, operator_id, operator_name, role,
			home_center_id, home_center_name,
			selected_center_id, last_screen,
			sealed_token, created_at, expires_at
		FROM console_session
		WHERE id = ?
	`, id)

	var (
		s                  domain.Session
		role, sealed, name string
		homeID             int
		created, expires   int64
	)
	err := row.Scan(&s.ID, &s.Operator.ID, &s.Operator.Name, &role,
		&homeID, &name, &s.SelectedCenterID, &s.LastScreen,
		&sealed, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get console_session: %w", err)
	}

	s.Operator.Role = operator.ParseRole(role)
	if homeID > 0 {
		s.Operator.Center = &center.Center{ID: homeID, Name: name}
	}
	s.CreatedAt = time.Unix(created, 0).UTC()
	s.ExpiresAt = time.Unix(expires, 0).UTC()
	if s.Expired(time.Now()) {
		return domain.Session{}, domain.ErrNotFound
	}

	s.Token, err = st.sealer.Open(sealed)
	if err != nil {
		return domain.Session{}, err
	}
	return s, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (st *SQLStore) Delete(ctx context.Context, id string) error {
	if _, err := st.db.ExecContext(ctx, `DELETE FROM console_session WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete console_session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session whose expiry is at or before now.
// POST: Returns the number of sessions removed
func (st *SQLStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := st.db.ExecContext(ctx, `DELETE FROM console_session WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("sweep console_session: %w", err)
	}
	return res.RowsAffected()
}
