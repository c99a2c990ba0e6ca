package sqlite

import (
	"context"
	"time"

	"github.com/wellgate/wellgate/domain/checkin"
	"github.com/wellgate/wellgate/ports"
)

// CheckinStore implements ports.CheckinStore using SQLite.
type CheckinStore struct {
	db *DB
}

// NewCheckinStore creates a new SQLite check-in store.
func NewCheckinStore(db *DB) *CheckinStore {
	return &CheckinStore{db: db}
}

// Create stores a new check-in.
func (s *CheckinStore) Create(ctx context.Context, c checkin.Checkin) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkins (id, org_id, mood, note, anonymous, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.OrgID, int(c.Mood), c.Note, c.Anonymous, c.CreatedAt.UTC())
	if err != nil && isUniqueConstraintError(err) {
		return ports.ErrDuplicate
	}
	return err
}

// ListByOrg returns check-ins for an organization, newest first.
func (s *CheckinStore) ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]checkin.Checkin, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, mood, note, anonymous, created_at
		FROM checkins
		WHERE org_id = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, orgID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCheckins(rows)
}

// CountByOrg returns the number of check-ins for an organization.
func (s *CheckinStore) CountByOrg(ctx context.Context, orgID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM checkins WHERE org_id = ?
	`, orgID).Scan(&n)
	return n, err
}

// ListWindow returns check-ins for an organization within [from, to).
func (s *CheckinStore) ListWindow(ctx context.Context, orgID string, from, to time.Time) ([]checkin.Checkin, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, mood, note, anonymous, created_at
		FROM checkins
		WHERE org_id = ? AND created_at >= ? AND created_at < ?
		ORDER BY created_at, id
	`, orgID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCheckins(rows)
}

func collectCheckins(rows interface {
	Next() bool
	Err() error
	Scan(dest ...any) error
}) ([]checkin.Checkin, error) {
	var out []checkin.Checkin
	for rows.Next() {
		var c checkin.Checkin
		var mood int
		if err := rows.Scan(&c.ID, &c.OrgID, &mood, &c.Note, &c.Anonymous, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Mood = checkin.Mood(mood)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Ensure interface compliance.
var _ ports.CheckinStore = (*CheckinStore)(nil)
