package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/wellgate/wellgate/domain/org"
	"github.com/wellgate/wellgate/ports"
)

// OrgStore implements ports.OrganizationStore using SQLite.
type OrgStore struct {
	db *DB
}

// NewOrgStore creates a new SQLite organization store.
func NewOrgStore(db *DB) *OrgStore {
	return &OrgStore{db: db}
}

const orgColumns = "id, name, slug, type, settings, parent_id, is_active, created_at, updated_at, deleted_at"

// Get retrieves an organization by ID. Soft-deleted rows are not returned.
func (s *OrgStore) Get(ctx context.Context, id string) (org.Organization, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+orgColumns+`
		FROM organizations
		WHERE id = ? AND deleted_at IS NULL
	`, id)
	return scanOrg(row)
}

// GetBySlug retrieves an organization by slug.
func (s *OrgStore) GetBySlug(ctx context.Context, slug string) (org.Organization, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+orgColumns+`
		FROM organizations
		WHERE slug = ? AND deleted_at IS NULL
	`, slug)
	return scanOrg(row)
}

// Create stores a new organization.
func (s *OrgStore) Create(ctx context.Context, o org.Organization) error {
	settings, err := json.Marshal(o.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO organizations (`+orgColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`, o.ID, o.Name, o.Slug, string(o.Type), string(settings), nullString(o.ParentID),
		o.IsActive, o.CreatedAt.UTC(), o.UpdatedAt.UTC())

	if err != nil && isUniqueConstraintError(err) {
		return ports.ErrDuplicate
	}
	return err
}

// Update modifies an existing organization.
func (s *OrgStore) Update(ctx context.Context, o org.Organization) error {
	settings, err := json.Marshal(o.Settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE organizations
		SET name = ?, slug = ?, type = ?, settings = ?, parent_id = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, o.Name, o.Slug, string(o.Type), string(settings), nullString(o.ParentID),
		o.IsActive, o.UpdatedAt.UTC(), o.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ports.ErrDuplicate
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// SoftDelete marks an organization deleted without removing the row.
func (s *OrgStore) SoftDelete(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE organizations
		SET deleted_at = ?, is_active = 0, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, at.UTC(), at.UTC(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// List returns active organizations with pagination, oldest first.
func (s *OrgStore) List(ctx context.Context, limit, offset int) ([]org.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orgColumns+`
		FROM organizations
		WHERE deleted_at IS NULL
		ORDER BY created_at, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []org.Organization
	for rows.Next() {
		o, err := scanOrg(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	return orgs, rows.Err()
}

// Count returns the number of active organizations.
func (s *OrgStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM organizations WHERE deleted_at IS NULL
	`).Scan(&n)
	return n, err
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanOrg(row scanner) (org.Organization, error) {
	var o org.Organization
	var typ, settings string
	var parentID sql.NullString
	var deletedAt sql.NullTime

	err := row.Scan(&o.ID, &o.Name, &o.Slug, &typ, &settings, &parentID,
		&o.IsActive, &o.CreatedAt, &o.UpdatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return org.Organization{}, ports.ErrNotFound
	}
	if err != nil {
		return org.Organization{}, err
	}

	o.Type = org.Type(typ)
	if err := json.Unmarshal([]byte(settings), &o.Settings); err != nil {
		return org.Organization{}, fmt.Errorf("decode settings: %w", err)
	}
	if parentID.Valid {
		o.ParentID = parentID.String
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		o.DeletedAt = &t
	}
	return o, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Ensure interface compliance.
var _ ports.OrganizationStore = (*OrgStore)(nil)
