// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/wellgate/wellgate/domain/checkin"
	"github.com/wellgate/wellgate/domain/org"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// OrganizationStore persists organizations.
type OrganizationStore interface {
	// Get retrieves an organization by ID. Soft-deleted rows are not returned.
	Get(ctx context.Context, id string) (org.Organization, error)

	// GetBySlug retrieves an organization by slug.
	GetBySlug(ctx context.Context, slug string) (org.Organization, error)

	// Create stores a new organization.
	Create(ctx context.Context, o org.Organization) error

	// Update modifies an existing organization.
	Update(ctx context.Context, o org.Organization) error

	// SoftDelete marks an organization deleted without removing the row.
	SoftDelete(ctx context.Context, id string, at time.Time) error

	// List returns active organizations with pagination.
	List(ctx context.Context, limit, offset int) ([]org.Organization, error)

	// Count returns the number of active organizations.
	Count(ctx context.Context) (int, error)
}

// CheckinStore persists mood check-ins.
type CheckinStore interface {
	// Create stores a new check-in.
	Create(ctx context.Context, c checkin.Checkin) error

	// ListByOrg returns check-ins for an organization, newest first.
	ListByOrg(ctx context.Context, orgID string, limit, offset int) ([]checkin.Checkin, error)

	// CountByOrg returns the number of check-ins for an organization.
	CountByOrg(ctx context.Context, orgID string) (int, error)

	// ListWindow returns check-ins for an organization within [from, to).
	ListWindow(ctx context.Context, orgID string, from, to time.Time) ([]checkin.Checkin, error)
}

// Store errors. Defined here so app services need not import adapter
// packages to branch on them.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("already exists")
)
