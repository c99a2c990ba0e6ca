package app_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wellgate/wellgate/domain/checkin"
	"github.com/wellgate/wellgate/domain/org"
	"github.com/wellgate/wellgate/ports"
)

// memOrgStore is an in-memory ports.OrganizationStore for service tests.
type memOrgStore struct {
	mu   sync.Mutex
	orgs map[string]org.Organization
}

func newMemOrgStore() *memOrgStore {
	return &memOrgStore{orgs: make(map[string]org.Organization)}
}

func (m *memOrgStore) Get(_ context.Context, id string) (org.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[id]
	if !ok || o.DeletedAt != nil {
		return org.Organization{}, ports.ErrNotFound
	}
	return o, nil
}

func (m *memOrgStore) GetBySlug(_ context.Context, slug string) (org.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orgs {
		if o.Slug == slug && o.DeletedAt == nil {
			return o, nil
		}
	}
	return org.Organization{}, ports.ErrNotFound
}

func (m *memOrgStore) Create(_ context.Context, o org.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.orgs {
		if existing.Slug == o.Slug && existing.DeletedAt == nil {
			return ports.ErrDuplicate
		}
	}
	m.orgs[o.ID] = o
	return nil
}

func (m *memOrgStore) Update(_ context.Context, o org.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.orgs[o.ID]
	if !ok || existing.DeletedAt != nil {
		return ports.ErrNotFound
	}
	m.orgs[o.ID] = o
	return nil
}

func (m *memOrgStore) SoftDelete(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orgs[id]
	if !ok || o.DeletedAt != nil {
		return ports.ErrNotFound
	}
	o.DeletedAt = &at
	o.IsActive = false
	m.orgs[id] = o
	return nil
}

func (m *memOrgStore) List(_ context.Context, limit, offset int) ([]org.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []org.Organization
	for _, o := range m.orgs {
		if o.DeletedAt == nil {
			all = append(all, o)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memOrgStore) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.orgs {
		if o.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

// memCheckinStore is an in-memory ports.CheckinStore for service tests.
type memCheckinStore struct {
	mu       sync.Mutex
	checkins []checkin.Checkin
}

func (m *memCheckinStore) Create(_ context.Context, c checkin.Checkin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkins = append(m.checkins, c)
	return nil
}

func (m *memCheckinStore) ListByOrg(_ context.Context, orgID string, limit, offset int) ([]checkin.Checkin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []checkin.Checkin
	for _, c := range m.checkins {
		if c.OrgID == orgID {
			all = append(all, c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memCheckinStore) CountByOrg(_ context.Context, orgID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.checkins {
		if c.OrgID == orgID {
			n++
		}
	}
	return n, nil
}

func (m *memCheckinStore) ListWindow(_ context.Context, orgID string, from, to time.Time) ([]checkin.Checkin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []checkin.Checkin
	for _, c := range m.checkins {
		if c.OrgID == orgID && !c.CreatedAt.Before(from) && c.CreatedAt.Before(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

var (
	_ ports.OrganizationStore = (*memOrgStore)(nil)
	_ ports.CheckinStore      = (*memCheckinStore)(nil)
)
