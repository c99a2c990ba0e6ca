// Package app contains the application services sitting between the HTTP
// adapters and the stores. Services own validation, defaulting, and the
// mapping of store failures onto service errors.
package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/wellgate/wellgate/domain/envelope"
	"github.com/wellgate/wellgate/domain/org"
	"github.com/wellgate/wellgate/ports"
)

// OrgService implements organization use cases.
type OrgService struct {
	store ports.OrganizationStore
	clock ports.Clock
	ids   ports.IDGenerator
	log   zerolog.Logger
}

// NewOrgService creates an organization service.
func NewOrgService(store ports.OrganizationStore, clock ports.Clock, ids ports.IDGenerator, log zerolog.Logger) *OrgService {
	return &OrgService{store: store, clock: clock, ids: ids, log: log}
}

// CreateOrgInput is the input for Create.
type CreateOrgInput struct {
	Name     string             `json:"name"`
	Type     org.Type           `json:"type"`
	ParentID string             `json:"parentId"`
	Settings *org.SettingsPatch `json:"settings"`
}

// UpdateOrgInput is the input for Update. Nil fields are left unchanged.
type UpdateOrgInput struct {
	Name     *string            `json:"name"`
	IsActive *bool              `json:"isActive"`
	Settings *org.SettingsPatch `json:"settings"`
}

// Create validates and persists a new organization. Settings start from the
// defaults with the request's patch applied on top.
func (s *OrgService) Create(ctx context.Context, in CreateOrgInput) (org.Organization, error) {
	settings := org.DefaultSettings()
	if in.Settings != nil {
		settings = in.Settings.Apply(settings)
	}

	if errs := org.Validate(in.Name, in.Type, settings.AlertThreshold, settings.DataRetentionDays); errs != nil {
		return org.Organization{}, ErrValidation(errs)
	}

	if in.ParentID != "" {
		if _, err := s.store.Get(ctx, in.ParentID); err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return org.Organization{}, ErrValidation(map[string]any{"parentId": "parent organization not found"})
			}
			s.log.Error().Err(err).Str("parent_id", in.ParentID).Msg("lookup parent organization")
			return org.Organization{}, ErrInternal()
		}
	}

	now := s.clock.Now()
	o := org.Organization{
		ID:        s.ids.New(),
		Name:      in.Name,
		Slug:      org.Slugify(in.Name),
		Type:      in.Type,
		Settings:  settings,
		ParentID:  in.ParentID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.Create(ctx, o); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return org.Organization{}, ErrConflict("an organization with this name already exists")
		}
		s.log.Error().Err(err).Str("slug", o.Slug).Msg("create organization")
		return org.Organization{}, ErrInternal()
	}

	s.log.Info().Str("org_id", o.ID).Str("slug", o.Slug).Str("type", string(o.Type)).Msg("organization created")
	return o, nil
}

// Get returns one organization by ID.
func (s *OrgService) Get(ctx context.Context, id string) (org.Organization, error) {
	o, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return org.Organization{}, ErrNotFound("organization not found")
		}
		s.log.Error().Err(err).Str("org_id", id).Msg("get organization")
		return org.Organization{}, ErrInternal()
	}
	return o, nil
}

// GetBySlug returns one organization by slug.
func (s *OrgService) GetBySlug(ctx context.Context, slug string) (org.Organization, error) {
	o, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return org.Organization{}, ErrNotFound("organization not found")
		}
		s.log.Error().Err(err).Str("slug", slug).Msg("get organization by slug")
		return org.Organization{}, ErrInternal()
	}
	return o, nil
}

// List returns one page of organizations plus pagination metadata.
func (s *OrgService) List(ctx context.Context, page, limit int) ([]org.Organization, envelope.PaginationMeta, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("count organizations")
		return nil, envelope.PaginationMeta{}, ErrInternal()
	}

	items, err := s.store.List(ctx, limit, (page-1)*limit)
	if err != nil {
		s.log.Error().Err(err).Msg("list organizations")
		return nil, envelope.PaginationMeta{}, ErrInternal()
	}

	return items, envelope.NewPaginationMeta(page, limit, total), nil
}

// Update applies a partial update and returns the updated record.
func (s *OrgService) Update(ctx context.Context, id string, in UpdateOrgInput) (org.Organization, error) {
	o, err := s.Get(ctx, id)
	if err != nil {
		return org.Organization{}, err
	}

	if in.Name != nil {
		o.Name = *in.Name
		o.Slug = org.Slugify(*in.Name)
	}
	if in.IsActive != nil {
		o.IsActive = *in.IsActive
	}
	if in.Settings != nil {
		o.Settings = in.Settings.Apply(o.Settings)
	}

	if errs := org.Validate(o.Name, o.Type, o.Settings.AlertThreshold, o.Settings.DataRetentionDays); errs != nil {
		return org.Organization{}, ErrValidation(errs)
	}

	o.UpdatedAt = s.clock.Now()
	if err := s.store.Update(ctx, o); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return org.Organization{}, ErrConflict("an organization with this name already exists")
		}
		if errors.Is(err, ports.ErrNotFound) {
			return org.Organization{}, ErrNotFound("organization not found")
		}
		s.log.Error().Err(err).Str("org_id", id).Msg("update organization")
		return org.Organization{}, ErrInternal()
	}

	return o, nil
}

// Delete soft-deletes an organization. Deleted records stay in storage but
// disappear from reads.
func (s *OrgService) Delete(ctx context.Context, id string) error {
	if err := s.store.SoftDelete(ctx, id, s.clock.Now()); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ErrNotFound("organization not found")
		}
		s.log.Error().Err(err).Str("org_id", id).Msg("delete organization")
		return ErrInternal()
	}
	s.log.Info().Str("org_id", id).Msg("organization deleted")
	return nil
}
