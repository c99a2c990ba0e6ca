package client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/wellgate/wellgate/domain/envelope"
	"github.com/wellgate/wellgate/domain/org"
)

// Organizations is the typed surface over the organization endpoints.
type Organizations struct {
	c *Client
}

// Organizations returns the organization resource client.
func (c *Client) Organizations() *Organizations {
	return &Organizations{c: c}
}

// CreateOrganizationRequest is the payload for Create.
type CreateOrganizationRequest struct {
	Name     string             `json:"name"`
	Type     org.Type           `json:"type"`
	ParentID string             `json:"parentId,omitempty"`
	Settings *org.SettingsPatch `json:"settings,omitempty"`
}

// UpdateOrganizationRequest is the payload for Update. Nil fields are left
// unchanged.
type UpdateOrganizationRequest struct {
	Name     *string            `json:"name,omitempty"`
	IsActive *bool              `json:"isActive,omitempty"`
	Settings *org.SettingsPatch `json:"settings,omitempty"`
}

// OrganizationPage is one page of organizations with pagination metadata.
type OrganizationPage struct {
	Items []org.Organization
	Meta  *envelope.PaginationMeta
}

// Get fetches a single organization by ID.
func (o *Organizations) Get(ctx context.Context, id string) (org.Organization, error) {
	return Get[org.Organization](ctx, o.c, "/api/v1/organizations/"+url.PathEscape(id))
}

// GetBySlug fetches a single organization by its slug.
func (o *Organizations) GetBySlug(ctx context.Context, slug string) (org.Organization, error) {
	return Get[org.Organization](ctx, o.c, "/api/v1/organizations/slug/"+url.PathEscape(slug))
}

// List fetches one page of organizations.
func (o *Organizations) List(ctx context.Context, page, limit int) (OrganizationPage, error) {
	path := fmt.Sprintf("/api/v1/organizations?page=%d&limit=%d", page, limit)
	s, err := o.c.Get(ctx, path)
	if err != nil {
		return OrganizationPage{}, err
	}
	items, err := envelope.DecodeData[[]org.Organization](s)
	if err != nil {
		return OrganizationPage{}, err
	}
	return OrganizationPage{Items: items, Meta: s.Meta}, nil
}

// Create registers a new organization.
func (o *Organizations) Create(ctx context.Context, req CreateOrganizationRequest) (org.Organization, error) {
	return Post[org.Organization](ctx, o.c, "/api/v1/organizations", req)
}

// Update applies a partial update to an organization.
func (o *Organizations) Update(ctx context.Context, id string, req UpdateOrganizationRequest) (org.Organization, error) {
	return Patch[org.Organization](ctx, o.c, "/api/v1/organizations/"+url.PathEscape(id), req)
}

// Delete soft-deletes an organization.
func (o *Organizations) Delete(ctx context.Context, id string) error {
	_, err := o.c.Delete(ctx, "/api/v1/organizations/"+url.PathEscape(id))
	return err
}
