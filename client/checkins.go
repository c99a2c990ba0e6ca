package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/wellgate/wellgate/domain/checkin"
	"github.com/wellgate/wellgate/domain/envelope"
)

// Checkins is the typed surface over the mood check-in endpoints.
type Checkins struct {
	c *Client
}

// Checkins returns the check-in resource client.
func (c *Client) Checkins() *Checkins {
	return &Checkins{c: c}
}

// CreateCheckinRequest is the payload for Create.
type CreateCheckinRequest struct {
	OrgID     string       `json:"orgId"`
	Mood      checkin.Mood `json:"mood"`
	Note      string       `json:"note,omitempty"`
	Anonymous bool         `json:"anonymous"`
}

// CheckinPage is one page of check-ins with pagination metadata.
type CheckinPage struct {
	Items []checkin.Checkin
	Meta  *envelope.PaginationMeta
}

// Create records a mood check-in.
func (ch *Checkins) Create(ctx context.Context, req CreateCheckinRequest) (checkin.Checkin, error) {
	return Post[checkin.Checkin](ctx, ch.c, "/api/v1/checkins", req)
}

// ListByOrg fetches one page of an organization's check-ins, most recent
// first.
func (ch *Checkins) ListByOrg(ctx context.Context, orgID string, page, limit int) (CheckinPage, error) {
	path := fmt.Sprintf("/api/v1/organizations/%s/checkins?page=%d&limit=%d",
		url.PathEscape(orgID), page, limit)
	s, err := ch.c.Get(ctx, path)
	if err != nil {
		return CheckinPage{}, err
	}
	items, err := envelope.DecodeData[[]checkin.Checkin](s)
	if err != nil {
		return CheckinPage{}, err
	}
	return CheckinPage{Items: items, Meta: s.Meta}, nil
}

// Summary fetches the aggregated mood summary for an organization over the
// half-open window [from, to).
func (ch *Checkins) Summary(ctx context.Context, orgID string, from, to time.Time) (checkin.Summary, error) {
	path := fmt.Sprintf("/api/v1/organizations/%s/checkins/summary?from=%s&to=%s",
		url.PathEscape(orgID),
		url.QueryEscape(from.UTC().Format(time.RFC3339)),
		url.QueryEscape(to.UTC().Format(time.RFC3339)))
	return Get[checkin.Summary](ctx, ch.c, path)
}
