package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/wellgate/wellgate/domain/checkin"
	"github.com/wellgate/wellgate/domain/envelope"
	"github.com/wellgate/wellgate/ports"
)

// CheckinService implements mood check-in use cases.
type CheckinService struct {
	store ports.CheckinStore
	orgs  *OrgService
	clock ports.Clock
	ids   ports.IDGenerator
	log   zerolog.Logger
}

// NewCheckinService creates a check-in service.
func NewCheckinService(store ports.CheckinStore, orgs *OrgService, clock ports.Clock, ids ports.IDGenerator, log zerolog.Logger) *CheckinService {
	return &CheckinService{store: store, orgs: orgs, clock: clock, ids: ids, log: log}
}

// CreateCheckinInput is the input for Create.
type CreateCheckinInput struct {
	OrgID     string       `json:"orgId"`
	Mood      checkin.Mood `json:"mood"`
	Note      string       `json:"note"`
	Anonymous *bool        `json:"anonymous"`
}

// Create validates and persists a mood check-in. Anonymity falls back to
// the organization's default when the request leaves it unset.
func (s *CheckinService) Create(ctx context.Context, in CreateCheckinInput) (checkin.Checkin, error) {
	if errs := checkin.Validate(in.OrgID, in.Mood, in.Note); errs != nil {
		return checkin.Checkin{}, ErrValidation(errs)
	}

	o, err := s.orgs.Get(ctx, in.OrgID)
	if err != nil {
		return checkin.Checkin{}, err
	}
	if !o.Settings.EmociogramaEnabled {
		return checkin.Checkin{}, &Error{Status: 403, Message: "check-ins are disabled for this organization"}
	}

	anonymous := o.Settings.AnonymityDefault
	if in.Anonymous != nil {
		anonymous = *in.Anonymous
	}

	c := checkin.Checkin{
		ID:        s.ids.New(),
		OrgID:     in.OrgID,
		Mood:      in.Mood,
		Note:      in.Note,
		Anonymous: anonymous,
		CreatedAt: s.clock.Now(),
	}

	if err := s.store.Create(ctx, c); err != nil {
		s.log.Error().Err(err).Str("org_id", in.OrgID).Msg("create check-in")
		return checkin.Checkin{}, ErrInternal()
	}

	s.log.Info().Str("org_id", c.OrgID).Int("mood", int(c.Mood)).Bool("anonymous", c.Anonymous).Msg("check-in recorded")
	return c, nil
}

// ListByOrg returns one page of an organization's check-ins, newest first.
func (s *CheckinService) ListByOrg(ctx context.Context, orgID string, page, limit int) ([]checkin.Checkin, envelope.PaginationMeta, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	if _, err := s.orgs.Get(ctx, orgID); err != nil {
		return nil, envelope.PaginationMeta{}, err
	}

	total, err := s.store.CountByOrg(ctx, orgID)
	if err != nil {
		s.log.Error().Err(err).Str("org_id", orgID).Msg("count check-ins")
		return nil, envelope.PaginationMeta{}, ErrInternal()
	}

	items, err := s.store.ListByOrg(ctx, orgID, limit, (page-1)*limit)
	if err != nil {
		s.log.Error().Err(err).Str("org_id", orgID).Msg("list check-ins")
		return nil, envelope.PaginationMeta{}, ErrInternal()
	}

	return items, envelope.NewPaginationMeta(page, limit, total), nil
}

// Summary computes the emociograma for [from, to). A zero window defaults to
// the trailing 30 days.
func (s *CheckinService) Summary(ctx context.Context, orgID string, from, to time.Time) (checkin.Summary, error) {
	if _, err := s.orgs.Get(ctx, orgID); err != nil {
		return checkin.Summary{}, err
	}

	if to.IsZero() {
		to = s.clock.Now()
	}
	if from.IsZero() {
		from = to.Add(-30 * 24 * time.Hour)
	}
	if !from.Before(to) {
		return checkin.Summary{}, ErrValidation(map[string]any{"from": "from must be before to"})
	}

	entries, err := s.store.ListWindow(ctx, orgID, from, to)
	if err != nil {
		s.log.Error().Err(err).Str("org_id", orgID).Msg("load check-in window")
		return checkin.Summary{}, ErrInternal()
	}

	return checkin.Summarize(orgID, entries, from, to), nil
}
