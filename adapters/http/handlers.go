package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/wellgate/wellgate/app"
	"github.com/wellgate/wellgate/domain/checkin"
	"github.com/wellgate/wellgate/domain/org"
)

// OrgHandler serves the organization endpoints.
type OrgHandler struct {
	svc *app.OrgService
	log zerolog.Logger
}

// NewOrgHandler creates an organization handler.
func NewOrgHandler(svc *app.OrgService, log zerolog.Logger) *OrgHandler {
	return &OrgHandler{svc: svc, log: log}
}

// Create handles POST /api/v1/organizations.
func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in app.CreateOrgInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeFailure(w, r, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	o, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, o, nil)
}

// Get handles GET /api/v1/organizations/{id}.
func (h *OrgHandler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, o, nil)
}

// GetBySlug handles GET /api/v1/organizations/slug/{slug}.
func (h *OrgHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, o, nil)
}

// List handles GET /api/v1/organizations.
func (h *OrgHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	items, meta, err := h.svc.List(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []org.Organization{}
	}
	writeSuccess(w, http.StatusOK, items, &meta)
}

// Update handles PATCH /api/v1/organizations/{id}.
func (h *OrgHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in app.UpdateOrgInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeFailure(w, r, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	o, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, o, nil)
}

// Delete handles DELETE /api/v1/organizations/{id}.
func (h *OrgHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]bool{"deleted": true}, nil)
}

// CheckinHandler serves the mood check-in endpoints.
type CheckinHandler struct {
	svc *app.CheckinService
	log zerolog.Logger
}

// NewCheckinHandler creates a check-in handler.
func NewCheckinHandler(svc *app.CheckinService, log zerolog.Logger) *CheckinHandler {
	return &CheckinHandler{svc: svc, log: log}
}

// Create handles POST /api/v1/checkins.
func (h *CheckinHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in app.CreateCheckinInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeFailure(w, r, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	c, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, c, nil)
}

// ListByOrg handles GET /api/v1/organizations/{id}/checkins.
func (h *CheckinHandler) ListByOrg(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	items, meta, err := h.svc.ListByOrg(r.Context(), chi.URLParam(r, "id"), page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if items == nil {
		items = []checkin.Checkin{}
	}
	writeSuccess(w, http.StatusOK, items, &meta)
}

// Summary handles GET /api/v1/organizations/{id}/checkins/summary.
func (h *CheckinHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from, err := timeParam(r, "from")
	if err != nil {
		writeFailure(w, r, http.StatusBadRequest, "invalid from parameter", map[string]any{"from": "must be RFC 3339"})
		return
	}
	to, err := timeParam(r, "to")
	if err != nil {
		writeFailure(w, r, http.StatusBadRequest, "invalid to parameter", map[string]any{"to": "must be RFC 3339"})
		return
	}

	s, err := h.svc.Summary(r.Context(), chi.URLParam(r, "id"), from, to)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, s, nil)
}

func pageParams(r *http.Request) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

func timeParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}

// HealthHandler serves liveness and readiness checks.
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler creates a health handler. db may be nil.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readiness handles GET /health/ready. Ready means the database answers.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "unhealthy", "error": err.Error()})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Version identifies the build. Overridden via -ldflags at release time.
var Version = "dev"

// VersionHandler handles GET /version.
func VersionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"version": Version,
		"service": "wellgate",
	})
}
