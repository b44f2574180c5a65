package audit

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gamevault/loyalty-api/internal/pkg/response"
)

// Handler exposes the admin audit trail listing.
type Handler struct {
	repo Repository
}

// NewHandler creates a new audit handler
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /audit/events
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
	}
	if raw := q.Get("entity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "invalid entity_id")
			return
		}
		f.EntityID = &id
	}

	f.Limit, _ = strconv.Atoi(q.Get("limit"))
	f.Offset, _ = strconv.Atoi(q.Get("offset"))
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	events, err := h.repo.List(r.Context(), f)
	if err != nil {
		response.InternalError(w)
		return
	}
	total, err := h.repo.Count(r.Context(), f)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.WithMeta(w, events, response.Meta{Total: total, Limit: f.Limit, Offset: f.Offset})
}

// Routes mounts the audit surface, admin only.
func (h *Handler) Routes(authMiddleware, adminOnly func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware, adminOnly)
	r.Get("/events", h.List)
	return r
}
