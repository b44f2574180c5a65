package member

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gamevault/loyalty-api/internal/pkg/response"
	"github.com/gamevault/loyalty-api/internal/pkg/validator"
)

// Handler exposes member CRUD.
type Handler struct {
	svc *Service
}

// NewHandler creates a new member handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /members
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	m, err := h.svc.Register(r.Context(), req.FullName, req.Phone, req.Email)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, m)
}

// Get handles GET /members/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid member id")
		return
	}

	m, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, m)
}

// Update handles PATCH /members/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid member id")
		return
	}

	var req UpdateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	m, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, m)
}

// Delete handles DELETE /members/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid member id")
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	response.NoContent(w)
}

// List handles GET /members
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	members, total, err := h.svc.List(r.Context(), r.URL.Query().Get("search"), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.WithMeta(w, members, response.Meta{Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMemberNotFound):
		response.NotFound(w, "member not found")
	case errors.Is(err, ErrDuplicatePhone):
		response.Conflict(w, "phone number already registered")
	case errors.Is(err, ErrHasCards):
		response.Conflict(w, "member still has cards")
	default:
		response.InternalError(w)
	}
}

// Routes mounts member CRUD behind staff auth; delete is admin only.
func (h *Handler) Routes(authMiddleware, adminOnly func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Patch("/{id}", h.Update)

	r.Group(func(r chi.Router) {
		r.Use(adminOnly)
		r.Delete("/{id}", h.Delete)
	})
	return r
}
