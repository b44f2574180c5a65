package card

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gamevault/loyalty-api/internal/pkg/lock"
	"github.com/gamevault/loyalty-api/internal/pkg/response"
	"github.com/gamevault/loyalty-api/internal/pkg/validator"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Issue handles POST /cards
func (h *Handler) Issue(w http.ResponseWriter, r *http.Request) {
	var req IssueCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		response.BadRequest(w, "invalid member_id")
		return
	}

	c, err := h.svc.IssueCard(r.Context(), memberID, req.Number)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateNumber):
			response.Conflict(w, "card number already in use")
		case errors.Is(err, ErrMemberNotFound):
			response.NotFound(w, "member not found")
		default:
			response.InternalError(w)
		}
		return
	}
	response.Created(w, c)
}

// Get handles GET /cards/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cardID, ok := parseCardID(w, r)
	if !ok {
		return
	}

	c, err := h.svc.GetCard(r.Context(), cardID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, c)
}

// GetByNumber handles GET /cards?number=NNN
func (h *Handler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("number")
	if number == "" {
		response.BadRequest(w, "number query parameter is required")
		return
	}

	c, err := h.svc.GetByNumber(r.Context(), number)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, c)
}

// AddPoints handles POST /cards/{id}/points/add
func (h *Handler) AddPoints(w http.ResponseWriter, r *http.Request) {
	h.handlePoints(w, r, h.svc.AddPoints)
}

// DeductPoints handles POST /cards/{id}/points/deduct
func (h *Handler) DeductPoints(w http.ResponseWriter, r *http.Request) {
	h.handlePoints(w, r, h.svc.DeductPoints)
}

// RecomputeTier handles POST /cards/{id}/recompute-tier
func (h *Handler) RecomputeTier(w http.ResponseWriter, r *http.Request) {
	cardID, ok := parseCardID(w, r)
	if !ok {
		return
	}

	c, err := h.svc.RecomputeTier(r.Context(), cardID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, c)
}

// Block handles POST /cards/{id}/block
func (h *Handler) Block(w http.ResponseWriter, r *http.Request) {
	h.handleStatus(w, r, h.svc.Block)
}

// Unblock handles POST /cards/{id}/unblock
func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	h.handleStatus(w, r, h.svc.Unblock)
}

// Transactions handles GET /cards/{id}/transactions
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	cardID, ok := parseCardID(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	txs, total, err := h.svc.ListTransactions(r.Context(), cardID, limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.WithMeta(w, txs, response.Meta{Total: total, Limit: limit, Offset: offset})
}

func (h *Handler) handlePoints(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, cardID uuid.UUID, amount int64, description string) (*Card, error)) {
	cardID, ok := parseCardID(w, r)
	if !ok {
		return
	}

	var req PointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	c, err := fn(r.Context(), cardID, req.Amount, req.Description)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, c)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, cardID uuid.UUID) error) {
	cardID, ok := parseCardID(w, r)
	if !ok {
		return
	}

	if err := fn(r.Context(), cardID); err != nil {
		h.writeError(w, err)
		return
	}
	response.NoContent(w)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		response.BadRequest(w, "amount must be greater than zero")
	case errors.Is(err, ErrCardNotFound):
		response.NotFound(w, "card not found")
	case errors.Is(err, ErrInsufficientBalance):
		response.Conflict(w, "insufficient point balance")
	case errors.Is(err, ErrCardBlocked):
		response.Conflict(w, "card is blocked")
	case errors.Is(err, lock.ErrBusy):
		response.Busy(w)
	default:
		response.InternalError(w)
	}
}

func parseCardID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid card id")
		return uuid.Nil, false
	}
	return cardID, true
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler, adminOnly func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/", h.Issue)
	r.Get("/", h.GetByNumber)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/points/add", h.AddPoints)
	r.Post("/{id}/points/deduct", h.DeductPoints)
	r.Get("/{id}/transactions", h.Transactions)

	r.Group(func(r chi.Router) {
		r.Use(adminOnly)
		r.Post("/{id}/recompute-tier", h.RecomputeTier)
		r.Post("/{id}/block", h.Block)
		r.Post("/{id}/unblock", h.Unblock)
	})

	return r
}
