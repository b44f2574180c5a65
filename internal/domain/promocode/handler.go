package promocode

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gamevault/loyalty-api/internal/domain/card"
	"github.com/gamevault/loyalty-api/internal/pkg/lock"
	"github.com/gamevault/loyalty-api/internal/pkg/response"
	"github.com/gamevault/loyalty-api/internal/pkg/validator"
)

// Handler exposes the redemption endpoint and the admin CRUD surface.
type Handler struct {
	svc *Service
}

// NewHandler creates a new promocode handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Redeem handles POST /promo-codes/redeem
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		response.BadRequest(w, "invalid card_id")
		return
	}

	result, err := h.svc.Redeem(r.Context(), req.Code, cardID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, result)
}

// CreateCode handles POST /promo-codes
func (h *Handler) CreateCode(w http.ResponseWriter, r *http.Request) {
	var req CreateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	var promotionID *uuid.UUID
	if req.PromotionID != nil {
		id, err := uuid.Parse(*req.PromotionID)
		if err != nil {
			response.BadRequest(w, "invalid promotion_id")
			return
		}
		promotionID = &id
	}

	pc, err := h.svc.CreateCode(r.Context(), req.Code, promotionID, req.BonusPoints, req.DiscountPercent, req.ExpiresAt, req.UsesLimit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, pc)
}

// DeactivateCode handles POST /promo-codes/{id}/deactivate
func (h *Handler) DeactivateCode(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid code id")
		return
	}

	if err := h.svc.DeactivateCode(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	response.NoContent(w)
}

// ListCodes handles GET /promo-codes
func (h *Handler) ListCodes(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	codes, err := h.svc.ListCodes(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, codes)
}

// GetCode handles GET /promo-codes/{code}
func (h *Handler) GetCode(w http.ResponseWriter, r *http.Request) {
	pc, err := h.svc.GetCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, pc)
}

// CreatePromotion handles POST /promotions
func (h *Handler) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req CreatePromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if details := validator.Validate(req); details != nil {
		response.ValidationError(w, details)
		return
	}

	p, err := h.svc.CreatePromotion(r.Context(), req.Title, req.Description, req.StartsAt, req.EndsAt)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, p)
}

// GetPromotion handles GET /promotions/{id}
func (h *Handler) GetPromotion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid promotion id")
		return
	}

	p, err := h.svc.GetPromotion(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, p)
}

// ListPromotions handles GET /promotions
func (h *Handler) ListPromotions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	promos, err := h.svc.ListPromotions(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, promos)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoEffect):
		response.BadRequest(w, "code must grant bonus points or a discount")
	case errors.Is(err, ErrCodeNotFound):
		response.NotFound(w, "promo code not found")
	case errors.Is(err, ErrPromotionNotFound):
		response.NotFound(w, "promotion not found")
	case errors.Is(err, card.ErrCardNotFound):
		response.NotFound(w, "card not found")
	case errors.Is(err, ErrCodeInactive):
		response.Conflict(w, "promo code is not active")
	case errors.Is(err, ErrCodeExpired):
		response.Conflict(w, "promo code has expired")
	case errors.Is(err, ErrUsesExhausted):
		response.Conflict(w, "promo code uses limit reached")
	case errors.Is(err, ErrAlreadyRedeemed):
		response.Conflict(w, "promo code already redeemed by this card")
	case errors.Is(err, ErrDuplicateCode):
		response.Conflict(w, "promo code already exists")
	case errors.Is(err, card.ErrCardBlocked):
		response.Conflict(w, "card is blocked")
	case errors.Is(err, lock.ErrBusy):
		response.Busy(w)
	default:
		response.InternalError(w)
	}
}

// Routes mounts the promo-code surface: redemption for staff, CRUD for admins.
func (h *Handler) Routes(authMiddleware, adminOnly func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/redeem", h.Redeem)

	r.Group(func(r chi.Router) {
		r.Use(adminOnly)
		r.Post("/", h.CreateCode)
		r.Get("/", h.ListCodes)
		r.Get("/{code}", h.GetCode)
		r.Post("/{id}/deactivate", h.DeactivateCode)
	})
	return r
}

// PromotionRoutes mounts the admin promotion CRUD.
func (h *Handler) PromotionRoutes(authMiddleware, adminOnly func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware, adminOnly)
	r.Post("/", h.CreatePromotion)
	r.Get("/", h.ListPromotions)
	r.Get("/{id}", h.GetPromotion)
	return r
}
