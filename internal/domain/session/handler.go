package session

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/gamevault/loyalty-api/internal/domain/card"
	"github.com/gamevault/loyalty-api/internal/pkg/lock"
	"github.com/gamevault/loyalty-api/internal/pkg/response"
	"github.com/gamevault/loyalty-api/internal/pkg/validator"
)

type Handler struct {
	svc      *Service
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewHandler(svc *Service, hub *Hub, allowedOrigins []string) *Handler {
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = struct{}{}
	}
	return &Handler{
		svc: svc,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := originSet[origin]
				return ok
			},
		},
	}
}

// Open handles POST /sessions
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenSessionRequest
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

	sess, err := h.svc.Open(r.Context(), cardID, req.PlannedMinutes, req.ComputerInfo)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.Created(w, sess)
}

// Close handles POST /sessions/{id}/close
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid session id")
		return
	}

	sess, err := h.svc.Close(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sess)
}

// Get handles GET /sessions/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid session id")
		return
	}

	sess, err := h.svc.GetSession(r.Context(), sessionID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sess)
}

// ListActive handles GET /sessions/active
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	sessions, err := h.svc.ListActive(r.Context(), limit, offset)
	if err != nil {
		response.InternalError(w)
		return
	}
	response.OK(w, sessions)
}

// ListActiveForCard handles GET /cards/{id}/sessions/active
func (h *Handler) ListActiveForCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid card id")
		return
	}

	sessions, err := h.svc.ListActiveForCard(r.Context(), cardID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.OK(w, sessions)
}

// WebSocket handles GET /ws/sessions: the staff dashboard feed
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("session feed upgrade failed")
		return
	}
	h.hub.serve(conn)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidMinutes):
		response.BadRequest(w, "planned_minutes must be greater than zero")
	case errors.Is(err, ErrSessionNotFound):
		response.NotFound(w, "session not found")
	case errors.Is(err, card.ErrCardNotFound):
		response.NotFound(w, "card not found")
	case errors.Is(err, card.ErrCardBlocked):
		response.Conflict(w, "card is blocked")
	case errors.Is(err, lock.ErrBusy):
		response.Busy(w)
	default:
		response.InternalError(w)
	}
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Post("/", h.Open)
	r.Get("/active", h.ListActive)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/close", h.Close)
	return r
}
