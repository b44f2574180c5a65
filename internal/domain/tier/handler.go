package tier

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gamevault/loyalty-api/internal/pkg/response"
)

type Handler struct {
	table *Table
}

func NewHandler(table *Table) *Handler {
	return &Handler{table: table}
}

// List handles GET /tiers
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.table.Tiers())
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.List)
	return r
}
