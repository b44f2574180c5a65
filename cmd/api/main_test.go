package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

// The card sessions listing lives under /cards/{id}/sessions while the card
// routes are mounted at /cards; registering both on one router must not
// panic or shadow the card routes.
func TestCardSessionRoutesCoexistWithCardMount(t *testing.T) {
	okHandler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}

	cards := chi.NewRouter()
	cards.Get("/{id}", okHandler)
	cards.Get("/{id}/transactions", okHandler)

	root := chi.NewRouter()
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				t.Fatalf("registering routes panicked: %v", rec)
			}
		}()
		root.Mount("/cards", cards)
		root.Route("/cards/{id}/sessions", func(r chi.Router) {
			r.Get("/active", okHandler)
		})
	}()

	for _, path := range []string{
		"/cards/123",
		"/cards/123/transactions",
		"/cards/123/sessions/active",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		root.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %s: expected status 200, got %d", path, rr.Code)
		}
	}
}
