package api

import (
	"net/http"

	"github.com/fundwire/ledgerd/internal/notify"
	"github.com/fundwire/ledgerd/internal/services/identity"
	"github.com/fundwire/ledgerd/internal/services/ledger"
	"github.com/go-chi/chi/v5"
)

// NewRouter constructs the router with all API endpoints registered.
func NewRouter(identitySvc *identity.Service, ledgerSvc *ledger.Service, sub notify.Subscriber) http.Handler {
	h := NewHandler(identitySvc, ledgerSvc, sub)
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/api/auth/register", h.RegisterHandler)
	r.Post("/api/auth/login", h.LoginHandler)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireAuth)

		pr.Get("/api/profile", h.ProfileHandler)
		pr.Post("/api/transfer", h.TransferHandler)
		pr.Get("/api/history", h.HistoryHandler)
	})

	// Authenticates itself via the token query parameter.
	r.Get("/ws", h.StreamEventsHandler)

	return r
}
