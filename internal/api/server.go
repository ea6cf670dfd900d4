package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fundwire/ledgerd/internal/notify"
	"github.com/fundwire/ledgerd/internal/services/identity"
	"github.com/fundwire/ledgerd/internal/services/ledger"
)

// NewServer creates and returns a configured *http.Server for the
// transfer API. WriteTimeout stays at zero because /ws connections are
// long-lived; per-message write deadlines bound the websocket writes.
func NewServer(port uint16, identitySvc *identity.Service, ledgerSvc *ledger.Service, sub notify.Subscriber) *http.Server {
	mux := NewRouter(identitySvc, ledgerSvc, sub)

	addr := fmt.Sprintf(":%d", port)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
