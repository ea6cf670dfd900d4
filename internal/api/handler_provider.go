package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/fundwire/ledgerd/internal/notify"
	"github.com/fundwire/ledgerd/internal/repos/accounts"
	"github.com/fundwire/ledgerd/internal/repos/transfers"
	"github.com/fundwire/ledgerd/internal/services/identity"
	"github.com/fundwire/ledgerd/internal/services/ledger"
	"github.com/google/uuid"
)

// HandlerProvider wraps the identity and ledger services and exposes
// HTTP handlers.
type HandlerProvider struct {
	identity   *identity.Service
	ledger     *ledger.Service
	subscriber notify.Subscriber
}

// NewHandler returns a new Handler provider.
func NewHandler(identitySvc *identity.Service, ledgerSvc *ledger.Service, sub notify.Subscriber) *HandlerProvider {
	return &HandlerProvider{
		identity:   identitySvc,
		ledger:     ledgerSvc,
		subscriber: sub,
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)

		http.Error(w, `{"error":"internal json encode failure"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB cap
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "empty body")
			return false
		}

		writeError(w, http.StatusBadRequest, "Invalid request")
		return false
	}

	return true
}

// accountJSON is the account view returned by register, login and
// profile. The password hash never leaves the service layer.
type accountJSON struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Balance string `json:"balance"`
}

func accountView(a *accounts.Account) accountJSON {
	return accountJSON{
		ID:      a.ID,
		Name:    a.Name,
		Email:   a.Email,
		Balance: ledger.FormatAmount(a.Balance),
	}
}

type historyEntryJSON struct {
	ID        uuid.UUID       `json:"id"`
	Amount    string          `json:"amount"`
	Status    string          `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
	Sender    transfers.Party `json:"sender"`
	Receiver  transfers.Party `json:"receiver"`
}

func historyView(entries []transfers.HistoryEntry) []historyEntryJSON {
	out := make([]historyEntryJSON, 0, len(entries))

	for _, e := range entries {
		out = append(out, historyEntryJSON{
			ID:        e.ID,
			Amount:    ledger.FormatAmount(e.Amount),
			Status:    e.Status,
			Timestamp: e.CreatedAt,
			Sender:    e.Sender,
			Receiver:  e.Receiver,
		})
	}

	return out
}

// --- Handlers ---

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// RegisterHandler handles POST /api/auth/register
func (h *HandlerProvider) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	acc, token, err := h.identity.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailTaken):
			writeError(w, http.StatusBadRequest, "User already exists")
		case errors.Is(err, identity.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "Invalid request")
		default:
			slog.Error("register failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}

		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  accountView(acc),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler handles POST /api/auth/login
func (h *HandlerProvider) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	acc, token, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
		case errors.Is(err, identity.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "Invalid request")
		default:
			slog.Error("login failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  accountView(acc),
	})
}

// ProfileHandler handles GET /api/profile
func (h *HandlerProvider) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	acc, err := h.identity.Profile(r.Context(), accountIDFromCtx(r.Context()))
	if err != nil {
		if errors.Is(err, accounts.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "Account not found")
			return
		}

		slog.Error("profile lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": accountView(acc)})
}

type transferRequest struct {
	ReceiverEmail string `json:"receiverEmail"`
	// Raw so both "200" and 200 are accepted; parsed as a decimal with
	// at most two fractional digits.
	Amount json.RawMessage `json:"amount"`
}

// TransferHandler handles POST /api/transfer
func (h *HandlerProvider) TransferHandler(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodeBody(w, r, &req) {
		return
	}

	raw := strings.Trim(strings.TrimSpace(string(req.Amount)), `"`)

	amountMinor, err := ledger.ParseAmount(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	res, err := h.ledger.Transfer(r.Context(), accountIDFromCtx(r.Context()), req.ReceiverEmail, amountMinor)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientFunds):
			writeError(w, http.StatusConflict, "Insufficient balance")
		case errors.Is(err, ledger.ErrReceiverNotFound):
			writeError(w, http.StatusNotFound, "Receiver not found")
		case errors.Is(err, ledger.ErrSelfTransfer):
			writeError(w, http.StatusBadRequest, "Cannot transfer to self")
		case errors.Is(err, ledger.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, "Invalid request")
		case errors.Is(err, ledger.ErrTransientContention):
			writeError(w, http.StatusServiceUnavailable, "Transfer failed, please retry")
		default:
			slog.Error("transfer failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
		}

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Transfer successful",
		"balance": ledger.FormatAmount(res.SenderBalance),
	})
}

// HistoryHandler handles GET /api/history
func (h *HandlerProvider) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledger.History(r.Context(), accountIDFromCtx(r.Context()))
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, "Invalid request")
			return
		}

		slog.Error("history lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"transactions": historyView(entries)})
}
