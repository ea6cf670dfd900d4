// Package ledger implements atomic balance transfers between accounts,
// the audit trail of every attempt, and the transfer history reader.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fundwire/ledgerd/internal/config"
	"github.com/fundwire/ledgerd/internal/infra/pgutils"
	"github.com/fundwire/ledgerd/internal/notify"
	"github.com/fundwire/ledgerd/internal/repos/accounts"
	accountspg "github.com/fundwire/ledgerd/internal/repos/accounts/postgres"
	"github.com/fundwire/ledgerd/internal/repos/audit"
	auditpg "github.com/fundwire/ledgerd/internal/repos/audit/postgres"
	"github.com/fundwire/ledgerd/internal/repos/transfers"
	transferspg "github.com/fundwire/ledgerd/internal/repos/transfers/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type Service struct {
	db        *sql.DB
	accounts  accounts.Accounts
	transfers transfers.Transfers
	audit     audit.Recorder
	fanout    notify.Fanout
	cfg       config.LedgerConfig
}

func New(db *sql.DB, cfg config.LedgerConfig, fanout notify.Fanout) *Service {
	return &Service{
		db:        db,
		accounts:  accountspg.New(db),
		transfers: transferspg.New(db),
		audit:     auditpg.New(db),
		fanout:    fanout,
		cfg:       cfg,
	}
}

// Transfer atomically moves amountMinor from the sender to the account
// registered under receiverEmail. Every call appends exactly one audit
// entry, success or failure. Events are published only after commit.
func (s *Service) Transfer(ctx context.Context, senderID int64, receiverEmail string, amountMinor int64) (*Result, error) {
	var (
		res      *Result
		receiver *int64
	)

	err := validate(senderID, receiverEmail, amountMinor)
	if err == nil {
		res, receiver, err = s.transferWithRetry(ctx, senderID, receiverEmail, amountMinor)
	}

	s.recordAttempt(ctx, senderID, receiver, amountMinor, res, err)

	if err != nil {
		return nil, err
	}

	s.publish(ctx, res)

	return res, nil
}

// History returns committed transfers involving the account, newest
// first.
func (s *Service) History(ctx context.Context, accountID int64) ([]transfers.HistoryEntry, error) {
	if accountID <= 0 {
		return nil, fmt.Errorf("%w: bad account id", ErrInvalidRequest)
	}

	return s.transfers.ListByAccount(ctx, accountID)
}

func validate(senderID int64, receiverEmail string, amountMinor int64) error {
	if senderID <= 0 {
		return fmt.Errorf("%w: bad sender id", ErrInvalidRequest)
	}

	if receiverEmail == "" {
		return fmt.Errorf("%w: missing receiver email", ErrInvalidRequest)
	}

	if amountMinor <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}

	return nil
}

// transferWithRetry drives the bounded retry loop. Only lock and
// serialization failures are retried; business failures surface on the
// first attempt. The returned receiver id is the last resolved snapshot
// and feeds the failure audit entry.
func (s *Service) transferWithRetry(ctx context.Context, senderID int64, receiverEmail string, amountMinor int64) (*Result, *int64, error) {
	var (
		res      *Result
		receiver *int64
	)

	attempts := s.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
			r, rid, txErr := s.transferTx(tx, senderID, receiverEmail, amountMinor)
			if rid != nil {
				receiver = rid
			}

			if txErr != nil {
				return txErr
			}

			res = r

			return nil
		})
		if err == nil {
			return res, receiver, nil
		}

		if !isTransient(err) {
			return nil, receiver, err
		}

		slog.Warn("transfer contended, retrying",
			"sender_id", senderID, "attempt", i+1, "error", err)
	}

	return nil, receiver, ErrTransientContention
}

// transferTx is one attempt inside one transaction.
func (s *Service) transferTx(tx *sql.Tx, senderID int64, receiverEmail string, amountMinor int64) (*Result, *int64, error) {
	// Cap how long this attempt may sit behind another transfer's row
	// locks. LOCAL scopes the setting to the enclosing transaction.
	_, err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.cfg.LockTimeout.Milliseconds()))
	if err != nil {
		return nil, nil, fmt.Errorf("set lock_timeout: %w", err)
	}

	var receiver *int64

	rid, err := s.accounts.ResolveIDByEmail(tx, receiverEmail)
	switch {
	case err == nil:
		receiver = &rid
	case errors.Is(err, accounts.ErrAccountNotFound):
		// Deferred: an insufficient balance outranks a missing receiver,
		// so the sender's row is checked first either way.
	default:
		return nil, nil, err
	}

	var senderBal, receiverBal int64

	lockSender := func() error {
		b, lockErr := s.accounts.LockBalance(tx, senderID)
		if errors.Is(lockErr, accounts.ErrAccountNotFound) {
			return fmt.Errorf("%w: unknown sender", ErrInvalidRequest)
		}

		if lockErr != nil {
			return lockErr
		}

		senderBal = b

		return nil
	}
	lockReceiver := func() error {
		if receiver == nil || *receiver == senderID {
			return nil
		}

		b, lockErr := s.accounts.LockBalance(tx, *receiver)
		if errors.Is(lockErr, accounts.ErrAccountNotFound) {
			// Deleted between resolve and lock.
			receiver = nil

			return nil
		}

		if lockErr != nil {
			return lockErr
		}

		receiverBal = b

		return nil
	}

	// Both rows are locked in ascending id order so two opposing
	// transfers cannot deadlock on each other.
	first, second := lockSender, lockReceiver
	if receiver != nil && *receiver < senderID {
		first, second = lockReceiver, lockSender
	}

	err = first()
	if err != nil {
		return nil, receiver, err
	}

	err = second()
	if err != nil {
		return nil, receiver, err
	}

	switch {
	case senderBal < amountMinor:
		return nil, receiver, ErrInsufficientFunds
	case receiver == nil:
		return nil, receiver, ErrReceiverNotFound
	case *receiver == senderID:
		return nil, receiver, ErrSelfTransfer
	}

	err = s.accounts.ApplyDelta(tx, senderID, -amountMinor)
	if err != nil {
		if errors.Is(err, accounts.ErrInsufficientFunds) {
			return nil, receiver, ErrInsufficientFunds
		}

		return nil, receiver, fmt.Errorf("debit sender: %w", err)
	}

	err = s.accounts.ApplyDelta(tx, *receiver, amountMinor)
	if err != nil {
		return nil, receiver, fmt.Errorf("credit receiver: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, receiver, fmt.Errorf("new transfer id: %w", err)
	}

	tr := transfers.Transfer{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: *receiver,
		Amount:     amountMinor,
		Status:     transfers.StatusSuccess,
	}

	err = s.transfers.Insert(tx, &tr)
	if err != nil {
		return nil, receiver, err
	}

	return &Result{
		Transfer:        tr,
		SenderBalance:   senderBal - amountMinor,
		ReceiverBalance: receiverBal + amountMinor,
	}, receiver, nil
}

// recordAttempt appends the audit entry after the atomic scope has
// finished, on both branches. The write is best-effort: the transfer
// outcome is already decided, so a failed audit write is logged and
// swallowed rather than turned into a caller-facing error.
func (s *Service) recordAttempt(ctx context.Context, senderID int64, receiver *int64, amountMinor int64, res *Result, trErr error) {
	e := audit.Entry{
		SenderID:   senderID,
		ReceiverID: receiver,
		Amount:     amountMinor,
	}

	if trErr == nil {
		e.TransferID = &res.Transfer.ID
		e.Status = transfers.StatusSuccess
	} else {
		e.Status = "FAILED: " + Reason(trErr)
	}

	err := s.audit.Record(context.WithoutCancel(ctx), &e)
	if err != nil {
		slog.Error("audit write failed",
			"sender_id", senderID, "status", e.Status, "error", err)
	}
}

// transferEvent is the wire form of a transfer in push events. Amounts
// cross the boundary as fixed two-decimal strings.
type transferEvent struct {
	ID         uuid.UUID `json:"id"`
	SenderID   int64     `json:"senderId"`
	ReceiverID int64     `json:"receiverId"`
	Amount     string    `json:"amount"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// publish fans out post-commit events to both parties. Failures are
// logged only; the transfer has already committed.
func (s *Service) publish(ctx context.Context, res *Result) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	tr := res.Transfer
	ev := transferEvent{
		ID:         tr.ID,
		SenderID:   tr.SenderID,
		ReceiverID: tr.ReceiverID,
		Amount:     FormatAmount(tr.Amount),
		Status:     tr.Status,
		Timestamp:  tr.CreatedAt,
	}

	targets := []struct {
		accountID int64
		ev        notify.Event
	}{
		{tr.SenderID, notify.BalanceUpdate(FormatAmount(res.SenderBalance))},
		{tr.SenderID, notify.NewTransaction(ev)},
		{tr.ReceiverID, notify.BalanceUpdate(FormatAmount(res.ReceiverBalance))},
		{tr.ReceiverID, notify.NewTransaction(ev)},
	}

	for _, t := range targets {
		err := s.fanout.Publish(ctx, t.accountID, t.ev)
		if err != nil {
			slog.Warn("event fanout failed",
				"account_id", t.accountID, "event", t.ev.Name, "error", err)
		}
	}
}

func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case "40001", "40P01", "55P03": // serialization, deadlock, lock timeout
		return true
	}

	return false
}
