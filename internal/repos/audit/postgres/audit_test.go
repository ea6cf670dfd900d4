package audit

import (
	"testing"

	"github.com/fundwire/ledgerd/internal/infra/pgtestutil"
	"github.com/fundwire/ledgerd/internal/repos/audit"
	"github.com/google/uuid"
)

func TestAudit_RecordAndList(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	alice := pgtestutil.SeedAccount(t, db, "alice@example.com", "Alice", 100000)
	bob := pgtestutil.SeedAccount(t, db, "bob@example.com", "Bob", 50000)

	repo := New(db)
	ctx := t.Context()

	transferID, err := uuid.NewV7()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}

	success := audit.Entry{
		TransferID: &transferID,
		SenderID:   alice,
		ReceiverID: &bob,
		Amount:     20000,
		Status:     "SUCCESS",
	}

	err = repo.Record(ctx, &success)
	if err != nil {
		t.Fatalf("record success: %v", err)
	}

	if success.ID == 0 || success.CreatedAt.IsZero() {
		t.Fatalf("entry not fully populated: %+v", success)
	}

	// Failed attempt against an email that never resolved: no transfer
	// id, no receiver id.
	failed := audit.Entry{
		SenderID: alice,
		Amount:   5000,
		Status:   "FAILED: Receiver not found",
	}

	err = repo.Record(ctx, &failed)
	if err != nil {
		t.Fatalf("record failure: %v", err)
	}

	// Bob's own attempt must not show up under Alice.
	err = repo.Record(ctx, &audit.Entry{
		SenderID:   bob,
		ReceiverID: &alice,
		Amount:     100,
		Status:     "FAILED: Insufficient balance",
	})
	if err != nil {
		t.Fatalf("record bob: %v", err)
	}

	got, err := repo.ListBySender(ctx, alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("entry count: got %d, want 2", len(got))
	}

	// Oldest first.
	if got[0].ID != success.ID || got[1].ID != failed.ID {
		t.Fatalf("order mismatch: %+v", got)
	}

	if got[0].TransferID == nil || *got[0].TransferID != transferID {
		t.Fatalf("transfer id mismatch: %+v", got[0])
	}

	if got[0].ReceiverID == nil || *got[0].ReceiverID != bob {
		t.Fatalf("receiver id mismatch: %+v", got[0])
	}

	if got[1].TransferID != nil || got[1].ReceiverID != nil {
		t.Fatalf("failed entry should have no transfer or receiver id: %+v", got[1])
	}

	if got[1].Status != "FAILED: Receiver not found" {
		t.Fatalf("status mismatch: %q", got[1].Status)
	}
}

func TestAudit_ListBySender_Empty(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	repo := New(db)

	got, err := repo.ListBySender(t.Context(), 12345)
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(got) != 0 {
		t.Fatalf("expected no entries, got %d", len(got))
	}
}
