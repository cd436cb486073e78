package ledger

import (
	"testing"

	"spendsense/internal/core"
)

func TestOrphansAfterGroupRemoval(t *testing.T) {
	tax, gid, rent, _ := taxWithSpending(t)
	var b Book
	orphanID, _ := b.Create(testTx(t, "2026-08-01", core.Debit, 100, gid, rent))
	intactGID, _ := tax.AddGroup("INCOME", core.Credit)
	salary, _ := tax.AddSubgroup(intactGID, "Salary")
	intactID, _ := b.Create(testTx(t, "2026-08-02", core.Credit, 200, intactGID, salary))

	tax.RemoveGroup(gid)

	got := Orphans(b.Transactions, tax)
	if len(got) != 1 {
		t.Fatalf("got %d orphans, want 1", len(got))
	}
	if got[0].ID != orphanID {
		t.Fatalf("orphan = %s, want %s", got[0].ID, orphanID)
	}
	if _, ok := b.Find(intactID); !ok {
		t.Fatal("intact transaction lost")
	}
}

func TestOrphansAfterSubgroupRemoval(t *testing.T) {
	tax, gid, rent, groceries := taxWithSpending(t)
	var b Book
	b.Create(testTx(t, "2026-08-01", core.Debit, 100, gid, rent))
	b.Create(testTx(t, "2026-08-02", core.Debit, 200, gid, groceries))

	tax.RemoveSubgroup(gid, rent)

	got := Orphans(b.Transactions, tax)
	if len(got) != 1 || got[0].SubgroupID != rent {
		t.Fatalf("unexpected orphans: %+v", got)
	}
}

func TestIsOrphanMismatchedPair(t *testing.T) {
	tax, gid, _, _ := taxWithSpending(t)
	other, _ := tax.AddGroup("INCOME", core.Credit)
	salary, _ := tax.AddSubgroup(other, "Salary")

	// Both ids exist but the subgroup belongs to another group.
	tx := testTx(t, "2026-08-01", core.Debit, 100, gid, salary)
	if !IsOrphan(tx, tax) {
		t.Fatal("cross-group reference not flagged as orphan")
	}
}

func TestOrphansScanIsIdempotent(t *testing.T) {
	tax, gid, rent, _ := taxWithSpending(t)
	var b Book
	b.Create(testTx(t, "2026-08-01", core.Debit, 100, gid, rent))
	tax.RemoveGroup(gid)

	first := Orphans(b.Transactions, tax)
	second := Orphans(b.Transactions, tax)
	if len(first) != len(second) {
		t.Fatalf("scan not idempotent: %d then %d", len(first), len(second))
	}
	if len(b.Transactions) != 1 {
		t.Fatal("scan mutated the book")
	}
}

func TestOrphansEmptyWhenTaxonomyIntact(t *testing.T) {
	tax, gid, rent, _ := taxWithSpending(t)
	var b Book
	b.Create(testTx(t, "2026-08-01", core.Debit, 100, gid, rent))

	if got := Orphans(b.Transactions, tax); len(got) != 0 {
		t.Fatalf("got %d orphans, want 0", len(got))
	}
}
