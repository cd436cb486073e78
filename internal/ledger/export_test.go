package ledger

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"spendsense/internal/core"
)

func TestWriteStatement(t *testing.T) {
	tax, gid, rent, _ := taxWithSpending(t)
	txs := []core.Transaction{
		testTx(t, "2026-08-01", core.Debit, 500000, gid, rent),
	}

	var buf bytes.Buffer
	if err := WriteStatement(&buf, txs, tax); err != nil {
		t.Fatalf("WriteStatement: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	wantHeader := "Date,Bank,Type,Ref No,Group,Sub-group,Purpose,Amount"
	if got := strings.Join(rows[0], ","); got != wantHeader {
		t.Fatalf("header = %q, want %q", got, wantHeader)
	}
	want := []string{"2026-08-01", "HDFC", "DEBIT", "REF-1", "HOUSEHOLD", "Rent", "test", "5000.00"}
	for i, w := range want {
		if rows[1][i] != w {
			t.Fatalf("column %d = %q, want %q", i, rows[1][i], w)
		}
	}
}

func TestWriteStatementMissingReferences(t *testing.T) {
	tax, _, _, _ := taxWithSpending(t)
	txs := []core.Transaction{
		testTx(t, "2026-08-01", core.Debit, 100, "group-gone", "sub-gone"),
	}

	var buf bytes.Buffer
	if err := WriteStatement(&buf, txs, tax); err != nil {
		t.Fatalf("WriteStatement: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if rows[1][4] != "N/A" || rows[1][5] != "N/A" {
		t.Fatalf("missing references not marked N/A: %v", rows[1])
	}
}

func TestWriteStatementEmptyBook(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStatement(&buf, nil, Taxonomy{}); err != nil {
		t.Fatalf("WriteStatement: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want header only", len(rows))
	}
}

func TestExportFilename(t *testing.T) {
	at := time.UnixMilli(1756600000000)
	if got := ExportFilename(at); got != "SpendSense_Report_1756600000000.csv" {
		t.Fatalf("ExportFilename = %q", got)
	}
}
