package ledger

import (
	"testing"

	"spendsense/internal/core"
)

// taxWithSpending builds a taxonomy with one debit group holding two
// subgroups, returning the ids for per-bucket assertions.
func taxWithSpending(t *testing.T) (Taxonomy, string, string, string) {
	t.Helper()
	var tax Taxonomy
	gid, err := tax.AddGroup("HOUSEHOLD", core.Debit)
	if err != nil {
		t.Fatalf("AddGroup: %v", err)
	}
	rent, _ := tax.AddSubgroup(gid, "Rent")
	groceries, _ := tax.AddSubgroup(gid, "Groceries")
	return tax, gid, rent, groceries
}

func TestSubgroupAndGroupTotals(t *testing.T) {
	tax, gid, rent, groceries := taxWithSpending(t)
	txs := []core.Transaction{
		testTx(t, "2026-08-01", core.Debit, 5000, gid, rent),
		testTx(t, "2026-08-02", core.Debit, 1500, gid, groceries),
		testTx(t, "2026-08-03", core.Debit, 2500, gid, rent),
		// Group reference matches but subgroup belongs elsewhere.
		testTx(t, "2026-08-04", core.Debit, 9999, gid, "sub-foreign"),
	}

	if got := SubgroupTotal(txs, rent); got.Cents != 7500 {
		t.Fatalf("SubgroupTotal(rent) = %d, want 7500", got.Cents)
	}
	group, _ := tax.FindGroup(gid)
	if got := GroupTotal(txs, group); got.Cents != 9000 {
		t.Fatalf("GroupTotal = %d, want 9000", got.Cents)
	}

	// Group total equals the sum of its subgroup totals.
	var sum int64
	for _, s := range group.Subgroups {
		sum += SubgroupTotal(txs, s.ID).Cents
	}
	if sum != GroupTotal(txs, group).Cents {
		t.Fatalf("subgroup sum %d does not match group total %d", sum, GroupTotal(txs, group).Cents)
	}
}

func TestNetBalance(t *testing.T) {
	txs := []core.Transaction{
		testTx(t, "2026-08-01", core.Credit, 100000, "g", "s"),
		testTx(t, "2026-08-02", core.Debit, 30000, "g", "s"),
		testTx(t, "2026-08-03", core.Debit, 20000, "g", "s"),
	}
	if got := NetBalance(txs); got.Cents != 50000 {
		t.Fatalf("NetBalance = %d, want 50000", got.Cents)
	}

	credits := DirectionalTotal(txs, core.Credit)
	debits := DirectionalTotal(txs, core.Debit)
	if NetBalance(txs).Cents != credits.Cents-debits.Cents {
		t.Fatal("net balance does not equal credits minus debits")
	}
}

func TestNetBalanceNegative(t *testing.T) {
	txs := []core.Transaction{
		testTx(t, "2026-08-01", core.Debit, 500, "g", "s"),
	}
	if got := NetBalance(txs); got.Cents != -500 {
		t.Fatalf("NetBalance = %d, want -500", got.Cents)
	}
}

func TestPercentOfSpend(t *testing.T) {
	pct, ok := PercentOfSpend(core.Money{Cents: 5000}, core.Money{Cents: 20000})
	if !ok || pct != 25 {
		t.Fatalf("PercentOfSpend = %v, %v, want 25, true", pct, ok)
	}
	if _, ok := PercentOfSpend(core.Money{Cents: 5000}, core.Money{}); ok {
		t.Fatal("zero denominator reported a ratio")
	}
}

func TestDailySeriesZeroFills(t *testing.T) {
	today := mustDate(t, "2026-08-31")
	txs := []core.Transaction{
		testTx(t, "2026-08-31", core.Debit, 300, "g", "s"),
		testTx(t, "2026-08-29", core.Debit, 100, "g", "s"),
		testTx(t, "2026-08-29", core.Debit, 150, "g", "s"),
		// Credits never count toward the spend series.
		testTx(t, "2026-08-30", core.Credit, 7777, "g", "s"),
		// Outside the window.
		testTx(t, "2026-08-20", core.Debit, 9999, "g", "s"),
	}

	series := DailySeries(txs, 7, today)
	if len(series) != 7 {
		t.Fatalf("got %d buckets, want 7", len(series))
	}
	if series[0].Date.String() != "2026-08-25" || series[6].Date.String() != "2026-08-31" {
		t.Fatalf("window bounds wrong: %s .. %s", series[0].Date, series[6].Date)
	}
	want := []int64{0, 0, 0, 0, 250, 0, 300}
	for i, w := range want {
		if series[i].Total.Cents != w {
			t.Fatalf("bucket %s = %d, want %d", series[i].Date, series[i].Total.Cents, w)
		}
	}
}

func TestGroupByCategory(t *testing.T) {
	tax, gid, rent, _ := taxWithSpending(t)
	txs := []core.Transaction{
		testTx(t, "2026-08-01", core.Debit, 5000, gid, rent),
		testTx(t, "2026-08-02", core.Debit, 1500, "group-gone", "sub-gone"),
		testTx(t, "2026-08-03", core.Debit, 500, gid, rent),
		testTx(t, "2026-08-04", core.Credit, 8000, gid, rent),
	}

	got := GroupByCategory(txs, tax, core.Debit)
	if len(got) != 2 {
		t.Fatalf("got %d categories, want 2", len(got))
	}
	if got[0].Name != "HOUSEHOLD" || got[0].Total.Cents != 5500 {
		t.Fatalf("first slice = %+v", got[0])
	}
	if got[1].Name != UncategorizedLabel || got[1].Total.Cents != 1500 {
		t.Fatalf("uncategorized slice = %+v", got[1])
	}
}

func TestMonthlySeries(t *testing.T) {
	today := mustDate(t, "2026-08-15")
	txs := []core.Transaction{
		testTx(t, "2026-08-01", core.Debit, 100, "g", "s"),
		testTx(t, "2026-07-20", core.Credit, 900, "g", "s"),
		testTx(t, "2026-01-01", core.Debit, 5555, "g", "s"),
	}

	series := MonthlySeries(txs, 3, today)
	if len(series) != 3 {
		t.Fatalf("got %d months, want 3", len(series))
	}
	if series[0].Month != "2026-06" || series[2].Month != "2026-08" {
		t.Fatalf("window bounds wrong: %s .. %s", series[0].Month, series[2].Month)
	}
	if series[1].Credits.Cents != 900 || series[2].Debits.Cents != 100 {
		t.Fatalf("unexpected series: %+v", series)
	}
}
