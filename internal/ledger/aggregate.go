package ledger

import (
	"time"

	"spendsense/internal/core"
)

// SubgroupTotal sums every transaction assigned to the subgroup,
// regardless of direction.
func SubgroupTotal(txs []core.Transaction, subgroupID string) core.Money {
	var total core.Money
	for _, tx := range txs {
		if tx.SubgroupID == subgroupID {
			total.Cents += tx.Amount.Cents
		}
	}
	return total
}

// GroupTotal sums SubgroupTotal across the group's own subgroups.
// Transactions carrying the group id with an unresolved subgroup do not
// count here; they only surface through Orphans.
func GroupTotal(txs []core.Transaction, group core.LedgerGroup) core.Money {
	var total core.Money
	for _, s := range group.Subgroups {
		total.Cents += SubgroupTotal(txs, s.ID).Cents
	}
	return total
}

// DirectionalTotal sums every transaction with the given direction.
func DirectionalTotal(txs []core.Transaction, dir core.Direction) core.Money {
	var total core.Money
	for _, tx := range txs {
		if tx.Direction == dir {
			total.Cents += tx.Amount.Cents
		}
	}
	return total
}

// NetBalance is total credits minus total debits. Negative when spending
// exceeds income.
func NetBalance(txs []core.Transaction) core.Money {
	return core.Money{
		Cents: DirectionalTotal(txs, core.Credit).Cents - DirectionalTotal(txs, core.Debit).Cents,
	}
}

// PercentOfSpend expresses part as a percentage of the whole. The bool is
// false when the whole is zero and no meaningful ratio exists.
func PercentOfSpend(part, whole core.Money) (float64, bool) {
	if whole.Cents == 0 {
		return 0, false
	}
	return float64(part.Cents) / float64(whole.Cents) * 100, true
}

// DayTotal is one bucket of the trailing daily series.
type DayTotal struct {
	Date  core.Date  `json:"date"`
	Label string     `json:"label"`
	Total core.Money `json:"total"`
}

// DailySeries buckets debit totals per local calendar day for the trailing
// window ending at today, oldest first. Days with no spend stay at zero.
func DailySeries(txs []core.Transaction, days int, today core.Date) []DayTotal {
	series := make([]DayTotal, 0, days)
	index := make(map[string]int, days)
	for i := days - 1; i >= 0; i-- {
		d := core.Date{Time: today.AddDate(0, 0, -i)}
		index[d.String()] = len(series)
		series = append(series, DayTotal{
			Date:  d,
			Label: d.Format("Mon 2"),
		})
	}
	for _, tx := range txs {
		if tx.Direction != core.Debit {
			continue
		}
		if i, ok := index[tx.Date.String()]; ok {
			series[i].Total.Cents += tx.Amount.Cents
		}
	}
	return series
}

// CategoryTotal is one dashboard slice: a group display name and its sum.
type CategoryTotal struct {
	Name  string     `json:"name"`
	Total core.Money `json:"total"`
}

// UncategorizedLabel is the dashboard bucket for transactions whose group
// no longer resolves.
const UncategorizedLabel = "Uncategorized"

// GroupByCategory sums transactions of the given direction per resolved
// group name, in first-seen order. Unresolvable groups land in the
// Uncategorized bucket rather than being dropped.
func GroupByCategory(txs []core.Transaction, tax Taxonomy, dir core.Direction) []CategoryTotal {
	var out []CategoryTotal
	index := make(map[string]int)
	for _, tx := range txs {
		if tx.Direction != dir {
			continue
		}
		name := UncategorizedLabel
		if g, ok := tax.FindGroup(tx.GroupID); ok {
			name = g.Name
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, CategoryTotal{Name: name})
		}
		out[i].Total.Cents += tx.Amount.Cents
	}
	return out
}

// MonthTotal aggregates one calendar month of directional activity.
type MonthTotal struct {
	Month   string     `json:"month"`
	Debits  core.Money `json:"debits"`
	Credits core.Money `json:"credits"`
}

// MonthlySeries buckets totals per calendar month for the trailing window
// ending at the month of today, oldest first.
func MonthlySeries(txs []core.Transaction, months int, today core.Date) []MonthTotal {
	series := make([]MonthTotal, 0, months)
	index := make(map[string]int, months)
	anchor := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.Local)
	for i := months - 1; i >= 0; i-- {
		m := anchor.AddDate(0, -i, 0)
		key := m.Format("2006-01")
		index[key] = len(series)
		series = append(series, MonthTotal{Month: key})
	}
	for _, tx := range txs {
		i, ok := index[tx.Date.Format("2006-01")]
		if !ok {
			continue
		}
		switch tx.Direction {
		case core.Debit:
			series[i].Debits.Cents += tx.Amount.Cents
		case core.Credit:
			series[i].Credits.Cents += tx.Amount.Cents
		}
	}
	return series
}
