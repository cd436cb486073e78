package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"spendsense/internal/core"
)

// statementHeader is the fixed column order of the CSV statement.
var statementHeader = []string{"Date", "Bank", "Type", "Ref No", "Group", "Sub-group", "Purpose", "Amount"}

// missingName fills the category columns when a reference no longer
// resolves, so exported rows never hide orphans.
const missingName = "N/A"

// WriteStatement renders the transactions as a CSV statement in book
// order. Category names are resolved at write time against the taxonomy.
func WriteStatement(w io.Writer, txs []core.Transaction, tax Taxonomy) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(statementHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range txs {
		groupName := missingName
		if g, ok := tax.FindGroup(tx.GroupID); ok {
			groupName = g.Name
		}
		subName := missingName
		if name, ok := tax.SubgroupName(tx.GroupID, tx.SubgroupID); ok {
			subName = name
		}
		row := []string{
			tx.Date.String(),
			tx.Bank,
			string(tx.Direction),
			tx.RefNo,
			groupName,
			subName,
			tx.Purpose,
			tx.Amount.Decimal(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFilename names a statement download after its export instant.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("SpendSense_Report_%d.csv", now.UnixMilli())
}
