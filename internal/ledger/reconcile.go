package ledger

import "spendsense/internal/core"

// IsOrphan reports whether the transaction's category references no longer
// resolve against the taxonomy: either the group is gone, or the subgroup
// is gone or has moved to another group.
func IsOrphan(tx core.Transaction, tax Taxonomy) bool {
	if _, ok := tax.FindGroup(tx.GroupID); !ok {
		return true
	}
	_, ok := tax.FindSubgroup(tx.GroupID, tx.SubgroupID)
	return !ok
}

// Orphans scans the whole book and returns the orphaned transactions in
// book order. The scan never mutates anything; repair is an explicit edit.
func Orphans(txs []core.Transaction, tax Taxonomy) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if IsOrphan(tx, tax) {
			out = append(out, tx)
		}
	}
	return out
}
