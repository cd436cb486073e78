package ledger

import (
	"github.com/google/uuid"

	"spendsense/internal/core"
)

// Book is the ordered transaction store. New entries are prepended, so the
// slice reads newest-first without sorting.
type Book struct {
	Transactions []core.Transaction
}

// TransactionPatch carries the fields of an edit. Nil pointers leave the
// corresponding field untouched.
type TransactionPatch struct {
	Date       *core.Date
	Bank       *string
	Direction  *core.Direction
	RefNo      *string
	GroupID    *string
	SubgroupID *string
	Purpose    *string
	Amount     *core.Money
	Merchant   *string
}

// Create validates the transaction, assigns it an id and prepends it.
func (b *Book) Create(tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	tx.ID = "tx-" + uuid.NewString()
	b.Transactions = append([]core.Transaction{tx}, b.Transactions...)
	return tx.ID, nil
}

// Update applies the patch to the transaction with the given id. The
// patched result must still validate; position in the book is preserved.
func (b *Book) Update(id string, patch TransactionPatch) (bool, error) {
	for i := range b.Transactions {
		if b.Transactions[i].ID != id {
			continue
		}
		tx := b.Transactions[i]
		if patch.Date != nil {
			tx.Date = *patch.Date
		}
		if patch.Bank != nil {
			tx.Bank = *patch.Bank
		}
		if patch.Direction != nil {
			tx.Direction = *patch.Direction
		}
		if patch.RefNo != nil {
			tx.RefNo = *patch.RefNo
		}
		if patch.GroupID != nil {
			tx.GroupID = *patch.GroupID
		}
		if patch.SubgroupID != nil {
			tx.SubgroupID = *patch.SubgroupID
		}
		if patch.Purpose != nil {
			tx.Purpose = *patch.Purpose
		}
		if patch.Amount != nil {
			tx.Amount = *patch.Amount
		}
		if patch.Merchant != nil {
			tx.Merchant = *patch.Merchant
		}
		if err := tx.Validate(); err != nil {
			return false, err
		}
		b.Transactions[i] = tx
		return true, nil
	}
	return false, nil
}

// Delete removes the transaction with the given id. Deleting an unknown id
// is a no-op.
func (b *Book) Delete(id string) bool {
	for i := range b.Transactions {
		if b.Transactions[i].ID == id {
			b.Transactions = append(b.Transactions[:i], b.Transactions[i+1:]...)
			return true
		}
	}
	return false
}

func (b Book) Find(id string) (core.Transaction, bool) {
	for _, tx := range b.Transactions {
		if tx.ID == id {
			return tx, true
		}
	}
	return core.Transaction{}, false
}
