package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// Activity log actions and entities.
const (
	ActionAdd            = "ADD"
	ActionDelete         = "DELETE"
	ActionEdit           = "EDIT"
	ActionExport         = "EXPORT"
	ActionPasswordChange = "PASSWORD_CHANGE"

	EntityTransaction = "TRANSACTION"
	EntityGroup       = "GROUP"
	EntityUser        = "USER"
)

// Reserved taxonomy ids for the skip-categorization path. Every user's
// taxonomy is seeded with this pair and the import flow depends on it.
const (
	UncategorizedGroupID = "system-uncat"
	SkippedSubgroupID    = "system-skipped"
)

type (
	// Direction is the monetary flow of a transaction or group:
	// DEBIT for money out, CREDIT for money in.
	Direction string

	LedgerSubgroup struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		GroupID string `json:"parentId"`
	}

	LedgerGroup struct {
		ID        string           `json:"id"`
		Name      string           `json:"name"`
		Direction Direction        `json:"type"`
		Subgroups []LedgerSubgroup `json:"subgroups"`
	}

	Transaction struct {
		ID         string    `json:"id"`
		Date       Date      `json:"date"`
		Bank       string    `json:"bankName"`
		Direction  Direction `json:"type"`
		RefNo      string    `json:"refNo"`
		GroupID    string    `json:"groupId"`
		SubgroupID string    `json:"subgroupId"`
		Purpose    string    `json:"purpose"`
		Amount     Money     `json:"amount"`
		Merchant   string    `json:"merchant"`

		// Set only when the record came through the import adapter.
		RawSMS           string `json:"rawSms,omitempty"`
		SuggestedPurpose string `json:"suggestedPurpose,omitempty"`
	}

	// Draft is an unconfirmed transaction extracted from free text. Any
	// field may be inaccurate; defaults are applied once, at confirmation.
	Draft struct {
		Amount           Money     `json:"amount"`
		Direction        Direction `json:"type"`
		Date             Date      `json:"date"`
		Merchant         string    `json:"merchant"`
		Bank             string    `json:"bankName"`
		RefNo            string    `json:"refNo"`
		SuggestedPurpose string    `json:"suggestedPurpose"`
		RawSMS           string    `json:"rawSms"`
	}

	ActivityEntry struct {
		ID        string `json:"id"`
		Action    string `json:"action"`
		Entity    string `json:"entity"`
		Details   string `json:"details"`
		Timestamp int64  `json:"timestamp"`
		Data      any    `json:"data,omitempty"`
	}

	DailyNote struct {
		ID        string `json:"id"`
		Date      Date   `json:"date"`
		Title     string `json:"title"`
		Content   string `json:"content"`
		Timestamp int64  `json:"timestamp"`
	}

	Receivable struct {
		ID         string `json:"id"`
		Date       Date   `json:"date"`
		DebtorName string `json:"debtorName"`
		Amount     Money  `json:"amount"`
		Purpose    string `json:"purpose"`
		DueDate    Date   `json:"dueDate"`
		Settled    bool   `json:"isSettled"`
		Timestamp  int64  `json:"timestamp"`
	}

	UserProfile struct {
		FullName   string `json:"fullName"`
		PetName    string `json:"petName"`
		DOB        string `json:"dob"`
		Occupation string `json:"occupation"`
		Email      string `json:"email"`
		Mobile     string `json:"mobile"`
	}

	UserPreferences struct {
		Theme string `json:"theme"`
		Font  string `json:"font"`
	}

	User struct {
		ID          string          `json:"id"`
		Username    string          `json:"username"`
		Email       string          `json:"email"`
		Password    string          `json:"passwordHash"`
		Role        string          `json:"role"`
		Preferences UserPreferences `json:"preferences"`
		Profile     UserProfile     `json:"profile"`
	}
)

var (
	ErrInvalidDirection = errors.New("invalid direction")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyBank        = errors.New("empty bank name")
	ErrEmptyMerchant    = errors.New("empty merchant")
	ErrEmptyName        = errors.New("empty name")
)

func (d Direction) Validate() error {
	switch d {
	case Debit, Credit:
		return nil
	}
	return ErrInvalidDirection
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Debit {
		return Credit
	}
	return Debit
}

func (g LedgerGroup) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	return g.Direction.Validate()
}

// Validate checks the fields a user must supply at submission time.
// GroupID/SubgroupID are deliberately unchecked: references are lenient and
// dangling ones are surfaced later by the reconciliation scan.
func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Direction.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Bank) == "" {
		return ErrEmptyBank
	}
	if strings.TrimSpace(t.Merchant) == "" {
		return ErrEmptyMerchant
	}
	return nil
}

func (n DailyNote) Validate() error {
	if strings.TrimSpace(n.Content) == "" {
		return errors.New("empty note content")
	}
	return n.Date.Validate()
}

func (r Receivable) Validate() error {
	if strings.TrimSpace(r.DebtorName) == "" {
		return errors.New("empty debtor name")
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	return r.Date.Validate()
}

// DefaultTaxonomy is the taxonomy seeded for every new user: the reserved
// uncategorized/skipped pair plus a small starter set.
func DefaultTaxonomy() []LedgerGroup {
	return []LedgerGroup{
		{
			ID:        UncategorizedGroupID,
			Name:      "UNCATEGORIZED",
			Direction: Debit,
			Subgroups: []LedgerSubgroup{
				{ID: SkippedSubgroupID, Name: "SKIPPED", GroupID: UncategorizedGroupID},
			},
		},
		{
			ID:        "grp-house",
			Name:      "HOUSEHOLD",
			Direction: Debit,
			Subgroups: []LedgerSubgroup{
				{ID: "sub-rent", Name: "Rent", GroupID: "grp-house"},
				{ID: "sub-grocery", Name: "Groceries", GroupID: "grp-house"},
			},
		},
		{
			ID:        "grp-inc",
			Name:      "INCOME",
			Direction: Credit,
			Subgroups: []LedgerSubgroup{
				{ID: "sub-sal", Name: "Salary", GroupID: "grp-inc"},
			},
		},
	}
}

// Today returns the current local calendar day.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}
