package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType defines the nature of the transaction.
type TransactionType string

const (
	TransactionTypeExpense TransactionType = "EXPENSE"
	TransactionTypePayment TransactionType = "PAYMENT"
)

// IsValid checks if the type is a valid TransactionType.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeExpense || t == TransactionTypePayment
}

// String returns the string representation of TransactionType.
func (t TransactionType) String() string {
	return string(t)
}

// Transaction is a flat expense/payment record. A recurring payment carries a
// frequency and may be linked to the debt it settles via LinkedDebtID; a zero
// LinkedDebtID means the transaction stands alone.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	Type         TransactionType `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	Date         time.Time       `json:"date"`
	Paid         bool            `json:"paid"`
	Recurring    bool            `json:"recurring"`
	Frequency    *Frequency      `json:"frequency,omitempty"`
	RecurringDay string          `json:"recurring_day,omitempty"`
	LinkedDebtID uuid.UUID       `json:"linked_debt_id,omitempty"`
}

// NewTransaction creates a transaction with a fresh id.
func NewTransaction(txType TransactionType, amount decimal.Decimal, description string, date time.Time) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		Type:        txType,
		Amount:      amount,
		Description: description,
		Date:        date,
	}
}

// SettlesDebt reports whether the transaction settles the given debt.
// Transactions written before LinkedDebtID existed share the debt's id, so a
// zero link falls back to id equality.
func (t *Transaction) SettlesDebt(debtID uuid.UUID) bool {
	if t.LinkedDebtID != uuid.Nil {
		return t.LinkedDebtID == debtID
	}
	return t.ID == debtID
}

// Validate checks the transaction's invariants before it is persisted.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if !t.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: fmt.Sprintf("must be positive, got %s", t.Amount)}
	}
	if !t.Type.IsValid() {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown type %q", t.Type)}
	}
	if t.Frequency != nil && !t.Frequency.IsValid() {
		return &ValidationError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q", *t.Frequency)}
	}
	return nil
}
