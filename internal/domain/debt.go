package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebtStatus represents the lifecycle state of a debt.
type DebtStatus string

const (
	DebtStatusPending DebtStatus = "PENDING"
	DebtStatusPaid    DebtStatus = "PAID"
	DebtStatusOverdue DebtStatus = "OVERDUE"
)

// IsValid checks if the status is a valid DebtStatus.
func (s DebtStatus) IsValid() bool {
	switch s {
	case DebtStatusPending, DebtStatusPaid, DebtStatusOverdue:
		return true
	}
	return false
}

// String returns the string representation of DebtStatus.
func (s DebtStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further payments are expected in this status.
func (s DebtStatus) IsTerminal() bool {
	return s == DebtStatusPaid
}

// Debt represents a tracked obligation with a due date and amount. It is the
// aggregate root for its installments: when a debt carries an EndDate it is
// recurring and owns one installment per period.
type Debt struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"due_date"`
	Status      DebtStatus      `json:"status"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	ReceiptPath string          `json:"receipt_path,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
}

// NewDebt creates a pending debt with a fresh id.
func NewDebt(description string, amount decimal.Decimal, dueDate time.Time) *Debt {
	return &Debt{
		ID:          uuid.New(),
		Description: description,
		Amount:      amount,
		DueDate:     dueDate,
		Status:      DebtStatusPending,
	}
}

// IsRecurring reports whether the debt spans multiple installments.
func (d *Debt) IsRecurring() bool {
	return d.EndDate != nil
}

// Validate checks the debt's invariants before it is persisted.
func (d *Debt) Validate() error {
	if strings.TrimSpace(d.Description) == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if !d.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: fmt.Sprintf("must be positive, got %s", d.Amount)}
	}
	if !d.Status.IsValid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", d.Status)}
	}
	if d.EndDate != nil && d.EndDate.Before(d.DueDate) {
		return &ValidationError{Field: "end_date", Reason: "must not be before due date"}
	}
	if d.Status == DebtStatusPaid && d.PaidAt == nil {
		return &ValidationError{Field: "paid_at", Reason: "required when status is PAID"}
	}
	return nil
}

// MarkPaid transitions the debt to PAID at the given time. The receipt
// reference is replaced with the given value; an empty path clears any
// receipt attached earlier.
func (d *Debt) MarkPaid(at time.Time, receiptPath string) {
	d.Status = DebtStatusPaid
	d.PaidAt = &at
	d.ReceiptPath = receiptPath
}

// MarkOverdue flags the debt as past due. Paid debts are left untouched.
func (d *Debt) MarkOverdue() {
	if d.Status == DebtStatusPending {
		d.Status = DebtStatusOverdue
	}
}

// ToTransaction mirrors the debt as an expense transaction linked back to it.
func (d *Debt) ToTransaction() *Transaction {
	return &Transaction{
		ID:           uuid.New(),
		Type:         TransactionTypeExpense,
		Amount:       d.Amount,
		Description:  d.Description,
		Date:         d.DueDate,
		Paid:         d.Status == DebtStatusPaid,
		LinkedDebtID: d.ID,
	}
}
