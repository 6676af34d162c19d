package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Installment represents one scheduled partial payment of a debt ("cuota").
// Installments are created in bulk when a recurring debt is saved and are
// never deleted; cancelling the parent debt marks them paid instead.
type Installment struct {
	ID          uuid.UUID       `json:"id"`
	DebtID      uuid.UUID       `json:"debt_id"`
	DueDate     time.Time       `json:"due_date"`
	Amount      decimal.Decimal `json:"amount"`
	Paid        bool            `json:"paid"`
	ReceiptPath string          `json:"receipt_path,omitempty"`
}

// NewInstallment creates an unpaid installment with a fresh id. The owning
// debt id is assigned when the installment is saved alongside its debt.
func NewInstallment(dueDate time.Time, amount decimal.Decimal) Installment {
	return Installment{
		ID:      uuid.New(),
		DueDate: dueDate,
		Amount:  amount,
	}
}

// AllPaid reports whether every installment in the set is paid. An empty set
// counts as paid so callers do not transition debts that own no installments
// by accident; they check for emptiness first.
func AllPaid(installments []Installment) bool {
	for _, c := range installments {
		if !c.Paid {
			return false
		}
	}
	return true
}
