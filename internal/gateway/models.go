package gateway

import (
	"time"

	"kronopago/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type debtModel struct {
	ID          string          `gorm:"primaryKey;size:36"`
	Description string          `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:numeric;not null"`
	DueDate     time.Time       `gorm:"index;not null"`
	Status      string          `gorm:"size:16;index;not null"`
	PaidAt      *time.Time
	ReceiptPath string
	EndDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (debtModel) TableName() string { return "debts" }

func (m *debtModel) ToDomain() (domain.Debt, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return domain.Debt{}, err
	}
	return domain.Debt{
		ID:          id,
		Description: m.Description,
		Amount:      m.Amount,
		DueDate:     m.DueDate,
		Status:      domain.DebtStatus(m.Status),
		PaidAt:      m.PaidAt,
		ReceiptPath: m.ReceiptPath,
		EndDate:     m.EndDate,
	}, nil
}

func debtFromDomain(d *domain.Debt) *debtModel {
	return &debtModel{
		ID:          d.ID.String(),
		Description: d.Description,
		Amount:      d.Amount,
		DueDate:     d.DueDate,
		Status:      d.Status.String(),
		PaidAt:      d.PaidAt,
		ReceiptPath: d.ReceiptPath,
		EndDate:     d.EndDate,
	}
}

type installmentModel struct {
	ID          string          `gorm:"primaryKey;size:36"`
	DebtID      string          `gorm:"size:36;index;not null"`
	DueDate     time.Time       `gorm:"not null"`
	Amount      decimal.Decimal `gorm:"type:numeric;not null"`
	Paid        bool            `gorm:"not null"`
	ReceiptPath string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (installmentModel) TableName() string { return "installments" }

func (m *installmentModel) ToDomain() (domain.Installment, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return domain.Installment{}, err
	}
	debtID, err := uuid.Parse(m.DebtID)
	if err != nil {
		return domain.Installment{}, err
	}
	return domain.Installment{
		ID:          id,
		DebtID:      debtID,
		DueDate:     m.DueDate,
		Amount:      m.Amount,
		Paid:        m.Paid,
		ReceiptPath: m.ReceiptPath,
	}, nil
}

func installmentFromDomain(i domain.Installment) *installmentModel {
	return &installmentModel{
		ID:          i.ID.String(),
		DebtID:      i.DebtID.String(),
		DueDate:     i.DueDate,
		Amount:      i.Amount,
		Paid:        i.Paid,
		ReceiptPath: i.ReceiptPath,
	}
}

type transactionModel struct {
	ID           string          `gorm:"primaryKey;size:36"`
	Type         string          `gorm:"size:16;index;not null"`
	Amount       decimal.Decimal `gorm:"type:numeric;not null"`
	Description  string          `gorm:"not null"`
	Date         time.Time       `gorm:"index;not null"`
	Paid         bool            `gorm:"not null"`
	Recurring    bool            `gorm:"not null"`
	Frequency    *string         `gorm:"size:16"`
	RecurringDay string
	LinkedDebtID string `gorm:"size:36;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (transactionModel) TableName() string { return "transactions" }

func (m *transactionModel) ToDomain() (domain.Transaction, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return domain.Transaction{}, err
	}
	tx := domain.Transaction{
		ID:           id,
		Type:         domain.TransactionType(m.Type),
		Amount:       m.Amount,
		Description:  m.Description,
		Date:         m.Date,
		Paid:         m.Paid,
		Recurring:    m.Recurring,
		RecurringDay: m.RecurringDay,
	}
	if m.Frequency != nil {
		f := domain.Frequency(*m.Frequency)
		tx.Frequency = &f
	}
	if m.LinkedDebtID != "" {
		linked, err := uuid.Parse(m.LinkedDebtID)
		if err != nil {
			return domain.Transaction{}, err
		}
		tx.LinkedDebtID = linked
	}
	return tx, nil
}

func transactionFromDomain(t *domain.Transaction) *transactionModel {
	m := &transactionModel{
		ID:           t.ID.String(),
		Type:         t.Type.String(),
		Amount:       t.Amount,
		Description:  t.Description,
		Date:         t.Date,
		Paid:         t.Paid,
		Recurring:    t.Recurring,
		RecurringDay: t.RecurringDay,
	}
	if t.Frequency != nil {
		f := t.Frequency.String()
		m.Frequency = &f
	}
	if t.LinkedDebtID != uuid.Nil {
		m.LinkedDebtID = t.LinkedDebtID.String()
	}
	return m
}
