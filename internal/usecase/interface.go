package usecase

import (
	"context"
	"time"

	"kronopago/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the persistence collaborator. The usecase layer depends on these
// interfaces, not on a concrete implementation.
//
// Insert has replace semantics: re-inserting the same id overwrites the
// record, which keeps every mutation retryable.
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=interface.go
type Store interface {
	Debts() DebtRepository
	Installments() InstallmentRepository
	Transactions() TransactionRepository

	// Atomic runs fn against a transactional view of the store. Either every
	// write inside fn is durably stored or none is.
	Atomic(ctx context.Context, fn func(Store) error) error
}

// DebtRepository provides access to debt records. Watch methods return a
// continuously-updating result channel and a cancel func; after cancel
// returns no further sends occur and the channel is closed.
type DebtRepository interface {
	Insert(ctx context.Context, debt *domain.Debt) error
	Update(ctx context.Context, debt *domain.Debt) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Debt, error)
	FindByStatus(ctx context.Context, status domain.DebtStatus) ([]domain.Debt, error)
	// FindByMonth returns debts due in the month identified by monthKey
	// ("MM-YYYY") plus still-pending debts due before periodStart.
	FindByMonth(ctx context.Context, monthKey string, periodStart time.Time) ([]domain.Debt, error)
	FindAll(ctx context.Context) ([]domain.Debt, error)
	WatchByStatus(ctx context.Context, status domain.DebtStatus) (<-chan []domain.Debt, func(), error)
}

// InstallmentRepository provides access to the installments owned by debts.
type InstallmentRepository interface {
	InsertBatch(ctx context.Context, installments []domain.Installment) error
	Update(ctx context.Context, installment domain.Installment) error
	FindByDebt(ctx context.Context, debtID uuid.UUID) ([]domain.Installment, error)
	WatchByDebt(ctx context.Context, debtID uuid.UUID) (<-chan []domain.Installment, func(), error)
}

// TransactionRepository provides access to expense/payment records.
type TransactionRepository interface {
	Insert(ctx context.Context, tx *domain.Transaction) error
	Update(ctx context.Context, tx *domain.Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	MarkPaid(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	FindByType(ctx context.Context, txType domain.TransactionType) ([]domain.Transaction, error)
	FindBetween(ctx context.Context, start, end time.Time) ([]domain.Transaction, error)
	FindAll(ctx context.Context) ([]domain.Transaction, error)
	TotalByType(ctx context.Context, txType domain.TransactionType) (decimal.Decimal, error)
	TotalPaidByType(ctx context.Context, txType domain.TransactionType) (decimal.Decimal, error)
}

// TextExtractor converts an on-disk document into plain text. PDF and image
// recognition live behind this boundary; the usecase layer only consumes the
// resulting string.
type TextExtractor interface {
	Extract(ctx context.Context, path, mimeType string) (string, error)
}
