package usecase

import (
	"context"
	"fmt"
	"time"

	"kronopago/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DebtService orchestrates debt and installment mutations. A single logical
// writer per debt aggregate is assumed; every method takes a context and is
// safe to retry because the store has replace semantics at the record level.
type DebtService struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewDebtService creates a new debt service.
func NewDebtService(store Store, logger *zap.Logger) *DebtService {
	return &DebtService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// SaveDebtWithInstallments persists the debt and its installments in one
// transactional scope: a crash mid-write leaves neither a parent-less
// installment nor a debt with a partial schedule. Every installment's DebtID
// is forced to the debt's id before the write.
func (s *DebtService) SaveDebtWithInstallments(ctx context.Context, debt *domain.Debt, installments []domain.Installment) error {
	if err := debt.Validate(); err != nil {
		return err
	}
	err := s.store.Atomic(ctx, func(tx Store) error {
		if err := tx.Debts().Insert(ctx, debt); err != nil {
			return fmt.Errorf("insert debt: %w", err)
		}
		if len(installments) == 0 {
			return nil
		}
		owned := make([]domain.Installment, len(installments))
		for i, inst := range installments {
			inst.DebtID = debt.ID
			owned[i] = inst
		}
		if err := tx.Installments().InsertBatch(ctx, owned); err != nil {
			return fmt.Errorf("insert installments: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("debt saved",
		zap.String("debt_id", debt.ID.String()),
		zap.Int("installments", len(installments)),
	)
	return nil
}

// MarkInstallmentPaid sets the installment paid, attaching a receipt when
// given, and re-reads the debt's full installment set from the store. If and
// only if every installment is now paid, the parent debt transitions to PAID
// with PaidAt set to the mutation time. Re-evaluating from persisted state on
// every call keeps repeated or out-of-order calls correct.
//
// The returned debt is non-nil only when the parent transitioned.
func (s *DebtService) MarkInstallmentPaid(ctx context.Context, debtID, installmentID uuid.UUID, receiptPath string) (domain.Installment, *domain.Debt, error) {
	installments, err := s.store.Installments().FindByDebt(ctx, debtID)
	if err != nil {
		return domain.Installment{}, nil, fmt.Errorf("load installments: %w", err)
	}
	var target *domain.Installment
	for i := range installments {
		if installments[i].ID == installmentID {
			target = &installments[i]
			break
		}
	}
	if target == nil {
		return domain.Installment{}, nil, fmt.Errorf("installment %s: %w", installmentID, domain.ErrNotFound)
	}

	target.Paid = true
	if receiptPath != "" {
		target.ReceiptPath = receiptPath
	}
	if err := s.store.Installments().Update(ctx, *target); err != nil {
		return domain.Installment{}, nil, fmt.Errorf("update installment: %w", err)
	}

	current, err := s.store.Installments().FindByDebt(ctx, debtID)
	if err != nil {
		return *target, nil, fmt.Errorf("reload installments: %w", err)
	}
	if len(current) == 0 || !domain.AllPaid(current) {
		return *target, nil, nil
	}

	debt, err := s.store.Debts().FindByID(ctx, debtID)
	if err != nil {
		return *target, nil, fmt.Errorf("load debt: %w", err)
	}
	debt.MarkPaid(s.now(), "")
	if err := s.store.Debts().Update(ctx, debt); err != nil {
		return *target, nil, fmt.Errorf("update debt: %w", err)
	}
	s.logger.Info("debt fully paid",
		zap.String("debt_id", debtID.String()),
		zap.Int("installments", len(current)),
	)
	return *target, debt, nil
}

// MarkDebtPaid settles a debt directly, for single-due-date debts without a
// schedule. It does not cascade to installments.
func (s *DebtService) MarkDebtPaid(ctx context.Context, debtID uuid.UUID, receiptPath string) (*domain.Debt, error) {
	debt, err := s.store.Debts().FindByID(ctx, debtID)
	if err != nil {
		return nil, fmt.Errorf("load debt: %w", err)
	}
	debt.MarkPaid(s.now(), receiptPath)
	if err := s.store.Debts().Update(ctx, debt); err != nil {
		return nil, fmt.Errorf("update debt: %w", err)
	}
	return debt, nil
}

// MarkDebtOverdue flags a pending debt as past due.
func (s *DebtService) MarkDebtOverdue(ctx context.Context, debtID uuid.UUID) (*domain.Debt, error) {
	debt, err := s.store.Debts().FindByID(ctx, debtID)
	if err != nil {
		return nil, fmt.Errorf("load debt: %w", err)
	}
	debt.MarkOverdue()
	if err := s.store.Debts().Update(ctx, debt); err != nil {
		return nil, fmt.Errorf("update debt: %w", err)
	}
	return debt, nil
}

// DeleteDebt soft-deletes: every owned installment is marked paid
// (cancellation, not settlement) and the debt record itself is removed.
// Installment rows survive the parent.
func (s *DebtService) DeleteDebt(ctx context.Context, debtID uuid.UUID) error {
	err := s.store.Atomic(ctx, func(tx Store) error {
		installments, err := tx.Installments().FindByDebt(ctx, debtID)
		if err != nil {
			return fmt.Errorf("load installments: %w", err)
		}
		for _, inst := range installments {
			if inst.Paid {
				continue
			}
			inst.Paid = true
			if err := tx.Installments().Update(ctx, inst); err != nil {
				return fmt.Errorf("cancel installment %s: %w", inst.ID, err)
			}
		}
		if err := tx.Debts().Delete(ctx, debtID); err != nil {
			return fmt.Errorf("delete debt: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("debt deleted", zap.String("debt_id", debtID.String()))
	return nil
}

// DetachReceipt clears the debt's receipt reference without touching its
// status.
func (s *DebtService) DetachReceipt(ctx context.Context, debtID uuid.UUID) (*domain.Debt, error) {
	debt, err := s.store.Debts().FindByID(ctx, debtID)
	if err != nil {
		return nil, fmt.Errorf("load debt: %w", err)
	}
	debt.ReceiptPath = ""
	if err := s.store.Debts().Update(ctx, debt); err != nil {
		return nil, fmt.Errorf("update debt: %w", err)
	}
	return debt, nil
}

// Installments returns the debt's schedule.
func (s *DebtService) Installments(ctx context.Context, debtID uuid.UUID) ([]domain.Installment, error) {
	return s.store.Installments().FindByDebt(ctx, debtID)
}

// WatchInstallments subscribes to the debt's schedule. The caller cancels to
// stop delivery; the channel is closed afterwards.
func (s *DebtService) WatchInstallments(ctx context.Context, debtID uuid.UUID) (<-chan []domain.Installment, func(), error) {
	return s.store.Installments().WatchByDebt(ctx, debtID)
}

// WatchPending subscribes to the set of pending debts.
func (s *DebtService) WatchPending(ctx context.Context) (<-chan []domain.Debt, func(), error) {
	return s.store.Debts().WatchByStatus(ctx, domain.DebtStatusPending)
}

// RecurringPayments returns the debts due in the given period (including
// still-pending debts from before periodStart) that a recurring PAYMENT
// transaction settles. The relationship is derived on every call from the
// two collections, never stored.
func (s *DebtService) RecurringPayments(ctx context.Context, monthKey string, periodStart time.Time) ([]domain.Debt, error) {
	debts, err := s.store.Debts().FindByMonth(ctx, monthKey, periodStart)
	if err != nil {
		return nil, fmt.Errorf("load debts for %s: %w", monthKey, err)
	}
	payments, err := s.store.Transactions().FindByType(ctx, domain.TransactionTypePayment)
	if err != nil {
		return nil, fmt.Errorf("load payment transactions: %w", err)
	}

	var recurring []domain.Transaction
	for _, tx := range payments {
		if tx.Recurring {
			recurring = append(recurring, tx)
		}
	}

	var matched []domain.Debt
	for _, debt := range debts {
		for _, tx := range recurring {
			if tx.SettlesDebt(debt.ID) {
				matched = append(matched, debt)
				break
			}
		}
	}
	return matched, nil
}
