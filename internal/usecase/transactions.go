package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kronopago/internal/docparse"
	"kronopago/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransactionService orchestrates expense/payment mutations and the import
// of installment schedules from loan documents.
type TransactionService struct {
	store     Store
	extractor TextExtractor
	logger    *zap.Logger
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(store Store, extractor TextExtractor, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		store:     store,
		extractor: extractor,
		logger:    logger,
	}
}

// SaveTransactionWithInstallments persists the transaction and its
// installments in one transactional scope, with each installment's owner id
// forced to the transaction's id.
func (s *TransactionService) SaveTransactionWithInstallments(ctx context.Context, tx *domain.Transaction, installments []domain.Installment) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	err := s.store.Atomic(ctx, func(st Store) error {
		if err := st.Transactions().Insert(ctx, tx); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		if len(installments) == 0 {
			return nil
		}
		owned := make([]domain.Installment, len(installments))
		for i, inst := range installments {
			inst.DebtID = tx.ID
			owned[i] = inst
		}
		if err := st.Installments().InsertBatch(ctx, owned); err != nil {
			return fmt.Errorf("insert installments: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("transaction saved",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("type", tx.Type.String()),
		zap.Int("installments", len(installments)),
	)
	return nil
}

// ImportSchedule runs the document-to-text collaborator on the given file
// and parses the result into installment candidates. Extraction failures
// (unsupported type, unreadable file, no installments in the text) come back
// as a recoverable *domain.ExtractionError, never as a crash.
func (s *TransactionService) ImportSchedule(ctx context.Context, path, mimeType string) (docparse.Result, error) {
	text, err := s.extractor.Extract(ctx, path, mimeType)
	if err != nil {
		return docparse.Result{}, &domain.ExtractionError{Message: fmt.Sprintf("extract %s", path), Err: err}
	}

	result, err := docparse.Parse(text)
	if err != nil {
		// Keep the extracted text around for diagnosis; the document was
		// readable, its content just did not match the expected shape.
		s.logger.Debug("schedule text yielded no installments",
			zap.String("path", path),
			zap.Int("text_bytes", len(text)),
		)
		if errors.Is(err, docparse.ErrNoInstallments) {
			return docparse.Result{}, &domain.ExtractionError{Message: "no installments in document", Err: err}
		}
		return docparse.Result{}, &domain.ExtractionError{Message: "parse document text", Err: err}
	}

	s.logger.Info("schedule imported",
		zap.String("path", path),
		zap.Int("installments", len(result.Installments)),
		zap.Bool("disbursement_found", result.Disbursement != nil),
	)
	return result, nil
}

// Add persists a standalone transaction.
func (s *TransactionService) Add(ctx context.Context, tx *domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	return s.store.Transactions().Insert(ctx, tx)
}

// Update replaces a transaction record.
func (s *TransactionService) Update(ctx context.Context, tx *domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	return s.store.Transactions().Update(ctx, tx)
}

// Delete removes a transaction record.
func (s *TransactionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Transactions().Delete(ctx, id)
}

// MarkPaid flags a transaction as paid.
func (s *TransactionService) MarkPaid(ctx context.Context, id uuid.UUID) error {
	return s.store.Transactions().MarkPaid(ctx, id)
}

// Get returns a transaction by id.
func (s *TransactionService) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.store.Transactions().FindByID(ctx, id)
}

// ListByType returns transactions of the given type, newest first.
func (s *TransactionService) ListByType(ctx context.Context, txType domain.TransactionType) ([]domain.Transaction, error) {
	return s.store.Transactions().FindByType(ctx, txType)
}

// ListBetween returns transactions dated within [start, end].
func (s *TransactionService) ListBetween(ctx context.Context, start, end time.Time) ([]domain.Transaction, error) {
	return s.store.Transactions().FindBetween(ctx, start, end)
}

// Totals returns total, paid and pending sums for the given type.
func (s *TransactionService) Totals(ctx context.Context, txType domain.TransactionType) (total, paid, pending decimal.Decimal, err error) {
	total, err = s.store.Transactions().TotalByType(ctx, txType)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, fmt.Errorf("total for %s: %w", txType, err)
	}
	paid, err = s.store.Transactions().TotalPaidByType(ctx, txType)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, fmt.Errorf("paid total for %s: %w", txType, err)
	}
	return total, paid, total.Sub(paid), nil
}
