package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kronopago/internal/domain"
	"kronopago/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// SQLiteStore implements usecase.Store over a local SQLite database. Writes
// bump a change notifier so Watch subscriptions re-run their queries; inserts
// have replace semantics so retried operations are idempotent at the record
// level.
type SQLiteStore struct {
	db      *gorm.DB
	logger  *zap.Logger
	changes *notifier

	// dirty is set on the transactional sub-store handed to Atomic's fn.
	// Writes made there record the change here instead of signalling, and
	// Atomic signals once after commit.
	dirty *bool
}

// Open opens (or creates) the database at path and migrates the schema.
func Open(path string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&debtModel{}, &installmentModel{}, &transactionModel{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &SQLiteStore{
		db:      db,
		logger:  logger,
		changes: newNotifier(),
	}, nil
}

// Close closes the underlying connection.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Debts returns the debt repository.
func (s *SQLiteStore) Debts() usecase.DebtRepository { return &debtRepo{s} }

// Installments returns the installment repository.
func (s *SQLiteStore) Installments() usecase.InstallmentRepository { return &installmentRepo{s} }

// Transactions returns the transaction repository.
func (s *SQLiteStore) Transactions() usecase.TransactionRepository { return &transactionRepo{s} }

// Atomic runs fn against a transactional view of the store. A rollback undoes
// every write made inside fn. Watchers are notified once, after the commit,
// so a re-run query never observes pre-commit state.
func (s *SQLiteStore) Atomic(ctx context.Context, fn func(usecase.Store) error) error {
	var dirty bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SQLiteStore{db: tx, logger: s.logger, changes: s.changes, dirty: &dirty})
	})
	if err != nil {
		return err
	}
	if dirty {
		s.changes.notify()
	}
	return nil
}

// notifyChange signals watchers that persisted state changed. Inside Atomic
// the signal is deferred until the surrounding transaction commits.
func (s *SQLiteStore) notifyChange() {
	if s.dirty != nil {
		*s.dirty = true
		return
	}
	s.changes.notify()
}

var _ usecase.Store = (*SQLiteStore)(nil)

type debtRepo struct{ store *SQLiteStore }

func (r *debtRepo) Insert(ctx context.Context, debt *domain.Debt) error {
	err := r.store.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(debtFromDomain(debt)).Error
	if err != nil {
		return fmt.Errorf("insert debt: %w", err)
	}
	r.store.notifyChange()
	return nil
}

func (r *debtRepo) Update(ctx context.Context, debt *domain.Debt) error {
	if err := r.store.db.WithContext(ctx).Save(debtFromDomain(debt)).Error; err != nil {
		return fmt.Errorf("update debt: %w", err)
	}
	r.store.notifyChange()
	return nil
}

func (r *debtRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.store.db.WithContext(ctx).Delete(&debtModel{}, "id = ?", id.String()).Error; err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	r.store.notifyChange()
	return nil
}

func (r *debtRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Debt, error) {
	var model debtModel
	if err := r.store.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	debt, err := model.ToDomain()
	if err != nil {
		return nil, err
	}
	return &debt, nil
}

func (r *debtRepo) FindByStatus(ctx context.Context, status domain.DebtStatus) ([]domain.Debt, error) {
	return r.query(ctx, r.store.db.Where("status = ?", status.String()))
}

// FindByMonth keeps the original month query: debts whose due date falls in
// the MM-YYYY key plus still-pending debts due before the period start.
func (r *debtRepo) FindByMonth(ctx context.Context, monthKey string, periodStart time.Time) ([]domain.Debt, error) {
	return r.query(ctx, r.store.db.Where(
		"strftime('%m-%Y', due_date) = ? OR (due_date < ? AND status = ?)",
		monthKey, periodStart, domain.DebtStatusPending.String(),
	))
}

func (r *debtRepo) FindAll(ctx context.Context) ([]domain.Debt, error) {
	return r.query(ctx, r.store.db)
}

func (r *debtRepo) WatchByStatus(ctx context.Context, status domain.DebtStatus) (<-chan []domain.Debt, func(), error) {
	return watch(ctx, r.store.changes, func() ([]domain.Debt, error) {
		return r.FindByStatus(ctx, status)
	})
}

func (r *debtRepo) query(ctx context.Context, tx *gorm.DB) ([]domain.Debt, error) {
	var models []debtModel
	if err := tx.WithContext(ctx).Order("due_date").Find(&models).Error; err != nil {
		return nil, err
	}
	debts := make([]domain.Debt, 0, len(models))
	for i := range models {
		debt, err := models[i].ToDomain()
		if err != nil {
			return nil, err
		}
		debts = append(debts, debt)
	}
	return debts, nil
}

type installmentRepo struct{ store *SQLiteStore }

func (r *installmentRepo) InsertBatch(ctx context.Context, installments []domain.Installment) error {
	if len(installments) == 0 {
		return nil
	}
	models := make([]*installmentModel, len(installments))
	for i, inst := range installments {
		models[i] = installmentFromDomain(inst)
	}
	err := r.store.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(models).Error
	if err != nil {
		return fmt.Errorf("insert %d installments: %w", len(installments), err)
	}
	r.store.notifyChange()
	return nil
}

func (r *installmentRepo) Update(ctx context.Context, installment domain.Installment) error {
	if err := r.store.db.WithContext(ctx).Save(installmentFromDomain(installment)).Error; err != nil {
		return fmt.Errorf("update installment: %w", err)
	}
	r.store.notifyChange()
	return nil
}

func (r *installmentRepo) FindByDebt(ctx context.Context, debtID uuid.UUID) ([]domain.Installment, error) {
	var models []installmentModel
	err := r.store.db.WithContext(ctx).
		Where("debt_id = ?", debtID.String()).
		Order("due_date").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	installments := make([]domain.Installment, 0, len(models))
	for i := range models {
		inst, err := models[i].ToDomain()
		if err != nil {
			return nil, err
		}
		installments = append(installments, inst)
	}
	return installments, nil
}

func (r *installmentRepo) WatchByDebt(ctx context.Context, debtID uuid.UUID) (<-chan []domain.Installment, func(), error) {
	return watch(ctx, r.store.changes, func() ([]domain.Installment, error) {
		return r.FindByDebt(ctx, debtID)
	})
}

type transactionRepo struct{ store *SQLiteStore }

func (r *transactionRepo) Insert(ctx context.Context, tx *domain.Transaction) error {
	err := r.store.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(transactionFromDomain(tx)).Error
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	r.store.notifyChange()
	return nil
}

func (r *transactionRepo) Update(ctx context.Context, tx *domain.Transaction) error {
	if err := r.store.db.WithContext(ctx).Save(transactionFromDomain(tx)).Error; err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	r.store.notifyChange()
	return nil
}

func (r *transactionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.store.db.WithContext(ctx).Delete(&transactionModel{}, "id = ?", id.String()).Error; err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	r.store.notifyChange()
	return nil
}

func (r *transactionRepo) MarkPaid(ctx context.Context, id uuid.UUID) error {
	err := r.store.db.WithContext(ctx).
		Model(&transactionModel{}).
		Where("id = ?", id.String()).
		Update("paid", true).Error
	if err != nil {
		return fmt.Errorf("mark transaction paid: %w", err)
	}
	r.store.notifyChange()
	return nil
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var model transactionModel
	if err := r.store.db.WithContext(ctx).First(&model, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	tx, err := model.ToDomain()
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepo) FindByType(ctx context.Context, txType domain.TransactionType) ([]domain.Transaction, error) {
	return r.query(ctx, r.store.db.Where("type = ?", txType.String()))
}

func (r *transactionRepo) FindBetween(ctx context.Context, start, end time.Time) ([]domain.Transaction, error) {
	return r.query(ctx, r.store.db.Where("date BETWEEN ? AND ?", start, end))
}

func (r *transactionRepo) FindAll(ctx context.Context) ([]domain.Transaction, error) {
	return r.query(ctx, r.store.db)
}

func (r *transactionRepo) TotalByType(ctx context.Context, txType domain.TransactionType) (decimal.Decimal, error) {
	return r.sum(ctx, "type = ?", txType.String())
}

func (r *transactionRepo) TotalPaidByType(ctx context.Context, txType domain.TransactionType) (decimal.Decimal, error) {
	return r.sum(ctx, "type = ? AND paid = ?", txType.String(), true)
}

func (r *transactionRepo) sum(ctx context.Context, cond string, args ...interface{}) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.store.db.WithContext(ctx).
		Model(&transactionModel{}).
		Select("IFNULL(SUM(amount), 0)").
		Where(cond, args...).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum transactions: %w", err)
	}
	return total, nil
}

func (r *transactionRepo) query(ctx context.Context, tx *gorm.DB) ([]domain.Transaction, error) {
	var models []transactionModel
	if err := tx.WithContext(ctx).Order("date DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	transactions := make([]domain.Transaction, 0, len(models))
	for i := range models {
		t, err := models[i].ToDomain()
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, nil
}
