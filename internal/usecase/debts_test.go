package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"kronopago/internal/domain"
	"kronopago/internal/usecase"
	"kronopago/internal/usecase/mocks"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// storeWithRepos wires a MockStore whose Atomic callback runs against the
// same store, mirroring how the SQLite gateway passes a transactional view.
func storeWithRepos(ctrl *gomock.Controller) (*mocks.MockStore, *mocks.MockDebtRepository, *mocks.MockInstallmentRepository, *mocks.MockTransactionRepository) {
	store := mocks.NewMockStore(ctrl)
	debts := mocks.NewMockDebtRepository(ctrl)
	installments := mocks.NewMockInstallmentRepository(ctrl)
	transactions := mocks.NewMockTransactionRepository(ctrl)

	store.EXPECT().Debts().Return(debts).AnyTimes()
	store.EXPECT().Installments().Return(installments).AnyTimes()
	store.EXPECT().Transactions().Return(transactions).AnyTimes()
	store.EXPECT().Atomic(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(usecase.Store) error) error {
			return fn(store)
		},
	).AnyTimes()

	return store, debts, installments, transactions
}

func pendingDebt(t *testing.T) *domain.Debt {
	t.Helper()
	return domain.NewDebt("prestamo moto", decimal.RequireFromString("320.50"),
		time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC))
}

func scheduleFor(debtID uuid.UUID, paid ...bool) []domain.Installment {
	installments := make([]domain.Installment, len(paid))
	for i, p := range paid {
		inst := domain.NewInstallment(time.Date(2025, time.Month(i+1), 5, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(100))
		inst.DebtID = debtID
		inst.Paid = p
		installments[i] = inst
	}
	return installments
}

func TestDebtService_SaveDebtWithInstallments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, debts, installments, _ := storeWithRepos(ctrl)
	svc := usecase.NewDebtService(store, zap.NewNop())

	debt := pendingDebt(t)
	schedule := domain.GenerateSchedule(
		debt.DueDate, debt.DueDate.AddDate(0, 2, 0), domain.FrequencyMonthly, debt.Amount)
	require.Len(t, schedule, 3)

	debts.EXPECT().Insert(gomock.Any(), debt).Return(nil)
	installments.EXPECT().InsertBatch(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, got []domain.Installment) error {
			require.Len(t, got, 3)
			for _, inst := range got {
				assert.Equal(t, debt.ID, inst.DebtID, "installment must be owned by the new debt")
			}
			return nil
		},
	)

	err := svc.SaveDebtWithInstallments(context.Background(), debt, schedule)
	assert.NoError(t, err)
}

func TestDebtService_SaveDebtWithInstallments_NoSchedule(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, debts, _, _ := storeWithRepos(ctrl)
	svc := usecase.NewDebtService(store, zap.NewNop())

	debt := pendingDebt(t)
	debts.EXPECT().Insert(gomock.Any(), debt).Return(nil)

	assert.NoError(t, svc.SaveDebtWithInstallments(context.Background(), debt, nil))
}

func TestDebtService_SaveDebtWithInstallments_InvalidDebt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, _, _, _ := storeWithRepos(ctrl)
	svc := usecase.NewDebtService(store, zap.NewNop())

	debt := pendingDebt(t)
	debt.Description = ""

	err := svc.SaveDebtWithInstallments(context.Background(), debt, nil)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "description", verr.Field)
}

func TestDebtService_SaveDebtWithInstallments_BatchFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, debts, installments, _ := storeWithRepos(ctrl)
	svc := usecase.NewDebtService(store, zap.NewNop())

	debt := pendingDebt(t)
	schedule := scheduleFor(uuid.Nil, false, false)

	debts.EXPECT().Insert(gomock.Any(), debt).Return(nil)
	installments.EXPECT().InsertBatch(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	err := svc.SaveDebtWithInstallments(context.Background(), debt, schedule)
	assert.ErrorContains(t, err, "insert installments")
}

func TestDebtService_MarkInstallmentPaid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	debt := pendingDebt(t)

	tests := []struct {
		name           string
		before         []bool // paid flags, target is the first unpaid
		wantTransition bool
	}{
		{name: "first of three leaves debt pending", before: []bool{false, false, false}},
		{name: "second of three leaves debt pending", before: []bool{true, false, false}},
		{name: "last of three settles the debt", before: []bool{true, true, false}, wantTransition: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, debts, installments, _ := storeWithRepos(ctrl)
			svc := usecase.NewDebtService(store, zap.NewNop())

			schedule := scheduleFor(debt.ID, tt.before...)
			target := schedule[len(schedule)-1]
			for _, inst := range schedule {
				if !inst.Paid {
					target = inst
					break
				}
			}

			after := make([]domain.Installment, len(schedule))
			copy(after, schedule)
			for i := range after {
				if after[i].ID == target.ID {
					after[i].Paid = true
				}
			}

			installments.EXPECT().FindByDebt(gomock.Any(), debt.ID).Return(schedule, nil)
			installments.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, got domain.Installment) error {
					assert.Equal(t, target.ID, got.ID)
					assert.True(t, got.Paid)
					assert.Equal(t, "receipts/c.jpg", got.ReceiptPath)
					return nil
				},
			)
			installments.EXPECT().FindByDebt(gomock.Any(), debt.ID).Return(after, nil)

			if tt.wantTransition {
				fresh := *debt
				debts.EXPECT().FindByID(gomock.Any(), debt.ID).Return(&fresh, nil)
				debts.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, got *domain.Debt) error {
						assert.Equal(t, domain.DebtStatusPaid, got.Status)
						require.NotNil(t, got.PaidAt)
						assert.WithinDuration(t, time.Now(), *got.PaidAt, time.Minute)
						return nil
					},
				)
			}

			updated, parent, err := svc.MarkInstallmentPaid(context.Background(), debt.ID, target.ID, "receipts/c.jpg")
			require.NoError(t, err)
			assert.True(t, updated.Paid)
			if tt.wantTransition {
				require.NotNil(t, parent)
				assert.Equal(t, domain.DebtStatusPaid, parent.Status)
			} else {
				assert.Nil(t, parent)
			}
		})
	}
}

func TestDebtService_MarkInstallmentPaid_UnknownInstallment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, _, installments, _ := storeWithRepos(ctrl)
	svc := usecase.NewDebtService(store, zap.NewNop())

	debt := pendingDebt(t)
	installments.EXPECT().FindByDebt(gomock.Any(), debt.ID).Return(scheduleFor(debt.ID, false), nil)

	_, _, err := svc.MarkInstallmentPaid(context.Background(), debt.ID, uuid.New(), "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDebtService_MarkInstallmentPaid_EmptyScheduleDoesNotSettle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, _, installments, _ := storeWithRepos(ctrl)
	svc := usecase.NewDebtService(store, zap.NewNop())

	debt := pendingDebt(t)
	schedule := scheduleFor(debt.ID, false)

	installments.EXPECT().FindByDebt(gomock.Any(), debt.ID).Return(schedule, nil)
	installments.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
	// Re-read races with a concurrent delete and comes back empty: the debt
	// must not transition.
	installments.EXPECT().FindByDebt(gomock.Any(), debt.ID).Return(nil, nil)

	_, parent, err := svc.MarkInstallmentPaid(context.Background(), debt.ID, schedule[0].ID, "")
	require.NoError(t, err)
	assert.Nil(t, parent)
}

func TestDebtService_MarkDebtPaid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, debts, _, _ := storeWithRepos(ctrl)
	svc := usecase.NewDebtService(store, zap.NewNop())

	debt := pendingDebt(t)
	debts.EXPECT().FindByID(gomock.Any(), debt.ID).Return(debt, nil)
	debts.EXPECT().Update(gomock.Any(), debt).Return(nil)

	got, err := svc.MarkDebtPaid(context.Background(), debt.ID, "receipts/x.png")
	require.NoError(t, err)
	assert.Equal(t, domain.DebtStatusPaid, got.Status)
	require.NotNil(t, got.PaidAt)
	assert.Equal(t, "receipts/x.png", got.ReceiptPath)
}

func TestDebtService_DeleteDebt_CancelsInstallments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, debts, installments, _ := storeWithRepos(ctrl)
	svc := usecase.NewDebtService(store, zap.NewNop())

	debt := pendingDebt(t)
	schedule := scheduleFor(debt.ID, true, false, false)

	installments.EXPECT().FindByDebt(gomock.Any(), debt.ID).Return(schedule, nil)
	// Only the two unpaid installments are written back.
	cancelled := map[uuid.UUID]bool{}
	installments.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, got domain.Installment) error {
			assert.True(t, got.Paid)
			cancelled[got.ID] = true
			return nil
		},
	).Times(2)
	debts.EXPECT().Delete(gomock.Any(), debt.ID).Return(nil)

	require.NoError(t, svc.DeleteDebt(context.Background(), debt.ID))
	assert.True(t, cancelled[schedule[1].ID])
	assert.True(t, cancelled[schedule[2].ID])
}

func TestDebtService_DetachReceipt(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, debts, _, _ := storeWithRepos(ctrl)
	svc := usecase.NewDebtService(store, zap.NewNop())

	debt := pendingDebt(t)
	debt.ReceiptPath = "receipts/r.jpg"
	debts.EXPECT().FindByID(gomock.Any(), debt.ID).Return(debt, nil)
	debts.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, got *domain.Debt) error {
			assert.Empty(t, got.ReceiptPath)
			assert.Equal(t, domain.DebtStatusPending, got.Status)
			return nil
		},
	)

	got, err := svc.DetachReceipt(context.Background(), debt.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ReceiptPath)
}

func TestDebtService_RecurringPayments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store, debts, _, transactions := storeWithRepos(ctrl)
	svc := usecase.NewDebtService(store, zap.NewNop())

	linkedDebt := pendingDebt(t)
	legacyDebt := pendingDebt(t)
	unrelatedDebt := pendingDebt(t)
	periodStart := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

	recurring := domain.NewTransaction(domain.TransactionTypePayment, decimal.NewFromInt(100), "pago", time.Now())
	recurring.Recurring = true
	recurring.LinkedDebtID = linkedDebt.ID

	// Written before the explicit link existed: shares the debt's id.
	legacy := domain.NewTransaction(domain.TransactionTypePayment, decimal.NewFromInt(50), "pago viejo", time.Now())
	legacy.Recurring = true
	legacy.ID = legacyDebt.ID

	oneOff := domain.NewTransaction(domain.TransactionTypePayment, decimal.NewFromInt(75), "pago unico", time.Now())
	oneOff.LinkedDebtID = unrelatedDebt.ID

	debts.EXPECT().FindByMonth(gomock.Any(), "09-2025", periodStart).
		Return([]domain.Debt{*linkedDebt, *legacyDebt, *unrelatedDebt}, nil)
	transactions.EXPECT().FindByType(gomock.Any(), domain.TransactionTypePayment).
		Return([]domain.Transaction{*recurring, *legacy, *oneOff}, nil)

	got, err := svc.RecurringPayments(context.Background(), "09-2025", periodStart)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, linkedDebt.ID, got[0].ID)
	assert.Equal(t, legacyDebt.ID, got[1].ID)
}
