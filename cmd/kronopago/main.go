package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"kronopago/internal/config"
	"kronopago/internal/domain"
	"kronopago/internal/gateway"
	"kronopago/internal/logger"
	"kronopago/internal/usecase"

	"go.uber.org/zap"
)

func main() {
	scheduleFile := flag.String("file", "", "Path to a payment schedule document to import")
	mimeType := flag.String("mime", "text/plain", "MIME type of the schedule document")
	description := flag.String("description", "", "Description for the imported debt (persists the schedule when set)")
	month := flag.String("month", "", "List scheduled payments for a month (MM-YYYY)")
	exportFile := flag.String("export", "", "Write all transactions to a CSV file")
	flag.Parse()

	if *scheduleFile == "" && *month == "" && *exportFile == "" {
		fmt.Println("Error: one of -file, -month or -export is required.")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	zlog, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	store, err := gateway.Open(cfg.Database.Path, zlog)
	if err != nil {
		zlog.Fatal("failed to open store", zap.String("path", cfg.Database.Path), zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	debts := usecase.NewDebtService(store, zlog)
	transactions := usecase.NewTransactionService(store, gateway.NewPlainTextExtractor(), zlog)

	ctx := context.Background()

	switch {
	case *scheduleFile != "":
		runImport(ctx, debts, transactions, *scheduleFile, *mimeType, *description, zlog)
	case *month != "":
		runMonth(ctx, debts, *month, zlog)
	case *exportFile != "":
		runExport(ctx, store, *exportFile, zlog)
	}
}

// runImport extracts a schedule from the document, prints it, and persists a
// debt with its installments when a description is given.
func runImport(ctx context.Context, debts *usecase.DebtService, transactions *usecase.TransactionService, path, mimeType, description string, zlog *zap.Logger) {
	result, err := transactions.ImportSchedule(ctx, path, mimeType)
	if err != nil {
		zlog.Fatal("schedule import failed", zap.String("file", path), zap.Error(err))
	}

	if description != "" {
		total := result.Disbursement
		if total == nil {
			sum := result.Installments[0].Amount
			for _, c := range result.Installments[1:] {
				sum = sum.Add(c.Amount)
			}
			total = &sum
		}
		first := result.Installments[0].Date
		last := result.Installments[len(result.Installments)-1].Date

		debt := domain.NewDebt(description, *total, first)
		debt.EndDate = &last

		installments := make([]domain.Installment, 0, len(result.Installments))
		for _, c := range result.Installments {
			installments = append(installments, domain.NewInstallment(c.Date, c.Amount))
		}
		if err := debts.SaveDebtWithInstallments(ctx, debt, installments); err != nil {
			zlog.Fatal("failed to save imported schedule", zap.Error(err))
		}
		zlog.Info("imported schedule saved",
			zap.String("debt_id", debt.ID.String()),
			zap.Int("installments", len(installments)))
	}

	printJSON(result)
}

func runMonth(ctx context.Context, debts *usecase.DebtService, month string, zlog *zap.Logger) {
	periodStart, err := time.Parse("01-2006", month)
	if err != nil {
		zlog.Fatal("invalid month, expected MM-YYYY", zap.String("month", month), zap.Error(err))
	}

	due, err := debts.RecurringPayments(ctx, month, periodStart)
	if err != nil {
		zlog.Fatal("failed to list scheduled payments", zap.String("month", month), zap.Error(err))
	}

	printJSON(due)
}

func runExport(ctx context.Context, store *gateway.SQLiteStore, path string, zlog *zap.Logger) {
	transactions, err := store.Transactions().FindAll(ctx)
	if err != nil {
		zlog.Fatal("failed to load transactions", zap.Error(err))
	}

	file, err := os.Create(path)
	if err != nil {
		zlog.Fatal("failed to create export file", zap.String("path", path), zap.Error(err))
	}
	defer file.Close()

	if err := gateway.WriteTransactionsCSV(file, transactions); err != nil {
		zlog.Fatal("failed to write export", zap.Error(err))
	}
	zlog.Info("transactions exported", zap.String("path", path), zap.Int("count", len(transactions)))
}

func printJSON(v any) {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Failed to generate JSON output: %v", err)
	}
	fmt.Println(string(output))
}
