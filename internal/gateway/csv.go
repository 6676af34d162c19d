package gateway

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"kronopago/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var csvHeader = []string{"id", "type", "amount", "description", "date", "paid", "linked_debt_id"}

const csvDateLayout = "2006-01-02"

// WriteTransactionsCSV writes transactions to w with a header row, newest
// first in whatever order the caller supplies.
func WriteTransactionsCSV(w io.Writer, transactions []domain.Transaction) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, tx := range transactions {
		linked := ""
		if tx.LinkedDebtID != uuid.Nil {
			linked = tx.LinkedDebtID.String()
		}
		record := []string{
			tx.ID.String(),
			string(tx.Type),
			tx.Amount.String(),
			tx.Description,
			tx.Date.Format(csvDateLayout),
			fmt.Sprintf("%t", tx.Paid),
			linked,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("error writing record for %s: %w", tx.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// ReadTransactionsCSV reads and parses a transactions CSV file in the format
// produced by WriteTransactionsCSV. Rows without an id get a fresh one so
// hand-edited files import cleanly.
func ReadTransactionsCSV(ctx context.Context, path string) ([]domain.Transaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transactions file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	var transactions []domain.Transaction
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading record from %s: %w", path, err)
		}

		id := uuid.New()
		if record[0] != "" {
			id, err = uuid.Parse(record[0])
			if err != nil {
				return nil, fmt.Errorf("could not parse id '%s': %w", record[0], err)
			}
		}

		amount, err := decimal.NewFromString(record[2])
		if err != nil {
			return nil, fmt.Errorf("could not parse amount '%s': %w", record[2], err)
		}

		date, err := time.Parse(csvDateLayout, record[4])
		if err != nil {
			return nil, fmt.Errorf("could not parse date '%s': %w", record[4], err)
		}

		tx := domain.Transaction{
			ID:          id,
			Type:        domain.TransactionType(record[1]),
			Amount:      amount,
			Description: record[3],
			Date:        date,
			Paid:        record[5] == "true",
		}
		if record[6] != "" {
			linked, err := uuid.Parse(record[6])
			if err != nil {
				return nil, fmt.Errorf("could not parse linked_debt_id '%s': %w", record[6], err)
			}
			tx.LinkedDebtID = linked
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("invalid record %s: %w", record[0], err)
		}

		transactions = append(transactions, tx)
	}
	return transactions, nil
}
