// Package docparse turns raw text extracted from a loan schedule document
// (PDF text layer or OCR output) into structured installment candidates.
//
// The rules are deliberately loose, line-oriented heuristics tuned against
// real extracted documents: markers locate the interesting regions, a small
// regex repairs a common OCR artifact in dates, and surplus values are
// dropped silently. Tightening them breaks documents that currently parse.
package docparse

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoInstallments is returned when the text yields no (date, amount) pairs.
// It is recoverable: the caller surfaces it as feedback and the user retries
// with a different file.
var ErrNoInstallments = fmt.Errorf("no installments found in document text")

// Markers in the documents this parser understands. Matching is
// case-insensitive.
const (
	markerDisbursement = "saldo capital"
	markerInstallments = "cuota"
	markerInsurance    = "seguro"
	markerWaiver       = "desgrav"
)

const dateLayout = "02/01/2006"

var (
	// Monetary value: digit groups with optional thousands separators and
	// exactly two decimals. Either '.' or ',' may play either role.
	moneyRe = regexp.MustCompile(`\d{1,3}(?:[.,]\d{3})*[.,]\d{2}`)

	dateRe = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)

	// OCR often reads the second slash of a date as a letter
	// (05/09x2025 instead of 05/09/2025).
	ocrDateRepairRe = regexp.MustCompile(`(\d{2}/\d{2})[A-Za-z](\d{4})`)
)

// Candidate is one parsed (due date, amount) pair.
type Candidate struct {
	Date   time.Time
	Amount decimal.Decimal
}

// Result is the structured outcome of parsing a schedule document.
type Result struct {
	// Disbursement is the loan principal stated after the "Saldo Capital"
	// marker, nil when the marker or a monetary value after it is absent.
	Disbursement *decimal.Decimal
	Installments []Candidate
}

// Parse extracts the disbursement amount and the installment schedule from
// raw document text. It is pure: identical input yields identical output.
// The only error condition is an empty schedule, reported as a wrapped
// ErrNoInstallments carrying scan diagnostics.
func Parse(raw string) (Result, error) {
	lines := strings.Split(raw, "\n")

	dates := extractDates(lines)
	amounts := extractAmounts(lines)

	// When there are more dates than amounts the first date belongs to the
	// disbursement row, not an installment.
	if len(dates) > len(amounts) {
		dates = dates[1:]
	}
	n := len(dates)
	if len(amounts) < n {
		n = len(amounts)
	}
	installments := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		installments = append(installments, Candidate{Date: dates[i], Amount: amounts[i]})
	}

	if len(installments) == 0 {
		return Result{}, fmt.Errorf("%w (scanned %d lines, %d dates, %d amounts)",
			ErrNoInstallments, len(lines), len(dates), len(amounts))
	}

	return Result{
		Disbursement: extractDisbursement(lines),
		Installments: installments,
	}, nil
}

// extractDisbursement returns the first monetary value on any line after the
// "Saldo Capital" marker, nil when the marker never appears or nothing after
// it looks like money.
func extractDisbursement(lines []string) *decimal.Decimal {
	idx := -1
	for i, line := range lines {
		if containsFold(line, markerDisbursement) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil
	}
	for _, line := range lines[idx+1:] {
		match := moneyRe.FindString(line)
		if match == "" {
			continue
		}
		normalized := strings.ReplaceAll(match, ".", "")
		normalized = strings.ReplaceAll(normalized, ",", ".")
		amount, err := decimal.NewFromString(normalized)
		if err != nil {
			continue
		}
		return &amount
	}
	return nil
}

// extractDates collects every parseable DD/MM/YYYY date in line order,
// repairing the stray-letter OCR artifact first. One date per line at most.
func extractDates(lines []string) []time.Time {
	var dates []time.Time
	for _, line := range lines {
		repaired := ocrDateRepairRe.ReplaceAllString(line, "$1/$2")
		match := dateRe.FindString(repaired)
		if match == "" {
			continue
		}
		d, err := time.Parse(dateLayout, match)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// extractAmounts reads the run of numeric lines that follows a "Cuota"
// marker. The comma is treated as the decimal point. A non-numeric line
// mentioning insurance terminates the run; any other non-numeric line is
// skipped. Note the terminator is only checked on lines that failed the
// numeric parse, matching how real schedules interleave noise with values.
func extractAmounts(lines []string) []decimal.Decimal {
	var amounts []decimal.Decimal
	reading := false
	for _, line := range lines {
		if containsFold(line, markerInstallments) {
			reading = true
			continue
		}
		if !reading {
			continue
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(line), ",", "."))
		if err == nil {
			amounts = append(amounts, amount)
			continue
		}
		if containsFold(line, markerInsurance) || containsFold(line, markerWaiver) {
			break
		}
	}
	return amounts
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
