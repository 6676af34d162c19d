package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the period between consecutive installments of a recurring
// debt or payment.
type Frequency string

const (
	FrequencyWeekly   Frequency = "WEEKLY"
	FrequencyBiweekly Frequency = "BIWEEKLY"
	FrequencyMonthly  Frequency = "MONTHLY"
)

// IsValid checks if the frequency is a known Frequency.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// String returns the string representation of Frequency.
func (f Frequency) String() string {
	return string(f)
}

// next returns the due date one period after t. Biweekly means 15 calendar
// days, not 14, and monthly steps by calendar month rather than a fixed day
// count, clamping to the last day of shorter months: 31 Jan steps to 28 Feb,
// not 3 Mar.
func (f Frequency) next(t time.Time) time.Time {
	switch f {
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		return t.AddDate(0, 0, 15)
	case FrequencyMonthly:
		return addMonthClamped(t)
	}
	return t
}

func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()
	// Day 0 of the month after next is the last day of the next month.
	if last := time.Date(year, month+2, 0, 0, 0, 0, 0, t.Location()).Day(); day > last {
		day = last
	}
	return time.Date(year, month+1, day, hour, min, sec, t.Nanosecond(), t.Location())
}

// GenerateSchedule produces the installment sequence for a flat recurring
// amount: one unpaid installment per period from start through end, both
// bounds inclusive. The same amount is copied onto every installment; no
// amortization is applied. A start after end yields an empty schedule, as
// does an unknown frequency.
func GenerateSchedule(start, end time.Time, freq Frequency, amount decimal.Decimal) []Installment {
	if !freq.IsValid() {
		return nil
	}
	var installments []Installment
	for due := start; !due.After(end); due = freq.next(due) {
		installments = append(installments, NewInstallment(due, amount))
	}
	return installments
}
