package docparse

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d
}

func amount(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	a, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return a
}

func TestParse_Schedule(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		disbursement string // "" means nil expected
		expected     []Candidate
		wantErr      bool
	}{
		{
			name: "typical schedule with disbursement row",
			raw: strings.Join([]string{
				"CRONOGRAMA DE PAGOS",
				"Saldo Capital",
				"12.500,00",
				"05/08/2025 desembolso",
				"05/09/2025",
				"05/10/2025",
				"Cuota",
				"1050,50",
				"1050,50",
				"Seguro Desgravamen",
				"12,00",
			}, "\n"),
			disbursement: "12500.00",
			expected: []Candidate{
				{Date: time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("1050.50")},
				{Date: time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("1050.50")},
			},
		},
		{
			name: "ocr artifact in date is repaired",
			raw: strings.Join([]string{
				"Cuota",
				"05/09x2025",
				"150,00",
			}, "\n"),
			expected: []Candidate{
				{Date: time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("150")},
			},
		},
		{
			name: "noise lines between amounts are skipped",
			raw: strings.Join([]string{
				"01/01/2026",
				"Cuota",
				"200,00",
				"pagina 2 de 3",
				"300,00",
			}, "\n"),
			expected: []Candidate{
				{Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("200")},
			},
		},
		{
			name: "insurance marker terminates the amount run",
			raw: strings.Join([]string{
				"01/01/2026",
				"02/02/2026",
				"Cuota",
				"200,00",
				"Seguro",
				"300,00",
			}, "\n"),
			expected: []Candidate{
				{Date: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC), Amount: decimal.RequireFromString("200")},
			},
		},
		{
			name:    "empty text",
			raw:     "",
			wantErr: true,
		},
		{
			name: "dates without amounts",
			raw: strings.Join([]string{
				"01/01/2026",
				"02/01/2026",
			}, "\n"),
			wantErr: true,
		},
		{
			name: "amounts without cuota marker are ignored",
			raw: strings.Join([]string{
				"01/01/2026",
				"200,00",
			}, "\n"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrNoInstallments)
				return
			}
			require.NoError(t, err)

			if tt.disbursement == "" {
				assert.Nil(t, result.Disbursement)
			} else {
				require.NotNil(t, result.Disbursement)
				assert.True(t, amount(t, tt.disbursement).Equal(*result.Disbursement),
					"disbursement: want %s, got %s", tt.disbursement, result.Disbursement)
			}

			require.Len(t, result.Installments, len(tt.expected))
			for i, want := range tt.expected {
				assert.True(t, want.Date.Equal(result.Installments[i].Date),
					"installment %d date: want %s, got %s", i, want.Date, result.Installments[i].Date)
				assert.True(t, want.Amount.Equal(result.Installments[i].Amount),
					"installment %d amount: want %s, got %s", i, want.Amount, result.Installments[i].Amount)
			}
		})
	}
}

func TestParse_DisbursementDateDropRule(t *testing.T) {
	// Three dates but two amounts: the first date is the disbursement row and
	// is dropped before pairing.
	raw := strings.Join([]string{
		"10/07/2025",
		"10/08/2025",
		"10/09/2025",
		"Cuota",
		"100,00",
		"110,00",
	}, "\n")

	result, err := Parse(raw)
	require.NoError(t, err)

	require.Len(t, result.Installments, 2)
	assert.Equal(t, time.Date(2025, 8, 10, 0, 0, 0, 0, time.UTC), result.Installments[0].Date)
	assert.True(t, decimal.RequireFromString("100").Equal(result.Installments[0].Amount))
	assert.Equal(t, time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC), result.Installments[1].Date)
	assert.True(t, decimal.RequireFromString("110").Equal(result.Installments[1].Amount))
}

func TestParse_SurplusAmountsDropped(t *testing.T) {
	// More amounts than dates: pairing stops at the shorter list.
	raw := strings.Join([]string{
		"10/08/2025",
		"Cuota",
		"100,00",
		"110,00",
		"120,00",
	}, "\n")

	result, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, result.Installments, 1)
	assert.True(t, decimal.RequireFromString("100").Equal(result.Installments[0].Amount))
}

func TestParse_Idempotent(t *testing.T) {
	raw := strings.Join([]string{
		"Saldo Capital",
		"5.000,00",
		"01/01/2026",
		"01/02/2026",
		"Cuota",
		"500,00",
	}, "\n")

	first, err := Parse(raw)
	require.NoError(t, err)
	second, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParse_DisbursementMarkerLineItselfIgnored(t *testing.T) {
	// The value must come from a line after the marker, not the marker line.
	raw := strings.Join([]string{
		"Saldo Capital 9.999,99",
		"1.000,00",
		"01/01/2026",
		"Cuota",
		"500,00",
	}, "\n")

	result, err := Parse(raw)
	require.NoError(t, err)
	require.NotNil(t, result.Disbursement)
	assert.True(t, decimal.RequireFromString("1000.00").Equal(*result.Disbursement))
}
