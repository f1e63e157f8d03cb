package view

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/icpledger/internal/apperr"
)

func TestEntryForm_Params(t *testing.T) {
	type testCase struct {
		name    string
		form    entryForm
		wantErr bool
	}

	tests := []testCase{
		{
			name: "valid",
			form: entryForm{PersonID: 3, Amount: " 1.5 ", Value: "10", Day: "29", Month: "2", Year: "2024"},
		},
		{
			name:    "bad amount",
			form:    entryForm{Amount: "x", Value: "10", Day: "1", Month: "1", Year: "2024"},
			wantErr: true,
		},
		{
			name:    "impossible date",
			form:    entryForm{Amount: "1", Value: "10", Day: "29", Month: "2", Year: "2023"},
			wantErr: true,
		},
		{
			name:    "two digit year",
			form:    entryForm{Amount: "1", Value: "10", Day: "1", Month: "1", Year: "24"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.form.params()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(3), p.PersonID)
			assert.True(t, decimal.RequireFromString("1.5").Equal(p.ICPAmount))
			assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), p.Date)
		})
	}
}

func TestEntryForm_DateErrorIsInvalidInput(t *testing.T) {
	f := entryForm{Amount: "1", Value: "1", Day: "0", Month: "1", Year: "2024"}

	_, err := f.params()
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestPositiveDecimal(t *testing.T) {
	assert.NoError(t, positiveDecimal("0.0001"))
	assert.Error(t, positiveDecimal("0"))
	assert.Error(t, positiveDecimal("-2"))
	assert.Error(t, positiveDecimal(""))
}
