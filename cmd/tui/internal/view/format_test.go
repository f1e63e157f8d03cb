package view

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatDecimal(t *testing.T) {
	assert.Equal(t, "50.00", FormatDecimal(decimal.NewFromInt(50)))
	assert.Equal(t, "12.41", FormatDecimal(decimal.RequireFromString("12.406725")))
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2024, 2, 29, 23, 30, 0, 0, time.FixedZone("X", -3*3600))

	assert.Equal(t, "2024-03-01", FormatDate(d))
}
