package ledger

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/icpledger/internal/apperr"
)

// RollingWindow is the span covered by the rolling income sum.
const RollingWindow = 30 * 24 * time.Hour

// Dates are stored as nanoseconds since the Unix epoch, which bounds the representable range.
var (
	MinDate = time.Unix(0, math.MinInt64).UTC()
	MaxDate = time.Unix(0, math.MaxInt64).UTC()
)

// ErrTimestampTaken is returned by a Repository when another writer already stored an entry with the timestamp.
var ErrTimestampTaken = errors.New("entry timestamp already taken")

// Entry is one income receipt for a person.
type Entry struct {
	PersonID      int64
	ICPAmount     decimal.Decimal
	ICPTokenValue decimal.Decimal // USD per ICP
	IncomeValue   decimal.Decimal // ICPAmount * ICPTokenValue, fixed at creation
	Date          time.Time       // when the income was received, as supplied by the caller
	Timestamp     int64           // server-assigned creation time in ns since the Unix epoch; unique
}

type CreateParams struct {
	PersonID      int64
	ICPAmount     decimal.Decimal
	ICPTokenValue decimal.Decimal
	Date          time.Time
}

// ListFilter narrows entry queries. From and To are inclusive bounds on Entry.Date.
type ListFilter struct {
	PersonID *int64
	From     *time.Time
	To       *time.Time
}

// Summary aggregates a set of entries the way the dashboard shows them.
type Summary struct {
	Total   decimal.Decimal
	Count   int
	Average decimal.Decimal
}

type ImportResult struct {
	Imported  []*Entry
	New       []CreateParams
	Conflicts []Conflict
}

// Conflict pairs an incoming row with an existing entry that has the same date, amount and token value.
type Conflict struct {
	Incoming CreateParams
	Existing *Entry
}

// ReceivedDate validates a calendar date and returns midnight UTC of that day.
func ReceivedDate(day, month, year int) (time.Time, error) {
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("%w: day must be between 1 and 31", apperr.ErrInvalidInput)
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: month must be between 1 and 12", apperr.ErrInvalidInput)
	}

	if year < 1000 || year > 9999 {
		return time.Time{}, fmt.Errorf("%w: year must be a 4-digit number", apperr.ErrInvalidInput)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d does not exist", apperr.ErrInvalidInput, year, month, day)
	}

	if err := CheckDate(t); err != nil {
		return time.Time{}, err
	}

	return t, nil
}

// CheckDate rejects dates that cannot be stored as int64 nanoseconds.
func CheckDate(t time.Time) error {
	if t.Before(MinDate) || t.After(MaxDate) {
		return fmt.Errorf("%w: date %s is outside %s..%s", apperr.ErrInvalidInput,
			t.Format("2006-01-02"), MinDate.Format("2006-01-02"), MaxDate.Format("2006-01-02"))
	}

	return nil
}
