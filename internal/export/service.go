package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
)

const dateLayout = "2006-01-02"

var header = []string{"Date", "ICP Amount", "Token Value", "Income"}

// EntryLister is the read side of the ledger used by the exporter.
type EntryLister interface {
	List(ctx context.Context) ([]*ledger.Entry, error)
	ListByPerson(ctx context.Context, personID int64) ([]*ledger.Entry, error)
}

// Service renders ledger entries as CSV.
type Service struct {
	entries EntryLister
}

func NewService(entries EntryLister) *Service {
	return &Service{entries: entries}
}

// Export writes every entry, or only the given person's entries, to w.
func (s *Service) Export(ctx context.Context, w io.Writer, personID *int64) (int, error) {
	var (
		entries []*ledger.Entry
		err     error
	)

	if personID != nil {
		entries, err = s.entries.ListByPerson(ctx, *personID)
	} else {
		entries, err = s.entries.List(ctx)
	}

	if err != nil {
		return 0, fmt.Errorf("listing entries: %w", err)
	}

	if err := WriteCSV(w, entries); err != nil {
		return 0, err
	}

	return len(entries), nil
}

// Filename is the attachment name offered for a download.
func Filename(personID *int64) string {
	if personID == nil {
		return "income-entries.csv"
	}

	return fmt.Sprintf("income-entries-person-%d.csv", *personID)
}

// WriteCSV writes the header and one row per entry. Dates are the UTC calendar day
// and amounts are rounded to two decimals.
func WriteCSV(w io.Writer, entries []*ledger.Entry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, e := range entries {
		row := []string{
			e.Date.UTC().Format(dateLayout),
			e.ICPAmount.StringFixed(2),
			e.ICPTokenValue.StringFixed(2),
			e.IncomeValue.StringFixed(2),
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return nil
}
