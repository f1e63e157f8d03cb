package importer

import (
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/icpledger/internal/importer/entrycsv"
	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
)

type Service struct {
	importers map[Format]Importer
}

func NewService() *Service {
	return &Service{
		importers: map[Format]Importer{
			FormatCSV: entrycsv.NewParser(),
		},
	}
}

// Import parses r with the importer registered for format. An empty format means CSV.
func (s *Service) Import(format Format, r io.Reader) ([]ledger.CreateParams, error) {
	if format == "" {
		format = FormatCSV
	}

	importer, ok := s.importers[format]
	if !ok {
		return nil, fmt.Errorf("unknown format: %s", format)
	}

	return importer.Parse(r)
}
