package importer

import (
	"io"

	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
)

type Format string

const (
	FormatCSV Format = "csv"
)

type Importer interface {
	Parse(r io.Reader) ([]ledger.CreateParams, error)
}
