package entrycsv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	enc "github.com/MrJamesThe3rd/icpledger/internal/encoding"
	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
)

var ErrNoProfile = errors.New("no matching entry CSV format found: expected Date, ICP Amount and Token Value columns")

// Parser reads income entry CSV files. It auto-detects the flavour by
// matching header names against known profiles; an Income column, if present,
// is ignored because income is always recomputed.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse returns params without PersonID; the caller assigns the person.
func (p *Parser) Parse(r io.Reader) ([]ledger.CreateParams, error) {
	utf8r, charset, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	for i := range profiles {
		rows, err := readRows(data, profiles[i].Comma)
		if err != nil {
			continue
		}

		colMap, headerIdx, ok := findHeader(&profiles[i], rows)
		if !ok {
			continue
		}

		slog.Debug("parsing entry csv", "profile", profiles[i].Name, "charset", charset)

		return parseRows(&profiles[i], colMap, rows[headerIdx+1:], headerIdx+1)
	}

	return nil, ErrNoProfile
}

func readRows(data []byte, comma rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	return reader.ReadAll()
}

// colIndex maps lower-cased column names to their index in the row.
type colIndex map[string]int

func findHeader(p *Profile, rows [][]string) (colIndex, int, bool) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			if name := strings.ToLower(strings.TrimSpace(cell)); name != "" {
				cols[name] = i
			}
		}

		if hasAll(cols, p.requiredCols()) {
			return cols, rowIdx, true
		}
	}

	return nil, 0, false
}

func hasAll(cols colIndex, names []string) bool {
	for _, name := range names {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

// parseRows skips rows without a recognisable date (blank lines, totals) and
// fails on a dated row whose numbers cannot be read.
func parseRows(p *Profile, cols colIndex, rows [][]string, headerRowNum int) ([]ledger.CreateParams, error) {
	var params []ledger.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 1 // 1-based

		date, ok := parseDate(p, cellValue(row, cols[p.DateCol]))
		if !ok {
			continue
		}

		if err := ledger.CheckDate(date); err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		amount, err := parseAmount(cellValue(row, cols[p.AmountCol]), p.DecimalComma)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid ICP amount: %w", rowNum, err)
		}

		value, err := parseAmount(cellValue(row, cols[p.ValueCol]), p.DecimalComma)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid token value: %w", rowNum, err)
		}

		params = append(params, ledger.CreateParams{
			ICPAmount:     amount,
			ICPTokenValue: value,
			Date:          date,
		})
	}

	return params, nil
}

// parseDate returns the date at midnight UTC.
func parseDate(p *Profile, s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range p.DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
