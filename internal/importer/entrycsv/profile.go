package entrycsv

// Profile describes the column layout of a supported CSV flavour.
// Adding a new flavour is just adding a new Profile to the profiles slice.
type Profile struct {
	Name         string
	Comma        rune
	DecimalComma bool     // "1.234,56" instead of "1,234.56"
	DateLayouts  []string // tried in order
	DateCol      string
	AmountCol    string
	ValueCol     string
}

func (p Profile) requiredCols() []string {
	return []string{p.DateCol, p.AmountCol, p.ValueCol}
}

// profiles is the ordered list of flavours tried during auto-detection.
var profiles = []Profile{
	{
		// What WriteCSV in internal/export produces.
		Name:        "export",
		Comma:       ',',
		DateLayouts: []string{"2006-01-02"},
		DateCol:     "date",
		AmountCol:   "icp amount",
		ValueCol:    "token value",
	},
	{
		// The same sheet saved by a spreadsheet under a comma-decimal locale.
		Name:         "spreadsheet",
		Comma:        ';',
		DecimalComma: true,
		DateLayouts:  []string{"2006-01-02", "02-01-2006", "02/01/2006"},
		DateCol:      "date",
		AmountCol:    "icp amount",
		ValueCol:     "token value",
	},
}
