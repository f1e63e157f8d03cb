package httputil

import (
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
)

// EntryResponse is the wire form of a ledger entry. Date and Timestamp are ns since the Unix epoch.
type EntryResponse struct {
	PersonID      int64           `json:"person_id"`
	ICPAmount     decimal.Decimal `json:"icp_amount"`
	ICPTokenValue decimal.Decimal `json:"icp_token_value"`
	IncomeValue   decimal.Decimal `json:"income_value"`
	Date          int64           `json:"date"`
	Timestamp     int64           `json:"timestamp"`
}

func ToEntryResponse(e *ledger.Entry) EntryResponse {
	return EntryResponse{
		PersonID:      e.PersonID,
		ICPAmount:     e.ICPAmount,
		ICPTokenValue: e.ICPTokenValue,
		IncomeValue:   e.IncomeValue,
		Date:          e.Date.UnixNano(),
		Timestamp:     e.Timestamp,
	}
}

func ToEntryResponses(entries []*ledger.Entry) []EntryResponse {
	resp := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, ToEntryResponse(e))
	}

	return resp
}

type TotalResponse struct {
	Total decimal.Decimal `json:"total"`
}
