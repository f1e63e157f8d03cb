package ledger

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/icpledger/internal/apperr"
	"github.com/MrJamesThe3rd/icpledger/internal/http/httputil"
	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
)

type Handler struct {
	svc *ledger.Service
}

func NewHandler(svc *ledger.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Delete("/{timestamp}", h.delete)
	r.Get("/total", h.total)
	r.Get("/summary", h.summary)
}

type receivedDate struct {
	Day   int `json:"day"`
	Month int `json:"month"`
	Year  int `json:"year"`
}

// createEntryRequest takes the received date either as ns since the epoch or as
// a calendar day; the calendar form wins when both are set.
type createEntryRequest struct {
	PersonID      int64           `json:"person_id"`
	ICPAmount     decimal.Decimal `json:"icp_amount"`
	ICPTokenValue decimal.Decimal `json:"icp_token_value"`
	Date          int64           `json:"date"`
	Received      *receivedDate   `json:"received,omitempty"`
}

func (req createEntryRequest) date() (time.Time, error) {
	if req.Received != nil {
		return ledger.ReceivedDate(req.Received.Day, req.Received.Month, req.Received.Year)
	}

	if req.Date == 0 {
		return time.Time{}, fmt.Errorf("%w: date is required", apperr.ErrInvalidInput)
	}

	return time.Unix(0, req.Date).UTC(), nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	date, err := req.date()
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	e, err := h.svc.Create(r.Context(), ledger.CreateParams{
		PersonID:      req.PersonID,
		ICPAmount:     req.ICPAmount,
		ICPTokenValue: req.ICPTokenValue,
		Date:          date,
	}, httputil.Tokens(r))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.ToEntryResponse(e))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.ToEntryResponses(entries))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	ts, err := httputil.Int64Param(r, "timestamp")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), ts, httputil.Tokens(r)); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) total(w http.ResponseWriter, r *http.Request) {
	total, err := h.svc.TotalIncome(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.TotalResponse{Total: total})
}

type summaryResponse struct {
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
	Average decimal.Decimal `json:"average"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	personID, err := httputil.OptionalInt64Query(r, "person_id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	s, err := h.svc.Summary(r.Context(), personID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summaryResponse{
		Total:   s.Total,
		Count:   s.Count,
		Average: s.Average,
	})
}
