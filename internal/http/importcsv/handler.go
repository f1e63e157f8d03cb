package importcsv

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/icpledger/internal/http/httputil"
	"github.com/MrJamesThe3rd/icpledger/internal/importer"
	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
)

const maxUploadSize = 10 << 20

type Handler struct {
	importSvc *importer.Service
	entrySvc  *ledger.Service
}

func NewHandler(importSvc *importer.Service, entrySvc *ledger.Service) *Handler {
	return &Handler{
		importSvc: importSvc,
		entrySvc:  entrySvc,
	}
}

// Routes expects to be mounted below a path carrying the {id} person parameter.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
	r.Post("/confirm", h.confirmImport)
}

type importSuccessResponse struct {
	Imported int                      `json:"imported"`
	Entries  []httputil.EntryResponse `json:"entries"`
}

type createParamsDTO struct {
	ICPAmount     decimal.Decimal `json:"icp_amount"`
	ICPTokenValue decimal.Decimal `json:"icp_token_value"`
	Date          int64           `json:"date"`
}

type conflictDTO struct {
	Incoming createParamsDTO        `json:"incoming"`
	Existing httputil.EntryResponse `json:"existing"`
}

type importConflictResponse struct {
	New       []createParamsDTO `json:"new"`
	Conflicts []conflictDTO     `json:"conflicts"`
}

type confirmRequest struct {
	Params []createParamsDTO `json:"params"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	personID, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	tokens := httputil.Tokens(r)
	if err := h.entrySvc.Authorize(r.Context(), tokens); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	params, err := h.importSvc.Import(importer.Format(r.FormValue("format")), file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.entrySvc.ImportBatch(r.Context(), personID, params, tokens)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	if len(result.Conflicts) > 0 {
		resp := importConflictResponse{
			New:       make([]createParamsDTO, 0, len(result.New)),
			Conflicts: make([]conflictDTO, 0, len(result.Conflicts)),
		}
		for _, p := range result.New {
			resp.New = append(resp.New, toParamsDTO(p))
		}

		for _, c := range result.Conflicts {
			resp.Conflicts = append(resp.Conflicts, conflictDTO{
				Incoming: toParamsDTO(c.Incoming),
				Existing: httputil.ToEntryResponse(c.Existing),
			})
		}

		httputil.WriteJSON(w, http.StatusConflict, resp)

		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toSuccessResponse(result.Imported))
}

// confirmImport creates the rows the client chose to keep after a conflict response.
func (h *Handler) confirmImport(w http.ResponseWriter, r *http.Request) {
	personID, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	params := make([]ledger.CreateParams, 0, len(req.Params))
	for _, p := range req.Params {
		params = append(params, ledger.CreateParams{
			ICPAmount:     p.ICPAmount,
			ICPTokenValue: p.ICPTokenValue,
			Date:          fromNanos(p.Date),
		})
	}

	entries, err := h.entrySvc.CreateBatch(r.Context(), personID, params, httputil.Tokens(r))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toSuccessResponse(entries))
}

func toSuccessResponse(entries []*ledger.Entry) importSuccessResponse {
	return importSuccessResponse{
		Imported: len(entries),
		Entries:  httputil.ToEntryResponses(entries),
	}
}

func toParamsDTO(p ledger.CreateParams) createParamsDTO {
	return createParamsDTO{
		ICPAmount:     p.ICPAmount,
		ICPTokenValue: p.ICPTokenValue,
		Date:          p.Date.UnixNano(),
	}
}

// fromNanos keeps 0 as the zero time so that a missing date fails validation.
func fromNanos(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}

	return time.Unix(0, ns).UTC()
}
