package export

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/icpledger/internal/export"
	"github.com/MrJamesThe3rd/icpledger/internal/http/httputil"
)

type Handler struct {
	svc *export.Service
}

func NewHandler(svc *export.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/export.csv", h.download)
}

// download streams a CSV attachment. The body is rendered into a buffer first so
// a listing failure still produces a proper error status.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	personID, err := httputil.OptionalInt64Query(r, "person_id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	var buf bytes.Buffer

	n, err := h.svc.Export(r.Context(), &buf, personID)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(personID)))

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write export", "error", err, "entries", n)
	}
}
