package person

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/icpledger/internal/http/httputil"
	"github.com/MrJamesThe3rd/icpledger/internal/ledger"
	"github.com/MrJamesThe3rd/icpledger/internal/person"
)

type Handler struct {
	persons *person.Service
	entries *ledger.Service
}

func NewHandler(persons *person.Service, entries *ledger.Service) *Handler {
	return &Handler{persons: persons, entries: entries}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.delete)
	r.Get("/{id}/entries", h.entriesOf)
	r.Get("/{id}/total", h.total)
	r.Get("/{id}/rolling-30d", h.rolling30d)
}

type personResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

func toResponse(p *person.Person) personResponse {
	return personResponse{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt.UnixNano(),
	}
}

type createPersonRequest struct {
	Name string `json:"name"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.persons.Create(r.Context(), req.Name, httputil.Tokens(r))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, toResponse(p))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	persons, err := h.persons.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	resp := make([]personResponse, 0, len(persons))
	for _, p := range persons {
		resp = append(resp, toResponse(p))
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// get answers null for an unknown id.
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	p, err := h.persons.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	if p == nil {
		httputil.WriteJSON(w, http.StatusOK, nil)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	if err := h.persons.Delete(r.Context(), id, httputil.Tokens(r)); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) entriesOf(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	entries, err := h.entries.ListByPerson(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.ToEntryResponses(entries))
}

func (h *Handler) total(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	total, err := h.entries.TotalIncomeByPerson(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.TotalResponse{Total: total})
}

func (h *Handler) rolling30d(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.Int64Param(r, "id")
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	total, err := h.entries.Rolling30DayIncome(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.TotalResponse{Total: total})
}
