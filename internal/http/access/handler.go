package access

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/icpledger/internal/access"
	"github.com/MrJamesThe3rd/icpledger/internal/http/httputil"
)

type Handler struct {
	svc *access.Service
}

func NewHandler(svc *access.Service) *Handler {
	return &Handler{svc: svc}
}

// MeRoutes serves the calling identity.
func (h *Handler) MeRoutes(r chi.Router) {
	r.Get("/role", h.callerRole)
	r.Get("/admin", h.isCallerAdmin)
	r.Get("/profile", h.callerProfile)
	r.Put("/profile", h.saveCallerProfile)
}

// UserRoutes serves other identities by principal.
func (h *Handler) UserRoutes(r chi.Router) {
	r.Get("/{principal}/profile", h.profile)
	r.Put("/{principal}/role", h.assignRole)
}

type roleResponse struct {
	Role access.Role `json:"role"`
}

type adminResponse struct {
	IsAdmin bool `json:"is_admin"`
}

type profileDTO struct {
	Name string `json:"name"`
}

type assignRoleRequest struct {
	Role access.Role `json:"role"`
}

func (h *Handler) callerRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.svc.CallerRole(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, roleResponse{Role: role})
}

func (h *Handler) isCallerAdmin(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.IsCallerAdmin(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, adminResponse{IsAdmin: ok})
}

func (h *Handler) callerProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.CallerProfile(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	writeProfile(w, p)
}

func (h *Handler) saveCallerProfile(w http.ResponseWriter, r *http.Request) {
	var req profileDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.svc.SaveCallerProfile(r.Context(), access.UserProfile{Name: req.Name}, httputil.Tokens(r)); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	h.callerProfile(w, r)
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profile(r.Context(), access.Principal(chi.URLParam(r, "principal")))
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	writeProfile(w, p)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	principal := access.Principal(chi.URLParam(r, "principal"))

	if err := h.svc.AssignRole(r.Context(), principal, req.Role); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeProfile answers null for a missing profile.
func writeProfile(w http.ResponseWriter, p *access.UserProfile) {
	if p == nil {
		httputil.WriteJSON(w, http.StatusOK, nil)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, profileDTO{Name: p.Name})
}
