package api

import (
	"net/http"

	"github.com/phrazzld/pulse-api/internal/api/shared"
	"github.com/phrazzld/pulse-api/internal/domain"
	"github.com/phrazzld/pulse-api/internal/service"
)

// CheckHandler handles /check requests.
type CheckHandler struct {
	checks service.CheckService
}

// NewCheckHandler creates a new CheckHandler.
func NewCheckHandler(checks service.CheckService) *CheckHandler {
	return &CheckHandler{checks: checks}
}

// Create handles POST /check. The owner is the session's account.
func (h *CheckHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateCheckInput
	if !decodeBody(w, r, &in) {
		return
	}

	check, err := h.checks.Create(r.Context(), sessionToken(r), in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, check)
}

// Get handles GET /check?CheckID=, or lists the account's checks when no
// id is given.
func (h *CheckHandler) Get(w http.ResponseWriter, r *http.Request) {
	checkID := shared.Query(r, ParamCheckID)
	if checkID == "" {
		h.list(w, r)
		return
	}

	check, err := h.checks.Get(r.Context(), sessionToken(r), checkID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, check)
}

func (h *CheckHandler) list(w http.ResponseWriter, r *http.Request) {
	checks, err := h.checks.List(r.Context(), sessionToken(r))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CheckListResponse{Checks: checks})
}

// Update handles PUT /check.
func (h *CheckHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateCheckInput
	if !decodeBody(w, r, &in) {
		return
	}

	check, err := h.checks.Update(r.Context(), sessionToken(r), in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, check)
}

// Delete handles DELETE /check?CheckID=.
func (h *CheckHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.checks.Delete(r.Context(), sessionToken(r), shared.Query(r, ParamCheckID)); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithResult(w, r, ResultCheckDeleted)
}
