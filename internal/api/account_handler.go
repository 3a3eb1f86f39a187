package api

import (
	"net/http"

	"github.com/phrazzld/pulse-api/internal/api/shared"
	"github.com/phrazzld/pulse-api/internal/domain"
	"github.com/phrazzld/pulse-api/internal/service"
)

// AccountHandler handles /account requests.
type AccountHandler struct {
	accounts service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Create handles POST /account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateAccountInput
	if !decodeBody(w, r, &in) {
		return
	}

	if _, err := h.accounts.Create(r.Context(), in); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithResult(w, r, ResultAccountCreated)
}

// Get handles GET /account?Phone=.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.Get(r.Context(), sessionToken(r), shared.Query(r, ParamPhone))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, account)
}

// Update handles PUT /account.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in domain.UpdateAccountInput
	if !decodeBody(w, r, &in) {
		return
	}

	account, err := h.accounts.Update(r.Context(), sessionToken(r), in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, account)
}

// Delete handles DELETE /account?Phone=.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Delete(r.Context(), sessionToken(r), shared.Query(r, ParamPhone)); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithResult(w, r, ResultAccountDeleted)
}
