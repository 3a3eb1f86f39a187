package api

import (
	"net/http"

	"github.com/phrazzld/pulse-api/internal/api/shared"
	"github.com/phrazzld/pulse-api/internal/domain"
	"github.com/phrazzld/pulse-api/internal/service"
)

// SessionHandler handles /session requests.
type SessionHandler struct {
	sessions service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create handles POST /session (login).
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateSessionInput
	if !decodeBody(w, r, &in) {
		return
	}

	session, err := h.sessions.Create(r.Context(), in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, session)
}

// Get handles GET /session?SessionID=.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(r.Context(), shared.Query(r, ParamSessionID))
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, session)
}

// Extend handles PUT /session.
func (h *SessionHandler) Extend(w http.ResponseWriter, r *http.Request) {
	var in domain.ExtendSessionInput
	if !decodeBody(w, r, &in) {
		return
	}

	session, err := h.sessions.Extend(r.Context(), in)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, session)
}

// Delete handles DELETE /session?SessionID= (logout).
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), shared.Query(r, ParamSessionID)); err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithResult(w, r, ResultSessionDeleted)
}
