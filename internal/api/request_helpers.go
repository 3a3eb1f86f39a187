package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/phrazzld/pulse-api/internal/api/shared"
	"github.com/phrazzld/pulse-api/internal/service"
)

// sessionToken extracts the session token from the request headers.
// A missing header yields "", which every service treats as an invalid session.
func sessionToken(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(HeaderSession)); token != "" {
		return token
	}
	return strings.TrimSpace(r.Header.Get(HeaderToken))
}

// decodeBody decodes the JSON body into v and writes a 400 response when the
// body cannot be read. Malformed JSON is not an error here.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	return true
}

// HandleAPIError writes the status and safe message for a service error.
// Failed logins are logged at WARN to make credential stuffing visible.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	var opts []shared.ResponseOption
	if errors.Is(err, service.ErrInvalidCredentials) {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err, opts...)
}
