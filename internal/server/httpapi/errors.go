// Package httpapi exposes the authentication, session and texture services
// over the launcher-compatible HTTP surface: JSON bodies, Yggdrasil error
// envelopes, chi routing.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/polarmc/yggdrasil/internal/common"
)

// errorBody is the protocol's error envelope. Clients switch on the error
// name, so the names below must stay exactly as the upstream protocol
// spells them.
type errorBody struct {
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
	Cause        string `json:"cause,omitempty"`
}

const (
	errForbidden       = "ForbiddenOperationException"
	errIllegalArgument = "IllegalArgumentException"
	errUnavailable     = "ServiceUnavailableException"
	errInternal        = "InternalServerError"
)

// Credential and token failures share one message so responses do not
// reveal which accounts or tokens exist.
const msgInvalidCredentials = "Invalid credentials. Invalid username or password."

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, name, message string) {
	writeJSON(w, status, errorBody{Error: name, ErrorMessage: message})
}

// writeError maps a service error to its protocol envelope.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		writeErrorBody(w, http.StatusForbidden, errForbidden, msgInvalidCredentials)
	case errors.Is(err, common.ErrInvalidToken):
		writeErrorBody(w, http.StatusForbidden, errForbidden, "Invalid token.")
	case errors.Is(err, common.ErrInvalidProfile):
		writeErrorBody(w, http.StatusForbidden, errForbidden, "Invalid profile.")
	case errors.Is(err, common.ErrNotJoined):
		writeErrorBody(w, http.StatusForbidden, errForbidden, "Player has not joined this server.")
	case errors.Is(err, common.ErrProfileNotFound):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, common.ErrAlreadyExists):
		writeErrorBody(w, http.StatusBadRequest, errIllegalArgument, "Account or profile name already taken.")
	case errors.Is(err, common.ErrInvalidImage):
		writeErrorBody(w, http.StatusBadRequest, errIllegalArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		writeErrorBody(w, http.StatusNotFound, errIllegalArgument, "Not found.")
	case errors.Is(err, common.ErrStoreUnavailable):
		writeErrorBody(w, http.StatusServiceUnavailable, errUnavailable, "Temporarily unavailable, try again later.")
	default:
		writeErrorBody(w, http.StatusInternalServerError, errInternal, "Internal server error.")
	}
}

func badRequest(w http.ResponseWriter, message string) {
	writeErrorBody(w, http.StatusBadRequest, errIllegalArgument, message)
}
