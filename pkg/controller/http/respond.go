package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sortir-lab/sortir/pkg/domain/types"
	"github.com/sortir-lab/sortir/pkg/utils/errutil"
	"github.com/sortir-lab/sortir/pkg/utils/logging"
)

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.From(r.Context()).Error("failed to encode response", "error", err.Error())
	}
}

// respondError maps the error taxonomy to HTTP statuses: caller faults
// to 4xx, provider/backend faults to 5xx.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	errutil.HandleHTTP(r.Context(), w, err, statusOf(err))
}

func statusOf(err error) int {
	switch {
	case goerr.HasTag(err, types.TagInvalidArgument):
		return http.StatusBadRequest
	case goerr.HasTag(err, types.TagNotFound):
		return http.StatusNotFound
	case goerr.HasTag(err, types.TagConflict):
		return http.StatusConflict
	case goerr.HasTag(err, types.TagProviderTimeout):
		return http.StatusGatewayTimeout
	case goerr.HasTag(err, types.TagProvider):
		return http.StatusBadGateway
	case goerr.HasTag(err, types.TagSourceNotFound),
		goerr.HasTag(err, types.TagIndexIncompatible):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
