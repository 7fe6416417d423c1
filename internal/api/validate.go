package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/wagerlab/arenacore/infrastructure/errors"
)

// maxRequestBody bounds decodeBody's read, independent of any upstream
// infrastructure/middleware.BodyLimitMiddleware already applied.
const maxRequestBody = 1 << 20

// decodeBody decodes r's JSON body into v, rejecting unknown fields and
// oversized bodies — the hand-rolled request-shape check this module uses
// in place of a struct-tag validator library (spec §4.10).
func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.InvalidInput("body", err.Error())
	}
	return nil
}

// requireNonEmpty rejects a blank required string field.
func requireNonEmpty(field, value string) error {
	if value == "" {
		return errors.MissingParameter(field)
	}
	return nil
}

// requirePositive rejects a non-positive amount/id field.
func requirePositive(field string, value int64) error {
	if value <= 0 {
		return errors.InvalidInput(field, "must be positive")
	}
	return nil
}

// requireSide rejects a side value outside {0,1}.
func requireSide(field string, value int) error {
	if value != 0 && value != 1 {
		return errors.InvalidInput(field, "must be 0 or 1")
	}
	return nil
}

// pathVar extracts a required mux route variable, erroring with a
// MissingParameter rather than silently proceeding on an empty string.
func pathVar(vars map[string]string, name string) (string, error) {
	v, ok := vars[name]
	if !ok || v == "" {
		return "", errors.MissingParameter(name)
	}
	return v, nil
}

// writeError translates err to the stable {ok:false,error,details?}
// envelope, using its ServiceError HTTP status when present and 500
// otherwise (spec §7 "HTTP handlers translate each error kind").
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if svcErr := errors.GetServiceError(err); svcErr != nil {
		writeErrorResponse(w, r, svcErr.HTTPStatus, string(svcErr.Code), svcErr.Message, svcErr.Details)
		return
	}
	writeErrorResponse(w, r, http.StatusInternalServerError, string(errors.ErrCodeInternal), fmt.Sprintf("internal error: %v", err), nil)
}
