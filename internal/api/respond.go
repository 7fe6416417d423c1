package api

import (
	"net/http"

	"github.com/wagerlab/arenacore/infrastructure/httputil"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	httputil.WriteJSON(w, status, v)
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string, details interface{}) {
	httputil.WriteErrorResponse(w, r, status, code, message, details)
}

func writeOK(w http.ResponseWriter, v interface{}) {
	writeJSON(w, http.StatusOK, v)
}
