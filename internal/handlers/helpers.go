package handlers

import (
	"net/http"
	"strconv"

	"github.com/diewo77/invoiceapp/auth"
	"github.com/diewo77/invoiceapp/httpx"
)

// currentUserID pulls the authenticated user from the request context.
// Routes behind RequireAuth always have it; the false case guards direct
// handler tests.
func currentUserID(r *http.Request) (uint, bool) {
	return auth.UserIDFromContext(r.Context())
}

// queryID parses the numeric id query parameter, writing a 400 on failure.
func queryID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	idStr := r.URL.Query().Get("id")
	if idStr == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return 0, false
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return 0, false
	}
	return uint(id), true
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
}
