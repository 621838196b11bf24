package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/dukerupert/choreus/internal/approval"
)

const dateLayout = "2006-01-02"

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": message, "code": code})
}

func badRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, string(approval.KindInvalidInput), message)
}

func notFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, string(approval.KindNotFound), message)
}

func internalError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, string(approval.KindStorage), "internal error")
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}

// writeApprovalError maps an approval error to its HTTP status. A storage
// failure that still carries a final snapshot returns it alongside the error.
func writeApprovalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var aerr *approval.Error
	if !errors.As(err, &aerr) {
		internalError(w, logger, "request workflow", err)
		return
	}

	status := http.StatusInternalServerError
	switch aerr.Kind {
	case approval.KindInvalidInput:
		status = http.StatusBadRequest
	case approval.KindNotFound:
		status = http.StatusNotFound
	case approval.KindInvalidOperation:
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logger.Error("request workflow", "op", aerr.Op, "error", err)
		if aerr.Result != nil {
			writeJSON(w, status, map[string]any{
				"error":   "request resolved but points could not be applied",
				"code":    string(aerr.Kind),
				"request": aerr.Result,
			})
			return
		}
		writeError(w, status, string(aerr.Kind), "internal error")
		return
	}
	writeError(w, status, string(aerr.Kind), aerr.Message)
}
