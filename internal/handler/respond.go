package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/allowance/internal/auth"
	"github.com/dukerupert/allowance/internal/ledger"
	"github.com/dukerupert/allowance/internal/model"
	"github.com/dukerupert/allowance/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeLedgerError maps typed ledger failures to status codes. Anything
// untyped is logged and reported as a 500.
func writeLedgerError(w http.ResponseWriter, logger *slog.Logger, err error, action string) {
	var lerr *ledger.Error
	if !errors.As(err, &lerr) {
		logger.Error(action, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+action)
		return
	}
	switch {
	case errors.Is(err, ledger.ErrValidation):
		writeError(w, http.StatusBadRequest, lerr.Error())
	case errors.Is(err, ledger.ErrConflict):
		writeError(w, http.StatusConflict, lerr.Error())
	case errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, lerr.Error())
	case errors.Is(err, ledger.ErrExpired):
		writeError(w, http.StatusGone, lerr.Error())
	default:
		logger.Error(action, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// parseDateQuery returns def when the parameter is absent.
func parseDateQuery(r *http.Request, key string, def model.Date) (model.Date, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return model.ParseDate(v)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// householdMember loads a member of the caller's household. Members of
// other households are reported as missing.
func householdMember(ctx context.Context, ms *store.MemberStore, id int64) (*model.Member, error) {
	m, err := ms.GetByID(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}
	if m.HouseholdID != auth.HouseholdID(ctx) {
		return nil, nil
	}
	return m, nil
}

// canActFor reports whether the caller may act on behalf of memberID.
// Parents act for anyone in the household, children only for themselves.
func canActFor(ctx context.Context, memberID int64) bool {
	return auth.IsParent(ctx) || auth.MemberID(ctx) == memberID
}
