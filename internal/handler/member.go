package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/allowance/internal/auth"
	"github.com/dukerupert/allowance/internal/ledger"
	"github.com/dukerupert/allowance/internal/model"
	"github.com/dukerupert/allowance/internal/money"
	"github.com/dukerupert/allowance/internal/store"
)

type MemberHandler struct {
	members   *store.MemberStore
	svc       *ledger.Service
	formatter *money.Formatter
	logger    *slog.Logger
}

func NewMemberHandler(ms *store.MemberStore, svc *ledger.Service, formatter *money.Formatter, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{members: ms, svc: svc, formatter: formatter, logger: logger}
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.ListByHousehold(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleChild
	}
	if req.Role != model.RoleChild && req.Role != model.RoleParent {
		writeError(w, http.StatusBadRequest, "role must be parent or child")
		return
	}

	m, err := h.members.Create(r.Context(), auth.HouseholdID(r.Context()), req.Name, req.Role)
	if err != nil {
		h.logger.Error("create member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create member")
		return
	}
	if err := h.svc.Balances.EnsureAccount(r.Context(), m.ID); err != nil {
		writeLedgerError(w, h.logger, err, "create account")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// member loads the {id} member of the caller's household, writing the error
// response and returning nil when it cannot.
func (h *MemberHandler) member(w http.ResponseWriter, r *http.Request) *model.Member {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	m, err := householdMember(r.Context(), h.members, id)
	if err != nil {
		h.logger.Error("get member", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return nil
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return nil
	}
	return m
}

func (h *MemberHandler) SetPIN(w http.ResponseWriter, r *http.Request) {
	m := h.member(w, r)
	if m == nil {
		return
	}
	if !canActFor(r.Context(), m.ID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req struct {
		PIN string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.PIN) != 4 || !isDigits(req.PIN) {
		writeError(w, http.StatusBadRequest, "PIN must be exactly 4 digits")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to hash PIN")
		return
	}
	if err := h.members.SetPIN(r.Context(), m.ID, string(hash)); err != nil {
		h.logger.Error("set pin", "id", m.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to set PIN")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "pin set"})
}

func (h *MemberHandler) ClearPIN(w http.ResponseWriter, r *http.Request) {
	m := h.member(w, r)
	if m == nil {
		return
	}
	if !canActFor(r.Context(), m.ID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if err := h.members.ClearPIN(r.Context(), m.ID); err != nil {
		h.logger.Error("clear pin", "id", m.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear PIN")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkPIN compares pin with the member's stored PIN. A member without a
// PIN always passes.
func (h *MemberHandler) checkPIN(r *http.Request, memberID int64, pin string) (bool, error) {
	hash, err := h.members.GetPINHash(r.Context(), memberID)
	if err != nil {
		return false, err
	}
	if hash == "" {
		return true, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil, nil
}

func (h *MemberHandler) Balance(w http.ResponseWriter, r *http.Request) {
	m := h.member(w, r)
	if m == nil {
		return
	}
	balance, err := h.svc.Balances.GetBalance(r.Context(), m.ID)
	if err != nil {
		writeLedgerError(w, h.logger, err, "get balance")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"member_id": m.ID,
		"balance":   balance,
		"formatted": h.formatter.Format(balance),
		"currency":  h.formatter.Code(),
	})
}

func (h *MemberHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	m := h.member(w, r)
	if m == nil {
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	txs, err := h.svc.Balances.Transactions(r.Context(), m.ID, limit)
	if err != nil {
		writeLedgerError(w, h.logger, err, "list transactions")
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *MemberHandler) Streaks(w http.ResponseWriter, r *http.Request) {
	m := h.member(w, r)
	if m == nil {
		return
	}
	streaks, err := h.svc.Streaks.List(r.Context(), m.ID)
	if err != nil {
		writeLedgerError(w, h.logger, err, "list streaks")
		return
	}
	total, err := h.svc.Streaks.GetTotalStreak(r.Context(), m.ID)
	if err != nil {
		writeLedgerError(w, h.logger, err, "total streak")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"streaks": streaks,
		"total":   total,
	})
}

// Completions lists history between from and to, default the last 7 days.
func (h *MemberHandler) Completions(w http.ResponseWriter, r *http.Request) {
	m := h.member(w, r)
	if m == nil {
		return
	}
	today := h.svc.Recorder.Today()
	to, err := parseDateQuery(r, "to", today)
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}
	from, err := parseDateQuery(r, "from", to.AddDays(-6))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}

	completions, err := h.svc.Recorder.History(r.Context(), m.ID, from, to)
	if err != nil {
		writeLedgerError(w, h.logger, err, "list completions")
		return
	}
	writeJSON(w, http.StatusOK, completions)
}

type moneyRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	PIN         string          `json:"pin"`
}

// Payout pays money out to the member. A parent with a PIN must supply it.
func (h *MemberHandler) Payout(w http.ResponseWriter, r *http.Request) {
	m := h.member(w, r)
	if m == nil {
		return
	}
	var req moneyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	ok, err := h.checkPIN(r, auth.MemberID(r.Context()), req.PIN)
	if err != nil {
		h.logger.Error("check pin", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check PIN")
		return
	}
	if !ok {
		writeError(w, http.StatusUnauthorized, "incorrect PIN")
		return
	}

	tx, err := h.svc.Balances.Payout(r.Context(), m.ID, req.Amount, strings.TrimSpace(req.Description))
	if err != nil {
		writeLedgerError(w, h.logger, err, "pay out")
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// Adjust records a signed manual correction.
func (h *MemberHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	m := h.member(w, r)
	if m == nil {
		return
	}
	var req moneyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	tx, err := h.svc.Balances.Adjust(r.Context(), m.ID, req.Amount, strings.TrimSpace(req.Description))
	if err != nil {
		writeLedgerError(w, h.logger, err, "adjust balance")
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}
