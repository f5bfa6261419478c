package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/allowance/internal/auth"
	"github.com/dukerupert/allowance/internal/ledger"
	"github.com/dukerupert/allowance/internal/model"
	"github.com/dukerupert/allowance/internal/money"
	"github.com/dukerupert/allowance/internal/store"
)

type TaskHandler struct {
	tasks       *store.TaskStore
	members     *store.MemberStore
	completions *store.CompletionStore
	svc         *ledger.Service
	logger      *slog.Logger
}

func NewTaskHandler(ts *store.TaskStore, ms *store.MemberStore, cs *store.CompletionStore, svc *ledger.Service, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: ts, members: ms, completions: cs, svc: svc, logger: logger}
}

type taskRequest struct {
	RoutineID   *int64          `json:"routine_id"`
	Name        string          `json:"name"`
	Kind        model.TaskKind  `json:"kind"`
	Value       decimal.Decimal `json:"value"`
	Schedule    model.Weekdays  `json:"schedule"`
	WindowStart string          `json:"window_start"`
	WindowEnd   string          `json:"window_end"`
}

// input validates req and converts it for the store. It returns a message
// for the client on failure.
func (h *TaskHandler) input(r *http.Request, req taskRequest) (store.TaskInput, string) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return store.TaskInput{}, "name is required"
	}
	if req.Kind == "" {
		req.Kind = model.TaskRoutine
	}
	if !req.Kind.Valid() {
		return store.TaskInput{}, "kind must be routine or bonus"
	}
	if req.Value.IsNegative() {
		return store.TaskInput{}, "value must be >= 0"
	}
	if req.Kind == model.TaskBonus && !req.Value.IsPositive() {
		return store.TaskInput{}, "bonus tasks need a value > 0"
	}
	cents, err := money.ToCents(req.Value)
	if err != nil {
		return store.TaskInput{}, "value has more than 2 decimal places"
	}
	if err := req.Schedule.Validate(); err != nil {
		return store.TaskInput{}, err.Error()
	}
	for _, clock := range []string{req.WindowStart, req.WindowEnd} {
		if clock == "" {
			continue
		}
		if _, err := time.Parse("15:04", clock); err != nil {
			return store.TaskInput{}, "time window must be HH:MM"
		}
	}
	if req.RoutineID != nil {
		routine, err := h.tasks.GetRoutine(r.Context(), *req.RoutineID)
		if err != nil || routine == nil || routine.HouseholdID != auth.HouseholdID(r.Context()) {
			return store.TaskInput{}, "routine not found"
		}
	}
	return store.TaskInput{
		RoutineID:   req.RoutineID,
		Name:        req.Name,
		Kind:        req.Kind,
		ValueCents:  cents,
		Schedule:    req.Schedule,
		WindowStart: req.WindowStart,
		WindowEnd:   req.WindowEnd,
	}, ""
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.tasks.ListByHousehold(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("list tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	in, msg := h.input(r, req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	task, err := h.tasks.Create(r.Context(), auth.HouseholdID(r.Context()), in)
	if err != nil {
		h.logger.Error("create task", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// householdTask loads a task of the caller's household, writing the error
// response and returning nil when it cannot.
func (h *TaskHandler) householdTask(w http.ResponseWriter, r *http.Request) *model.Task {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	task, err := h.tasks.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get task", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get task")
		return nil
	}
	if task == nil || task.HouseholdID != auth.HouseholdID(r.Context()) {
		writeError(w, http.StatusNotFound, "task not found")
		return nil
	}
	return task
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing := h.householdTask(w, r)
	if existing == nil {
		return
	}

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	in, msg := h.input(r, req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	task, err := h.tasks.Update(r.Context(), existing.ID, in)
	if err != nil {
		h.logger.Error("update task", "id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing := h.householdTask(w, r)
	if existing == nil {
		return
	}
	err := h.tasks.Delete(r.Context(), existing.ID)
	if errors.Is(err, store.ErrInUse) {
		writeError(w, http.StatusConflict, "task has completions and cannot be deleted")
		return
	}
	if err != nil {
		h.logger.Error("delete task", "id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Today lists the household's tasks with schedule and completion state.
// Query: member_id (default: caller), date (default: today).
func (h *TaskHandler) Today(w http.ResponseWriter, r *http.Request) {
	memberID := auth.MemberID(r.Context())
	if v := r.URL.Query().Get("member_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid member_id")
			return
		}
		memberID = id
	}
	date, err := parseDateQuery(r, "date", h.svc.Recorder.Today())
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	member, err := householdMember(r.Context(), h.members, memberID)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}

	days, err := h.svc.Recorder.Day(r.Context(), member.ID, date)
	if err != nil {
		writeLedgerError(w, h.logger, err, "list tasks")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date,
		"tasks": days,
	})
}

type completeRequest struct {
	MemberID int64      `json:"member_id"`
	Date     model.Date `json:"date"`
}

// Complete records a completion. The body is optional; member defaults to
// the caller and date to today.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	task := h.householdTask(w, r)
	if task == nil {
		return
	}

	var req completeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.MemberID == 0 {
		req.MemberID = auth.MemberID(r.Context())
	}
	if !canActFor(r.Context(), req.MemberID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	c, err := h.svc.Recorder.Create(r.Context(), task.ID, req.MemberID, req.Date)
	if err != nil {
		writeLedgerError(w, h.logger, err, "complete task")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Undo reverses a completion inside the undo window.
func (h *TaskHandler) Undo(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	c, err := h.completions.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get completion", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get completion")
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "completion not found")
		return
	}
	member, err := householdMember(r.Context(), h.members, c.MemberID)
	if err != nil {
		h.logger.Error("get member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get member")
		return
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "completion not found")
		return
	}
	if !canActFor(r.Context(), member.ID) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	if err := h.svc.Undoer.Undo(r.Context(), id); err != nil {
		writeLedgerError(w, h.logger, err, "undo completion")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) ListRoutines(w http.ResponseWriter, r *http.Request) {
	routines, err := h.tasks.ListRoutines(r.Context(), auth.HouseholdID(r.Context()))
	if err != nil {
		h.logger.Error("list routines", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list routines")
		return
	}
	writeJSON(w, http.StatusOK, routines)
}

func (h *TaskHandler) CreateRoutine(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
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

	routine, err := h.tasks.CreateRoutine(r.Context(), auth.HouseholdID(r.Context()), req.Name)
	if err != nil {
		h.logger.Error("create routine", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create routine")
		return
	}
	writeJSON(w, http.StatusCreated, routine)
}
