package handlers

import (
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/invoiceapp/httpx"
	"github.com/diewo77/invoiceapp/internal/models"
	"github.com/diewo77/invoiceapp/internal/policy"
	"github.com/diewo77/invoiceapp/internal/services"
)

type RecurringHandler struct {
	DB       *gorm.DB
	Svc      *services.RecurringService
	Accounts *services.AccountService
}

func NewRecurringHandler(db *gorm.DB, svc *services.RecurringService, accounts *services.AccountService) *RecurringHandler {
	return &RecurringHandler{DB: db, Svc: svc, Accounts: accounts}
}

// List: GET /recurring
func (h *RecurringHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	scheds, err := h.Svc.List(uid)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_schedules", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": scheds, "total": len(scheds)})
}

func (h *RecurringHandler) decodeInput(w http.ResponseWriter, r *http.Request, uid uint) (services.RecurringInput, bool) {
	var in services.RecurringInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return in, false
	}
	details := map[string]string{}
	if in.ClientID == 0 {
		details["client_id"] = "required"
	}
	if in.Name == "" {
		details["name"] = "required"
	}
	if !models.ValidFrequency(in.Frequency) {
		details["frequency"] = "must_be_weekly_monthly_quarterly_or_yearly"
	}
	if in.StartDate.IsZero() {
		details["start_date"] = "required"
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		details["end_date"] = "before_start_date"
	}
	if len(details) > 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", details)
		return in, false
	}
	var count int64
	if err := h.DB.Model(&models.Client{}).Where("id = ? AND user_id = ?", in.ClientID, uid).Count(&count).Error; err != nil || count == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_client", nil)
		return in, false
	}
	return in, true
}

// Create: POST /recurring
func (h *RecurringHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	in, ok := h.decodeInput(w, r, uid)
	if !ok {
		return
	}
	sched, err := h.Svc.Create(uid, in)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_schedule", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, sched)
}

// Update: POST /recurring/update?id=...
func (h *RecurringHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeInput(w, r, uid)
	if !ok {
		return
	}
	sched, err := h.Svc.Update(uid, id, in)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_schedule", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, sched)
}

// Delete: POST /recurring/delete?id=... Generated invoices survive.
func (h *RecurringHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	if err := h.Accounts.DeleteSchedule(uid, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_schedule", nil)
		return
	}
	httpx.NoContent(w)
}

// SetStatus: POST /recurring/status?id=... body {"status": "..."}. Pause,
// resume or cancel. The cursor is untouched, so resuming an overdue schedule
// catches up one cycle on the next run.
func (h *RecurringHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	sched, err := h.Svc.Get(uid, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_schedule", nil)
		return
	}
	var req struct {
		Status models.RecurringStatus `json:"status"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if err := h.Svc.SetStatus(sched.ID, req.Status); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_schedule_status", nil)
		return
	}
	sched.Status = req.Status
	httpx.JSON(w, http.StatusOK, sched)
}

// GenerateNow: POST /recurring/generate?id=... Owner-triggered immediate
// generation, bypassing the due-date gate.
func (h *RecurringHandler) GenerateNow(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	// ownership check before the engine touches the schedule
	var sched models.RecurringInvoice
	if err := h.DB.First(&sched, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if !policy.Owns(uid, &sched) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	inv, err := h.Svc.GenerateNow(sched.ID, time.Now())
	if err != nil {
		if errors.Is(err, services.ErrScheduleCancelled) {
			httpx.JSONError(w, http.StatusConflict, "schedule_cancelled", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "generation_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// RunDue: POST /recurring/run-due. Opportunistic trigger for the engine,
// returns the number of invoices generated across all owners.
func (h *RecurringHandler) RunDue(w http.ResponseWriter, r *http.Request) {
	count, err := h.Svc.RunDueGenerations(time.Now())
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "generation_run_failed", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"generated": count})
}
