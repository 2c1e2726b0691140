package handlers

import (
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/invoiceapp/httpx"
	"github.com/diewo77/invoiceapp/internal/models"
	"github.com/diewo77/invoiceapp/internal/services"
)

type InvoiceHandler struct {
	DB        *gorm.DB
	Svc       *services.InvoiceService
	Recurring *services.RecurringService
}

func NewInvoiceHandler(db *gorm.DB, svc *services.InvoiceService, recurring *services.RecurringService) *InvoiceHandler {
	return &InvoiceHandler{DB: db, Svc: svc, Recurring: recurring}
}

// List: GET /invoices?status=...&group=true. Runs a due-generation pass and
// the overdue sweep first so listings never miss a freshly due schedule or
// show a stale "sent" past its due date.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	now := time.Now()
	if _, err := h.Recurring.RunDueGenerations(now); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "generation_run_failed", nil)
		return
	}
	if _, err := h.Svc.MarkOverdue(uid, now); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "overdue_sweep_failed", nil)
		return
	}
	status := models.InvoiceStatus(r.URL.Query().Get("status"))
	if status == "all" {
		status = ""
	}
	invs, err := h.Svc.List(uid, status)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_invoices", nil)
		return
	}
	if r.URL.Query().Get("group") == "true" {
		grouped := map[string][]models.Invoice{}
		for _, inv := range invs {
			name := ""
			if inv.Client != nil {
				name = inv.Client.Name
			}
			grouped[name] = append(grouped[name], inv)
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"grouped": grouped, "total": len(invs)})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": invs, "total": len(invs)})
}

// Get: GET /invoices/get?id=...
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	inv, err := h.Svc.Get(uid, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_invoice", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func (h *InvoiceHandler) decodeInput(w http.ResponseWriter, r *http.Request, uid uint) (services.InvoiceInput, bool) {
	var in services.InvoiceInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return in, false
	}
	if in.ClientID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"client_id": "required"})
		return in, false
	}
	var count int64
	if err := h.DB.Model(&models.Client{}).Where("id = ? AND user_id = ?", in.ClientID, uid).Count(&count).Error; err != nil || count == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_client", nil)
		return in, false
	}
	// fill date and currency defaults from user settings
	var user models.User
	if err := h.DB.First(&user, uid).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_user", nil)
		return in, false
	}
	if in.IssueDate.IsZero() {
		in.IssueDate = time.Now()
	}
	if in.DueDate.IsZero() {
		in.DueDate = in.IssueDate.AddDate(0, 0, user.DefaultPaymentTerms)
	}
	if in.Currency == "" {
		in.Currency = user.DefaultCurrency
	}
	if in.Notes == "" {
		in.Notes = user.DefaultNotes
	}
	return in, true
}

// Create: POST /invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	in, ok := h.decodeInput(w, r, uid)
	if !ok {
		return
	}
	inv, err := h.Svc.Create(uid, in)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_invoice", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// Update: POST /invoices/update?id=...
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeInput(w, r, uid)
	if !ok {
		return
	}
	inv, err := h.Svc.Update(uid, id, in)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_invoice", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Delete: POST /invoices/delete?id=...
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(uid, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_invoice", nil)
		return
	}
	httpx.NoContent(w)
}

// SetStatus: POST /invoices/status?id=... body {"status": "..."}
func (h *InvoiceHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status models.InvoiceStatus `json:"status"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	inv, err := h.Svc.SetStatus(uid, id, req.Status, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusBadRequest, "invalid_invoice_status", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Duplicate: POST /invoices/duplicate?id=...
func (h *InvoiceHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	clone, err := h.Svc.Duplicate(uid, id, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_duplicate_invoice", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, clone)
}
