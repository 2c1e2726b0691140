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

type EstimateHandler struct {
	DB  *gorm.DB
	Svc *services.EstimateService
}

func NewEstimateHandler(db *gorm.DB, svc *services.EstimateService) *EstimateHandler {
	return &EstimateHandler{DB: db, Svc: svc}
}

// List: GET /estimates
func (h *EstimateHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	var ests []models.Estimate
	err := h.DB.Preload("Items").Preload("Client").
		Where("user_id = ?", uid).
		Order("created_at desc, id desc").
		Find(&ests).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_estimates", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": ests, "total": len(ests)})
}

func (h *EstimateHandler) decodeInput(w http.ResponseWriter, r *http.Request, uid uint) (services.EstimateInput, bool) {
	var in services.EstimateInput
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
	if in.IssueDate.IsZero() {
		in.IssueDate = time.Now()
	}
	if in.ExpiryDate.IsZero() {
		in.ExpiryDate = in.IssueDate.AddDate(0, 0, 30)
	}
	return in, true
}

// Create: POST /estimates
func (h *EstimateHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	in, ok := h.decodeInput(w, r, uid)
	if !ok {
		return
	}
	est, err := h.Svc.Create(uid, in)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_estimate", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, est)
}

// Update: POST /estimates/update?id=...
func (h *EstimateHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeInput(w, r, uid)
	if !ok {
		return
	}
	est, err := h.Svc.Update(uid, id, in)
	if err != nil {
		h.writeError(w, err, "failed_to_update_estimate")
		return
	}
	httpx.JSON(w, http.StatusOK, est)
}

// Delete: POST /estimates/delete?id=...
func (h *EstimateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Delete(uid, id); err != nil {
		h.writeError(w, err, "failed_to_delete_estimate")
		return
	}
	httpx.NoContent(w)
}

// SetStatus: POST /estimates/status?id=... body {"status": "..."}
func (h *EstimateHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status models.EstimateStatus `json:"status"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	est, err := h.Svc.SetStatus(uid, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		case errors.Is(err, services.ErrAlreadyConverted):
			httpx.JSONError(w, http.StatusConflict, "estimate_already_converted", nil)
		default:
			httpx.JSONError(w, http.StatusBadRequest, "invalid_estimate_status", nil)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, est)
}

// Convert: POST /estimates/convert?id=... Creates the invoice and marks
// the estimate converted.
func (h *EstimateHandler) Convert(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	inv, err := h.Svc.ConvertToInvoice(uid, id, time.Now())
	if err != nil {
		h.writeError(w, err, "failed_to_convert_estimate")
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

func (h *EstimateHandler) writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	case errors.Is(err, services.ErrAlreadyConverted):
		httpx.JSONError(w, http.StatusConflict, "estimate_already_converted", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, fallback, nil)
	}
}
