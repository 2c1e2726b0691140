package handlers

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/invoiceapp/httpx"
	"github.com/diewo77/invoiceapp/internal/models"
)

type ClientHandler struct{ DB *gorm.DB }

func NewClientHandler(db *gorm.DB) *ClientHandler { return &ClientHandler{DB: db} }

type clientReq struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Notes       string `json:"notes"`
}

// List: GET /clients. Returns the owner's clients ordered by name.
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	var clients []models.Client
	if err := h.DB.Where("user_id = ?", uid).Order("name asc").Find(&clients).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_clients", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": clients, "total": len(clients)})
}

// Create: POST /clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	var req clientReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"name": "required"})
		return
	}
	client := models.Client{
		UserID:      uid,
		Name:        req.Name,
		Email:       req.Email,
		CompanyName: req.CompanyName,
		Address:     req.Address,
		Phone:       req.Phone,
		Notes:       req.Notes,
	}
	if err := h.DB.Create(&client).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_client", nil)
		return
	}
	httpx.JSON(w, http.StatusCreated, client)
}

// Update: POST /clients/update?id=...
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	var client models.Client
	if err := h.DB.Where("user_id = ?", uid).First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_client", nil)
		return
	}
	var req clientReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"name": "required"})
		return
	}
	updates := map[string]any{
		"name": req.Name, "email": req.Email, "company_name": req.CompanyName,
		"address": req.Address, "phone": req.Phone, "notes": req.Notes,
	}
	if err := h.DB.Model(&client).Updates(updates).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_client", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

// Delete: POST /clients/delete?id=... Clients still referenced by any
// document cannot be removed.
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	var refs int64
	for _, m := range []any{&models.Invoice{}, &models.Estimate{}, &models.RecurringInvoice{}} {
		var n int64
		if err := h.DB.Model(m).Where("user_id = ? AND client_id = ?", uid, id).Count(&n).Error; err != nil {
			httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_client", nil)
			return
		}
		refs += n
	}
	if refs > 0 {
		httpx.JSONError(w, http.StatusConflict, "client_has_documents", map[string]string{
			"hint": "delete or reassign the client's documents first",
		})
		return
	}
	res := h.DB.Where("user_id = ?", uid).Delete(&models.Client{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_client", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	httpx.NoContent(w)
}

// Search: GET /api/clients/search?q=... Name substring match,
// capped at 10 results.
func (h *ClientHandler) Search(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	var clients []models.Client
	err := h.DB.Where("user_id = ? AND lower(name) LIKE ?", uid, "%"+strings.ToLower(q)+"%").
		Order("name asc").Limit(10).Find(&clients).Error
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "search_failed", nil)
		return
	}
	type hit struct {
		ID          uint   `json:"id"`
		Name        string `json:"name"`
		Email       string `json:"email"`
		CompanyName string `json:"company_name"`
	}
	hits := make([]hit, 0, len(clients))
	for _, c := range clients {
		hits = append(hits, hit{ID: c.ID, Name: c.Name, Email: c.Email, CompanyName: c.CompanyName})
	}
	httpx.JSON(w, http.StatusOK, hits)
}
