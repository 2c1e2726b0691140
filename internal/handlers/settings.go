package handlers

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/invoiceapp/auth"
	"github.com/diewo77/invoiceapp/httpx"
	"github.com/diewo77/invoiceapp/internal/models"
	"github.com/diewo77/invoiceapp/internal/services"
)

type SettingsHandler struct {
	DB       *gorm.DB
	Accounts *services.AccountService
}

func NewSettingsHandler(db *gorm.DB, accounts *services.AccountService) *SettingsHandler {
	return &SettingsHandler{DB: db, Accounts: accounts}
}

// Get: GET /settings. Returns the current user profile and invoice defaults.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	var user models.User
	if err := h.DB.First(&user, uid).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_user", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

type settingsReq struct {
	Name                string `json:"name"`
	CompanyName         string `json:"company_name"`
	Address             string `json:"address"`
	Phone               string `json:"phone"`
	LogoURL             string `json:"logo_url"`
	DefaultCurrency     string `json:"default_currency"`
	DefaultPaymentTerms int    `json:"default_payment_terms"`
	DefaultNotes        string `json:"default_notes"`
}

// Update: POST /settings
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	var req settingsReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"name": "required"})
		return
	}
	if req.DefaultCurrency == "" {
		req.DefaultCurrency = "USD"
	}
	if req.DefaultPaymentTerms <= 0 {
		req.DefaultPaymentTerms = 30
	}
	var user models.User
	if err := h.DB.First(&user, uid).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_user", nil)
		return
	}
	updates := map[string]any{
		"name": req.Name, "company_name": req.CompanyName, "address": req.Address,
		"phone": req.Phone, "logo_url": req.LogoURL,
		"default_currency":      req.DefaultCurrency,
		"default_payment_terms": req.DefaultPaymentTerms,
		"default_notes":         req.DefaultNotes,
	}
	if err := h.DB.Model(&user).Updates(updates).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_user", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

// DeleteAccount: POST /settings/delete-account. Removes the user and the
// whole ownership graph, then clears the session.
func (h *SettingsHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	if err := h.Accounts.DeleteUser(uid); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_account", nil)
		return
	}
	auth.ClearSession(w)
	httpx.NoContent(w)
}
