package handlers

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/invoiceapp/httpx"
	"github.com/diewo77/invoiceapp/internal/models"
	"github.com/diewo77/invoiceapp/internal/services"
)

// PublicHandler serves the unauthenticated invoice share links.
type PublicHandler struct {
	DB      *gorm.DB
	Tracker *services.TrackingService
}

func NewPublicHandler(db *gorm.DB, tracker *services.TrackingService) *PublicHandler {
	return &PublicHandler{DB: db, Tracker: tracker}
}

// View: GET /i/{publicLink}. Returns the invoice and records the view.
// A tracking failure must not break the client-facing page, so it is only
// reflected in the response when the invoice itself cannot be loaded.
func (h *PublicHandler) View(w http.ResponseWriter, r *http.Request) {
	link := strings.TrimPrefix(r.URL.Path, "/i/")
	if link == "" || strings.Contains(link, "/") {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var inv models.Invoice
	err := h.DB.Preload("Items").Preload("Client").Where("public_link = ?", link).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_invoice", nil)
		return
	}
	if _, err := h.Tracker.RecordView(inv.ID, time.Now(), clientIP(r), r.UserAgent()); err == nil {
		inv.ViewCount++
	}
	httpx.JSON(w, http.StatusOK, inv)
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
