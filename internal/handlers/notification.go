package handlers

import (
	"errors"
	"net/http"

	"gorm.io/gorm"

	"github.com/diewo77/invoiceapp/httpx"
	"github.com/diewo77/invoiceapp/internal/services"
)

type NotificationHandler struct {
	Svc *services.TrackingService
}

func NewNotificationHandler(svc *services.TrackingService) *NotificationHandler {
	return &NotificationHandler{Svc: svc}
}

// List: GET /notifications?unread=true
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	notes, err := h.Svc.Notifications(uid, r.URL.Query().Get("unread") == "true")
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_notifications", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": notes, "total": len(notes)})
}

// MarkRead: POST /notifications/read?id=...
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.MarkRead(uid, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_mark_read", nil)
		return
	}
	httpx.NoContent(w)
}

// MarkAllRead: POST /notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	count, err := h.Svc.MarkAllRead(uid)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_mark_all_read", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int64{"marked": count})
}
