package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/invoiceapp/httpx"
	"github.com/diewo77/invoiceapp/internal/services"
)

type DashboardHandler struct {
	Svc       *services.DashboardService
	Invoices  *services.InvoiceService
	Recurring *services.RecurringService
}

func NewDashboardHandler(svc *services.DashboardService, invoices *services.InvoiceService, recurring *services.RecurringService) *DashboardHandler {
	return &DashboardHandler{Svc: svc, Invoices: invoices, Recurring: recurring}
}

// Summary: GET /dashboard. Headline stats plus recent invoices. Runs the
// overdue sweep and a due-generation pass first, so the page always reflects
// current document state (the background ticker covers periods with no
// traffic).
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	now := time.Now()
	if _, err := h.Invoices.MarkOverdue(uid, now); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "overdue_sweep_failed", nil)
		return
	}
	generated, err := h.Recurring.RunDueGenerations(now)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "generation_run_failed", nil)
		return
	}
	stats, err := h.Svc.Stats(uid)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_stats", nil)
		return
	}
	recent, err := h.Svc.RecentInvoices(uid, 5)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_recent", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"stats":           stats,
		"recent_invoices": recent,
		"generated":       generated,
	})
}

// Stats: GET /api/dashboard/stats. Paid revenue per month for the last six
// months, oldest first.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	uid, _ := currentUserID(r)
	months, err := h.Svc.MonthlyRevenue(uid, time.Now(), 6)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_load_stats", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, months)
}
