package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/diewo77/invoiceapp/auth"
	"github.com/diewo77/invoiceapp/httpx"
	"github.com/diewo77/invoiceapp/internal/handlers"
	"github.com/diewo77/invoiceapp/internal/models"
	"github.com/diewo77/invoiceapp/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// RequireAuth verifies the session's user still exists.
	auth.SetUserVerifier(func(_ context.Context, uid uint) bool {
		var count int64
		if err := db.Model(&models.User{}).Where("id = ?", uid).Limit(1).Count(&count).Error; err != nil {
			return false
		}
		return count > 0
	})

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	invoiceSvc := services.NewInvoiceService(db)
	estimateSvc := services.NewEstimateService(db)
	recurringSvc := services.NewRecurringService(db, log)
	trackingSvc := services.NewTrackingService(db)
	dashboardSvc := services.NewDashboardService(db)
	accountSvc := services.NewAccountService(db)

	authHandler := handlers.NewAuthHandler(db)
	authHandler.Register(mux)

	// Public share links, no session required.
	public := handlers.NewPublicHandler(db, trackingSvc)
	mux.HandleFunc("/i/", public.View)

	// Clients
	ch := handlers.NewClientHandler(db)
	protect(mux, "/clients", listCreate(ch.List, ch.Create))
	protect(mux, "/clients/update", post(ch.Update))
	protect(mux, "/clients/delete", post(ch.Delete))
	protect(mux, "/api/clients/search", get(ch.Search))

	// Invoices
	ih := handlers.NewInvoiceHandler(db, invoiceSvc, recurringSvc)
	protect(mux, "/invoices", listCreate(ih.List, ih.Create))
	protect(mux, "/invoices/get", get(ih.Get))
	protect(mux, "/invoices/update", post(ih.Update))
	protect(mux, "/invoices/delete", post(ih.Delete))
	protect(mux, "/invoices/status", post(ih.SetStatus))
	protect(mux, "/invoices/duplicate", post(ih.Duplicate))

	// Estimates
	eh := handlers.NewEstimateHandler(db, estimateSvc)
	protect(mux, "/estimates", listCreate(eh.List, eh.Create))
	protect(mux, "/estimates/update", post(eh.Update))
	protect(mux, "/estimates/delete", post(eh.Delete))
	protect(mux, "/estimates/status", post(eh.SetStatus))
	protect(mux, "/estimates/convert", post(eh.Convert))

	// Recurring schedules
	rh := handlers.NewRecurringHandler(db, recurringSvc, accountSvc)
	protect(mux, "/recurring", listCreate(rh.List, rh.Create))
	protect(mux, "/recurring/update", post(rh.Update))
	protect(mux, "/recurring/delete", post(rh.Delete))
	protect(mux, "/recurring/status", post(rh.SetStatus))
	protect(mux, "/recurring/generate", post(rh.GenerateNow))
	protect(mux, "/recurring/run-due", post(rh.RunDue))

	// Notifications
	nh := handlers.NewNotificationHandler(trackingSvc)
	protect(mux, "/notifications", get(nh.List))
	protect(mux, "/notifications/read", post(nh.MarkRead))
	protect(mux, "/notifications/read-all", post(nh.MarkAllRead))

	// Dashboard & settings
	dh := handlers.NewDashboardHandler(dashboardSvc, invoiceSvc, recurringSvc)
	protect(mux, "/dashboard", get(dh.Summary))
	protect(mux, "/api/dashboard/stats", get(dh.Stats))

	sh := handlers.NewSettingsHandler(db, accountSvc)
	protect(mux, "/settings", getPost(sh.Get, sh.Update))
	protect(mux, "/settings/delete-account", post(sh.DeleteAccount))

	return auth.Middleware(withRecover(withLogging(mux, log)))
}

func protect(mux *http.ServeMux, pattern string, h http.Handler) {
	mux.Handle(pattern, auth.RequireAuth(h))
}

func get(fn http.HandlerFunc) http.Handler {
	return allow(http.MethodGet, fn)
}

func post(fn http.HandlerFunc) http.Handler {
	return allow(http.MethodPost, fn)
}

func allow(method string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		fn(w, r)
	})
}

func listCreate(list, create http.HandlerFunc) http.Handler {
	return getPost(list, create)
}

func getPost(getFn, postFn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			getFn(w, r)
		case http.MethodPost:
			postFn(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	})
}

func withLogging(next http.Handler, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
