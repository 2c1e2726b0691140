package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/invoiceapp/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDueDate(t *testing.T) {
	cases := []struct {
		name string
		from time.Time
		freq models.Frequency
		want time.Time
	}{
		{"weekly", date(2024, time.March, 1), models.FrequencyWeekly, date(2024, time.March, 8)},
		{"weekly across month", date(2024, time.February, 27), models.FrequencyWeekly, date(2024, time.March, 5)},
		{"monthly plain", date(2024, time.March, 15), models.FrequencyMonthly, date(2024, time.April, 15)},
		{"monthly clamp leap feb", date(2024, time.January, 31), models.FrequencyMonthly, date(2024, time.February, 29)},
		{"monthly clamp non-leap feb", date(2023, time.January, 31), models.FrequencyMonthly, date(2023, time.February, 28)},
		{"monthly clamp 30-day month", date(2024, time.March, 31), models.FrequencyMonthly, date(2024, time.April, 30)},
		{"monthly no overflow reset", date(2024, time.February, 29), models.FrequencyMonthly, date(2024, time.March, 29)},
		{"quarterly", date(2024, time.January, 15), models.FrequencyQuarterly, date(2024, time.April, 15)},
		{"quarterly clamp", date(2024, time.March, 31), models.FrequencyQuarterly, date(2024, time.June, 30)},
		{"yearly", date(2024, time.May, 10), models.FrequencyYearly, date(2025, time.May, 10)},
		{"yearly leap day", date(2024, time.February, 29), models.FrequencyYearly, date(2025, time.February, 28)},
		{"unknown falls back monthly", date(2024, time.June, 5), models.Frequency("fortnightly"), date(2024, time.July, 5)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextDueDate(tc.from, tc.freq)
			if !got.Equal(tc.want) {
				t.Fatalf("NextDueDate(%s, %s) = %s, want %s", tc.from, tc.freq, got, tc.want)
			}
		})
	}
}

func seedSchedule(t *testing.T, svc *RecurringService, userID, clientID uint, due time.Time) *models.RecurringInvoice {
	t.Helper()
	sched, err := svc.Create(userID, RecurringInput{
		ClientID:  clientID,
		Name:      "Hosting",
		Frequency: models.FrequencyMonthly,
		StartDate: due,
		TaxRate:   10,
		Items: []LineInput{
			{Description: "Shared hosting", Quantity: 1, UnitPrice: 25},
			{Description: "Backups", Quantity: 2, UnitPrice: 5},
		},
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	return sched
}

func TestRunDueGenerationsCreatesInvoiceOnce(t *testing.T) {
	dbi := setupTestDB(t)
	u, c := seedUserClient(t, dbi)
	svc := NewRecurringService(dbi, testLogger())

	due := date(2024, time.March, 1)
	sched := seedSchedule(t, svc, u.ID, c.ID, due)

	now := date(2024, time.March, 2)
	n, err := svc.RunDueGenerations(now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 1 {
		t.Fatalf("generated %d invoices, want 1", n)
	}

	// Second run in the same cycle must be a no-op.
	n, err = svc.RunDueGenerations(now)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if n != 0 {
		t.Fatalf("second run generated %d invoices, want 0", n)
	}

	var invs []models.Invoice
	if err := dbi.Preload("Items").Where("recurring_invoice_id = ?", sched.ID).Find(&invs).Error; err != nil {
		t.Fatalf("load invoices: %v", err)
	}
	if len(invs) != 1 {
		t.Fatalf("got %d generated invoices, want 1", len(invs))
	}
	inv := invs[0]
	if inv.Status != models.InvoiceStatusDraft {
		t.Errorf("status = %s, want draft", inv.Status)
	}
	if inv.RecurringInvoiceID == nil || *inv.RecurringInvoiceID != sched.ID {
		t.Errorf("provenance not set: %v", inv.RecurringInvoiceID)
	}
	if !strings.Contains(inv.Notes, "Hosting") {
		t.Errorf("notes missing schedule name: %q", inv.Notes)
	}
	if inv.PublicLink == "" {
		t.Errorf("public link not assigned")
	}
	if len(inv.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(inv.Items))
	}
	// 25 + 10 = 35 subtotal, 10% tax
	if inv.Subtotal != 35 || inv.TaxAmount != 3.5 || inv.Total != 38.5 {
		t.Errorf("totals = %v/%v/%v, want 35/3.5/38.5", inv.Subtotal, inv.TaxAmount, inv.Total)
	}
	if want := now.AddDate(0, 0, 30); !inv.DueDate.Equal(want) {
		t.Errorf("due date = %s, want %s", inv.DueDate, want)
	}

	var reloaded models.RecurringInvoice
	if err := dbi.First(&reloaded, sched.ID).Error; err != nil {
		t.Fatalf("reload schedule: %v", err)
	}
	if want := date(2024, time.April, 1); !reloaded.NextDueDate.Equal(want) {
		t.Errorf("cursor = %s, want %s", reloaded.NextDueDate, want)
	}
	if reloaded.LastGenerated == nil || !reloaded.LastGenerated.Equal(now) {
		t.Errorf("last generated = %v, want %s", reloaded.LastGenerated, now)
	}
}

func TestRunDueGenerationsSkipsIneligible(t *testing.T) {
	dbi := setupTestDB(t)
	u, c := seedUserClient(t, dbi)
	svc := NewRecurringService(dbi, testLogger())

	now := date(2024, time.June, 2)

	notDue := seedSchedule(t, svc, u.ID, c.ID, date(2024, time.June, 10))
	paused := seedSchedule(t, svc, u.ID, c.ID, date(2024, time.June, 1))
	if err := svc.SetStatus(paused.ID, models.RecurringStatusPaused); err != nil {
		t.Fatalf("pause: %v", err)
	}
	expired := seedSchedule(t, svc, u.ID, c.ID, date(2024, time.June, 1))
	end := date(2024, time.June, 1)
	if err := dbi.Model(&models.RecurringInvoice{}).Where("id = ?", expired.ID).Update("end_date", end).Error; err != nil {
		t.Fatalf("set end date: %v", err)
	}

	n, err := svc.RunDueGenerations(now)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 0 {
		t.Fatalf("generated %d, want 0 (not due / paused / ended)", n)
	}

	// End date on the reference date itself is still eligible.
	if err := dbi.Model(&models.RecurringInvoice{}).Where("id = ?", expired.ID).Update("end_date", now).Error; err != nil {
		t.Fatalf("move end date: %v", err)
	}
	n, err = svc.RunDueGenerations(now)
	if err != nil {
		t.Fatalf("run after moving end date: %v", err)
	}
	if n != 1 {
		t.Fatalf("generated %d, want 1 (end date inclusive)", n)
	}
	_ = notDue
}

func TestPauseResumeKeepsCursor(t *testing.T) {
	dbi := setupTestDB(t)
	u, c := seedUserClient(t, dbi)
	svc := NewRecurringService(dbi, testLogger())

	due := date(2024, time.March, 1)
	sched := seedSchedule(t, svc, u.ID, c.ID, due)

	if err := svc.SetStatus(sched.ID, models.RecurringStatusPaused); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := svc.SetStatus(sched.ID, models.RecurringStatusActive); err != nil {
		t.Fatalf("resume: %v", err)
	}

	var reloaded models.RecurringInvoice
	if err := dbi.First(&reloaded, sched.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.NextDueDate.Equal(due) {
		t.Fatalf("cursor moved across pause/resume: %s", reloaded.NextDueDate)
	}

	// Resumed long after the due date: exactly one catch-up cycle per run.
	n, err := svc.RunDueGenerations(date(2024, time.June, 15))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 1 {
		t.Fatalf("catch-up generated %d, want 1", n)
	}
	if err := dbi.First(&reloaded, sched.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if want := date(2024, time.April, 1); !reloaded.NextDueDate.Equal(want) {
		t.Fatalf("cursor = %s, want single-step advance to %s", reloaded.NextDueDate, want)
	}
}

func TestGenerateNow(t *testing.T) {
	dbi := setupTestDB(t)
	u, c := seedUserClient(t, dbi)
	svc := NewRecurringService(dbi, testLogger())

	sched := seedSchedule(t, svc, u.ID, c.ID, date(2024, time.December, 1))

	// Not yet due, manual generation still works.
	inv, err := svc.GenerateNow(sched.ID, date(2024, time.March, 5))
	if err != nil {
		t.Fatalf("generate now: %v", err)
	}
	if inv.RecurringInvoiceID == nil || *inv.RecurringInvoiceID != sched.ID {
		t.Fatalf("provenance not set")
	}

	var reloaded models.RecurringInvoice
	if err := dbi.First(&reloaded, sched.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if want := date(2025, time.January, 1); !reloaded.NextDueDate.Equal(want) {
		t.Fatalf("cursor = %s, want %s", reloaded.NextDueDate, want)
	}

	if err := svc.SetStatus(sched.ID, models.RecurringStatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := svc.GenerateNow(sched.ID, date(2024, time.March, 6)); !errors.Is(err, ErrScheduleCancelled) {
		t.Fatalf("err = %v, want ErrScheduleCancelled", err)
	}
}

func TestGeneratedItemsAreIndependentCopies(t *testing.T) {
	dbi := setupTestDB(t)
	u, c := seedUserClient(t, dbi)
	svc := NewRecurringService(dbi, testLogger())

	sched := seedSchedule(t, svc, u.ID, c.ID, date(2024, time.March, 1))
	inv, err := svc.GenerateNow(sched.ID, date(2024, time.March, 1))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	// Editing a generated line must leave the template untouched.
	if err := dbi.Model(&models.InvoiceItem{}).Where("invoice_id = ?", inv.ID).Update("unit_price", 999).Error; err != nil {
		t.Fatalf("edit invoice item: %v", err)
	}
	var tmpl []models.RecurringInvoiceItem
	if err := dbi.Where("recurring_invoice_id = ?", sched.ID).Order("position asc").Find(&tmpl).Error; err != nil {
		t.Fatalf("load template: %v", err)
	}
	if len(tmpl) != 2 || tmpl[0].UnitPrice != 25 || tmpl[1].UnitPrice != 5 {
		t.Fatalf("template lines changed: %+v", tmpl)
	}
}

func TestRecurringUpdateLeavesCursorAlone(t *testing.T) {
	dbi := setupTestDB(t)
	u, c := seedUserClient(t, dbi)
	svc := NewRecurringService(dbi, testLogger())

	due := date(2024, time.May, 1)
	sched := seedSchedule(t, svc, u.ID, c.ID, due)

	_, err := svc.Update(u.ID, sched.ID, RecurringInput{
		ClientID:  c.ID,
		Name:      "Hosting Plus",
		Frequency: models.FrequencyWeekly,
		TaxRate:   20,
		Items:     []LineInput{{Description: "Premium hosting", Quantity: 1, UnitPrice: 50}},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	var reloaded models.RecurringInvoice
	if err := dbi.Preload("Items").First(&reloaded, sched.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Name != "Hosting Plus" || reloaded.Frequency != models.FrequencyWeekly {
		t.Errorf("template fields not updated: %+v", reloaded)
	}
	if !reloaded.NextDueDate.Equal(due) {
		t.Errorf("cursor = %s, want unchanged %s", reloaded.NextDueDate, due)
	}
	if len(reloaded.Items) != 1 || reloaded.Items[0].Description != "Premium hosting" {
		t.Errorf("items not replaced: %+v", reloaded.Items)
	}
}
