package services

import (
	"testing"
	"time"

	"github.com/diewo77/invoiceapp/internal/models"
)

func TestDeleteScheduleKeepsGeneratedInvoices(t *testing.T) {
	dbi := setupTestDB(t)
	u, c := seedUserClient(t, dbi)
	recurring := NewRecurringService(dbi, testLogger())
	accounts := NewAccountService(dbi)

	sched := seedSchedule(t, recurring, u.ID, c.ID, date(2024, time.March, 1))
	inv, err := recurring.GenerateNow(sched.ID, date(2024, time.March, 1))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if err := accounts.DeleteSchedule(u.ID, sched.ID); err != nil {
		t.Fatalf("delete schedule: %v", err)
	}

	var schedCount, itemCount int64
	dbi.Model(&models.RecurringInvoice{}).Where("id = ?", sched.ID).Count(&schedCount)
	dbi.Model(&models.RecurringInvoiceItem{}).Where("recurring_invoice_id = ?", sched.ID).Count(&itemCount)
	if schedCount != 0 || itemCount != 0 {
		t.Fatalf("schedule rows remain: %d schedules, %d items", schedCount, itemCount)
	}

	var survivor models.Invoice
	if err := dbi.First(&survivor, inv.ID).Error; err != nil {
		t.Fatalf("generated invoice deleted with schedule: %v", err)
	}
	if survivor.RecurringInvoiceID == nil || *survivor.RecurringInvoiceID != sched.ID {
		t.Errorf("provenance marker lost: %v", survivor.RecurringInvoiceID)
	}
}

func TestDeleteUserCascades(t *testing.T) {
	dbi := setupTestDB(t)
	u, c := seedUserClient(t, dbi)

	invoices := NewInvoiceService(dbi)
	estimates := NewEstimateService(dbi)
	recurring := NewRecurringService(dbi, testLogger())
	tracking := NewTrackingService(dbi)
	accounts := NewAccountService(dbi)

	now := date(2024, time.March, 1)
	inv, err := invoices.Create(u.ID, InvoiceInput{ClientID: c.ID, IssueDate: now, DueDate: now,
		Items: []LineInput{{Description: "Work", Quantity: 1, UnitPrice: 10}}})
	if err != nil {
		t.Fatalf("invoice: %v", err)
	}
	if _, err := estimates.Create(u.ID, EstimateInput{ClientID: c.ID, IssueDate: now,
		Items: []LineInput{{Description: "Quote", Quantity: 1, UnitPrice: 20}}}); err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if _, err := recurring.Create(u.ID, RecurringInput{ClientID: c.ID, Name: "Sub",
		Frequency: models.FrequencyMonthly, StartDate: now,
		Items: []LineInput{{Description: "Plan", Quantity: 1, UnitPrice: 5}}}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := tracking.RecordView(inv.ID, now, "", ""); err != nil {
		t.Fatalf("view: %v", err)
	}

	// A second user's data must survive the cascade.
	other := models.User{Email: "other@example.com", PasswordHash: "hash", Name: "Other"}
	if err := dbi.Create(&other).Error; err != nil {
		t.Fatalf("seed other: %v", err)
	}
	otherClient := models.Client{UserID: other.ID, Name: "Bystander Ltd"}
	if err := dbi.Create(&otherClient).Error; err != nil {
		t.Fatalf("seed other client: %v", err)
	}

	if err := accounts.DeleteUser(u.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	counts := map[string]int64{}
	for name, m := range map[string]any{
		"users":         &models.User{},
		"clients":       &models.Client{},
		"invoices":      &models.Invoice{},
		"invoice_items": &models.InvoiceItem{},
		"views":         &models.InvoiceView{},
		"estimates":     &models.Estimate{},
		"schedules":     &models.RecurringInvoice{},
		"notifications": &models.Notification{},
	} {
		var n int64
		if err := dbi.Model(m).Count(&n).Error; err != nil {
			t.Fatalf("count %s: %v", name, err)
		}
		counts[name] = n
	}
	// Only the bystander user and client remain.
	if counts["users"] != 1 || counts["clients"] != 1 {
		t.Errorf("survivors = %+v, want 1 user and 1 client", counts)
	}
	for _, name := range []string{"invoices", "invoice_items", "views", "estimates", "schedules", "notifications"} {
		if counts[name] != 0 {
			t.Errorf("%s = %d rows after delete, want 0", name, counts[name])
		}
	}
}
