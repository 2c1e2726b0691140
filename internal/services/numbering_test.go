package services

import (
	"testing"
	"time"

	"github.com/diewo77/invoiceapp/internal/models"
)

func TestNextDocumentNumberFirstAllocation(t *testing.T) {
	dbi := setupTestDB(t)
	u, _ := seedUserClient(t, dbi)

	now := time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC)
	got, err := NextDocumentNumber(dbi, NumberSpec{UserID: u.ID, Prefix: PrefixInvoice, Now: now})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got != "INV-202407-0001" {
		t.Fatalf("number = %q, want INV-202407-0001", got)
	}
}

func TestNextDocumentNumberContinuesSequence(t *testing.T) {
	dbi := setupTestDB(t)
	u, c := seedUserClient(t, dbi)

	seed := models.Invoice{UserID: u.ID, ClientID: c.ID, Number: "INV-202312-0041",
		IssueDate: time.Now(), DueDate: time.Now(), PublicLink: "seed-link"}
	if err := dbi.Create(&seed).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	now := time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)
	got, err := NextDocumentNumber(dbi, NumberSpec{UserID: u.ID, Prefix: PrefixInvoice, Now: now})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	// The sequence continues across the month boundary; the date part follows now.
	if got != "INV-202401-0042" {
		t.Fatalf("number = %q, want INV-202401-0042", got)
	}
}

func TestNextDocumentNumberUnparsableSuffixResets(t *testing.T) {
	dbi := setupTestDB(t)
	u, c := seedUserClient(t, dbi)

	seed := models.Invoice{UserID: u.ID, ClientID: c.ID, Number: "LEGACY-FORMAT",
		IssueDate: time.Now(), DueDate: time.Now(), PublicLink: "legacy-link"}
	if err := dbi.Create(&seed).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	now := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	got, err := NextDocumentNumber(dbi, NumberSpec{UserID: u.ID, Prefix: PrefixInvoice, Now: now})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got != "INV-202402-0001" {
		t.Fatalf("number = %q, want reset to INV-202402-0001", got)
	}
}

func TestInvoiceAndEstimateSequencesAreIndependent(t *testing.T) {
	dbi := setupTestDB(t)
	u, c := seedUserClient(t, dbi)

	now := time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC)
	inv := models.Invoice{UserID: u.ID, ClientID: c.ID, Number: "INV-202407-0009",
		IssueDate: now, DueDate: now, PublicLink: "inv-link"}
	if err := dbi.Create(&inv).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	got, err := NextDocumentNumber(dbi, NumberSpec{UserID: u.ID, Prefix: PrefixEstimate, Now: now})
	if err != nil {
		t.Fatalf("allocate estimate: %v", err)
	}
	if got != "EST-202407-0001" {
		t.Fatalf("estimate number = %q, want EST-202407-0001", got)
	}
}

func TestNextDocumentNumberScopedToOwner(t *testing.T) {
	dbi := setupTestDB(t)
	u, c := seedUserClient(t, dbi)

	other := models.User{Email: "other@example.com", PasswordHash: "hash", Name: "Other"}
	if err := dbi.Create(&other).Error; err != nil {
		t.Fatalf("seed other user: %v", err)
	}

	now := time.Date(2024, time.July, 15, 0, 0, 0, 0, time.UTC)
	inv := models.Invoice{UserID: u.ID, ClientID: c.ID, Number: "INV-202407-0007",
		IssueDate: now, DueDate: now, PublicLink: "scoped-link"}
	if err := dbi.Create(&inv).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}

	got, err := NextDocumentNumber(dbi, NumberSpec{UserID: other.ID, Prefix: PrefixInvoice, Now: now})
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if got != "INV-202407-0001" {
		t.Fatalf("number = %q, want per-owner INV-202407-0001", got)
	}
}
