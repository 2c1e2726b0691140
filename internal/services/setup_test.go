package services

import (
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/diewo77/invoiceapp/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbi, err := gorm.Open(sqlite.Open("file:svc_"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = dbi.AutoMigrate(
		&models.User{}, &models.Client{},
		&models.Invoice{}, &models.InvoiceItem{},
		&models.Estimate{}, &models.EstimateItem{},
		&models.RecurringInvoice{}, &models.RecurringInvoiceItem{},
		&models.InvoiceView{}, &models.Notification{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return dbi
}

func seedUserClient(t *testing.T, dbi *gorm.DB) (models.User, models.Client) {
	t.Helper()
	u := models.User{Email: "owner@example.com", PasswordHash: "hash", Name: "Owner", DefaultCurrency: "USD", DefaultPaymentTerms: 30}
	if err := dbi.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	c := models.Client{UserID: u.ID, Name: "Acme Corp", Email: "billing@acme.test"}
	if err := dbi.Create(&c).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return u, c
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
