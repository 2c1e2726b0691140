package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/diewo77/invoiceapp/internal/models"
)

// ErrAlreadyConverted is returned when conversion targets an estimate that
// already produced an invoice.
var ErrAlreadyConverted = errors.New("estimate_already_converted")

// EstimateInput carries the editable fields of an estimate.
type EstimateInput struct {
	ClientID       uint        `json:"client_id"`
	Number         string      `json:"number"` // optional manual override
	IssueDate      time.Time   `json:"issue_date"`
	ExpiryDate     time.Time   `json:"expiry_date"`
	Currency       string      `json:"currency"`
	TaxRate        float64     `json:"tax_rate"`
	DiscountAmount float64     `json:"discount_amount"`
	Notes          string      `json:"notes"`
	Terms          string      `json:"terms"`
	Items          []LineInput `json:"items"`
}

// EstimateService encapsulates estimate business logic, including the
// one-shot conversion into an invoice.
type EstimateService struct {
	db *gorm.DB
}

func NewEstimateService(db *gorm.DB) *EstimateService {
	return &EstimateService{db: db}
}

// Create persists a new draft estimate with its items.
func (s *EstimateService) Create(userID uint, in EstimateInput) (*models.Estimate, error) {
	est := &models.Estimate{
		UserID:         userID,
		ClientID:       in.ClientID,
		Number:         strings.TrimSpace(in.Number),
		Status:         models.EstimateStatusDraft,
		IssueDate:      in.IssueDate,
		ExpiryDate:     in.ExpiryDate,
		Currency:       in.Currency,
		TaxRate:        in.TaxRate,
		DiscountAmount: in.DiscountAmount,
		Notes:          in.Notes,
		Terms:          in.Terms,
	}
	if est.Currency == "" {
		est.Currency = "USD"
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if est.Number == "" {
			number, err := NextDocumentNumber(tx, NumberSpec{UserID: userID, Prefix: PrefixEstimate, Now: in.IssueDate})
			if err != nil {
				return err
			}
			est.Number = number
		}
		if err := tx.Create(est).Error; err != nil {
			return err
		}
		items := buildEstimateItems(est.ID, in.Items)
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		est.Items = items
		est.CalculateTotals()
		return tx.Model(est).Updates(map[string]any{
			"subtotal": est.Subtotal, "tax_amount": est.TaxAmount, "total": est.Total,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return est, nil
}

func buildEstimateItems(estimateID uint, lines []LineInput) []models.EstimateItem {
	items := make([]models.EstimateItem, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line.Description) == "" {
			continue
		}
		qty := line.Quantity
		if qty == 0 {
			qty = 1
		}
		item := models.EstimateItem{
			EstimateID:  estimateID,
			Description: line.Description,
			Quantity:    qty,
			UnitPrice:   line.UnitPrice,
		}
		item.CalculateTotal()
		items = append(items, item)
	}
	return items
}

// Get loads one estimate with items, scoped to the owner.
func (s *EstimateService) Get(userID, id uint) (*models.Estimate, error) {
	var est models.Estimate
	err := s.db.Preload("Items").Preload("Client").
		Where("user_id = ?", userID).First(&est, id).Error
	if err != nil {
		return nil, err
	}
	return &est, nil
}

// Update replaces the estimate head fields and items wholesale.
func (s *EstimateService) Update(userID, id uint, in EstimateInput) (*models.Estimate, error) {
	var est models.Estimate
	if err := s.db.Where("user_id = ?", userID).First(&est, id).Error; err != nil {
		return nil, err
	}
	if est.IsConverted() {
		return nil, ErrAlreadyConverted
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if n := strings.TrimSpace(in.Number); n != "" {
			est.Number = n
		}
		est.ClientID = in.ClientID
		est.IssueDate = in.IssueDate
		est.ExpiryDate = in.ExpiryDate
		if in.Currency != "" {
			est.Currency = in.Currency
		}
		est.TaxRate = in.TaxRate
		est.DiscountAmount = in.DiscountAmount
		est.Notes = in.Notes
		est.Terms = in.Terms

		if err := tx.Where("estimate_id = ?", est.ID).Delete(&models.EstimateItem{}).Error; err != nil {
			return err
		}
		items := buildEstimateItems(est.ID, in.Items)
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		est.Items = items
		est.CalculateTotals()
		return tx.Save(&est).Error
	})
	if err != nil {
		return nil, err
	}
	return &est, nil
}

// Delete removes an estimate and its items. Previously converted invoices
// are kept.
func (s *EstimateService) Delete(userID, id uint) error {
	var est models.Estimate
	if err := s.db.Where("user_id = ?", userID).First(&est, id).Error; err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("estimate_id = ?", est.ID).Delete(&models.EstimateItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&est).Error
	})
}

// SetStatus applies an owner-requested status transition. The converted
// status is only ever set by ConvertToInvoice.
func (s *EstimateService) SetStatus(userID, id uint, status models.EstimateStatus) (*models.Estimate, error) {
	switch status {
	case models.EstimateStatusDraft, models.EstimateStatusSent,
		models.EstimateStatusAccepted, models.EstimateStatusDeclined:
	default:
		return nil, fmt.Errorf("invalid_estimate_status: %s", status)
	}
	var est models.Estimate
	if err := s.db.Where("user_id = ?", userID).First(&est, id).Error; err != nil {
		return nil, err
	}
	if est.IsConverted() {
		return nil, ErrAlreadyConverted
	}
	if err := s.db.Model(&est).Update("status", status).Error; err != nil {
		return nil, err
	}
	return &est, nil
}

// ConvertToInvoice materializes a draft invoice from the estimate, clones the
// items, and marks the estimate converted in one transaction so the estimate
// can never convert twice.
func (s *EstimateService) ConvertToInvoice(userID, id uint, now time.Time) (*models.Invoice, error) {
	est, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	if est.IsConverted() {
		return nil, ErrAlreadyConverted
	}
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, err
	}

	var inv *models.Invoice
	err = s.db.Transaction(func(tx *gorm.DB) error {
		number, err := NextDocumentNumber(tx, NumberSpec{UserID: userID, Prefix: PrefixInvoice, Now: now})
		if err != nil {
			return err
		}
		estimateID := est.ID
		inv = &models.Invoice{
			UserID:         userID,
			ClientID:       est.ClientID,
			Number:         number,
			Status:         models.InvoiceStatusDraft,
			IssueDate:      now,
			DueDate:        now.AddDate(0, 0, user.DefaultPaymentTerms),
			Currency:       est.Currency,
			TaxRate:        est.TaxRate,
			DiscountAmount: est.DiscountAmount,
			Notes:          fmt.Sprintf("Converted from estimate %s", est.Number),
			Terms:          est.Terms,
			EstimateID:     &estimateID,
			PublicLink:     uuid.NewString(),
		}
		if err := tx.Create(inv).Error; err != nil {
			return err
		}
		items := make([]models.InvoiceItem, 0, len(est.Items))
		for _, item := range est.Items {
			items = append(items, models.InvoiceItem{
				InvoiceID:   inv.ID,
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Total:       item.Total,
			})
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		inv.Items = items
		inv.CalculateTotals()
		if err := tx.Model(inv).Updates(map[string]any{
			"subtotal": inv.Subtotal, "tax_amount": inv.TaxAmount, "total": inv.Total,
		}).Error; err != nil {
			return err
		}
		return tx.Model(&models.Estimate{}).Where("id = ?", est.ID).Updates(map[string]any{
			"status":               models.EstimateStatusConverted,
			"converted_invoice_id": inv.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}
