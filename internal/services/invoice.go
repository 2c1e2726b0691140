package services

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/diewo77/invoiceapp/internal/models"
)

// ErrNotEditable is returned when a mutation targets an invoice that left
// draft status.
var ErrNotEditable = errors.New("invoice_not_editable")

// LineInput is one line item as submitted by the owner. Lines with an empty
// description are skipped, not rejected.
type LineInput struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

// InvoiceInput carries the editable fields of an invoice.
type InvoiceInput struct {
	ClientID       uint        `json:"client_id"`
	Number         string      `json:"number"` // optional manual override
	IssueDate      time.Time   `json:"issue_date"`
	DueDate        time.Time   `json:"due_date"`
	Currency       string      `json:"currency"`
	TaxRate        float64     `json:"tax_rate"`
	DiscountAmount float64     `json:"discount_amount"`
	Notes          string      `json:"notes"`
	Terms          string      `json:"terms"`
	Items          []LineInput `json:"items"`
}

// InvoiceService encapsulates invoice business logic.
type InvoiceService struct {
	db *gorm.DB
}

func NewInvoiceService(db *gorm.DB) *InvoiceService {
	return &InvoiceService{db: db}
}

// buildInvoiceItems converts inputs to line items, skipping blank
// descriptions and defaulting quantity to 1.
func buildInvoiceItems(invoiceID uint, lines []LineInput) []models.InvoiceItem {
	items := make([]models.InvoiceItem, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line.Description) == "" {
			continue
		}
		qty := line.Quantity
		if qty == 0 {
			qty = 1
		}
		item := models.InvoiceItem{
			InvoiceID:   invoiceID,
			Description: line.Description,
			Quantity:    qty,
			UnitPrice:   line.UnitPrice,
		}
		item.CalculateTotal()
		items = append(items, item)
	}
	return items
}

// Create persists a new draft invoice with its items. A blank Number gets the
// next allocated one.
func (s *InvoiceService) Create(userID uint, in InvoiceInput) (*models.Invoice, error) {
	inv := &models.Invoice{
		UserID:         userID,
		ClientID:       in.ClientID,
		Number:         strings.TrimSpace(in.Number),
		Status:         models.InvoiceStatusDraft,
		IssueDate:      in.IssueDate,
		DueDate:        in.DueDate,
		Currency:       in.Currency,
		TaxRate:        in.TaxRate,
		DiscountAmount: in.DiscountAmount,
		Notes:          in.Notes,
		Terms:          in.Terms,
		PublicLink:     uuid.NewString(),
	}
	if inv.Currency == "" {
		inv.Currency = "USD"
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if inv.Number == "" {
			number, err := NextDocumentNumber(tx, NumberSpec{UserID: userID, Prefix: PrefixInvoice, Now: in.IssueDate})
			if err != nil {
				return err
			}
			inv.Number = number
		}
		if err := tx.Create(inv).Error; err != nil {
			return err
		}
		items := buildInvoiceItems(inv.ID, in.Items)
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		inv.Items = items
		inv.CalculateTotals()
		return tx.Model(inv).Updates(map[string]any{
			"subtotal": inv.Subtotal, "tax_amount": inv.TaxAmount, "total": inv.Total,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Get loads one invoice with items, scoped to the owner.
func (s *InvoiceService) Get(userID, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.Preload("Items").Preload("Client").
		Where("user_id = ?", userID).First(&inv, id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Update replaces the invoice head fields and its items wholesale: old line
// rows are deleted and recreated, no line identity survives an edit.
func (s *InvoiceService) Update(userID, id uint, in InvoiceInput) (*models.Invoice, error) {
	var inv models.Invoice
	if err := s.db.Where("user_id = ?", userID).First(&inv, id).Error; err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if n := strings.TrimSpace(in.Number); n != "" {
			inv.Number = n
		}
		inv.ClientID = in.ClientID
		inv.IssueDate = in.IssueDate
		inv.DueDate = in.DueDate
		if in.Currency != "" {
			inv.Currency = in.Currency
		}
		inv.TaxRate = in.TaxRate
		inv.DiscountAmount = in.DiscountAmount
		inv.Notes = in.Notes
		inv.Terms = in.Terms

		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		items := buildInvoiceItems(inv.ID, in.Items)
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		inv.Items = items
		inv.CalculateTotals()
		return tx.Save(&inv).Error
	})
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Delete removes an invoice and its items.
func (s *InvoiceService) Delete(userID, id uint) error {
	var inv models.Invoice
	if err := s.db.Where("user_id = ?", userID).First(&inv, id).Error; err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceView{}).Error; err != nil {
			return err
		}
		return tx.Delete(&inv).Error
	})
}

// SetStatus applies an owner-requested status transition. Marking paid stamps
// the paid date; paid invoices are terminal for the overdue sweep.
func (s *InvoiceService) SetStatus(userID, id uint, status models.InvoiceStatus, today time.Time) (*models.Invoice, error) {
	if !models.ValidInvoiceStatus(status) {
		return nil, errors.New("invalid_invoice_status")
	}
	var inv models.Invoice
	if err := s.db.Where("user_id = ?", userID).First(&inv, id).Error; err != nil {
		return nil, err
	}
	updates := map[string]any{"status": status}
	if status == models.InvoiceStatusPaid {
		updates["paid_date"] = today
	}
	if err := s.db.Model(&inv).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &inv, nil
}

// Duplicate clones an invoice into a fresh draft: new number, new public
// link, today's dates, independent item copies.
func (s *InvoiceService) Duplicate(userID, id uint, now time.Time) (*models.Invoice, error) {
	original, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, err
	}

	var clone *models.Invoice
	err = s.db.Transaction(func(tx *gorm.DB) error {
		number, err := NextDocumentNumber(tx, NumberSpec{UserID: userID, Prefix: PrefixInvoice, Now: now})
		if err != nil {
			return err
		}
		clone = &models.Invoice{
			UserID:         userID,
			ClientID:       original.ClientID,
			Number:         number,
			Status:         models.InvoiceStatusDraft,
			IssueDate:      now,
			DueDate:        now.AddDate(0, 0, user.DefaultPaymentTerms),
			Currency:       original.Currency,
			TaxRate:        original.TaxRate,
			DiscountAmount: original.DiscountAmount,
			Notes:          original.Notes,
			Terms:          original.Terms,
			PublicLink:     uuid.NewString(),
		}
		if err := tx.Create(clone).Error; err != nil {
			return err
		}
		items := make([]models.InvoiceItem, 0, len(original.Items))
		for _, item := range original.Items {
			items = append(items, models.InvoiceItem{
				InvoiceID:   clone.ID,
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
		clone.Items = items
		clone.CalculateTotals()
		return tx.Model(clone).Updates(map[string]any{
			"subtotal": clone.Subtotal, "tax_amount": clone.TaxAmount, "total": clone.Total,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return clone, nil
}

// MarkOverdue reclassifies sent invoices whose due date lies strictly before
// today. A zero userID sweeps all users. No other transition happens
// automatically.
func (s *InvoiceService) MarkOverdue(userID uint, today time.Time) (int64, error) {
	q := s.db.Model(&models.Invoice{}).
		Where("status = ? AND due_date < ?", models.InvoiceStatusSent, today)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	res := q.Update("status", models.InvoiceStatusOverdue)
	return res.RowsAffected, res.Error
}

// List returns the owner's invoices, optionally filtered by status, newest
// first.
func (s *InvoiceService) List(userID uint, status models.InvoiceStatus) ([]models.Invoice, error) {
	q := s.db.Preload("Items").Preload("Client").Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var invs []models.Invoice
	if err := q.Order("created_at desc, id desc").Find(&invs).Error; err != nil {
		return nil, err
	}
	return invs, nil
}
