package models

import (
	"time"
)

// InvoiceStatus represents the status of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// ValidInvoiceStatus reports whether s is one of the accepted statuses.
func ValidInvoiceStatus(s InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Invoice is a billing document issued to a client.
// Financial fields are derived from the line items via CalculateTotals and
// are never edited independently.
type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	ClientID uint    `gorm:"index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	Number string        `gorm:"size:50;not null;index" json:"number"`
	Status InvoiceStatus `gorm:"size:20;default:'draft'" json:"status"`

	IssueDate time.Time  `gorm:"not null" json:"issue_date"`
	DueDate   time.Time  `gorm:"not null" json:"due_date"`
	PaidDate  *time.Time `json:"paid_date,omitempty"`

	Currency       string  `gorm:"size:3;default:'USD'" json:"currency"`
	Subtotal       float64 `gorm:"default:0" json:"subtotal"`
	TaxRate        float64 `gorm:"default:0" json:"tax_rate"`
	TaxAmount      float64 `gorm:"default:0" json:"tax_amount"`
	DiscountAmount float64 `gorm:"default:0" json:"discount_amount"`
	Total          float64 `gorm:"default:0" json:"total"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`
	Terms string `gorm:"type:text" json:"terms,omitempty"`

	// Provenance: set when the invoice was produced by a recurring schedule
	// or by converting an estimate.
	RecurringInvoiceID *uint `gorm:"index" json:"recurring_invoice_id,omitempty"`
	EstimateID         *uint `gorm:"index" json:"estimate_id,omitempty"`

	// Public sharing and view tracking.
	PublicLink    string     `gorm:"size:100;uniqueIndex" json:"public_link,omitempty"`
	ViewCount     int        `gorm:"default:0" json:"view_count"`
	FirstViewedAt *time.Time `json:"first_viewed_at,omitempty"`
	LastViewedAt  *time.Time `json:"last_viewed_at,omitempty"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (i *Invoice) GetUserID() uint {
	return i.UserID
}

// IsDraft returns true if the invoice is still editable as a draft.
func (i *Invoice) IsDraft() bool {
	return i.Status == InvoiceStatusDraft
}

// IsOutstanding returns true if the invoice awaits payment.
func (i *Invoice) IsOutstanding() bool {
	return i.Status == InvoiceStatusSent || i.Status == InvoiceStatusOverdue
}

// CalculateTotals recomputes the derived financial fields from the items:
// subtotal = sum of line totals, tax = subtotal * rate / 100,
// total = subtotal + tax - discount.
func (i *Invoice) CalculateTotals() {
	var subtotal float64
	for _, item := range i.Items {
		subtotal += item.Total
	}
	i.Subtotal = subtotal
	i.TaxAmount = subtotal * (i.TaxRate / 100)
	i.Total = i.Subtotal + i.TaxAmount - i.DiscountAmount
}

// InvoiceItem is a line on an invoice. Lines are replaced wholesale on edit;
// no line identity survives an invoice update.
type InvoiceItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	InvoiceID uint     `gorm:"index;not null" json:"invoice_id"`
	Invoice   *Invoice `gorm:"foreignKey:InvoiceID" json:"-"`

	Description string  `gorm:"size:500;not null" json:"description"`
	Quantity    float64 `gorm:"default:1" json:"quantity"`
	UnitPrice   float64 `gorm:"default:0" json:"unit_price"`
	Total       float64 `gorm:"default:0" json:"total"`
}

// CalculateTotal recomputes the derived line total (quantity * unit price).
func (item *InvoiceItem) CalculateTotal() {
	item.Total = item.Quantity * item.UnitPrice
}
