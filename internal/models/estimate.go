package models

import "time"

// EstimateStatus represents the status of an estimate.
type EstimateStatus string

const (
	EstimateStatusDraft     EstimateStatus = "draft"
	EstimateStatusSent      EstimateStatus = "sent"
	EstimateStatusAccepted  EstimateStatus = "accepted"
	EstimateStatusDeclined  EstimateStatus = "declined"
	EstimateStatusConverted EstimateStatus = "converted"
)

// Estimate is a quote sent to a client before invoicing. An accepted
// estimate can be converted into an invoice exactly once.
type Estimate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	ClientID uint    `gorm:"index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	Number string         `gorm:"size:50;not null;index" json:"number"`
	Status EstimateStatus `gorm:"size:20;default:'draft'" json:"status"`

	IssueDate  time.Time `gorm:"not null" json:"issue_date"`
	ExpiryDate time.Time `json:"expiry_date"`

	Currency       string  `gorm:"size:3;default:'USD'" json:"currency"`
	Subtotal       float64 `gorm:"default:0" json:"subtotal"`
	TaxRate        float64 `gorm:"default:0" json:"tax_rate"`
	TaxAmount      float64 `gorm:"default:0" json:"tax_amount"`
	DiscountAmount float64 `gorm:"default:0" json:"discount_amount"`
	Total          float64 `gorm:"default:0" json:"total"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`
	Terms string `gorm:"type:text" json:"terms,omitempty"`

	// Set once the estimate has been converted into an invoice.
	ConvertedInvoiceID *uint `gorm:"index" json:"converted_invoice_id,omitempty"`

	Items []EstimateItem `gorm:"foreignKey:EstimateID" json:"items,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (e *Estimate) GetUserID() uint {
	return e.UserID
}

// IsConverted returns true once an invoice has been created from the estimate.
func (e *Estimate) IsConverted() bool {
	return e.Status == EstimateStatusConverted
}

// CalculateTotals recomputes the derived financial fields from the items.
func (e *Estimate) CalculateTotals() {
	var subtotal float64
	for _, item := range e.Items {
		subtotal += item.Total
	}
	e.Subtotal = subtotal
	e.TaxAmount = subtotal * (e.TaxRate / 100)
	e.Total = e.Subtotal + e.TaxAmount - e.DiscountAmount
}

// EstimateItem is a line on an estimate, replaced wholesale on edit.
type EstimateItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EstimateID uint      `gorm:"index;not null" json:"estimate_id"`
	Estimate   *Estimate `gorm:"foreignKey:EstimateID" json:"-"`

	Description string  `gorm:"size:500;not null" json:"description"`
	Quantity    float64 `gorm:"default:1" json:"quantity"`
	UnitPrice   float64 `gorm:"default:0" json:"unit_price"`
	Total       float64 `gorm:"default:0" json:"total"`
}

// CalculateTotal recomputes the derived line total.
func (item *EstimateItem) CalculateTotal() {
	item.Total = item.Quantity * item.UnitPrice
}
