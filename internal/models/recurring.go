package models

import "time"

// Frequency is the cadence of a recurring invoice schedule.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// ValidFrequency reports whether f is one of the accepted cadences.
func ValidFrequency(f Frequency) bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// RecurringStatus is the lifecycle status of a schedule. Only active
// schedules are eligible for generation.
type RecurringStatus string

const (
	RecurringStatusActive    RecurringStatus = "active"
	RecurringStatusPaused    RecurringStatus = "paused"
	RecurringStatusCancelled RecurringStatus = "cancelled"
)

// RecurringInvoice is a template schedule that periodically materializes
// draft invoices. NextDueDate is the generation cursor: it always sits at or
// after StartDate and strictly advances after each successful generation.
type RecurringInvoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	ClientID uint    `gorm:"index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	Name      string    `gorm:"size:100;not null" json:"name"`
	Frequency Frequency `gorm:"size:20;not null" json:"frequency"`
	Status    RecurringStatus `gorm:"size:20;default:'active'" json:"status"`

	StartDate time.Time  `gorm:"not null" json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	NextDueDate   time.Time  `gorm:"not null;index" json:"next_due_date"`
	LastGenerated *time.Time `json:"last_generated,omitempty"`

	// Template payload copied onto every generated invoice.
	Currency         string  `gorm:"size:3;default:'USD'" json:"currency"`
	TaxRate          float64 `gorm:"default:0" json:"tax_rate"`
	DiscountAmount   float64 `gorm:"default:0" json:"discount_amount"`
	Notes            string  `gorm:"type:text" json:"notes,omitempty"`
	Terms            string  `gorm:"type:text" json:"terms,omitempty"`
	PaymentTermsDays int     `gorm:"default:30" json:"payment_terms_days"`

	Items []RecurringInvoiceItem `gorm:"foreignKey:RecurringInvoiceID" json:"items,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (r *RecurringInvoice) GetUserID() uint {
	return r.UserID
}

// IsActive returns true if the schedule is eligible for generation.
func (r *RecurringInvoice) IsActive() bool {
	return r.Status == RecurringStatusActive
}

// Expired returns true if the schedule's inclusive end date lies before ref.
func (r *RecurringInvoice) Expired(ref time.Time) bool {
	return r.EndDate != nil && r.EndDate.Before(ref)
}

// RecurringInvoiceItem is a template line cloned onto generated invoices.
type RecurringInvoiceItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	RecurringInvoiceID uint              `gorm:"index;not null" json:"recurring_invoice_id"`
	RecurringInvoice   *RecurringInvoice `gorm:"foreignKey:RecurringInvoiceID" json:"-"`

	Description string  `gorm:"size:500;not null" json:"description"`
	Quantity    float64 `gorm:"default:1" json:"quantity"`
	UnitPrice   float64 `gorm:"default:0" json:"unit_price"`
	Position    int     `gorm:"default:0" json:"position"`
}
