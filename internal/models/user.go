package models

import "time"

// User is the account owning clients, invoices, estimates and schedules.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email        string `gorm:"size:120;unique;not null;index" json:"email"`
	PasswordHash string `gorm:"size:256;not null" json:"-"`
	Name         string `gorm:"size:100;not null" json:"name"`
	CompanyName  string `gorm:"size:100" json:"company_name,omitempty"`
	Address      string `gorm:"type:text" json:"address,omitempty"`
	Phone        string `gorm:"size:20" json:"phone,omitempty"`
	LogoURL      string `gorm:"size:500" json:"logo_url,omitempty"`

	// Invoice defaults applied when the user leaves fields blank.
	DefaultCurrency     string `gorm:"size:3;default:'USD'" json:"default_currency"`
	DefaultPaymentTerms int    `gorm:"default:30" json:"default_payment_terms"`
	DefaultNotes        string `gorm:"type:text" json:"default_notes,omitempty"`
}
