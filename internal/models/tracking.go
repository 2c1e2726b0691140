package models

import "time"

// InvoiceView is one public view of an invoice. Rows are append-only; the
// tracker never updates or deletes them.
type InvoiceView struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	InvoiceID uint     `gorm:"index;not null" json:"invoice_id"`
	Invoice   *Invoice `gorm:"foreignKey:InvoiceID" json:"-"`

	ViewedAt  time.Time `gorm:"not null;index" json:"viewed_at"`
	SourceIP  string    `gorm:"size:45" json:"source_ip,omitempty"`
	UserAgent string    `gorm:"size:500" json:"user_agent,omitempty"`
}

// NotificationType distinguishes notification sources.
type NotificationType string

const (
	NotificationTypeInvoiceViewed NotificationType = "invoice_viewed"
)

// Notification is a read/unread inbox entry for a user.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Type    NotificationType `gorm:"size:40;not null" json:"type"`
	Title   string           `gorm:"size:200" json:"title"`
	Message string           `gorm:"type:text" json:"message"`
	Link    string           `gorm:"size:500" json:"link,omitempty"`
	Read    bool             `gorm:"default:false;index" json:"read"`
}

// GetUserID implements the Ownable interface for authorization.
func (n *Notification) GetUserID() uint {
	return n.UserID
}
