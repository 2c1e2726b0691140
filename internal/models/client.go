package models

import "time"

// Client is a billable customer belonging to one user.
type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Name        string `gorm:"size:100;not null;index" json:"name"`
	Email       string `gorm:"size:120" json:"email,omitempty"`
	CompanyName string `gorm:"size:100" json:"company_name,omitempty"`
	Address     string `gorm:"type:text" json:"address,omitempty"`
	Phone       string `gorm:"size:20" json:"phone,omitempty"`
	Notes       string `gorm:"type:text" json:"notes,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (c *Client) GetUserID() uint {
	return c.UserID
}
