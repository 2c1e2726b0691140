package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/invoiceapp/internal/models"
)

// notificationDebounce is the minimum gap between two views before a second
// owner notification is raised.
const notificationDebounce = 3600 * time.Second

// TrackingService records public invoice views and raises debounced owner
// notifications.
type TrackingService struct {
	db *gorm.DB
}

func NewTrackingService(db *gorm.DB) *TrackingService {
	return &TrackingService{db: db}
}

// RecordView appends one view record for the invoice, maintains the
// first/last viewed timestamps and the view counter, and notifies the owner
// iff this is the first view ever or the previous view is more than an hour
// older. Repeated page loads within the window update the counters but stay
// silent.
func (s *TrackingService) RecordView(invoiceID uint, at time.Time, sourceIP, userAgent string) (notified bool, err error) {
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := tx.Preload("Client").First(&inv, invoiceID).Error; err != nil {
			return err
		}

		var prev models.InvoiceView
		prevErr := tx.Where("invoice_id = ?", inv.ID).Order("viewed_at desc, id desc").First(&prev).Error
		firstEver := errors.Is(prevErr, gorm.ErrRecordNotFound)
		if prevErr != nil && !firstEver {
			return prevErr
		}

		view := models.InvoiceView{
			InvoiceID: inv.ID,
			ViewedAt:  at,
			SourceIP:  sourceIP,
			UserAgent: userAgent,
		}
		if err := tx.Create(&view).Error; err != nil {
			return err
		}

		updates := map[string]any{
			"view_count":     gorm.Expr("view_count + 1"),
			"last_viewed_at": at,
		}
		if inv.FirstViewedAt == nil {
			updates["first_viewed_at"] = at
		}
		if err := tx.Model(&inv).Updates(updates).Error; err != nil {
			return err
		}

		if firstEver || at.Sub(prev.ViewedAt) > notificationDebounce {
			clientName := ""
			if inv.Client != nil {
				clientName = inv.Client.Name
			}
			note := models.Notification{
				UserID: inv.UserID,
				Type:   models.NotificationTypeInvoiceViewed,
				Title:  fmt.Sprintf("Invoice %s viewed", inv.Number),
				Message: fmt.Sprintf("%s viewed invoice %s (%s %.2f)",
					clientName, inv.Number, inv.Currency, inv.Total),
				Link: fmt.Sprintf("/invoices/%d", inv.ID),
			}
			if err := tx.Create(&note).Error; err != nil {
				return err
			}
			notified = true
		}
		return nil
	})
	return notified, err
}

// Notifications returns the owner's inbox, newest first.
func (s *TrackingService) Notifications(userID uint, unreadOnly bool) ([]models.Notification, error) {
	q := s.db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var notes []models.Notification
	if err := q.Order("created_at desc, id desc").Find(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

// MarkRead flips one notification to read, scoped to the owner.
func (s *TrackingService) MarkRead(userID, id uint) error {
	res := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead flips every unread notification of the owner to read.
func (s *TrackingService) MarkAllRead(userID uint) (int64, error) {
	res := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}
