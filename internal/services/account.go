package services

import (
	"gorm.io/gorm"

	"github.com/diewo77/invoiceapp/internal/models"
)

// AccountService owns account-level operations, in particular the explicit
// cascading delete over the ownership graph (no reliance on ORM-implicit
// cascades).
type AccountService struct {
	db *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// DeleteUser removes the user and everything it owns in one transaction:
// line items and view logs first, then documents, schedules, notifications,
// clients, and finally the user row itself.
func (s *AccountService) DeleteUser(userID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		invoiceIDs := tx.Model(&models.Invoice{}).Select("id").Where("user_id = ?", userID)
		if err := tx.Where("invoice_id IN (?)", invoiceIDs).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id IN (?)", invoiceIDs).Delete(&models.InvoiceView{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Invoice{}).Error; err != nil {
			return err
		}

		estimateIDs := tx.Model(&models.Estimate{}).Select("id").Where("user_id = ?", userID)
		if err := tx.Where("estimate_id IN (?)", estimateIDs).Delete(&models.EstimateItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Estimate{}).Error; err != nil {
			return err
		}

		scheduleIDs := tx.Model(&models.RecurringInvoice{}).Select("id").Where("user_id = ?", userID)
		if err := tx.Where("recurring_invoice_id IN (?)", scheduleIDs).Delete(&models.RecurringInvoiceItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.RecurringInvoice{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Client{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, userID).Error
	})
}

// DeleteSchedule removes a recurring schedule and its template items.
// Previously generated invoices keep their provenance marker and survive.
func (s *AccountService) DeleteSchedule(userID, scheduleID uint) error {
	var sched models.RecurringInvoice
	if err := s.db.Where("user_id = ?", userID).First(&sched, scheduleID).Error; err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recurring_invoice_id = ?", sched.ID).Delete(&models.RecurringInvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&sched).Error
	})
}
