package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/invoiceapp/internal/models"
)

// DashboardStats summarizes an owner's invoicing activity.
type DashboardStats struct {
	TotalInvoices int64   `json:"total_invoices"`
	PaidInvoices  int64   `json:"paid_invoices"`
	PendingAmount float64 `json:"pending_amount"`
}

// MonthRevenue is one month of paid revenue for the dashboard chart.
type MonthRevenue struct {
	Month  string  `json:"month"`
	Amount float64 `json:"amount"`
}

// DashboardService aggregates reporting queries.
type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// Stats returns the headline counters: invoice count, paid count, and total
// outstanding (sent or overdue) amount.
func (s *DashboardService) Stats(userID uint) (DashboardStats, error) {
	var out DashboardStats
	if err := s.db.Model(&models.Invoice{}).Where("user_id = ?", userID).Count(&out.TotalInvoices).Error; err != nil {
		return out, err
	}
	if err := s.db.Model(&models.Invoice{}).
		Where("user_id = ? AND status = ?", userID, models.InvoiceStatusPaid).
		Count(&out.PaidInvoices).Error; err != nil {
		return out, err
	}
	err := s.db.Model(&models.Invoice{}).
		Where("user_id = ? AND status IN ?", userID, []models.InvoiceStatus{models.InvoiceStatusSent, models.InvoiceStatusOverdue}).
		Select("COALESCE(SUM(total), 0)").
		Scan(&out.PendingAmount).Error
	return out, err
}

// MonthlyRevenue returns paid revenue per month for the last n months,
// oldest first. Revenue is attributed to the paid date.
func (s *DashboardService) MonthlyRevenue(userID uint, now time.Time, n int) ([]MonthRevenue, error) {
	out := make([]MonthRevenue, 0, n)
	for i := n - 1; i >= 0; i-- {
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
		monthEnd := monthStart.AddDate(0, 1, 0)
		if i == 0 {
			monthEnd = now
		}
		var amount float64
		err := s.db.Model(&models.Invoice{}).
			Where("user_id = ? AND status = ? AND paid_date >= ? AND paid_date < ?",
				userID, models.InvoiceStatusPaid, monthStart, monthEnd).
			Select("COALESCE(SUM(total), 0)").
			Scan(&amount).Error
		if err != nil {
			return nil, err
		}
		out = append(out, MonthRevenue{Month: monthStart.Format("Jan"), Amount: amount})
	}
	return out, nil
}

// RecentInvoices returns the owner's latest invoices for the dashboard.
func (s *DashboardService) RecentInvoices(userID uint, limit int) ([]models.Invoice, error) {
	var invs []models.Invoice
	err := s.db.Preload("Client").
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&invs).Error
	return invs, err
}
