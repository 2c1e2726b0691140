package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/diewo77/invoiceapp/internal/models"
)

var (
	// ErrCursorMoved signals that another generation run advanced the
	// schedule cursor first; the losing transaction rolls back silently.
	ErrCursorMoved = errors.New("schedule_cursor_moved")

	// ErrScheduleCancelled is returned when manual generation targets a
	// cancelled schedule.
	ErrScheduleCancelled = errors.New("schedule_cancelled")
)

// NextDueDate computes the due date following current for the given cadence.
// Month-based cadences use calendar arithmetic: the day of month is kept
// where valid and clamped to the last day of shorter target months
// (Jan 31 + 1 month = Feb 29 in leap years, Feb 28 otherwise).
// Unknown frequencies fall back to monthly.
func NextDueDate(current time.Time, frequency models.Frequency) time.Time {
	switch frequency {
	case models.FrequencyWeekly:
		return current.AddDate(0, 0, 7)
	case models.FrequencyQuarterly:
		return addMonthsClamped(current, 3)
	case models.FrequencyYearly:
		return addMonthsClamped(current, 12)
	case models.FrequencyMonthly:
		return addMonthsClamped(current, 1)
	default:
		return addMonthsClamped(current, 1)
	}
}

// addMonthsClamped adds calendar months without the day-overflow
// normalization of time.AddDate.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month, 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// RecurringService owns the recurring invoice generation engine.
type RecurringService struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewRecurringService(db *gorm.DB, log zerolog.Logger) *RecurringService {
	return &RecurringService{db: db, log: log}
}

// RunDueGenerations materializes one invoice for every schedule due at or
// before now and returns the number generated. Each schedule is processed in
// its own transaction, so one failure never blocks the rest of the batch.
// Safe to call from concurrent triggers: the cursor advance is a
// compare-and-swap, so a cycle claimed by another caller is skipped.
func (s *RecurringService) RunDueGenerations(now time.Time) (int, error) {
	var due []models.RecurringInvoice
	err := s.db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc, id asc") }).
		Where("status = ? AND next_due_date <= ? AND (end_date IS NULL OR end_date >= ?)",
			models.RecurringStatusActive, now, now).
		Find(&due).Error
	if err != nil {
		return 0, fmt.Errorf("select due schedules: %w", err)
	}

	generated := 0
	for i := range due {
		sched := &due[i]
		inv, genErr := s.generate(sched, now)
		switch {
		case errors.Is(genErr, ErrCursorMoved):
			s.log.Debug().Uint("schedule_id", sched.ID).Msg("cycle already claimed, skipping")
		case genErr != nil:
			s.log.Error().Err(genErr).Uint("schedule_id", sched.ID).Msg("generation failed")
		default:
			generated++
			s.log.Info().
				Uint("schedule_id", sched.ID).
				Uint("invoice_id", inv.ID).
				Str("number", inv.Number).
				Msg("invoice generated")
		}
	}
	return generated, nil
}

// GenerateNow materializes an invoice from the schedule immediately,
// bypassing the due-date check. The cursor still advances from its current
// position so future automatic cycles stay correct.
func (s *RecurringService) GenerateNow(scheduleID uint, now time.Time) (*models.Invoice, error) {
	var sched models.RecurringInvoice
	err := s.db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc, id asc") }).
		First(&sched, scheduleID).Error
	if err != nil {
		return nil, err
	}
	if sched.Status == models.RecurringStatusCancelled {
		return nil, ErrScheduleCancelled
	}
	return s.generate(&sched, now)
}

// generate runs one clone-and-advance cycle inside a single transaction.
// The cursor update and the invoice insert commit together; on any error the
// cursor stays where it was so the cycle can be retried.
func (s *RecurringService) generate(sched *models.RecurringInvoice, now time.Time) (*models.Invoice, error) {
	if !models.ValidFrequency(sched.Frequency) {
		s.log.Warn().
			Uint("schedule_id", sched.ID).
			Str("frequency", string(sched.Frequency)).
			Msg("unknown frequency, advancing monthly")
	}

	var inv *models.Invoice
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Claim this cycle: advance the cursor only if nobody else has.
		next := NextDueDate(sched.NextDueDate, sched.Frequency)
		res := tx.Model(&models.RecurringInvoice{}).
			Where("id = ? AND next_due_date = ?", sched.ID, sched.NextDueDate).
			Updates(map[string]any{"next_due_date": next, "last_generated": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCursorMoved
		}

		number, err := NextDocumentNumber(tx, NumberSpec{
			UserID: sched.UserID,
			Prefix: PrefixInvoice,
			Now:    now,
		})
		if err != nil {
			return err
		}

		scheduleID := sched.ID
		inv = &models.Invoice{
			UserID:             sched.UserID,
			ClientID:           sched.ClientID,
			Number:             number,
			Status:             models.InvoiceStatusDraft,
			IssueDate:          now,
			DueDate:            now.AddDate(0, 0, sched.PaymentTermsDays),
			Currency:           sched.Currency,
			TaxRate:            sched.TaxRate,
			DiscountAmount:     sched.DiscountAmount,
			Notes:              provenanceNotes(sched.Name, sched.Notes),
			Terms:              sched.Terms,
			RecurringInvoiceID: &scheduleID,
			PublicLink:         uuid.NewString(),
		}
		if err := tx.Create(inv).Error; err != nil {
			return err
		}

		// Independent copies: mutating the generated invoice must never
		// touch the template lines.
		items := make([]models.InvoiceItem, 0, len(sched.Items))
		for _, tmpl := range sched.Items {
			item := models.InvoiceItem{
				InvoiceID:   inv.ID,
				Description: tmpl.Description,
				Quantity:    tmpl.Quantity,
				UnitPrice:   tmpl.UnitPrice,
			}
			item.CalculateTotal()
			items = append(items, item)
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}

		inv.Items = items
		inv.CalculateTotals()
		return tx.Model(inv).Updates(map[string]any{
			"subtotal":   inv.Subtotal,
			"tax_amount": inv.TaxAmount,
			"total":      inv.Total,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	sched.NextDueDate = NextDueDate(sched.NextDueDate, sched.Frequency)
	lastGen := now
	sched.LastGenerated = &lastGen
	return inv, nil
}

// SetStatus toggles a schedule between active, paused and cancelled. The
// cursor is deliberately untouched: pausing then resuming neither skips nor
// fast-forwards cycles, and a resumed overdue schedule catches up exactly one
// cycle on the next run.
func (s *RecurringService) SetStatus(scheduleID uint, status models.RecurringStatus) error {
	switch status {
	case models.RecurringStatusActive, models.RecurringStatusPaused, models.RecurringStatusCancelled:
	default:
		return fmt.Errorf("invalid_schedule_status: %s", status)
	}
	res := s.db.Model(&models.RecurringInvoice{}).
		Where("id = ?", scheduleID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RecurringInput carries the editable fields of a schedule.
type RecurringInput struct {
	ClientID         uint        `json:"client_id"`
	Name             string      `json:"name"`
	Frequency        models.Frequency `json:"frequency"`
	StartDate        time.Time   `json:"start_date"`
	EndDate          *time.Time  `json:"end_date,omitempty"`
	Currency         string      `json:"currency"`
	TaxRate          float64     `json:"tax_rate"`
	DiscountAmount   float64     `json:"discount_amount"`
	Notes            string      `json:"notes"`
	Terms            string      `json:"terms"`
	PaymentTermsDays int         `json:"payment_terms_days"`
	Items            []LineInput `json:"items"`
}

// Create persists a new active schedule. The cursor starts at the start
// date, which keeps the next_due_date >= start_date invariant by
// construction.
func (s *RecurringService) Create(userID uint, in RecurringInput) (*models.RecurringInvoice, error) {
	sched := &models.RecurringInvoice{
		UserID:           userID,
		ClientID:         in.ClientID,
		Name:             in.Name,
		Frequency:        in.Frequency,
		Status:           models.RecurringStatusActive,
		StartDate:        in.StartDate,
		EndDate:          in.EndDate,
		NextDueDate:      in.StartDate,
		Currency:         in.Currency,
		TaxRate:          in.TaxRate,
		DiscountAmount:   in.DiscountAmount,
		Notes:            in.Notes,
		Terms:            in.Terms,
		PaymentTermsDays: in.PaymentTermsDays,
	}
	if sched.Currency == "" {
		sched.Currency = "USD"
	}
	if sched.PaymentTermsDays == 0 {
		sched.PaymentTermsDays = 30
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sched).Error; err != nil {
			return err
		}
		items := buildTemplateItems(sched.ID, in.Items)
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		sched.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sched, nil
}

func buildTemplateItems(scheduleID uint, lines []LineInput) []models.RecurringInvoiceItem {
	items := make([]models.RecurringInvoiceItem, 0, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line.Description) == "" {
			continue
		}
		qty := line.Quantity
		if qty == 0 {
			qty = 1
		}
		items = append(items, models.RecurringInvoiceItem{
			RecurringInvoiceID: scheduleID,
			Description:        line.Description,
			Quantity:           qty,
			UnitPrice:          line.UnitPrice,
			Position:           i,
		})
	}
	return items
}

// Get loads one schedule with template items, scoped to the owner.
func (s *RecurringService) Get(userID, id uint) (*models.RecurringInvoice, error) {
	var sched models.RecurringInvoice
	err := s.db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc, id asc") }).
		Preload("Client").
		Where("user_id = ?", userID).First(&sched, id).Error
	if err != nil {
		return nil, err
	}
	return &sched, nil
}

// List returns the owner's schedules, newest first.
func (s *RecurringService) List(userID uint) ([]models.RecurringInvoice, error) {
	var scheds []models.RecurringInvoice
	err := s.db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc, id asc") }).
		Preload("Client").
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&scheds).Error
	return scheds, err
}

// Update replaces the template fields and items wholesale. The generation
// cursor (next_due_date, last_generated) is owned by the engine and never
// written here.
func (s *RecurringService) Update(userID, id uint, in RecurringInput) (*models.RecurringInvoice, error) {
	var sched models.RecurringInvoice
	if err := s.db.Where("user_id = ?", userID).First(&sched, id).Error; err != nil {
		return nil, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{
			"client_id":          in.ClientID,
			"name":               in.Name,
			"frequency":          in.Frequency,
			"end_date":           in.EndDate,
			"tax_rate":           in.TaxRate,
			"discount_amount":    in.DiscountAmount,
			"notes":              in.Notes,
			"terms":              in.Terms,
			"payment_terms_days": in.PaymentTermsDays,
		}
		if in.Currency != "" {
			updates["currency"] = in.Currency
		}
		if err := tx.Model(&sched).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Where("recurring_invoice_id = ?", sched.ID).Delete(&models.RecurringInvoiceItem{}).Error; err != nil {
			return err
		}
		items := buildTemplateItems(sched.ID, in.Items)
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		sched.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sched, nil
}

func provenanceNotes(scheduleName, notes string) string {
	tag := fmt.Sprintf("Generated from recurring schedule %q", scheduleName)
	if strings.TrimSpace(notes) == "" {
		return tag
	}
	return tag + "\n" + notes
}
