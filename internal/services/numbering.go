package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/invoiceapp/internal/models"
)

// Document number prefixes.
const (
	PrefixInvoice  = "INV"
	PrefixEstimate = "EST"
)

// NumberSpec describes one number allocation request.
type NumberSpec struct {
	UserID uint
	Prefix string // PrefixInvoice or PrefixEstimate
	Now    time.Time
}

// NextDocumentNumber allocates the next number in the form
// <PREFIX>-<YYYYMM>-<NNNN>. The sequence continues from the numeric suffix of
// the owner's most recently created document (by creation order, not by the
// embedded date); a missing or unparsable suffix resets the sequence to 1.
//
// Two concurrent allocations for the same owner can observe the same latest
// document and mint the same number. Callers that need stronger guarantees
// must serialize per owner (the generation engine's per-schedule transaction
// keeps the window small); an atomic per-owner counter would change the
// observable numbering, so the lookup scheme is kept as-is.
func NextDocumentNumber(tx *gorm.DB, spec NumberSpec) (string, error) {
	var last string
	var err error
	switch spec.Prefix {
	case PrefixInvoice:
		var inv models.Invoice
		err = tx.Select("number").Where("user_id = ?", spec.UserID).Order("id desc").First(&inv).Error
		last = inv.Number
	case PrefixEstimate:
		var est models.Estimate
		err = tx.Select("number").Where("user_id = ?", spec.UserID).Order("id desc").First(&est).Error
		last = est.Number
	default:
		return "", fmt.Errorf("unknown_number_prefix: %s", spec.Prefix)
	}

	seq := 1
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// first document for this owner
	case err != nil:
		return "", err
	default:
		seq = nextSequence(last)
	}
	return fmt.Sprintf("%s-%s-%04d", spec.Prefix, spec.Now.Format("200601"), seq), nil
}

// nextSequence parses the numeric suffix of a document number and increments
// it. Unparsable suffixes reset to 1 (lossy, but matches existing data).
func nextSequence(number string) int {
	parts := strings.Split(number, "-")
	n, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || n < 0 {
		return 1
	}
	return n + 1
}
