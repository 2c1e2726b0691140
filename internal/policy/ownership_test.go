package policy

import (
	"testing"

	"github.com/diewo77/invoiceapp/internal/models"
)

func TestOwns(t *testing.T) {
	inv := &models.Invoice{UserID: 7}
	sched := &models.RecurringInvoice{UserID: 7}

	cases := []struct {
		name     string
		userID   uint
		resource any
		want     bool
	}{
		{"owner invoice", 7, inv, true},
		{"foreign invoice", 8, inv, false},
		{"owner schedule", 7, sched, true},
		{"nil resource allowed", 7, nil, true},
		{"non-ownable denied", 7, "a string", false},
		{"non-ownable struct denied", 7, struct{}{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Owns(tc.userID, tc.resource); got != tc.want {
				t.Fatalf("Owns(%d, %T) = %v, want %v", tc.userID, tc.resource, got, tc.want)
			}
		})
	}
}
