package models

import (
	"testing"
	"time"
)

func TestInvoiceCalculateTotals(t *testing.T) {
	cases := []struct {
		name         string
		items        []InvoiceItem
		taxRate      float64
		discount     float64
		wantSubtotal float64
		wantTax      float64
		wantTotal    float64
	}{
		{
			name: "plain sum",
			items: []InvoiceItem{
				{Quantity: 2, UnitPrice: 10},
				{Quantity: 1.5, UnitPrice: 4},
			},
			wantSubtotal: 26, wantTax: 0, wantTotal: 26,
		},
		{
			name: "with tax and discount",
			items: []InvoiceItem{
				{Quantity: 1, UnitPrice: 100},
			},
			taxRate: 20, discount: 10,
			wantSubtotal: 100, wantTax: 20, wantTotal: 110,
		},
		{
			name:         "no items",
			wantSubtotal: 0, wantTax: 0, wantTotal: 0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv := Invoice{TaxRate: tc.taxRate, DiscountAmount: tc.discount, Items: tc.items}
			for i := range inv.Items {
				inv.Items[i].CalculateTotal()
			}
			inv.CalculateTotals()
			if inv.Subtotal != tc.wantSubtotal || inv.TaxAmount != tc.wantTax || inv.Total != tc.wantTotal {
				t.Fatalf("totals = %v/%v/%v, want %v/%v/%v",
					inv.Subtotal, inv.TaxAmount, inv.Total,
					tc.wantSubtotal, tc.wantTax, tc.wantTotal)
			}
		})
	}
}

func TestValidInvoiceStatus(t *testing.T) {
	for _, s := range []InvoiceStatus{InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled} {
		if !ValidInvoiceStatus(s) {
			t.Errorf("%s rejected", s)
		}
	}
	if ValidInvoiceStatus("archived") {
		t.Errorf("unknown status accepted")
	}
}

func TestRecurringExpired(t *testing.T) {
	ref := time.Date(2024, time.June, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	open := RecurringInvoice{}
	if open.Expired(ref) {
		t.Errorf("schedule without end date reported expired")
	}
	ended := RecurringInvoice{EndDate: &end}
	if !ended.Expired(ref) {
		t.Errorf("past end date not reported expired")
	}
	// The end date itself is still in range.
	if ended.Expired(end) {
		t.Errorf("end date treated as exclusive")
	}
}

func TestValidFrequency(t *testing.T) {
	for _, f := range []Frequency{FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly} {
		if !ValidFrequency(f) {
			t.Errorf("%s rejected", f)
		}
	}
	if ValidFrequency("daily") {
		t.Errorf("unknown frequency accepted")
	}
}
