package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestInvoice_IsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status InvoiceStatus
		due    time.Time
		want   bool
	}{
		{name: "pending past due", status: InvoiceStatusPending, due: now.Add(-time.Hour), want: true},
		{name: "pending not yet due", status: InvoiceStatusPending, due: now.Add(time.Hour), want: false},
		{name: "paid past due", status: InvoiceStatusPaid, due: now.Add(-time.Hour), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{Status: tt.status, DueDate: tt.due}
			assert.Equal(t, tt.want, inv.IsOverdue(now))
		})
	}
}

func TestInvoice_ItemsTotal(t *testing.T) {
	inv := &Invoice{Items: []InvoiceItem{
		{Quantity: 3, UnitPrice: decimal.RequireFromString("19.99")},
		{Quantity: 1, UnitPrice: decimal.RequireFromString("0.03")},
	}}

	assert.True(t, decimal.RequireFromString("60.00").Equal(inv.ItemsTotal()))
	assert.True(t, decimal.RequireFromString("59.97").Equal(inv.Items[0].TotalPrice()))
}

func TestInvoice_MarkAsPaid(t *testing.T) {
	now := time.Now()
	inv := &Invoice{Status: InvoiceStatusPending}

	inv.MarkAsPaid("card", "ref-1", now)

	assert.Equal(t, InvoiceStatusPaid, inv.Status)
	assert.Equal(t, "card", inv.PaymentMethod)
	assert.Equal(t, "ref-1", inv.PaymentReference)
	if assert.NotNil(t, inv.PaymentDate) {
		assert.True(t, inv.PaymentDate.Equal(now))
	}
}

func TestUser_PrimaryRole(t *testing.T) {
	u := &User{Roles: []Role{{Name: RoleCustomer}, {Name: RoleAdmin}}}
	assert.Equal(t, RoleAdmin, u.PrimaryRole())
	assert.True(t, u.HasRole("customer"))

	assert.Equal(t, "", (&User{}).PrimaryRole())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "A@X.COM", NormalizeEmail("  a@X.com "))
}
