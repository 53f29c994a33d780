package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus represents the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending       InvoiceStatus = "Pending"
	InvoiceStatusPaid          InvoiceStatus = "Paid"
	InvoiceStatusOverdue       InvoiceStatus = "Overdue"
	InvoiceStatusCancelled     InvoiceStatus = "Cancelled"
	InvoiceStatusDisputed      InvoiceStatus = "Disputed"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PartiallyPaid"
)

// Valid reports whether s is a known invoice status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue,
		InvoiceStatusCancelled, InvoiceStatusDisputed, InvoiceStatusPartiallyPaid:
		return true
	}
	return false
}

// Invoice is a bill owned by a user.
type Invoice struct {
	ID               uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	InvoiceNumber    string          `json:"invoiceNumber" gorm:"size:50;not null;uniqueIndex"`
	UserID           uuid.UUID       `json:"userId" gorm:"type:char(36);not null;index"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:decimal(18,2);not null"`
	DueDate          time.Time       `json:"dueDate" gorm:"not null"`
	IssueDate        time.Time       `json:"issueDate" gorm:"not null"`
	PaymentDate      *time.Time      `json:"paymentDate,omitempty"`
	Status           InvoiceStatus   `json:"status" gorm:"type:varchar(20);not null;default:'Pending';index"`
	Description      string          `json:"description,omitempty" gorm:"size:500"`
	PaymentMethod    string          `json:"paymentMethod,omitempty" gorm:"size:100"`
	PaymentReference string          `json:"paymentReference,omitempty" gorm:"size:100"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
	DeletedAt        gorm.DeletedAt  `json:"-" gorm:"index"`

	// Relations
	User  User          `json:"-" gorm:"foreignKey:UserID"`
	Items []InvoiceItem `json:"items,omitempty" gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID and default status before creating the record.
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Status == "" {
		i.Status = InvoiceStatusPending
	}
	return nil
}

// IsOverdue reports whether a pending invoice is past its due date.
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status == InvoiceStatusPending && i.DueDate.Before(now)
}

// ItemsTotal sums the line totals.
func (i *Invoice) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range i.Items {
		total = total.Add(item.TotalPrice())
	}
	return total
}

// MarkAsPaid settles the invoice.
func (i *Invoice) MarkAsPaid(method, reference string, now time.Time) {
	i.Status = InvoiceStatusPaid
	i.PaymentDate = &now
	i.PaymentMethod = method
	i.PaymentReference = reference
}

// UpdateStatus moves the invoice to a new status.
func (i *Invoice) UpdateStatus(status InvoiceStatus) {
	i.Status = status
}

// InvoiceItem is a single line on an invoice.
type InvoiceItem struct {
	ID          uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	InvoiceID   uuid.UUID       `json:"invoiceId" gorm:"type:char(36);not null;index"`
	Description string          `json:"description" gorm:"size:200;not null"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	UnitPrice   decimal.Decimal `json:"unitPrice" gorm:"type:decimal(18,2);not null"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}

// TotalPrice is quantity times unit price.
func (it InvoiceItem) TotalPrice() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}
