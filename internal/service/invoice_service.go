package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoicepay/internal/cache"
	apperrors "invoicepay/internal/errors"
	"invoicepay/internal/model"
	"invoicepay/internal/repository"
)

const invoiceCacheTTL = 5 * time.Minute

// Caller identifies who is acting on an invoice.
type Caller struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// CreateInvoiceInput describes a new invoice.
type CreateInvoiceInput struct {
	InvoiceNumber string
	IssueDate     time.Time
	DueDate       time.Time
	Description   string
	Items         []InvoiceItemInput
}

// InvoiceItemInput describes one line of a new invoice.
type InvoiceItemInput struct {
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// InvoiceService handles invoice operations.
type InvoiceService interface {
	Create(ctx context.Context, owner uuid.UUID, input CreateInvoiceInput) (*model.Invoice, error)
	List(ctx context.Context, caller Caller) ([]model.Invoice, error)
	Get(ctx context.Context, caller Caller, id uuid.UUID) (*model.Invoice, error)
	Pay(ctx context.Context, caller Caller, id uuid.UUID, method, reference string) (*model.Invoice, error)
	UpdateStatus(ctx context.Context, caller Caller, id uuid.UUID, status model.InvoiceStatus) (*model.Invoice, error)
	Cancel(ctx context.Context, caller Caller, id uuid.UUID) (*model.Invoice, error)
}

type invoiceService struct {
	repo  repository.InvoiceRepository
	cache *cache.Client
	now   func() time.Time
	// Mutex map for per-invoice read-modify-write
	invoiceMutexes sync.Map
}

// NewInvoiceService creates a new invoice service.
func NewInvoiceService(repo repository.InvoiceRepository, cache *cache.Client) InvoiceService {
	return &invoiceService{
		repo:  repo,
		cache: cache,
		now:   time.Now,
	}
}

func (s *invoiceService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("invoice:%s", id.String())
}

func (s *invoiceService) getMutex(id uuid.UUID) *sync.Mutex {
	value, _ := s.invoiceMutexes.LoadOrStore(id.String(), &sync.Mutex{})
	return value.(*sync.Mutex)
}

// Create stores a pending invoice whose amount is the sum of its items.
func (s *invoiceService) Create(ctx context.Context, owner uuid.UUID, input CreateInvoiceInput) (*model.Invoice, error) {
	issue := input.IssueDate
	if issue.IsZero() {
		issue = s.now().UTC()
	}
	if input.DueDate.Before(issue) {
		return nil, apperrors.NewValidationError("Invoice creation failed", "dueDate: must not be before issueDate")
	}

	invoice := &model.Invoice{
		InvoiceNumber: input.InvoiceNumber,
		UserID:        owner,
		IssueDate:     issue,
		DueDate:       input.DueDate,
		Description:   input.Description,
		Status:        model.InvoiceStatusPending,
	}
	for _, item := range input.Items {
		if item.Quantity < 1 || !item.UnitPrice.IsPositive() {
			return nil, apperrors.NewValidationError("Invoice creation failed", "items: quantity must be at least 1 and unitPrice positive")
		}
		invoice.Items = append(invoice.Items, model.InvoiceItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.Round(2),
		})
	}
	invoice.Amount = invoice.ItemsTotal().Round(2)

	if err := s.repo.Create(ctx, invoice); err != nil {
		if errors.Is(err, apperrors.ErrInvoiceNumberTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create invoice: %w", err)
	}
	return invoice, nil
}

// List returns the caller's invoices, or every invoice for admins.
func (s *invoiceService) List(ctx context.Context, caller Caller) ([]model.Invoice, error) {
	if caller.IsAdmin {
		return s.repo.ListAll(ctx)
	}
	return s.repo.ListByUser(ctx, caller.UserID)
}

// Get retrieves an invoice by ID with caching. Invoices owned by someone
// else are reported as missing unless the caller is an admin.
func (s *invoiceService) Get(ctx context.Context, caller Caller, id uuid.UUID) (*model.Invoice, error) {
	var invoice *model.Invoice

	var cached model.Invoice
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		invoice = &cached
	} else {
		found, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvoiceNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("find invoice: %w", err)
		}
		s.cache.SetJSON(ctx, s.cacheKey(id), found, invoiceCacheTTL)
		invoice = found
	}

	if !caller.IsAdmin && invoice.UserID != caller.UserID {
		return nil, apperrors.ErrInvoiceNotFound
	}
	return invoice, nil
}

// Pay settles an outstanding invoice.
func (s *invoiceService) Pay(ctx context.Context, caller Caller, id uuid.UUID, method, reference string) (*model.Invoice, error) {
	return s.mutate(ctx, caller, id, func(invoice *model.Invoice) error {
		switch invoice.Status {
		case model.InvoiceStatusPaid:
			return fmt.Errorf("%w: invoice is already paid", apperrors.ErrInvalidInvoiceState)
		case model.InvoiceStatusCancelled:
			return fmt.Errorf("%w: invoice is cancelled", apperrors.ErrInvalidInvoiceState)
		}
		invoice.MarkAsPaid(method, reference, s.now().UTC())
		return nil
	})
}

// UpdateStatus sets the invoice status to any known value.
func (s *invoiceService) UpdateStatus(ctx context.Context, caller Caller, id uuid.UUID, status model.InvoiceStatus) (*model.Invoice, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("Invalid status", fmt.Sprintf("status: unknown value %q", status))
	}
	return s.mutate(ctx, caller, id, func(invoice *model.Invoice) error {
		invoice.UpdateStatus(status)
		return nil
	})
}

// Cancel marks the invoice cancelled. Paid invoices cannot be cancelled.
func (s *invoiceService) Cancel(ctx context.Context, caller Caller, id uuid.UUID) (*model.Invoice, error) {
	return s.mutate(ctx, caller, id, func(invoice *model.Invoice) error {
		if invoice.Status == model.InvoiceStatusPaid {
			return fmt.Errorf("%w: paid invoices cannot be cancelled", apperrors.ErrInvalidInvoiceState)
		}
		invoice.UpdateStatus(model.InvoiceStatusCancelled)
		return nil
	})
}

func (s *invoiceService) mutate(ctx context.Context, caller Caller, id uuid.UUID, apply func(*model.Invoice) error) (*model.Invoice, error) {
	mutex := s.getMutex(id)
	mutex.Lock()
	defer mutex.Unlock()

	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvoiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find invoice: %w", err)
	}
	if !caller.IsAdmin && invoice.UserID != caller.UserID {
		return nil, apperrors.ErrInvoiceNotFound
	}

	if err := apply(invoice); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, invoice); err != nil {
		return nil, fmt.Errorf("update invoice: %w", err)
	}

	// Invalidate cache
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	return invoice, nil
}
