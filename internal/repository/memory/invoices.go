package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "invoicepay/internal/errors"
	"invoicepay/internal/model"
	"invoicepay/internal/repository"
)

// InvoiceRepository keeps invoices in memory.
type InvoiceRepository struct {
	mu       sync.RWMutex
	invoices map[uuid.UUID]model.Invoice
	numbers  map[string]uuid.UUID
}

var _ repository.InvoiceRepository = (*InvoiceRepository)(nil)

// NewInvoiceRepository creates an empty store.
func NewInvoiceRepository() *InvoiceRepository {
	return &InvoiceRepository{
		invoices: make(map[uuid.UUID]model.Invoice),
		numbers:  make(map[string]uuid.UUID),
	}
}

func (r *InvoiceRepository) Create(_ context.Context, invoice *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.numbers[invoice.InvoiceNumber]; exists {
		return apperrors.ErrInvoiceNumberTaken
	}
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	if invoice.Status == "" {
		invoice.Status = model.InvoiceStatusPending
	}
	now := time.Now().UTC()
	invoice.CreatedAt = now
	invoice.UpdatedAt = now
	for i := range invoice.Items {
		if invoice.Items[i].ID == uuid.Nil {
			invoice.Items[i].ID = uuid.New()
		}
		invoice.Items[i].InvoiceID = invoice.ID
		invoice.Items[i].CreatedAt = now
		invoice.Items[i].UpdatedAt = now
	}

	r.invoices[invoice.ID] = cloneInvoice(*invoice)
	r.numbers[invoice.InvoiceNumber] = invoice.ID
	return nil
}

func (r *InvoiceRepository) Update(_ context.Context, invoice *model.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.invoices[invoice.ID]
	if !ok {
		return apperrors.ErrInvoiceNotFound
	}
	updated := cloneInvoice(*invoice)
	updated.Items = existing.Items
	updated.UpdatedAt = time.Now().UTC()
	r.invoices[invoice.ID] = updated
	return nil
}

func (r *InvoiceRepository) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	invoice, ok := r.invoices[id]
	if !ok {
		return nil, apperrors.ErrInvoiceNotFound
	}
	out := cloneInvoice(invoice)
	return &out, nil
}

func (r *InvoiceRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Invoice
	for _, inv := range r.invoices {
		if inv.UserID == userID {
			out = append(out, cloneInvoice(inv))
		}
	}
	sortInvoices(out)
	return out, nil
}

func (r *InvoiceRepository) ListAll(_ context.Context) ([]model.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Invoice, 0, len(r.invoices))
	for _, inv := range r.invoices {
		out = append(out, cloneInvoice(inv))
	}
	sortInvoices(out)
	return out, nil
}

func cloneInvoice(inv model.Invoice) model.Invoice {
	if inv.PaymentDate != nil {
		paid := *inv.PaymentDate
		inv.PaymentDate = &paid
	}
	inv.Items = append([]model.InvoiceItem(nil), inv.Items...)
	return inv
}

func sortInvoices(invoices []model.Invoice) {
	sort.Slice(invoices, func(i, j int) bool {
		return invoices[i].IssueDate.After(invoices[j].IssueDate)
	})
}

func sortUsers(users []model.User) {
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
}
