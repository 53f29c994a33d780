package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "invoicepay/internal/errors"
	"invoicepay/internal/model"
)

func TestInvoiceRepository(t *testing.T) {
	repo := NewInvoiceRepository()
	ctx := context.Background()
	owner := uuid.New()

	older := &model.Invoice{InvoiceNumber: "INV-1", UserID: owner, IssueDate: time.Now().Add(-48 * time.Hour),
		Items: []model.InvoiceItem{{Description: "Widget", Quantity: 2, UnitPrice: decimal.NewFromInt(5)}}}
	newer := &model.Invoice{InvoiceNumber: "INV-2", UserID: owner, IssueDate: time.Now()}
	other := &model.Invoice{InvoiceNumber: "INV-3", UserID: uuid.New(), IssueDate: time.Now()}

	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))
	require.NoError(t, repo.Create(ctx, other))
	assert.ErrorIs(t, repo.Create(ctx, &model.Invoice{InvoiceNumber: "INV-1"}), apperrors.ErrInvoiceNumberTaken)

	assert.Equal(t, model.InvoiceStatusPending, older.Status)
	assert.Equal(t, older.ID, older.Items[0].InvoiceID)

	mine, err := repo.ListByUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "INV-2", mine[0].InvoiceNumber)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	found, err := repo.FindByID(ctx, older.ID)
	require.NoError(t, err)
	found.MarkAsPaid("card", "ref", time.Now())
	found.Items = nil
	require.NoError(t, repo.Update(ctx, found))

	found, err = repo.FindByID(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, found.Status)
	assert.Len(t, found.Items, 1)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrInvoiceNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &model.Invoice{ID: uuid.New()}), apperrors.ErrInvoiceNotFound)
}
