package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"invoicepay/internal/auth"
	apperrors "invoicepay/internal/errors"
	"invoicepay/internal/model"
	"invoicepay/internal/service"
)

// InvoiceHandler handles invoice endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	now            func() time.Time
}

// NewInvoiceHandler creates a new invoice handler.
func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, now: time.Now}
}

// CreateInvoiceRequest represents a new invoice.
type CreateInvoiceRequest struct {
	InvoiceNumber string               `json:"invoiceNumber" validate:"required,max=50"`
	IssueDate     time.Time            `json:"issueDate"`
	DueDate       time.Time            `json:"dueDate" validate:"required"`
	Description   string               `json:"description" validate:"max=500"`
	Items         []InvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
}

// InvoiceItemRequest represents one invoice line.
type InvoiceItemRequest struct {
	Description string          `json:"description" validate:"required,max=200"`
	Quantity    int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unitPrice" swaggertype:"string"`
}

// PayInvoiceRequest records a payment against an invoice.
type PayInvoiceRequest struct {
	PaymentMethod    string `json:"paymentMethod" validate:"required,max=100"`
	PaymentReference string `json:"paymentReference" validate:"max=100"`
}

// UpdateStatusRequest sets an invoice status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Pending Paid Overdue Cancelled Disputed PartiallyPaid"`
}

// InvoiceView is an invoice as returned by the API, with derived fields.
type InvoiceView struct {
	ID               uuid.UUID           `json:"id"`
	InvoiceNumber    string              `json:"invoiceNumber"`
	UserID           uuid.UUID           `json:"userId"`
	Amount           decimal.Decimal     `json:"amount" swaggertype:"string"`
	IssueDate        time.Time           `json:"issueDate"`
	DueDate          time.Time           `json:"dueDate"`
	PaymentDate      *time.Time          `json:"paymentDate,omitempty"`
	Status           model.InvoiceStatus `json:"status" swaggertype:"string"`
	IsOverdue        bool                `json:"isOverdue"`
	Description      string              `json:"description,omitempty"`
	PaymentMethod    string              `json:"paymentMethod,omitempty"`
	PaymentReference string              `json:"paymentReference,omitempty"`
	Items            []InvoiceItemView   `json:"items"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// InvoiceItemView is one invoice line with its total.
type InvoiceItemView struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice" swaggertype:"string"`
	TotalPrice  decimal.Decimal `json:"totalPrice" swaggertype:"string"`
}

// InvoiceResponse wraps a single invoice.
type InvoiceResponse struct {
	Message string      `json:"message"`
	Invoice InvoiceView `json:"invoice"`
}

// InvoiceListResponse wraps a list of invoices.
type InvoiceListResponse struct {
	Invoices []InvoiceView `json:"invoices"`
	Count    int           `json:"count"`
}

func toInvoiceView(invoice *model.Invoice, now time.Time) InvoiceView {
	view := InvoiceView{
		ID:               invoice.ID,
		InvoiceNumber:    invoice.InvoiceNumber,
		UserID:           invoice.UserID,
		Amount:           invoice.Amount,
		IssueDate:        invoice.IssueDate,
		DueDate:          invoice.DueDate,
		PaymentDate:      invoice.PaymentDate,
		Status:           invoice.Status,
		IsOverdue:        invoice.IsOverdue(now),
		Description:      invoice.Description,
		PaymentMethod:    invoice.PaymentMethod,
		PaymentReference: invoice.PaymentReference,
		Items:            make([]InvoiceItemView, 0, len(invoice.Items)),
		CreatedAt:        invoice.CreatedAt,
		UpdatedAt:        invoice.UpdatedAt,
	}
	for _, item := range invoice.Items {
		view.Items = append(view.Items, InvoiceItemView{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice(),
		})
	}
	return view
}

func (h *InvoiceHandler) respond(c echo.Context, status int, message string, invoice *model.Invoice) error {
	return c.JSON(status, InvoiceResponse{Message: message, Invoice: toInvoiceView(invoice, h.now())})
}

// CreateInvoice godoc
// @Summary Create an invoice
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateInvoiceRequest true "Invoice data"
// @Success 201 {object} InvoiceResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c echo.Context) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}

	var req CreateInvoiceRequest
	if err := bindAndValidate(c, &req, "Invoice creation failed"); err != nil {
		return err
	}

	input := service.CreateInvoiceInput{
		InvoiceNumber: req.InvoiceNumber,
		IssueDate:     req.IssueDate,
		DueDate:       req.DueDate,
		Description:   req.Description,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, service.InvoiceItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}

	invoice, err := h.invoiceService.Create(c.Request().Context(), caller.UserID, input)
	if err != nil {
		return respondError(err)
	}

	return h.respond(c, http.StatusCreated, "Invoice created successfully", invoice)
}

// ListInvoices godoc
// @Summary List invoices
// @Description Customers see their own invoices; admins see every invoice.
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Success 200 {object} InvoiceListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /invoices [get]
func (h *InvoiceHandler) ListInvoices(c echo.Context) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}

	invoices, err := h.invoiceService.List(c.Request().Context(), caller)
	if err != nil {
		return respondError(err)
	}
	now := h.now()
	views := make([]InvoiceView, 0, len(invoices))
	for i := range invoices {
		views = append(views, toInvoiceView(&invoices[i], now))
	}

	return c.JSON(http.StatusOK, InvoiceListResponse{Invoices: views, Count: len(views)})
}

// GetInvoice godoc
// @Summary Get an invoice
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID (UUID)"
// @Success 200 {object} InvoiceResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c echo.Context) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	id, err := invoiceIDParam(c)
	if err != nil {
		return err
	}

	invoice, err := h.invoiceService.Get(c.Request().Context(), caller, id)
	if err != nil {
		return respondError(err)
	}

	return h.respond(c, http.StatusOK, "Invoice retrieved successfully", invoice)
}

// PayInvoice godoc
// @Summary Pay an invoice
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID (UUID)"
// @Param request body PayInvoiceRequest true "Payment data"
// @Success 200 {object} InvoiceResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id}/pay [post]
func (h *InvoiceHandler) PayInvoice(c echo.Context) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	id, err := invoiceIDParam(c)
	if err != nil {
		return err
	}

	var req PayInvoiceRequest
	if err := bindAndValidate(c, &req, "Invoice payment failed"); err != nil {
		return err
	}

	invoice, err := h.invoiceService.Pay(c.Request().Context(), caller, id, req.PaymentMethod, req.PaymentReference)
	if err != nil {
		return respondError(err)
	}

	return h.respond(c, http.StatusOK, "Invoice paid successfully", invoice)
}

// UpdateInvoiceStatus godoc
// @Summary Set an invoice status
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID (UUID)"
// @Param request body UpdateStatusRequest true "New status"
// @Success 200 {object} InvoiceResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id}/status [patch]
func (h *InvoiceHandler) UpdateInvoiceStatus(c echo.Context) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	id, err := invoiceIDParam(c)
	if err != nil {
		return err
	}

	var req UpdateStatusRequest
	if err := bindAndValidate(c, &req, "Invalid status"); err != nil {
		return err
	}

	invoice, err := h.invoiceService.UpdateStatus(c.Request().Context(), caller, id, model.InvoiceStatus(req.Status))
	if err != nil {
		return respondError(err)
	}

	return h.respond(c, http.StatusOK, "Invoice status updated", invoice)
}

// CancelInvoice godoc
// @Summary Cancel an invoice
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invoice ID (UUID)"
// @Success 200 {object} InvoiceResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) CancelInvoice(c echo.Context) error {
	caller, err := callerFromContext(c)
	if err != nil {
		return err
	}
	id, err := invoiceIDParam(c)
	if err != nil {
		return err
	}

	invoice, err := h.invoiceService.Cancel(c.Request().Context(), caller, id)
	if err != nil {
		return respondError(err)
	}

	return h.respond(c, http.StatusOK, "Invoice cancelled", invoice)
}

func callerFromContext(c echo.Context) (service.Caller, error) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return service.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
			Message: "unauthenticated",
			Code:    "UNAUTHENTICATED",
		})
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return service.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
			Message: "unauthenticated",
			Code:    "UNAUTHENTICATED",
		})
	}
	return service.Caller{UserID: userID, IsAdmin: claims.Role == model.RoleAdmin}, nil
}

func invoiceIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Message: "invalid invoice id",
			Code:    "INVALID_UUID",
		})
	}
	return id, nil
}
