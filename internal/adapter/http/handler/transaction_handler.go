package handler

import (
	"seller-payout-service/internal/adapter/http/dto"
	"seller-payout-service/internal/core/ports"
	"seller-payout-service/pkg/apperror"
	"seller-payout-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TransactionHandler handles collection charge and order lookup endpoints.
type TransactionHandler struct {
	collectionSvc ports.CollectionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(collectionSvc ports.CollectionService) *TransactionHandler {
	return &TransactionHandler{collectionSvc: collectionSvc}
}

// Charge handles POST /collections/charge.
func (h *TransactionHandler) Charge(c *gin.Context) {
	var req dto.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	buyerID, err := uuid.Parse(req.BuyerID)
	if err != nil {
		response.Error(c, apperror.Validation("buyerId must be a valid UUID"))
		return
	}

	invoiceID, err := h.collectionSvc.InitiateCharge(
		c.Request.Context(), buyerID, req.PhoneNumber, dto.CentsFromKES(req.Amount), req.Items,
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.ChargeResponse{InvoiceID: invoiceID})
}

// GetTransaction handles GET /transaction/:invoiceId.
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	invoiceID := c.Param("invoiceId")
	if invoiceID == "" {
		response.Error(c, apperror.Validation("invoiceId is required"))
		return
	}

	order, err := h.collectionSvc.GetOrderByInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToOrderResponse(order))
}
