package handler

import (
	"seller-payout-service/internal/adapter/http/dto"
	"seller-payout-service/internal/core/ports"
	"seller-payout-service/pkg/apperror"
	"seller-payout-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WithdrawalHandler handles withdrawal and balance endpoints.
type WithdrawalHandler struct {
	withdrawalSvc ports.WithdrawalService
	resolver      ports.BalanceResolver
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(withdrawalSvc ports.WithdrawalService, resolver ports.BalanceResolver) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalSvc: withdrawalSvc, resolver: resolver}
}

// Withdraw handles POST /withdraw.
func (h *WithdrawalHandler) Withdraw(c *gin.Context) {
	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	sellerID, err := uuid.Parse(req.SellerID)
	if err != nil {
		response.Error(c, apperror.Validation("sellerId must be a valid UUID"))
		return
	}

	result, err := h.withdrawalSvc.Withdraw(c.Request.Context(), ports.WithdrawRequest{
		SellerID:    sellerID,
		Amount:      dto.CentsFromKES(req.Amount),
		PhoneNumber: req.PhoneNumber,
		PIN:         req.PIN,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToWithdrawResponse(result))
}

// GetWithdrawal handles GET /withdrawals/:id.
func (h *WithdrawalHandler) GetWithdrawal(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("withdrawal id must be a valid UUID"))
		return
	}

	w, err := h.withdrawalSvc.GetWithdrawal(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToWithdrawalRecordResponse(w))
}

// GetBalance handles GET /sellers/:id/balance.
func (h *WithdrawalHandler) GetBalance(c *gin.Context) {
	sellerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("seller id must be a valid UUID"))
		return
	}

	balance, err := h.resolver.Resolve(c.Request.Context(), sellerID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		SellerID: sellerID.String(),
		Balance:  dto.KESFromCents(balance),
	})
}
