package handler

import (
	"github.com/gin-gonic/gin"

	apppayment "github.com/xiebiao/library/internal/application/payment"
	"github.com/xiebiao/library/internal/domain/payment"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// PaymentHandler 支付HTTP处理器
type PaymentHandler struct {
	manage   *apppayment.ManagePaymentsUseCase
	checkout *apppayment.CheckoutUseCase
}

// NewPaymentHandler 创建支付处理器
func NewPaymentHandler(manage *apppayment.ManagePaymentsUseCase, checkout *apppayment.CheckoutUseCase) *PaymentHandler {
	return &PaymentHandler{manage: manage, checkout: checkout}
}

// ListPayments 支付列表
// @Summary      支付列表
// @Description  读者只能看到自己借阅下的支付记录
// @Tags         支付
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]apppayment.PaymentView}
// @Router       /api/v1/payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	list, err := h.manage.List(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// ListFines 我的罚款
// @Summary      我的罚款
// @Tags         支付
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=[]apppayment.FineView}
// @Router       /api/v1/payments/fines [get]
func (h *PaymentHandler) ListFines(c *gin.Context) {
	fines, err := h.manage.Fines(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, fines)
}

// GetPayment 支付详情
// @Summary      支付详情
// @Tags         支付
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "支付ID"
// @Success      200 {object} response.Response{data=apppayment.PaymentView}
// @Failure      404 {object} response.Response "支付记录不存在"
// @Router       /api/v1/payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.manage.Get(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, p)
}

// CreatePayment 创建支付记录
// @Summary      创建支付记录
// @Tags         支付
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreatePaymentRequest true "支付信息"
// @Success      201 {object} response.Response{data=apppayment.PaymentView}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      404 {object} response.Response "借阅不存在"
// @Router       /api/v1/payments [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.manage.Create(c.Request.Context(), middleware.GetActor(c), apppayment.CreatePaymentRequest{
		BorrowingID: req.Borrowing,
		Type:        req.Type,
		Status:      req.Status,
		MoneyToPay:  *req.MoneyToPay,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, p)
}

// UpdatePayment 修改支付记录
// @Summary      修改支付记录
// @Tags         支付
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                      true "支付ID"
// @Param        request body dto.UpdatePaymentRequest true "修改内容"
// @Success      200 {object} response.Response{data=apppayment.PaymentView}
// @Failure      404 {object} response.Response "支付记录不存在"
// @Router       /api/v1/payments/{id} [put]
func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.UpdatePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	patch := payment.Patch{
		MoneyToPay: req.MoneyToPay,
		SessionURL: req.SessionURL,
		SessionID:  req.SessionID,
	}
	if req.Status != nil {
		s := payment.Status(*req.Status)
		patch.Status = &s
	}
	if req.Type != nil {
		t := payment.Type(*req.Type)
		patch.Type = &t
	}

	p, err := h.manage.Update(c.Request.Context(), middleware.GetActor(c), id, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, p)
}

// DeletePayment 删除支付记录
// @Summary      删除支付记录
// @Tags         支付
// @Security     BearerAuth
// @Param        id path int true "支付ID"
// @Success      204
// @Failure      404 {object} response.Response "支付记录不存在"
// @Router       /api/v1/payments/{id} [delete]
func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.manage.Delete(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CreateCheckoutSession 发起在线支付
// @Summary      发起在线支付
// @Description  使用借阅最新的待支付记录（没有则按租金新建），返回支付跳转URL
// @Tags         支付
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CheckoutRequest true "借阅ID"
// @Success      200 {object} response.Response{data=apppayment.CheckoutResponse}
// @Failure      400 {object} response.Response "已支付"
// @Failure      404 {object} response.Response "借阅不存在"
// @Failure      502 {object} response.Response "支付服务错误"
// @Router       /api/v1/create-checkout-session [post]
func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	var req dto.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.checkout.Execute(c.Request.Context(), middleware.GetActor(c), req.BorrowingID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// CheckoutSuccess 支付成功跳转页
// @Summary      支付成功跳转页
// @Tags         支付
// @Produce      json
// @Success      200 {object} response.Response
// @Router       /api/v1/payments/success [get]
func (h *PaymentHandler) CheckoutSuccess(c *gin.Context) {
	response.Success(c, gin.H{"message": "Payment successful!"})
}

// CheckoutCancel 支付取消跳转页
// @Summary      支付取消跳转页
// @Tags         支付
// @Produce      json
// @Success      200 {object} response.Response
// @Router       /api/v1/payments/cancel [get]
func (h *PaymentHandler) CheckoutCancel(c *gin.Context) {
	response.Success(c, gin.H{"message": "Payment canceled. You can pay later within 24 hours."})
}
