package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	appborrowing "github.com/xiebiao/library/internal/application/borrowing"
	"github.com/xiebiao/library/internal/domain/borrowing"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/response"
)

// BorrowingHandler 借阅HTTP处理器
type BorrowingHandler struct {
	create  *appborrowing.CreateBorrowingUseCase
	ret     *appborrowing.ReturnBorrowingUseCase
	query   *appborrowing.QueryBorrowingsUseCase
	overdue *appborrowing.CheckOverdueUseCase
}

// NewBorrowingHandler 创建借阅处理器
func NewBorrowingHandler(
	create *appborrowing.CreateBorrowingUseCase,
	ret *appborrowing.ReturnBorrowingUseCase,
	query *appborrowing.QueryBorrowingsUseCase,
	overdue *appborrowing.CheckOverdueUseCase,
) *BorrowingHandler {
	return &BorrowingHandler{create: create, ret: ret, query: query, overdue: overdue}
}

// ListBorrowings 借阅列表
// @Summary      借阅列表
// @Description  读者只能看到自己的借阅（user_id被忽略）；馆员可按user_id过滤
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        is_active query string false "true: 未归还, false: 已归还"
// @Param        user_id   query int    false "借阅人（仅馆员）"
// @Success      200 {object} response.Response{data=[]appborrowing.BorrowingView}
// @Router       /api/v1/borrowings [get]
func (h *BorrowingHandler) ListBorrowings(c *gin.Context) {
	var q dto.BorrowingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: "+err.Error())
		return
	}

	actor := middleware.GetActor(c)
	query := borrowing.Query{IsActive: q.IsActive}
	if actor.IsStaff && q.UserID != "" {
		uid, err := strconv.ParseUint(q.UserID, 10, 64)
		if err != nil {
			response.ErrorWithCode(c, apperrors.ErrCodeBindError, "参数错误: user_id必须为正整数")
			return
		}
		id := uint(uid)
		query.UserID = &id
	}

	list, err := h.query.List(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, list)
}

// CreateBorrowing 借书
// @Summary      借书
// @Description  库存为0时返回400
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateBorrowingRequest true "借阅信息"
// @Success      201 {object} response.Response{data=appborrowing.BorrowingView}
// @Failure      400 {object} response.Response "图书不可借"
// @Failure      404 {object} response.Response "图书不存在"
// @Router       /api/v1/borrowings [post]
func (h *BorrowingHandler) CreateBorrowing(c *gin.Context) {
	var req dto.CreateBorrowingRequest
	if !bindJSON(c, &req) {
		return
	}
	expected, err := borrowing.ParseDate(req.ExpectedReturnDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	view, err := h.create.Execute(c.Request.Context(), appborrowing.CreateBorrowingRequest{
		Actor:              middleware.GetActor(c),
		BookID:             req.Book,
		ExpectedReturnDate: expected,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// GetBorrowing 借阅详情
// @Summary      借阅详情
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅ID"
// @Success      200 {object} response.Response{data=appborrowing.BorrowingView}
// @Failure      404 {object} response.Response "借阅不存在"
// @Router       /api/v1/borrowings/{id} [get]
func (h *BorrowingHandler) GetBorrowing(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.query.Get(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// ReturnBorrowing 还书
// @Summary      还书
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                        true  "借阅ID"
// @Param        request body dto.ReturnBorrowingRequest false "归还日期"
// @Success      200 {object} response.Response{data=appborrowing.BorrowingView}
// @Failure      400 {object} response.Response "已归还"
// @Failure      404 {object} response.Response "借阅不存在"
// @Router       /api/v1/borrowings/{id}/return [post]
func (h *BorrowingHandler) ReturnBorrowing(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req dto.ReturnBorrowingRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}
	var actual *time.Time
	if req.ActualReturnDate != "" {
		d, err := borrowing.ParseDate(req.ActualReturnDate)
		if err != nil {
			response.Error(c, err)
			return
		}
		actual = &d
	}

	view, err := h.ret.Execute(c.Request.Context(), appborrowing.ReturnBorrowingRequest{
		Actor:            middleware.GetActor(c),
		BorrowingID:      id,
		ActualReturnDate: actual,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// IsPaid 借阅是否已支付
// @Summary      借阅是否已支付
// @Description  存在任意一条PAID状态的PAYMENT即为已支付
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅ID"
// @Success      200 {object} response.Response{data=dto.PaidResponse}
// @Failure      404 {object} response.Response "借阅不存在"
// @Router       /api/v1/borrowings/{id}/paid [get]
func (h *BorrowingHandler) IsPaid(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	paid, err := h.query.IsPaid(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, &dto.PaidResponse{BorrowingID: id, Paid: paid})
}

// CheckOverdue 手动触发逾期检查
// @Summary      逾期检查
// @Description  馆员手动触发，结果通过通知通道发送
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.Response{data=appborrowing.OverdueReport}
// @Failure      403 {object} response.Response "非馆员"
// @Router       /api/v1/borrowings/check-overdue [post]
func (h *BorrowingHandler) CheckOverdue(c *gin.Context) {
	report, err := h.overdue.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, report)
}
