package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"baeumcoop.kr/app/internal/http/middleware"
	"baeumcoop.kr/app/internal/http/validation"
	"baeumcoop.kr/app/internal/modules/payments"
	"baeumcoop.kr/app/internal/shared/apperr"
)

type PaymentsHandler struct {
	Repo      *payments.Repo
	Checkout  *payments.CheckoutService
	CancelSvc *payments.CancelService
}

func NewPaymentsHandler(repo *payments.Repo, co *payments.CheckoutService, cs *payments.CancelService) *PaymentsHandler {
	return &PaymentsHandler{Repo: repo, Checkout: co, CancelSvc: cs}
}

type checkoutInput struct {
	ProgramID string `json:"program_id" binding:"required"`
	Name      string `json:"name" binding:"required,min=2,max=100"`
	Phone     string `json:"phone" binding:"required,min=5,max=32"`
	Email     string `json:"email" binding:"omitempty,email,max=255"`
	Note      string `json:"note" binding:"omitempty,max=255"`
}

// POST /api/payments/checkout
// Creates the pending payment; the browser then opens the gateway widget.
func (h *PaymentsHandler) CheckoutPost(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	var in checkoutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs := validation.FromBindError(err, &in)
		middleware.Fail(c, apperr.InvalidErr("입력값을 확인해 주세요.", errs))
		return
	}

	email := in.Email
	if email == "" {
		email = u.Email
	}

	res, err := h.Checkout.Initiate(c.Request.Context(), payments.CheckoutInput{
		UserID:    u.ID,
		ProgramID: in.ProgramID,
		OrderID:   payments.NewOrderID(),
		Name:      in.Name,
		Phone:     in.Phone,
		Email:     email,
		Note:      in.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrProgramNotOpen):
			middleware.Fail(c, apperr.NotFoundErr("신청할 수 없는 프로그램입니다."))
		case errors.Is(err, payments.ErrProgramFull):
			middleware.Fail(c, apperr.ConflictErr("모집 정원이 마감되었습니다."))
		case errors.Is(err, payments.ErrDuplicateOrder):
			middleware.Fail(c, apperr.ConflictErr("이미 진행 중인 결제가 있습니다."))
		default:
			middleware.Fail(c, apperr.Wrap(err))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":   res.OrderID,
		"payment_id": res.PaymentID,
		"amount":     res.Amount,
		"currency":   res.Currency,
		"client_id":  res.ClientID,
		"return_url": res.ReturnURL,
	})
}

// GET /api/payments
func (h *PaymentsHandler) List(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	list, err := h.Repo.ListByUser(c.Request.Context(), u.ID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": list})
}

// GET /api/payments/:id
func (h *PaymentsHandler) Detail(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	p, refs, err := h.Repo.GetWithRefunds(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.Fail(c, apperr.NotFoundErr("결제 내역을 찾을 수 없습니다."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	if p.UserID != u.ID && !u.IsAdmin() {
		middleware.Fail(c, apperr.ForbiddenErr("접근 권한이 없습니다."))
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p, "refunds": refs})
}

type cancelInput struct {
	Reason string `json:"reason" binding:"required,min=2,max=255"`
}

// POST /api/payments/:id/cancel
func (h *PaymentsHandler) Cancel(c *gin.Context) {
	u, _ := middleware.CurrentUser(c)

	var in cancelInput
	if err := c.ShouldBindJSON(&in); err != nil {
		errs := validation.FromBindError(err, &in)
		middleware.Fail(c, apperr.InvalidErr("취소 사유를 입력해 주세요.", errs))
		return
	}

	out, err := h.CancelSvc.Cancel(c.Request.Context(), payments.CancelInput{
		PaymentID:    c.Param("id"),
		ActorUserID:  u.ID,
		ActorIsAdmin: u.IsAdmin(),
		Reason:       in.Reason,
	})
	if err != nil {
		middleware.Fail(c, cancelError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"refund_id":  out.RefundID,
		"payment_id": out.PaymentID,
		"amount":     out.Amount,
		"status":     out.Status,
	})
}

func cancelError(err error) error {
	var ge *payments.GatewayError
	switch {
	case errors.Is(err, payments.ErrPaymentNotFound):
		return apperr.NotFoundErr("결제 내역을 찾을 수 없습니다.")
	case errors.Is(err, payments.ErrForbidden):
		return apperr.ForbiddenErr("본인의 결제만 취소할 수 있습니다.")
	case errors.Is(err, payments.ErrNotCancellable):
		return apperr.ConflictErr("취소할 수 없는 결제 상태입니다.")
	case errors.As(err, &ge):
		return apperr.GatewayErr("결제사 취소 요청이 거절되었습니다: "+ge.Msg, err)
	default:
		return apperr.Wrap(err)
	}
}
