package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"baeumcoop.kr/app/internal/http/middleware"
	"baeumcoop.kr/app/internal/http/validation"
	"baeumcoop.kr/app/internal/modules/payments"
	"baeumcoop.kr/app/internal/shared/apperr"
)

type PaymentsHandler struct {
	Repo      *payments.Repo
	CancelSvc *payments.CancelService
}

func NewPaymentsHandler(repo *payments.Repo, cs *payments.CancelService) *PaymentsHandler {
	return &PaymentsHandler{Repo: repo, CancelSvc: cs}
}

// GET /api/admin/payments?status=&page=
func (h *PaymentsHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))

	list, total, err := h.Repo.List(c.Request.Context(), payments.ListParams{
		Status: c.Query("status"),
		Page:   page,
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": list, "total": total})
}

// GET /api/admin/refunds
func (h *PaymentsHandler) ListRefunds(c *gin.Context) {
	list, err := h.Repo.ListRefunds(c.Request.Context())
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"refunds": list})
}

type cancelInput struct {
	Reason string `json:"reason" binding:"required,min=2,max=255"`
}

// POST /api/admin/payments/:id/cancel
// Same cancel flow as the member endpoint, ownership check bypassed.
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
		ActorIsAdmin: true,
		Reason:       in.Reason,
	})
	if err != nil {
		var ge *payments.GatewayError
		switch {
		case errors.Is(err, payments.ErrPaymentNotFound):
			middleware.Fail(c, apperr.NotFoundErr("결제 내역을 찾을 수 없습니다."))
		case errors.Is(err, payments.ErrNotCancellable):
			middleware.Fail(c, apperr.ConflictErr("취소할 수 없는 결제 상태입니다."))
		case errors.As(err, &ge):
			middleware.Fail(c, apperr.GatewayErr("결제사 취소 요청이 거절되었습니다: "+ge.Msg, err))
		default:
			middleware.Fail(c, apperr.Wrap(err))
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"refund_id":  out.RefundID,
		"payment_id": out.PaymentID,
		"amount":     out.Amount,
		"status":     out.Status,
	})
}
