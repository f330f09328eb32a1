package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"baeumcoop.kr/app/internal/modules/payments"
)

// CallbackHandler terminates the gateway's redirect-back. The caller is a
// browser following the gateway, so every outcome is a redirect; raw error
// bodies never appear here.
type CallbackHandler struct {
	Svc     *payments.CallbackService
	BaseURL string
}

func NewCallbackHandler(svc *payments.CallbackService, baseURL string) *CallbackHandler {
	return &CallbackHandler{Svc: svc, BaseURL: strings.TrimRight(baseURL, "/")}
}

// POST /api/nicepay/callback
func (h *CallbackHandler) Handle(c *gin.Context) {
	in := payments.CallbackInput{
		AuthResultCode: c.PostForm("authResultCode"),
		AuthResultMsg:  c.PostForm("authResultMsg"),
		TID:            c.PostForm("tid"),
		OrderID:        c.PostForm("orderId"),
		Amount:         c.PostForm("amount"),
		AuthToken:      c.PostForm("authToken"),
		Signature:      c.PostForm("signature"),
		MallReserved:   c.PostForm("mallReserved"),
	}

	res, err := h.Svc.Process(c.Request.Context(), in)
	if err != nil {
		h.redirectError(c, err)
		return
	}

	q := url.Values{}
	q.Set("orderId", res.OrderID)
	q.Set("amount", strconv.Itoa(res.Amount))
	c.Redirect(http.StatusFound, h.BaseURL+"/payments/success?"+q.Encode())
}

func (h *CallbackHandler) redirectError(c *gin.Context, err error) {
	var declined *payments.AuthDeclinedError
	var gw *payments.GatewayError

	switch {
	case errors.As(err, &declined):
		h.failure(c, declined.Msg)
	case errors.As(err, &gw):
		h.failure(c, gw.Msg)
	case errors.Is(err, payments.ErrAmountMismatch):
		h.error(c, "결제 금액이 일치하지 않습니다.")
	case errors.Is(err, payments.ErrBadSignature):
		h.error(c, "결제 검증에 실패했습니다.")
	case errors.Is(err, payments.ErrPaymentNotFound):
		h.error(c, "결제 정보를 찾을 수 없습니다.")
	default:
		h.error(c, "결제 처리 중 오류가 발생했습니다.")
	}
}

func (h *CallbackHandler) failure(c *gin.Context, msg string) {
	if msg == "" {
		msg = "결제가 완료되지 않았습니다."
	}
	q := url.Values{}
	q.Set("message", msg)
	c.Redirect(http.StatusFound, h.BaseURL+"/payments/failure?"+q.Encode())
}

func (h *CallbackHandler) error(c *gin.Context, msg string) {
	q := url.Values{}
	q.Set("message", msg)
	c.Redirect(http.StatusFound, h.BaseURL+"/payments/error?"+q.Encode())
}
