package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"baeumcoop.kr/app/internal/http/handlers"
	"baeumcoop.kr/app/internal/mailer"
	"baeumcoop.kr/app/internal/modules/notify"
	"baeumcoop.kr/app/internal/modules/payments"
	"baeumcoop.kr/app/internal/modules/programs"
	"baeumcoop.kr/app/internal/modules/users"
	"baeumcoop.kr/app/internal/testutil"
)

// fakeGateway approves everything; signature checks fail when sigFail is set.
type fakeGateway struct {
	sigFail    bool
	approveErr error
}

func (g *fakeGateway) Approve(_ context.Context, tid string, amount int) (payments.ApproveResult, error) {
	if g.approveErr != nil {
		return payments.ApproveResult{}, g.approveErr
	}
	return payments.ApproveResult{ResultCode: "0000", TID: tid, Amount: amount, Raw: []byte(`{}`)}, nil
}

func (g *fakeGateway) Cancel(_ context.Context, tid, orderID, _ string) (payments.CancelResult, error) {
	return payments.CancelResult{ResultCode: "0000", TID: tid, OrderID: orderID, Raw: []byte(`{}`)}, nil
}

func (g *fakeGateway) VerifySignature(_, _ string, _ int, _ string) bool { return !g.sigFail }

func (g *fakeGateway) ClientID() string { return "client-id" }

func seedPendingOrder(t *testing.T, db *gorm.DB, orderID string, amount int) {
	t.Helper()
	now := time.Now()
	u := users.User{
		ID: uuid.NewString(), Email: uuid.NewString()[:8] + "@example.com",
		PasswordHash: []byte("x"), Name: "홍길동", Role: users.RoleMember,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, db.Create(&u).Error)

	prog := programs.Program{
		ID: uuid.NewString(), Title: "프로그램", Slug: "p-" + uuid.NewString()[:8],
		Price: amount, Status: programs.StatusOpen, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, db.Create(&prog).Error)

	p := payments.Payment{
		ID: uuid.NewString(), OrderID: orderID, UserID: u.ID, ProgramID: &prog.ID,
		Amount: amount, Currency: "KRW", Status: payments.StatusPending,
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, db.Create(&p).Error)

	part := programs.Participant{
		ID: uuid.NewString(), ProgramID: prog.ID, UserID: u.ID, OrderID: orderID,
		Name: "홍길동", Status: programs.ParticipantPending,
		PaymentStatus: programs.PaymentUnpaid, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, db.Create(&part).Error)
}

func newCallbackRouter(t *testing.T, db *gorm.DB, gw payments.Gateway) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	notifySvc := notify.NewService(db, &mailer.Mock{}, "no-reply@baeumcoop.kr", "배움협동조합")
	svc := payments.NewCallbackService(db, gw, notifySvc)
	h := handlers.NewCallbackHandler(svc, "http://localhost:8080")

	r := gin.New()
	r.POST("/api/nicepay/callback", h.Handle)
	return r
}

func postCallback(r *gin.Engine, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/nicepay/callback",
		strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func callbackForm(orderID, amount string) url.Values {
	form := url.Values{}
	form.Set("authResultCode", "0000")
	form.Set("tid", "TID-"+orderID)
	form.Set("orderId", orderID)
	form.Set("amount", amount)
	form.Set("authToken", "AUTH")
	form.Set("signature", "SIG")
	return form
}

func TestCallbackRedirectsToSuccess(t *testing.T) {
	db := testutil.OpenTestDB(t)
	seedPendingOrder(t, db, "ORD-H-1", 50000)
	r := newCallbackRouter(t, db, &fakeGateway{})

	w := postCallback(r, callbackForm("ORD-H-1", "50000"))

	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/payments/success", loc.Path)
	require.Equal(t, "ORD-H-1", loc.Query().Get("orderId"))
	require.Equal(t, "50000", loc.Query().Get("amount"))
}

func TestCallbackRedirectsDeclinedToFailure(t *testing.T) {
	db := testutil.OpenTestDB(t)
	r := newCallbackRouter(t, db, &fakeGateway{})

	form := callbackForm("ORD-H-2", "50000")
	form.Set("authResultCode", "3001")
	form.Set("authResultMsg", "사용자 취소")
	w := postCallback(r, form)

	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/payments/failure", loc.Path)
	require.Equal(t, "사용자 취소", loc.Query().Get("message"))
}

func TestCallbackRedirectsBadSignatureToError(t *testing.T) {
	db := testutil.OpenTestDB(t)
	seedPendingOrder(t, db, "ORD-H-3", 50000)
	r := newCallbackRouter(t, db, &fakeGateway{sigFail: true})

	w := postCallback(r, callbackForm("ORD-H-3", "50000"))

	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/payments/error", loc.Path)
	require.NotEmpty(t, loc.Query().Get("message"))
}

func TestCallbackRedirectsGatewayDeclineToFailure(t *testing.T) {
	db := testutil.OpenTestDB(t)
	seedPendingOrder(t, db, "ORD-H-4", 50000)
	gw := &fakeGateway{approveErr: &payments.GatewayError{Code: "5001", Msg: "승인 거절"}}
	r := newCallbackRouter(t, db, gw)

	w := postCallback(r, callbackForm("ORD-H-4", "50000"))

	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/payments/failure", loc.Path)
	require.Equal(t, "승인 거절", loc.Query().Get("message"))
}

func TestCallbackRedirectsUnknownOrderToError(t *testing.T) {
	db := testutil.OpenTestDB(t)
	r := newCallbackRouter(t, db, &fakeGateway{})

	w := postCallback(r, callbackForm("ORD-H-NONE", "50000"))

	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "/payments/error", loc.Path)
}
