package payments_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"baeumcoop.kr/app/internal/modules/notify"
	"baeumcoop.kr/app/internal/modules/payments"
	"baeumcoop.kr/app/internal/modules/programs"
	"baeumcoop.kr/app/internal/testutil"
)

func validCallback(orderID string, amount string) payments.CallbackInput {
	return payments.CallbackInput{
		AuthResultCode: "0000",
		TID:            "TID-" + orderID,
		OrderID:        orderID,
		Amount:         amount,
		AuthToken:      "AUTHTOKEN",
		Signature:      "SIGNATURE",
	}
}

func TestCallbackApprovesPendingPayment(t *testing.T) {
	db := testutil.OpenTestDB(t)
	u := seedUser(t, db)
	prog := seedProgram(t, db, programs.StatusOpen, 50000, 0)
	seedPayment(t, db, u.ID, prog.ID, "ORD-CB-1", payments.StatusPending, 50000)
	seedParticipant(t, db, prog.ID, u.ID, "ORD-CB-1", programs.ParticipantPending, programs.PaymentUnpaid)

	gw := &stubGateway{}
	notifySvc, mock := newNotify(db)
	svc := payments.NewCallbackService(db, gw, notifySvc)

	res, err := svc.Process(context.Background(), validCallback("ORD-CB-1", "50000"))
	require.NoError(t, err)
	require.Equal(t, "ORD-CB-1", res.OrderID)
	require.Equal(t, 50000, res.Amount)

	require.Equal(t, 1, gw.approveCalls)
	require.Equal(t, "TID-ORD-CB-1", gw.lastApproveTID)
	require.Equal(t, 50000, gw.lastApproveAmount)

	var p payments.Payment
	require.NoError(t, db.First(&p, "order_id = ?", "ORD-CB-1").Error)
	require.Equal(t, payments.StatusCompleted, p.Status)
	require.NotNil(t, p.TID)
	require.Equal(t, "TID-ORD-CB-1", *p.TID)
	require.NotNil(t, p.PaidAt)
	require.NotEmpty(t, p.RawResponse)

	var part programs.Participant
	require.NoError(t, db.First(&part, "order_id = ?", "ORD-CB-1").Error)
	require.Equal(t, programs.ParticipantConfirmed, part.Status)
	require.Equal(t, programs.PaymentPaid, part.PaymentStatus)

	var notes []notify.Notification
	require.NoError(t, db.Where("user_id = ?", u.ID).Find(&notes).Error)
	require.Len(t, notes, 1)
	require.Equal(t, notify.TypePaymentCompleted, notes[0].Type)

	require.Len(t, mock.Sent, 1)
	require.Equal(t, []string{u.Email}, mock.Sent[0].To)
}

func TestCallbackMissingFields(t *testing.T) {
	db := testutil.OpenTestDB(t)
	gw := &stubGateway{}
	notifySvc, _ := newNotify(db)
	svc := payments.NewCallbackService(db, gw, notifySvc)

	cases := []payments.CallbackInput{
		{},
		{AuthResultCode: "0000", OrderID: "X", Amount: "100"},         // no tid
		{AuthResultCode: "0000", TID: "T", Amount: "100"},             // no order id
		{AuthResultCode: "0000", TID: "T", OrderID: "X"},              // no amount
		{AuthResultCode: "0000", TID: "T", OrderID: "X", Amount: "x"}, // non-numeric
		{AuthResultCode: "0000", TID: "T", OrderID: "X", Amount: "0"}, // non-positive
	}
	for _, in := range cases {
		_, err := svc.Process(context.Background(), in)
		require.ErrorIs(t, err, payments.ErrMissingFields)
	}
	require.Zero(t, gw.approveCalls)
}

func TestCallbackAuthDeclined(t *testing.T) {
	db := testutil.OpenTestDB(t)
	gw := &stubGateway{}
	notifySvc, _ := newNotify(db)
	svc := payments.NewCallbackService(db, gw, notifySvc)

	in := validCallback("ORD-CB-2", "50000")
	in.AuthResultCode = "3001"
	in.AuthResultMsg = "사용자 취소"

	_, err := svc.Process(context.Background(), in)

	var declined *payments.AuthDeclinedError
	require.ErrorAs(t, err, &declined)
	require.Equal(t, "3001", declined.Code)
	require.Equal(t, "사용자 취소", declined.Msg)
	require.Zero(t, gw.approveCalls)
}

func TestCallbackBadSignature(t *testing.T) {
	db := testutil.OpenTestDB(t)
	u := seedUser(t, db)
	prog := seedProgram(t, db, programs.StatusOpen, 50000, 0)
	seedPayment(t, db, u.ID, prog.ID, "ORD-CB-3", payments.StatusPending, 50000)

	gw := &stubGateway{sigFail: true}
	notifySvc, _ := newNotify(db)
	svc := payments.NewCallbackService(db, gw, notifySvc)

	_, err := svc.Process(context.Background(), validCallback("ORD-CB-3", "50000"))
	require.ErrorIs(t, err, payments.ErrBadSignature)
	require.Zero(t, gw.approveCalls)

	var p payments.Payment
	require.NoError(t, db.First(&p, "order_id = ?", "ORD-CB-3").Error)
	require.Equal(t, payments.StatusPending, p.Status)
}

func TestCallbackAmountMismatch(t *testing.T) {
	db := testutil.OpenTestDB(t)
	u := seedUser(t, db)
	prog := seedProgram(t, db, programs.StatusOpen, 50000, 0)
	seedPayment(t, db, u.ID, prog.ID, "ORD-CB-4", payments.StatusPending, 50000)

	gw := &stubGateway{}
	notifySvc, _ := newNotify(db)
	svc := payments.NewCallbackService(db, gw, notifySvc)

	_, err := svc.Process(context.Background(), validCallback("ORD-CB-4", "49999"))
	require.ErrorIs(t, err, payments.ErrAmountMismatch)
	require.Zero(t, gw.approveCalls)
}

func TestCallbackIdempotentAfterCompletion(t *testing.T) {
	db := testutil.OpenTestDB(t)
	u := seedUser(t, db)
	prog := seedProgram(t, db, programs.StatusOpen, 50000, 0)
	seedPayment(t, db, u.ID, prog.ID, "ORD-CB-5", payments.StatusPending, 50000)
	seedParticipant(t, db, prog.ID, u.ID, "ORD-CB-5", programs.ParticipantPending, programs.PaymentUnpaid)

	gw := &stubGateway{}
	notifySvc, _ := newNotify(db)
	svc := payments.NewCallbackService(db, gw, notifySvc)

	_, err := svc.Process(context.Background(), validCallback("ORD-CB-5", "50000"))
	require.NoError(t, err)

	// duplicate redirect
	res, err := svc.Process(context.Background(), validCallback("ORD-CB-5", "50000"))
	require.NoError(t, err)
	require.Equal(t, "ORD-CB-5", res.OrderID)
	require.Equal(t, 50000, res.Amount)
	require.Equal(t, 1, gw.approveCalls, "completed payment must not be re-approved")

	var cnt int64
	require.NoError(t, db.Model(&payments.Payment{}).Where("order_id = ?", "ORD-CB-5").Count(&cnt).Error)
	require.EqualValues(t, 1, cnt)
}

func TestCallbackRecoversFromReservedMetadata(t *testing.T) {
	db := testutil.OpenTestDB(t)
	u := seedUser(t, db)
	prog := seedProgram(t, db, programs.StatusOpen, 70000, 0)

	gw := &stubGateway{}
	notifySvc, mock := newNotify(db)
	svc := payments.NewCallbackService(db, gw, notifySvc)

	in := validCallback("ORD-CB-6", "70000")
	in.MallReserved = `{"userId":"` + u.ID + `","programId":"` + prog.ID +
		`","name":"김배움","phone":"010-9999-0000","email":"kim@example.com"}`

	res, err := svc.Process(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 70000, res.Amount)

	var p payments.Payment
	require.NoError(t, db.First(&p, "order_id = ?", "ORD-CB-6").Error)
	require.Equal(t, payments.StatusCompleted, p.Status)
	require.Equal(t, u.ID, p.UserID)

	var part programs.Participant
	require.NoError(t, db.First(&part, "order_id = ?", "ORD-CB-6").Error)
	require.Equal(t, programs.ParticipantConfirmed, part.Status)
	require.Equal(t, "김배움", part.Name)

	require.Len(t, mock.Sent, 1)
	require.Equal(t, []string{"kim@example.com"}, mock.Sent[0].To)
}

func TestCallbackUnknownOrderWithoutMetadata(t *testing.T) {
	db := testutil.OpenTestDB(t)
	gw := &stubGateway{}
	notifySvc, _ := newNotify(db)
	svc := payments.NewCallbackService(db, gw, notifySvc)

	_, err := svc.Process(context.Background(), validCallback("ORD-CB-7", "50000"))
	require.ErrorIs(t, err, payments.ErrPaymentNotFound)
	require.Zero(t, gw.approveCalls)
}

func TestCallbackGatewayDeclineLeavesPaymentPending(t *testing.T) {
	db := testutil.OpenTestDB(t)
	u := seedUser(t, db)
	prog := seedProgram(t, db, programs.StatusOpen, 50000, 0)
	seedPayment(t, db, u.ID, prog.ID, "ORD-CB-8", payments.StatusPending, 50000)

	gw := &stubGateway{approveErr: &payments.GatewayError{Code: "5001", Msg: "승인 거절"}}
	notifySvc, mock := newNotify(db)
	svc := payments.NewCallbackService(db, gw, notifySvc)

	_, err := svc.Process(context.Background(), validCallback("ORD-CB-8", "50000"))

	var ge *payments.GatewayError
	require.ErrorAs(t, err, &ge)
	require.Equal(t, "5001", ge.Code)

	var p payments.Payment
	require.NoError(t, db.First(&p, "order_id = ?", "ORD-CB-8").Error)
	require.Equal(t, payments.StatusPending, p.Status)
	require.Empty(t, mock.Sent)
}
