package payments_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"baeumcoop.kr/app/internal/modules/payments"
	"baeumcoop.kr/app/internal/modules/programs"
	"baeumcoop.kr/app/internal/testutil"
)

func TestInitiateCreatesPendingPaymentAndParticipant(t *testing.T) {
	db := testutil.OpenTestDB(t)
	u := seedUser(t, db)
	prog := seedProgram(t, db, programs.StatusOpen, 50000, 0)

	gw := &stubGateway{}
	svc := payments.NewCheckoutService(db, gw, "http://localhost:8080/")

	res, err := svc.Initiate(context.Background(), payments.CheckoutInput{
		UserID:    u.ID,
		ProgramID: prog.ID,
		OrderID:   "ORD-TEST-1",
		Name:      "홍길동",
		Phone:     "010-1234-5678",
		Email:     "hong@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, "ORD-TEST-1", res.OrderID)
	require.Equal(t, 50000, res.Amount)
	require.Equal(t, "KRW", res.Currency)
	require.Equal(t, "test-client-id", res.ClientID)
	require.Equal(t, "http://localhost:8080/api/nicepay/callback", res.ReturnURL)

	var p payments.Payment
	require.NoError(t, db.First(&p, "order_id = ?", "ORD-TEST-1").Error)
	require.Equal(t, payments.StatusPending, p.Status)
	require.Equal(t, u.ID, p.UserID)
	require.Equal(t, 50000, p.Amount)

	var part programs.Participant
	require.NoError(t, db.First(&part, "order_id = ?", "ORD-TEST-1").Error)
	require.Equal(t, programs.ParticipantPending, part.Status)
	require.Equal(t, programs.PaymentUnpaid, part.PaymentStatus)
}

func TestInitiateRejectsClosedOrUnpricedProgram(t *testing.T) {
	db := testutil.OpenTestDB(t)
	u := seedUser(t, db)
	svc := payments.NewCheckoutService(db, &stubGateway{}, "http://localhost:8080")

	cases := []struct {
		name   string
		status string
		price  int
	}{
		{"draft", programs.StatusDraft, 50000},
		{"closed", programs.StatusClosed, 50000},
		{"free", programs.StatusOpen, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prog := seedProgram(t, db, tc.status, tc.price, 0)
			_, err := svc.Initiate(context.Background(), payments.CheckoutInput{
				UserID:    u.ID,
				ProgramID: prog.ID,
				OrderID:   payments.NewOrderID(),
			})
			require.ErrorIs(t, err, payments.ErrProgramNotOpen)
		})
	}
}

func TestInitiateRejectsFullProgram(t *testing.T) {
	db := testutil.OpenTestDB(t)
	u := seedUser(t, db)
	other := seedUser(t, db)
	prog := seedProgram(t, db, programs.StatusOpen, 50000, 1)
	seedParticipant(t, db, prog.ID, other.ID, "ORD-TAKEN", programs.ParticipantConfirmed, programs.PaymentPaid)

	svc := payments.NewCheckoutService(db, &stubGateway{}, "http://localhost:8080")

	_, err := svc.Initiate(context.Background(), payments.CheckoutInput{
		UserID:    u.ID,
		ProgramID: prog.ID,
		OrderID:   payments.NewOrderID(),
	})
	require.ErrorIs(t, err, payments.ErrProgramFull)
}

func TestInitiateRejectsDuplicateOrderID(t *testing.T) {
	db := testutil.OpenTestDB(t)
	u := seedUser(t, db)
	prog := seedProgram(t, db, programs.StatusOpen, 50000, 0)

	svc := payments.NewCheckoutService(db, &stubGateway{}, "http://localhost:8080")

	in := payments.CheckoutInput{
		UserID:    u.ID,
		ProgramID: prog.ID,
		OrderID:   "ORD-DUP",
		Name:      "홍길동",
		Phone:     "010-1234-5678",
	}
	_, err := svc.Initiate(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Initiate(context.Background(), in)
	require.ErrorIs(t, err, payments.ErrDuplicateOrder)

	var cnt int64
	require.NoError(t, db.Model(&payments.Payment{}).Where("order_id = ?", "ORD-DUP").Count(&cnt).Error)
	require.EqualValues(t, 1, cnt)
}

func TestInitiateMissingFields(t *testing.T) {
	db := testutil.OpenTestDB(t)
	svc := payments.NewCheckoutService(db, &stubGateway{}, "http://localhost:8080")

	_, err := svc.Initiate(context.Background(), payments.CheckoutInput{})
	require.ErrorIs(t, err, payments.ErrMissingFields)
}

func TestNewOrderID(t *testing.T) {
	a := payments.NewOrderID()
	b := payments.NewOrderID()

	require.True(t, strings.HasPrefix(a, "ORD"))
	require.NotEqual(t, a, b)
	require.LessOrEqual(t, len(a), 64)
}
