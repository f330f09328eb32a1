package payments_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"baeumcoop.kr/app/internal/mailer"
	"baeumcoop.kr/app/internal/modules/notify"
	"baeumcoop.kr/app/internal/modules/payments"
	"baeumcoop.kr/app/internal/modules/programs"
	"baeumcoop.kr/app/internal/modules/users"
)

// stubGateway records calls and returns canned results. Signature checks
// pass unless sigFail is set.
type stubGateway struct {
	approveCalls int
	cancelCalls  int

	approveErr error
	cancelErr  error
	sigFail    bool

	lastApproveTID    string
	lastApproveAmount int
	lastCancelTID     string
	lastCancelOrderID string
	lastCancelReason  string
}

func (g *stubGateway) Approve(_ context.Context, tid string, amount int) (payments.ApproveResult, error) {
	g.approveCalls++
	g.lastApproveTID = tid
	g.lastApproveAmount = amount
	if g.approveErr != nil {
		return payments.ApproveResult{}, g.approveErr
	}
	return payments.ApproveResult{
		ResultCode: "0000",
		TID:        tid,
		Amount:     amount,
		Status:     "paid",
		Raw:        []byte(`{"resultCode":"0000","status":"paid"}`),
	}, nil
}

func (g *stubGateway) Cancel(_ context.Context, tid, orderID, reason string) (payments.CancelResult, error) {
	g.cancelCalls++
	g.lastCancelTID = tid
	g.lastCancelOrderID = orderID
	g.lastCancelReason = reason
	if g.cancelErr != nil {
		return payments.CancelResult{}, g.cancelErr
	}
	return payments.CancelResult{
		ResultCode: "0000",
		TID:        tid,
		CancelTID:  "CANCEL-" + tid,
		OrderID:    orderID,
		Status:     "cancelled",
		Raw:        []byte(`{"resultCode":"0000","status":"cancelled"}`),
	}, nil
}

func (g *stubGateway) VerifySignature(authToken, _ string, _ int, signature string) bool {
	if g.sigFail {
		return false
	}
	return authToken != "" && signature != ""
}

func (g *stubGateway) ClientID() string { return "test-client-id" }

func newNotify(db *gorm.DB) (*notify.Service, *mailer.Mock) {
	mock := &mailer.Mock{}
	return notify.NewService(db, mock, "no-reply@baeumcoop.kr", "배움협동조합"), mock
}

func seedUser(t *testing.T, db *gorm.DB) users.User {
	t.Helper()
	now := time.Now()
	u := users.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: []byte("x"),
		Name:         "홍길동",
		Role:         users.RoleMember,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedProgram(t *testing.T, db *gorm.DB, status string, price, capacity int) programs.Program {
	t.Helper()
	now := time.Now()
	p := programs.Program{
		ID:        uuid.NewString(),
		Title:     "목공예 기초",
		Slug:      "woodcraft-" + uuid.NewString()[:8],
		Price:     price,
		Capacity:  capacity,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed program: %v", err)
	}
	return p
}

func seedPayment(t *testing.T, db *gorm.DB, userID, programID, orderID, status string, amount int) payments.Payment {
	t.Helper()
	now := time.Now()
	p := payments.Payment{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		UserID:    userID,
		ProgramID: &programID,
		Amount:    amount,
		Currency:  "KRW",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if status == payments.StatusCompleted {
		tid := "TID-" + orderID
		paid := now
		p.TID = &tid
		p.PaidAt = &paid
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return p
}

func seedParticipant(t *testing.T, db *gorm.DB, programID, userID, orderID, status, payStatus string) programs.Participant {
	t.Helper()
	now := time.Now()
	part := programs.Participant{
		ID:            uuid.NewString(),
		ProgramID:     programID,
		UserID:        userID,
		OrderID:       orderID,
		Name:          "홍길동",
		Phone:         "010-1234-5678",
		Status:        status,
		PaymentStatus: payStatus,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.Create(&part).Error; err != nil {
		t.Fatalf("seed participant: %v", err)
	}
	return part
}
