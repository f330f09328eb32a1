package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"baeumcoop.kr/app/internal/modules/notify"
	"baeumcoop.kr/app/internal/modules/programs"
)

const authSuccessCode = "0000"

// CallbackService handles the gateway's redirect-back. Every gate fails
// closed: nothing is written before the server-to-server approval succeeds.
type CallbackService struct {
	db     *gorm.DB
	gw     Gateway
	notify *notify.Service
	logger *slog.Logger
}

func NewCallbackService(db *gorm.DB, gw Gateway, n *notify.Service) *CallbackService {
	return &CallbackService{db: db, gw: gw, notify: n, logger: slog.Default()}
}

func (s *CallbackService) SetLogger(l *slog.Logger) { s.logger = l }

// CallbackInput carries the form fields of the gateway redirect, unparsed.
type CallbackInput struct {
	AuthResultCode string
	AuthResultMsg  string
	TID            string
	OrderID        string
	Amount         string
	AuthToken      string
	Signature      string
	MallReserved   string // merchant-reserved JSON, round-tripped through the gateway
}

type CallbackResult struct {
	OrderID string
	Amount  int
}

// mallReserved is the metadata the checkout page tunnels through the
// gateway so the participant can be recovered after the redirect.
type mallReserved struct {
	UserID    string `json:"userId"`
	ProgramID string `json:"programId"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Note      string `json:"note"`
}

func (s *CallbackService) Process(ctx context.Context, in CallbackInput) (CallbackResult, error) {
	// Gate 1: required fields
	if in.TID == "" || in.OrderID == "" || in.Amount == "" || in.AuthResultCode == "" {
		return CallbackResult{}, ErrMissingFields
	}
	amount, err := strconv.Atoi(strings.TrimSpace(in.Amount))
	if err != nil || amount <= 0 {
		return CallbackResult{}, ErrMissingFields
	}

	// Gate 2: client-side auth result
	if in.AuthResultCode != authSuccessCode {
		return CallbackResult{}, &AuthDeclinedError{Code: in.AuthResultCode, Msg: in.AuthResultMsg}
	}

	// Gate 3: signature. A forged redirect must never fake a payment.
	if !s.gw.VerifySignature(in.AuthToken, in.TID, amount, in.Signature) {
		return CallbackResult{}, ErrBadSignature
	}

	// Gate 4: amount must match the pending payment created at checkout.
	var pending *Payment
	var p Payment
	err = s.db.WithContext(ctx).
		Order("created_at DESC").
		First(&p, "order_id = ?", in.OrderID).Error
	switch {
	case err == nil:
		if p.Status == StatusCompleted {
			// Duplicate redirect after a finished approval
			return CallbackResult{OrderID: p.OrderID, Amount: p.Amount}, nil
		}
		if p.Status == StatusPending {
			if p.Amount != amount {
				return CallbackResult{}, ErrAmountMismatch
			}
			pending = &p
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Checkout may have happened entirely client-side; the payment row
		// is inserted after approval from the reserved metadata.
		pending = nil
	default:
		return CallbackResult{}, err
	}

	reserved := parseReserved(in.MallReserved)
	if pending == nil && reserved.UserID == "" {
		// No local record and no way to attribute the payment
		return CallbackResult{}, ErrPaymentNotFound
	}

	// Gate 5: server-to-server approval
	approved, err := s.gw.Approve(ctx, in.TID, amount)
	if err != nil {
		return CallbackResult{}, err
	}

	// Persist the outcome. An approved-but-unrecorded payment is an
	// operational alert, never a reason to re-charge.
	userID, userEmail := s.persistTarget(ctx, pending, reserved)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		tid := in.TID

		if pending != nil {
			res := tx.WithContext(ctx).Model(&Payment{}).
				Where("id = ? AND status = ?", pending.ID, StatusPending).
				Updates(map[string]any{
					"status":       StatusCompleted,
					"tid":          tid,
					"raw_response": datatypes.JSON(approved.Raw),
					"paid_at":      &now,
					"updated_at":   now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("pending payment %s changed state concurrently", pending.ID)
			}
		} else {
			var progPtr *string
			if reserved.ProgramID != "" {
				pid := reserved.ProgramID
				progPtr = &pid
			}
			row := Payment{
				ID:          uuid.NewString(),
				OrderID:     in.OrderID,
				UserID:      reserved.UserID,
				ProgramID:   progPtr,
				Amount:      amount,
				Currency:    "KRW",
				Status:      StatusCompleted,
				TID:         &tid,
				RawResponse: datatypes.JSON(approved.Raw),
				PaidAt:      &now,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
				return err
			}
		}

		if err := s.confirmParticipant(ctx, tx, in.OrderID, userID, reserved, now); err != nil {
			return err
		}

		return s.notify.Record(ctx, tx, userID, notify.TypePaymentCompleted,
			"결제가 완료되었습니다",
			fmt.Sprintf("주문번호 %s, 결제금액 %d원", in.OrderID, amount))
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "approved payment not persisted",
			"order_id", in.OrderID, "tid", in.TID, "amount", amount, "err", err)
		return CallbackResult{}, err
	}

	s.notify.Email(ctx, userEmail, "[배움협동조합] 결제 완료 안내",
		fmt.Sprintf("주문번호 %s 결제(%d원)가 정상 처리되었습니다.", in.OrderID, amount))

	return CallbackResult{OrderID: in.OrderID, Amount: amount}, nil
}

// persistTarget resolves who owns the payment and where to send mail.
func (s *CallbackService) persistTarget(ctx context.Context, pending *Payment, reserved mallReserved) (userID, email string) {
	if pending != nil {
		userID = pending.UserID
	} else {
		userID = reserved.UserID
	}
	email = reserved.Email
	if email == "" && userID != "" {
		_ = s.db.WithContext(ctx).Table("users").Select("email").Where("id = ?", userID).Scan(&email).Error
	}
	return userID, email
}

func (s *CallbackService) confirmParticipant(ctx context.Context, tx *gorm.DB, orderID, userID string, reserved mallReserved, now time.Time) error {
	updates := map[string]any{
		"status":         programs.ParticipantConfirmed,
		"payment_status": programs.PaymentPaid,
		"updated_at":     now,
	}
	if reserved.Name != "" {
		updates["name"] = reserved.Name
	}
	if reserved.Phone != "" {
		updates["phone"] = reserved.Phone
	}
	if reserved.Email != "" {
		updates["email"] = reserved.Email
	}

	res := tx.WithContext(ctx).Model(&programs.Participant{}).
		Where("order_id = ?", orderID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// No participant from checkout: build one from the reserved metadata.
	if reserved.ProgramID == "" {
		return fmt.Errorf("no participant for order %s and no reserved program", orderID)
	}
	var notePtr *string
	if reserved.Note != "" {
		n := reserved.Note
		notePtr = &n
	}
	part := programs.Participant{
		ID:            uuid.NewString(),
		ProgramID:     reserved.ProgramID,
		UserID:        userID,
		OrderID:       orderID,
		Name:          reserved.Name,
		Phone:         reserved.Phone,
		Email:         reserved.Email,
		Note:          notePtr,
		Status:        programs.ParticipantConfirmed,
		PaymentStatus: programs.PaymentPaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return tx.WithContext(ctx).Create(&part).Error
}

func parseReserved(raw string) mallReserved {
	var out mallReserved
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return out
	}
	// Tolerate malformed metadata; the pending row carries enough context.
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}
