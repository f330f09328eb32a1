package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"baeumcoop.kr/app/internal/modules/notify"
	"baeumcoop.kr/app/internal/modules/programs"
)

// CancelService refunds a completed payment through the gateway. Ownership
// and status are hard gates checked before any external call.
type CancelService struct {
	db     *gorm.DB
	gw     Gateway
	notify *notify.Service
	logger *slog.Logger
}

func NewCancelService(db *gorm.DB, gw Gateway, n *notify.Service) *CancelService {
	return &CancelService{db: db, gw: gw, notify: n, logger: slog.Default()}
}

func (s *CancelService) SetLogger(l *slog.Logger) { s.logger = l }

type CancelInput struct {
	PaymentID    string
	ActorUserID  string
	ActorIsAdmin bool
	Reason       string
}

type CancelOutcome struct {
	RefundID  string
	PaymentID string
	Amount    int
	Status    string
}

func (s *CancelService) Cancel(ctx context.Context, in CancelInput) (CancelOutcome, error) {
	if in.PaymentID == "" || in.Reason == "" {
		return CancelOutcome{}, ErrNotCancellable
	}

	var p Payment
	if err := s.db.WithContext(ctx).First(&p, "id = ?", in.PaymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CancelOutcome{}, ErrPaymentNotFound
		}
		return CancelOutcome{}, err
	}

	// Ownership gate (admins exempt)
	if !in.ActorIsAdmin && p.UserID != in.ActorUserID {
		return CancelOutcome{}, ErrForbidden
	}

	// Status gate: only completed payments with a gateway transaction id
	if p.Status != StatusCompleted || p.TID == nil || *p.TID == "" {
		return CancelOutcome{}, ErrNotCancellable
	}

	// Gateway cancel, outside any transaction. A failure here leaves local
	// state untouched.
	cancelled, err := s.gw.Cancel(ctx, *p.TID, p.OrderID, in.Reason)
	if err != nil {
		return CancelOutcome{}, err
	}

	var refundID string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()

		res := tx.WithContext(ctx).Model(&Payment{}).
			Where("id = ? AND status = ?", p.ID, StatusCompleted).
			Updates(map[string]any{
				"status":       StatusCancelled,
				"cancelled_at": &now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("payment %s changed state during cancel", p.ID)
		}

		if err := tx.WithContext(ctx).Model(&programs.Participant{}).
			Where("order_id = ?", p.OrderID).
			Updates(map[string]any{
				"status":         programs.ParticipantCancelled,
				"payment_status": programs.PaymentCancelled,
				"updated_at":     now,
			}).Error; err != nil {
			return err
		}

		var cancelTID *string
		if cancelled.CancelTID != "" {
			t := cancelled.CancelTID
			cancelTID = &t
		} else if cancelled.TID != "" {
			t := cancelled.TID
			cancelTID = &t
		}
		ref := Refund{
			ID:          uuid.NewString(),
			PaymentID:   p.ID,
			UserID:      p.UserID,
			Amount:      p.Amount,
			Currency:    p.Currency,
			Reason:      in.Reason,
			CancelTID:   cancelTID,
			RawResponse: datatypes.JSON(cancelled.Raw),
			Status:      RefundStatusRefunded,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.WithContext(ctx).Create(&ref).Error; err != nil {
			return err
		}
		refundID = ref.ID

		return s.notify.Record(ctx, tx, p.UserID, notify.TypePaymentCancelled,
			"결제가 취소되었습니다",
			fmt.Sprintf("주문번호 %s 결제(%d원)가 취소되었습니다.", p.OrderID, p.Amount))
	})
	if err != nil {
		// Gateway-truth and local-truth now disagree. Logged for manual
		// reconciliation; no automatic retry.
		s.logger.ErrorContext(ctx, "gateway cancel succeeded but local update failed",
			"payment_id", p.ID, "order_id", p.OrderID, "tid", *p.TID, "err", err)
		return CancelOutcome{}, err
	}

	return CancelOutcome{
		RefundID:  refundID,
		PaymentID: p.ID,
		Amount:    p.Amount,
		Status:    StatusCancelled,
	}, nil
}
