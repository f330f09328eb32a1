package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"baeumcoop.kr/app/internal/modules/notify"
	"baeumcoop.kr/app/internal/modules/programs"
)

// GatewayEvent records every webhook delivery. The unique event key is the
// dedupe gate: duplicate deliveries are acknowledged without reapplying.
type GatewayEvent struct {
	ID       string `gorm:"type:char(36);primaryKey"`
	EventKey string `gorm:"type:varchar(200);not null;uniqueIndex:ux_gateway_events_key"`
	OrderID  string `gorm:"type:varchar(64);not null;index:ix_gateway_events_order_id"`
	TID      string `gorm:"column:tid;type:varchar(64);not null"`
	Status   string `gorm:"type:varchar(32);not null"`

	PayloadJSON datatypes.JSON `gorm:"type:json;not null"`

	ReceivedAt   time.Time  `gorm:"type:datetime(3);not null"`
	ProcessedAt  *time.Time `gorm:"type:datetime(3)"`
	ProcessError *string    `gorm:"type:varchar(255)"`
}

func (GatewayEvent) TableName() string { return "gateway_events" }

// Gateway status vocabulary -> internal payment status. One table shared by
// everything that maps gateway state.
var gatewayStatusMap = map[string]string{
	"paid":             StatusCompleted,
	"ready":            StatusPending,
	"vbankReady":       StatusPending,
	"cancelled":        StatusCancelled,
	"partialCancelled": StatusCancelled,
	"expired":          StatusFailed,
	"failed":           StatusFailed,
}

type WebhookInput struct {
	ResultCode string
	TID        string
	OrderID    string
	Status     string
	Amount     int
}

type WebhookService struct {
	db     *gorm.DB
	notify *notify.Service
	logger *slog.Logger
}

func NewWebhookService(db *gorm.DB, n *notify.Service) *WebhookService {
	return &WebhookService{db: db, notify: n, logger: slog.Default()}
}

func (s *WebhookService) SetLogger(l *slog.Logger) { s.logger = l }

// Handle reconciles a payment to the status implied by the webhook,
// idempotently keyed by order id. A nil return tells the handler to send the
// fixed acknowledgment; an error makes the gateway retry.
func (s *WebhookService) Handle(ctx context.Context, in WebhookInput, rawBody []byte) error {
	if in.OrderID == "" || in.Status == "" {
		return errors.New("webhook missing orderId or status")
	}

	target, ok := gatewayStatusMap[in.Status]
	if !ok {
		return fmt.Errorf("unknown gateway status %q", in.Status)
	}

	now := time.Now()
	ev := GatewayEvent{
		ID:          uuid.NewString(),
		EventKey:    in.OrderID + "/" + in.Status + "/" + in.TID,
		OrderID:     in.OrderID,
		TID:         in.TID,
		Status:      in.Status,
		PayloadJSON: datatypes.JSON(rawBody),
		ReceivedAt:  now,
	}
	// The event row lives outside the apply transaction so a failed apply
	// still leaves an audit trail with its error.
	if err := s.db.WithContext(ctx).Create(&ev).Error; err != nil {
		if !isDup(err) {
			return err
		}
		// Redelivery: reuse the recorded event. Only a successfully applied
		// event is skipped; a previously failed one is retried.
		if err := s.db.WithContext(ctx).First(&ev, "event_key = ?", ev.EventKey).Error; err != nil {
			return err
		}
		if ev.ProcessedAt != nil {
			s.logger.InfoContext(ctx, "webhook deduplicated",
				"order_id", in.OrderID, "status", in.Status, "tid", in.TID)
			return nil
		}
	}

	applyErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.apply(ctx, tx, in, target, now)
	})
	if applyErr != nil {
		msg := truncate(applyErr.Error(), 250)
		_ = s.db.WithContext(ctx).Model(&GatewayEvent{}).
			Where("id = ?", ev.ID).
			Update("process_error", msg).Error
		s.logger.ErrorContext(ctx, "webhook apply failed",
			"order_id", in.OrderID, "status", in.Status, "err", msg)
		// propagate so the gateway retries
		return applyErr
	}

	processed := time.Now()
	return s.db.WithContext(ctx).Model(&GatewayEvent{}).
		Where("id = ?", ev.ID).
		Updates(map[string]any{"processed_at": &processed, "process_error": nil}).Error
}

func (s *WebhookService) apply(ctx context.Context, tx *gorm.DB, in WebhookInput, target string, now time.Time) error {
	var p Payment
	if err := tx.WithContext(ctx).
		Order("created_at DESC").
		First(&p, "order_id = ?", in.OrderID).Error; err != nil {
		return err // not found: retry, the callback may still be in flight
	}

	// idempotent
	if p.Status == target {
		return nil
	}

	switch target {
	case StatusCompleted:
		updates := map[string]any{
			"status":     StatusCompleted,
			"updated_at": now,
		}
		if p.PaidAt == nil {
			updates["paid_at"] = &now
		}
		if p.TID == nil && in.TID != "" {
			updates["tid"] = in.TID
		}
		if err := tx.WithContext(ctx).Model(&Payment{}).
			Where("id = ?", p.ID).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Model(&programs.Participant{}).
			Where("order_id = ?", in.OrderID).
			Updates(map[string]any{
				"status":         programs.ParticipantConfirmed,
				"payment_status": programs.PaymentPaid,
				"updated_at":     now,
			}).Error; err != nil {
			return err
		}
		return s.notify.Record(ctx, tx, p.UserID, notify.TypePaymentCompleted,
			"결제가 완료되었습니다",
			fmt.Sprintf("주문번호 %s, 결제금액 %d원", p.OrderID, p.Amount))

	case StatusCancelled:
		if err := tx.WithContext(ctx).Model(&Payment{}).
			Where("id = ?", p.ID).
			Updates(map[string]any{
				"status":       StatusCancelled,
				"cancelled_at": &now,
				"updated_at":   now,
			}).Error; err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Model(&programs.Participant{}).
			Where("order_id = ?", in.OrderID).
			Updates(map[string]any{
				"status":         programs.ParticipantCancelled,
				"payment_status": programs.PaymentCancelled,
				"updated_at":     now,
			}).Error; err != nil {
			return err
		}
		return s.notify.Record(ctx, tx, p.UserID, notify.TypePaymentCancelled,
			"결제가 취소되었습니다",
			fmt.Sprintf("주문번호 %s 결제가 취소 처리되었습니다.", p.OrderID))

	case StatusFailed:
		return tx.WithContext(ctx).Model(&Payment{}).
			Where("id = ?", p.ID).
			Updates(map[string]any{"status": StatusFailed, "updated_at": now}).Error

	case StatusPending:
		// ready/vbankReady: nothing to reconcile yet
		return nil
	}
	return nil
}

func isDup(err error) bool {
	var me *gomysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite, used by the test suite
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
