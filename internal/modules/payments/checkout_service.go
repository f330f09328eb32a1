package payments

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"baeumcoop.kr/app/internal/modules/programs"
)

// CheckoutService creates the pending payment before the buyer is handed to
// the gateway. It never calls the gateway itself: approval happens in the
// callback flow.
type CheckoutService struct {
	db       *gorm.DB
	programs *programs.Repo
	clientID string
	baseURL  string
}

func NewCheckoutService(db *gorm.DB, gw Gateway, baseURL string) *CheckoutService {
	return &CheckoutService{
		db:       db,
		programs: programs.NewRepo(db),
		clientID: gw.ClientID(),
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

type CheckoutInput struct {
	UserID    string
	ProgramID string
	OrderID   string // merchant correlation key, generated by the handler
	Name      string
	Phone     string
	Email     string
	Note      string
}

type CheckoutResult struct {
	OrderID   string
	PaymentID string
	Amount    int
	Currency  string
	ClientID  string // public merchant id for the JS SDK
	ReturnURL string
}

func (s *CheckoutService) Initiate(ctx context.Context, in CheckoutInput) (CheckoutResult, error) {
	if in.UserID == "" || in.ProgramID == "" || in.OrderID == "" {
		return CheckoutResult{}, ErrMissingFields
	}

	prog, err := s.programs.GetByID(ctx, in.ProgramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CheckoutResult{}, ErrProgramNotOpen
		}
		return CheckoutResult{}, err
	}
	if prog.Status != programs.StatusOpen || prog.Price <= 0 {
		return CheckoutResult{}, ErrProgramNotOpen
	}

	if prog.Capacity > 0 {
		taken, err := s.programs.ConfirmedCount(ctx, prog.ID)
		if err != nil {
			return CheckoutResult{}, err
		}
		if taken >= int64(prog.Capacity) {
			return CheckoutResult{}, ErrProgramFull
		}
	}

	var created Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// At most one non-terminal payment per order id; a completed order
		// id cannot be reused either.
		var cnt int64
		if err := tx.WithContext(ctx).Model(&Payment{}).
			Where("order_id = ? AND status IN ?", in.OrderID, []string{StatusPending, StatusCompleted}).
			Count(&cnt).Error; err != nil {
			return err
		}
		if cnt > 0 {
			return ErrDuplicateOrder
		}

		now := time.Now()
		created = Payment{
			ID:        uuid.NewString(),
			OrderID:   in.OrderID,
			UserID:    in.UserID,
			ProgramID: &prog.ID,
			Amount:    prog.Price,
			Currency:  "KRW",
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.WithContext(ctx).Create(&created).Error; err != nil {
			return err
		}

		var notePtr *string
		if n := strings.TrimSpace(in.Note); n != "" {
			notePtr = &n
		}
		part := programs.Participant{
			ID:            uuid.NewString(),
			ProgramID:     prog.ID,
			UserID:        in.UserID,
			OrderID:       in.OrderID,
			Name:          strings.TrimSpace(in.Name),
			Phone:         strings.TrimSpace(in.Phone),
			Email:         strings.TrimSpace(in.Email),
			Note:          notePtr,
			Status:        programs.ParticipantPending,
			PaymentStatus: programs.PaymentUnpaid,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		return tx.WithContext(ctx).Create(&part).Error
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	return CheckoutResult{
		OrderID:   created.OrderID,
		PaymentID: created.ID,
		Amount:    created.Amount,
		Currency:  created.Currency,
		ClientID:  s.clientID,
		ReturnURL: s.baseURL + "/api/nicepay/callback",
	}, nil
}

// NewOrderID generates a merchant correlation key.
func NewOrderID() string {
	return "ORD" + time.Now().Format("20060102150405") + strings.ToUpper(uuid.NewString()[:8])
}
