package payments

import (
	"time"

	"gorm.io/datatypes"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// IsTerminal reports whether a payment status can still change through the
// normal flow. Completed payments are terminal for checkout purposes but can
// still move to cancelled.
func IsTerminal(status string) bool {
	return status == StatusFailed || status == StatusCancelled
}

type Payment struct {
	ID        string  `gorm:"type:char(36);primaryKey"`
	OrderID   string  `gorm:"type:varchar(64);not null;index:ix_payments_order_id"`
	UserID    string  `gorm:"type:char(36);not null;index:ix_payments_user_id"`
	ProgramID *string `gorm:"type:char(36);index:ix_payments_program_id"`

	Amount   int    `gorm:"not null"` // KRW, immutable once set
	Currency string `gorm:"type:char(3);not null;default:KRW"`
	Status   string `gorm:"type:varchar(16);not null"`

	TID         *string        `gorm:"column:tid;type:varchar(64)"`
	RawResponse datatypes.JSON `gorm:"type:json"` // gateway response, verbatim for audit

	PaidAt      *time.Time `gorm:"type:datetime(3)"`
	CancelledAt *time.Time `gorm:"type:datetime(3)"`
	CreatedAt   time.Time  `gorm:"type:datetime(3);not null"`
	UpdatedAt   time.Time  `gorm:"type:datetime(3);not null"`
}

func (Payment) TableName() string { return "payments" }
