package payments

import (
	"time"

	"gorm.io/datatypes"
)

const RefundStatusRefunded = "refunded"

// Refund exists only for gateway-confirmed cancellations; a declined cancel
// never produces a row.
type Refund struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	PaymentID string `gorm:"type:char(36);not null;index:ix_refunds_payment_id"`
	UserID    string `gorm:"type:char(36);not null;index:ix_refunds_user_id"`

	Amount   int    `gorm:"not null"`
	Currency string `gorm:"type:char(3);not null;default:KRW"`
	Reason   string `gorm:"type:varchar(255);not null"`

	CancelTID   *string        `gorm:"column:cancel_tid;type:varchar(64)"`
	RawResponse datatypes.JSON `gorm:"type:json"`

	Status    string    `gorm:"type:varchar(16);not null"`
	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Refund) TableName() string { return "refunds" }
