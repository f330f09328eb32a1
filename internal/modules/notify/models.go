package notify

import "time"

const (
	TypePaymentCompleted = "payment_completed"
	TypePaymentCancelled = "payment_cancelled"
)

// Notification is a side-effect record; it is never authoritative state.
type Notification struct {
	ID        string     `gorm:"type:char(36);primaryKey"`
	UserID    string     `gorm:"type:char(36);not null;index:ix_notifications_user_id"`
	Type      string     `gorm:"type:varchar(32);not null"`
	Title     string     `gorm:"type:varchar(255);not null"`
	Body      string     `gorm:"type:text"`
	ReadAt    *time.Time `gorm:"type:datetime(3)"`
	CreatedAt time.Time  `gorm:"type:datetime(3);not null"`
}

func (Notification) TableName() string { return "notifications" }
