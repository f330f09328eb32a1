package programs

import "time"

const (
	StatusDraft  = "draft"
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Participant statuses
const (
	ParticipantPending   = "pending"
	ParticipantConfirmed = "confirmed"
	ParticipantCancelled = "cancelled"
)

// Participant payment statuses
const (
	PaymentUnpaid    = "unpaid"
	PaymentPaid      = "paid"
	PaymentCancelled = "cancelled"
)

type Program struct {
	ID          string    `gorm:"type:char(36);primaryKey"`
	Title       string    `gorm:"type:varchar(255);not null"`
	Slug        string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_programs_slug"`
	Description string    `gorm:"type:text"`
	Price       int       `gorm:"not null"` // KRW, no minor units
	Capacity    int       `gorm:"not null;default:0"`
	ImageURL    *string   `gorm:"type:varchar(512)"`
	Status      string    `gorm:"type:varchar(16);not null;default:draft"`
	CreatedAt   time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt   time.Time `gorm:"type:datetime(3);not null"`
}

func (Program) TableName() string { return "programs" }

// Participant links a user's registration to a program. It is tied to a
// Payment through the order id.
type Participant struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	ProgramID string `gorm:"type:char(36);not null;index:ix_participants_program_id"`
	UserID    string `gorm:"type:char(36);not null;index:ix_participants_user_id"`
	OrderID   string `gorm:"type:varchar(64);not null;index:ix_participants_order_id"`

	Name  string `gorm:"type:varchar(100);not null"`
	Phone string `gorm:"type:varchar(32);not null;default:''"`
	Email string `gorm:"type:varchar(255);not null;default:''"`
	Note  *string `gorm:"type:varchar(255)"`

	Status        string `gorm:"type:varchar(16);not null"` // pending|confirmed|cancelled
	PaymentStatus string `gorm:"type:varchar(16);not null"` // unpaid|paid|cancelled

	CreatedAt time.Time `gorm:"type:datetime(3);not null"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null"`
}

func (Participant) TableName() string { return "program_participants" }
