package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"baeumcoop.kr/app/internal/mailer"
)

type Service struct {
	db       *gorm.DB
	mailer   mailer.Service // nil disables email fan-out
	fromAddr string
	fromName string
	logger   *slog.Logger
}

func NewService(db *gorm.DB, m mailer.Service, fromAddr, fromName string) *Service {
	return &Service{db: db, mailer: m, fromAddr: fromAddr, fromName: fromName, logger: slog.Default()}
}

func (s *Service) SetLogger(l *slog.Logger) { s.logger = l }

// Record inserts a notification row inside the caller's transaction.
func (s *Service) Record(ctx context.Context, tx *gorm.DB, userID, typ, title, body string) error {
	n := Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}
	return tx.WithContext(ctx).Create(&n).Error
}

// Email sends a transactional mail. Best effort: failures are logged and
// never fail the request.
func (s *Service) Email(ctx context.Context, to, subject, textBody string) {
	if s.mailer == nil || to == "" {
		return
	}
	err := s.mailer.Send(ctx, mailer.Email{
		From:     s.fromAddr,
		FromName: s.fromName,
		To:       []string{to},
		Subject:  subject,
		TextBody: textBody,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "notification email failed", "to", to, "subject", subject, "err", err)
	}
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]Notification, error) {
	var out []Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(100).
		Find(&out).Error
	return out, err
}

func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", &now).Error
}
