package payments

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Payment, error) {
	var out []Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(100).
		Find(&out).Error
	return out, err
}

// GetWithRefunds loads one payment and its refund rows.
func (r *Repo) GetWithRefunds(ctx context.Context, id string) (Payment, []Refund, error) {
	var p Payment
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return Payment{}, nil, err
	}
	var refs []Refund
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&refs, "payment_id = ?", id).Error; err != nil {
		return Payment{}, nil, err
	}
	return p, refs, nil
}

type ListParams struct {
	Status   string
	Page     int
	PageSize int
}

// List is the admin view over all payments.
func (r *Repo) List(ctx context.Context, in ListParams) ([]Payment, int64, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 20
	}

	q := r.db.WithContext(ctx).Model(&Payment{})
	if in.Status != "" {
		q = q.Where("status = ?", in.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []Payment
	err := q.Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&out).Error
	return out, total, err
}

func (r *Repo) ListRefunds(ctx context.Context) ([]Refund, error) {
	var out []Refund
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(200).
		Find(&out).Error
	return out, err
}
