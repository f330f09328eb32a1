package programs

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// ListOpen returns programs visible on the public catalog.
func (r *Repo) ListOpen(ctx context.Context) ([]Program, error) {
	var out []Program
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusOpen).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// GetBySlug returns an open program; drafts are invisible to the public.
func (r *Repo) GetBySlug(ctx context.Context, slug string) (Program, error) {
	var p Program
	err := r.db.WithContext(ctx).
		First(&p, "slug = ? AND status <> ?", slug, StatusDraft).Error
	return p, err
}

func (r *Repo) GetByID(ctx context.Context, id string) (Program, error) {
	var p Program
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return p, err
}

type CreateProgramInput struct {
	Title       string
	Slug        string
	Description string
	Price       int
	Capacity    int
	Status      string
}

func (r *Repo) Create(ctx context.Context, in CreateProgramInput) (Program, error) {
	now := time.Now()
	status := in.Status
	if status == "" {
		status = StatusDraft
	}
	p := Program{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(in.Title),
		Slug:        strings.TrimSpace(in.Slug),
		Description: in.Description,
		Price:       in.Price,
		Capacity:    in.Capacity,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return Program{}, err
	}
	return p, nil
}

// Update applies a partial column update. Caller builds the map from
// validated input only.
func (r *Repo) Update(ctx context.Context, id string, updates map[string]any) error {
	updates["updated_at"] = time.Now()
	return r.db.WithContext(ctx).Model(&Program{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repo) SetImage(ctx context.Context, id, url string) error {
	return r.db.WithContext(ctx).Model(&Program{}).
		Where("id = ?", id).
		Updates(map[string]any{"image_url": url, "updated_at": time.Now()}).Error
}

type ListParticipantsParams struct {
	ProgramID string
	Status    string
}

func (r *Repo) ListParticipants(ctx context.Context, in ListParticipantsParams) ([]Participant, error) {
	q := r.db.WithContext(ctx).Model(&Participant{})
	if in.ProgramID != "" {
		q = q.Where("program_id = ?", in.ProgramID)
	}
	if in.Status != "" {
		q = q.Where("status = ?", in.Status)
	}
	var out []Participant
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

// ConfirmedCount counts seats taken for capacity checks.
func (r *Repo) ConfirmedCount(ctx context.Context, programID string) (int64, error) {
	var cnt int64
	err := r.db.WithContext(ctx).Model(&Participant{}).
		Where("program_id = ? AND status <> ?", programID, ParticipantCancelled).
		Count(&cnt).Error
	return cnt, err
}
