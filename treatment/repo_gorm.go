package treatment

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariebrainware/tbcare/apperr"
	"github.com/ariebrainware/tbcare/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormRepository struct {
	db *gorm.DB
}

// NewGormRepository returns a Repository backed by gorm.
func NewGormRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func orderFollowUps(db *gorm.DB) *gorm.DB {
	return db.Order("follow_ups.id ASC")
}

func (r *gormRepository) Create(ctx context.Context, t *model.Treatment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error; err != nil {
		return fmt.Errorf("create treatment: %w", err)
	}
	return nil
}

func (r *gormRepository) GetByID(ctx context.Context, id uint) (*model.Treatment, error) {
	var t model.Treatment
	err := r.db.WithContext(ctx).Preload("FollowUps", orderFollowUps).First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.ErrNotFound, err, fmt.Sprintf("treatment %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("get treatment %d: %w", id, err)
	}
	return &t, nil
}

func (r *gormRepository) Save(ctx context.Context, t *model.Treatment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(t).Error; err != nil {
		return fmt.Errorf("save treatment %d: %w", t.ID, err)
	}
	return nil
}

// filtered builds a fresh query for f so the count and the page query do not
// share statement state.
func (r *gormRepository) filtered(ctx context.Context, f ListFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.Treatment{})
	if f.PatientID != nil {
		query = query.Where("patient_id = ?", *f.PatientID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Regimen != "" {
		query = query.Where("regimen = ?", f.Regimen)
	}
	if !f.IncludeArchived {
		query = query.Where("archived = ?", false)
	}
	return query
}

func (r *gormRepository) List(ctx context.Context, f ListFilter) ([]model.Treatment, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count treatments: %w", err)
	}

	query := r.filtered(ctx, f)
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}
	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}
	if f.WithFollowUps {
		query = query.Preload("FollowUps", orderFollowUps)
	}

	var treatments []model.Treatment
	if err := query.Order("start_date DESC").Order("id DESC").Find(&treatments).Error; err != nil {
		return nil, 0, fmt.Errorf("list treatments: %w", err)
	}
	return treatments, total, nil
}

func (r *gormRepository) AppendFollowUp(ctx context.Context, f *model.FollowUp) error {
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		return fmt.Errorf("append follow-up for treatment %d: %w", f.TreatmentID, err)
	}
	return nil
}

func (r *gormRepository) ListFollowUps(ctx context.Context, treatmentID uint) ([]model.FollowUp, error) {
	var entries []model.FollowUp
	err := r.db.WithContext(ctx).Where("treatment_id = ?", treatmentID).Order("id ASC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list follow-ups for treatment %d: %w", treatmentID, err)
	}
	return entries, nil
}
