package reports

import (
	"context"
	"errors"
	"time"

	"alternanceetmoi.fr/reports/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists reports. Implementations do not check ownership, Service
// does.
type Store interface {
	Insert(ctx context.Context, r *models.Report) error
	Find(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Report, error)
	ListSince(ctx context.Context, owner uuid.UUID, since time.Time) ([]models.Report, error)
	SetAttachments(ctx context.Context, id uuid.UUID, list models.Attachments) error
	Update(ctx context.Context, r *models.Report) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Insert(ctx context.Context, r *models.Report) error {
	if r.Attachments == nil {
		r.Attachments = models.Attachments{}
	}

	return s.db.WithContext(ctx).Clauses(clause.Returning{}).Create(r).Error
}

func (s *GormStore) Find(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	r := &models.Report{}

	if err := s.db.WithContext(ctx).Where(&models.Report{ID: id}).First(r).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return r, nil
}

func (s *GormStore) ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Report, error) {
	list := []models.Report{}

	if err := s.db.WithContext(ctx).
		Where(&models.Report{UserID: owner}).
		Order("date DESC").Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}

	return list, nil
}

func (s *GormStore) ListSince(ctx context.Context, owner uuid.UUID, since time.Time) ([]models.Report, error) {
	list := []models.Report{}

	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND date >= ?", owner, since.Format("2006-01-02")).
		Order("date ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}

	return list, nil
}

func (s *GormStore) SetAttachments(ctx context.Context, id uuid.UUID, list models.Attachments) error {
	if list == nil {
		list = models.Attachments{}
	}

	res := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", id).
		Update("attachments", list)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected < 1 {
		return ErrNoRowsUpdated
	}

	return nil
}

// Update writes the editable fields. Zero values are written too, hence the
// explicit column map.
func (s *GormStore) Update(ctx context.Context, r *models.Report) error {
	res := s.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", r.ID).
		Updates(map[string]any{
			"date":        r.Date.Format("2006-01-02"),
			"title":       r.Title,
			"content":     r.Content,
			"attachments": r.Attachments,
			"updated_at":  r.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected < 1 {
		return ErrNoRowsUpdated
	}

	return nil
}

func (s *GormStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Report{})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected < 1 {
		return ErrNotFound
	}

	return nil
}
