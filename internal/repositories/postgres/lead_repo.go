package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/bikeshop-agent/internal/models"
	"github.com/yoockh/bikeshop-agent/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LeadRepo interface {
	Migrate(ctx context.Context) error
	Upsert(ctx context.Context, l *models.Lead) error
	GetBySession(ctx context.Context, sessionID string) (*models.Lead, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]models.Lead, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type leadRepo struct {
	db *gorm.DB
}

func NewLeadRepo(db *gorm.DB) LeadRepo {
	return &leadRepo{db: db}
}

func (r *leadRepo) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&models.Lead{})
}

// Upsert keys on session_id: one lead per conversation.
func (r *leadRepo) Upsert(ctx context.Context, l *models.Lead) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "email", "phone", "crm_status", "crm_lead_id", "crm_error", "attempts", "metadata", "updated_at"}),
		}).
		Create(l).Error
}

func (r *leadRepo) GetBySession(ctx context.Context, sessionID string) (*models.Lead, error) {
	var l models.Lead
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Take(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *leadRepo) ListByStatus(ctx context.Context, status string, limit int) ([]models.Lead, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Lead
	err := r.db.WithContext(ctx).
		Where("crm_status = ?", status).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *leadRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		CRMStatus string `gorm:"column:crm_status"`
		N         int64  `gorm:"column:n"`
	}
	err := r.db.WithContext(ctx).
		Model(&models.Lead{}).
		Select("crm_status, count(*) AS n").
		Group("crm_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.CRMStatus] = row.N
	}
	return out, nil
}
