package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/yoockh/bikeshop-agent/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductMatch is a product row with its cosine distance to the query vector.
type ProductMatch struct {
	models.ProductRecord `gorm:"embedded"`
	Distance             float64 `gorm:"column:distance"`
}

type FAQMatch struct {
	models.FAQRecord `gorm:"embedded"`
	Distance         float64 `gorm:"column:distance"`
}

type CatalogRepo interface {
	Migrate(ctx context.Context) error
	UpsertProducts(ctx context.Context, rows []models.ProductRecord) error
	UpsertFAQs(ctx context.Context, rows []models.FAQRecord) error
	NearestProducts(ctx context.Context, vec []float32, limit int, maxPrice *int) ([]ProductMatch, error)
	NearestFAQs(ctx context.Context, vec []float32, limit int) ([]FAQMatch, error)
}

type catalogRepo struct {
	db *gorm.DB
}

func NewCatalogRepo(db *gorm.DB) CatalogRepo {
	return &catalogRepo{db: db}
}

func (r *catalogRepo) Migrate(ctx context.Context) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return err
	}
	return db.AutoMigrate(&models.ProductRecord{}, &models.FAQRecord{})
}

func (r *catalogRepo) UpsertProducts(ctx context.Context, rows []models.ProductRecord) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&rows).Error
}

func (r *catalogRepo) UpsertFAQs(ctx context.Context, rows []models.FAQRecord) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&rows).Error
}

func (r *catalogRepo) NearestProducts(ctx context.Context, vec []float32, limit int, maxPrice *int) ([]ProductMatch, error) {
	if limit <= 0 {
		limit = 5
	}

	q := r.db.WithContext(ctx).
		Model(&models.ProductRecord{}).
		Select("*, embedding <=> ? AS distance", pgvector.NewVector(vec))
	if maxPrice != nil {
		q = q.Where("price_eur <= ?", *maxPrice)
	}

	var rows []ProductMatch
	err := q.Order("distance").Limit(limit).Scan(&rows).Error
	return rows, err
}

func (r *catalogRepo) NearestFAQs(ctx context.Context, vec []float32, limit int) ([]FAQMatch, error) {
	if limit <= 0 {
		limit = 2
	}

	var rows []FAQMatch
	err := r.db.WithContext(ctx).
		Model(&models.FAQRecord{}).
		Select("*, embedding <=> ? AS distance", pgvector.NewVector(vec)).
		Order("distance").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
