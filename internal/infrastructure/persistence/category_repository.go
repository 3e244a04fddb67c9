package persistence

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
)

// GormCategoryRepository implements catalog.CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindBySite returns every category known for the site, ordered by name
func (r *GormCategoryRepository) FindBySite(ctx context.Context, site shared.SiteCode) ([]catalog.CategoryRef, error) {
	var rows []models.CategoryModel
	if err := r.db.WithContext(ctx).
		Where("site = ?", site.String()).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	refs := make([]catalog.CategoryRef, len(rows))
	for i := range rows {
		refs[i] = rows[i].ToDomain()
	}
	return refs, nil
}

// Upsert records the remote id of a category name; the name key is case-folded
func (r *GormCategoryRepository) Upsert(ctx context.Context, site shared.SiteCode, ref catalog.CategoryRef) error {
	model := models.NewCategoryModel(site, ref)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "site"}, {Name: "name_key"}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":       model.Name,
			"remote_id":  model.RemoteID,
			"updated_at": time.Now(),
		}),
	}).Create(model).Error
}

var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
