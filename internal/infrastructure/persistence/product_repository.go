package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopsync/backend/internal/domain/catalog"
	"github.com/shopsync/backend/internal/domain/shared"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// GetBySKU finds a product by sku
func (r *GormProductRepository) GetBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	return r.getBySKU(r.db.WithContext(ctx), sku)
}

func (r *GormProductRepository) getBySKU(db *gorm.DB, sku string) (*catalog.Product, error) {
	var model models.ProductModel
	if err := db.Where("sku = ?", sku).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// GetManyBySKU finds every known product of the list, in list order
func (r *GormProductRepository) GetManyBySKU(ctx context.Context, skus []string) ([]*catalog.Product, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("sku IN ?", skus).Find(&rows).Error; err != nil {
		return nil, err
	}

	bySKU := make(map[string]*catalog.Product, len(rows))
	for i := range rows {
		p, err := rows[i].ToDomain()
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", rows[i].SKU, err)
		}
		bySKU[p.SKU] = p
	}

	out := make([]*catalog.Product, 0, len(bySKU))
	for _, sku := range skus {
		if p, ok := bySKU[sku]; ok {
			out = append(out, p)
			delete(bySKU, sku)
		}
	}
	return out, nil
}

// Upsert merges p into the stored row. The read and the write share a
// transaction but take no row lock; concurrent merges of the same sku may
// lose an update until the next sync.
func (r *GormProductRepository) Upsert(ctx context.Context, p *catalog.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		merged, err := r.getBySKU(tx, p.SKU)
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			merged = catalog.Patch(p.SKU)
			merged.CreatedAt = p.CreatedAt
		case err != nil:
			return err
		}
		merged.MergeFrom(p)

		var model models.ProductModel
		if err := model.FromDomain(merged); err != nil {
			return err
		}
		return tx.Save(&model).Error
	})
}

// UpsertMany merges every product with one read and one batched write
func (r *GormProductRepository) UpsertMany(ctx context.Context, ps []*catalog.Product) error {
	if len(ps) == 0 {
		return nil
	}
	skus := make([]string, len(ps))
	for i, p := range ps {
		skus[i] = p.SKU
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.ProductModel
		if err := tx.Where("sku IN ?", skus).Find(&rows).Error; err != nil {
			return err
		}
		existing := make(map[string]*catalog.Product, len(rows))
		for i := range rows {
			p, err := rows[i].ToDomain()
			if err != nil {
				return fmt.Errorf("product %s: %w", rows[i].SKU, err)
			}
			existing[p.SKU] = p
		}

		order := make([]string, 0, len(ps))
		for _, p := range ps {
			merged, ok := existing[p.SKU]
			if !ok {
				merged = catalog.Patch(p.SKU)
				merged.CreatedAt = p.CreatedAt
				existing[p.SKU] = merged
				order = append(order, p.SKU)
			} else if !contains(order, p.SKU) {
				order = append(order, p.SKU)
			}
			merged.MergeFrom(p)
		}

		out := make([]models.ProductModel, 0, len(order))
		for _, sku := range order {
			var m models.ProductModel
			if err := m.FromDomain(existing[sku]); err != nil {
				return err
			}
			out = append(out, m)
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sku"}},
			UpdateAll: true,
		}).CreateInBatches(&out, 100).Error
	})
}

// Save overwrites the stored row
func (r *GormProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	var model models.ProductModel
	if err := model.FromDomain(p); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(&model).Error
}

// ClearSites drops the sites' per-site entries from the stored row
func (r *GormProductRepository) ClearSites(ctx context.Context, sku string, sites []shared.SiteCode) error {
	if len(sites) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := r.getBySKU(tx, sku)
		if err != nil {
			return err
		}
		for _, site := range sites {
			p.ClearSite(site)
		}

		var model models.ProductModel
		if err := model.FromDomain(p); err != nil {
			return err
		}
		return tx.Save(&model).Error
	})
}

// Delete removes the row
func (r *GormProductRepository) Delete(ctx context.Context, sku string) error {
	result := r.db.WithContext(ctx).Where("sku = ?", sku).Delete(&models.ProductModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
