package repository

import (
	"context"
	"errors"

	"go-jewelry/apps/storefront/model"
	"go-jewelry/pkg/pricing"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PricingRepository struct {
	db *gorm.DB
}

func NewPricingRepository(db *gorm.DB) *PricingRepository {
	return &PricingRepository{db: db}
}

// Get 读取定价配置，不存在时返回 nil, nil
func (r *PricingRepository) Get(ctx context.Context) (*pricing.Config, error) {
	var row model.PricingConfig
	err := r.db.WithContext(ctx).First(&row, model.PricingSingletonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.Config(), nil
}

// Save 覆盖写入单例行，并发写入以最后一次为准
func (r *PricingRepository) Save(ctx context.Context, cfg pricing.Config) error {
	row := model.NewPricingConfig(cfg)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(row).Error
}
