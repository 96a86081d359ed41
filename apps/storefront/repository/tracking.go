package repository

import (
	"context"

	"go-jewelry/apps/storefront/model"

	"gorm.io/gorm"
)

type TrackingRepository struct {
	db *gorm.DB
}

func NewTrackingRepository(db *gorm.DB) *TrackingRepository {
	return &TrackingRepository{db: db}
}

func (r *TrackingRepository) Create(ctx context.Context, log *model.TrackingLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
