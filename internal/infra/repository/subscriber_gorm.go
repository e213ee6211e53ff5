package repository

import (
	"context"

	"storefront/internal/domain/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriberGormRepository struct {
	db *gorm.DB
}

func NewSubscriberGormRepository(db *gorm.DB) *SubscriberGormRepository {
	return &SubscriberGormRepository{db: db}
}

func (r *SubscriberGormRepository) Upsert(ctx context.Context, s model.DropSubscriber) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&s).Error
	if err != nil {
		return mapErr(err, "upsert drop subscriber")
	}
	return nil
}
