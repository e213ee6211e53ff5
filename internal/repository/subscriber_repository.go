package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type SubscriberRepository interface {
	//既に登録済みなら何もしない
	Upsert(ctx context.Context, s model.DropSubscriber) error
}
