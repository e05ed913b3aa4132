package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// 保存済み配送先。見つからなければErrNotFound。
type AddressRepository interface {
	Create(ctx context.Context, address model.Address) (model.Address, error)
	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)
	FindByID(ctx context.Context, addressID int64) (model.Address, error)
	Update(ctx context.Context, address model.Address) error
	Delete(ctx context.Context, addressID int64) error

	// 同一ユーザー内でdefaultを1件に切り替える
	SetDefault(ctx context.Context, userID, addressID int64) error
}
