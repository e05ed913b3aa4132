package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫を「現在値」に更新し、調整履歴も残す。更新前の在庫を返す。
func (r *InventoryGormRepository) SetStockWithAdjustment(ctx context.Context, adminUserID int64, productID int64, newStock int64, note string) (int64, error) {
	var before int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//行ロックして現在の在庫を取得
		var p model.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, productID).Error; err != nil {
			if isNotFound(err) {
				return repo.ErrNotFound
			}
			return err
		}
		before = p.Stock

		res := tx.Model(&model.Product{}).Where("id = ?", productID).Update("stock", newStock)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}

		admin := adminUserID
		return tx.Create(&model.InventoryAdjustment{
			ProductID:   productID,
			AdminUserID: &admin,
			Kind:        model.AdjustmentManual,
			Delta:       newStock - before,
			Note:        note,
		}).Error
	})
	if err != nil {
		return 0, err
	}
	return before, nil
}

// 在庫が足りるときだけ減らす
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	return r.db.WithContext(ctx).Create(&adj).Error
}
