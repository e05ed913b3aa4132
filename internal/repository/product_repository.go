package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("not found")
	// unique制約違反
	ErrDuplicate = errors.New("duplicate")
)

// 商品一覧の並び順
const (
	SortLatest    = "latest"
	SortLowPrice  = "low_price"
	SortHighPrice = "high_price"
	SortPopular   = "popular"
	SortRating    = "rating"
)

// 一覧検索（available=trueのみ）
type ProductListQuery struct {
	Page         int
	PageSize     int
	CategorySlug string
	Q            string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Brands       []string
	RatingMin    *float64
	InStock      bool
	Sort         string
}

// 絞り込みUI用の候補
type ProductFilters struct {
	Brands     []string         `json:"brands"`
	Categories []model.Category `json:"categories"`
	MinPrice   decimal.Decimal  `json:"min_price"`
	MaxPrice   decimal.Decimal  `json:"max_price"`
}

type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	FindBySlug(ctx context.Context, slug string) (model.Product, error)
	// 存在するものだけ返す（availableは見ない）
	FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Suggest(ctx context.Context, q string, categorySlug string, limit int) ([]model.Product, error)
	Filters(ctx context.Context, categorySlug string) (ProductFilters, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
	IncrementSalesCount(ctx context.Context, productID int64, qty int64) error

	// おすすめ
	Popular(ctx context.Context, limit int) ([]model.Product, error)
	Similar(ctx context.Context, p model.Product, limit int) ([]model.Product, error)
	ByCategoriesExcluding(ctx context.Context, categoryIDs []int64, excludeIDs []int64, limit int) ([]model.Product, error)
}

type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	Create(ctx context.Context, c model.Category) (model.Category, error)
}

type InventoryRepository interface {
	// 管理者による在庫の上書き（履歴つき）
	SetStockWithAdjustment(ctx context.Context, adminUserID int64, productID int64, newStock int64, note string) (before int64, err error)

	// 在庫が足りるときだけ減算
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error
}
