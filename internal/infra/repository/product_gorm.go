package repository

import (
	"context"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 公開中の商品（available=true・未削除）
func (r *ProductGormRepository) public(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Product{}).Where("products.available = ?", true)
}

// 一覧の絞り込み条件を組み立てる
func (r *ProductGormRepository) listQuery(ctx context.Context, q repo.ProductListQuery) *gorm.DB {
	ratings := r.db.WithContext(ctx).Model(&model.Review{}).
		Select("product_id, AVG(rating) AS avg_rating").
		Group("product_id")

	tx := r.public(ctx).Joins("LEFT JOIN (?) AS pr ON pr.product_id = products.id", ratings)

	if q.CategorySlug != "" {
		tx = tx.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", q.CategorySlug)
	}

	// name / description / brand を部分一致
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("products.name ILIKE ? OR products.description ILIKE ? OR products.brand ILIKE ?", like, like, like)
	}

	if q.MinPrice != nil {
		tx = tx.Where("products.price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("products.price <= ?", *q.MaxPrice)
	}
	if len(q.Brands) > 0 {
		tx = tx.Where("products.brand IN ?", q.Brands)
	}
	if q.RatingMin != nil {
		tx = tx.Where("pr.avg_rating >= ?", *q.RatingMin)
	}
	if q.InStock {
		tx = tx.Where("products.stock > 0")
	}
	return tx
}

func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var total int64
	if err := r.listQuery(ctx, q).Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	tx := r.listQuery(ctx, q).Select("products.*").Preload("Category")

	switch q.Sort {
	case repo.SortLowPrice:
		tx = tx.Order("products.price asc").Order("products.id asc")
	case repo.SortHighPrice:
		tx = tx.Order("products.price desc").Order("products.id desc")
	case repo.SortPopular:
		tx = tx.Order("products.sales_count desc").Order("products.id desc")
	case repo.SortRating:
		tx = tx.Order("COALESCE(pr.avg_rating, 0) desc").Order("products.id desc")
	default:
		tx = tx.Order("products.created_at desc").Order("products.id desc")
	}

	var products []model.Product
	offset := (q.Page - 1) * q.PageSize
	if err := tx.Offset(offset).Limit(q.PageSize).Find(&products).Error; err != nil {
		return []model.Product{}, 0, err
	}
	return products, total, nil
}

// IDで商品を取得（非公開も含む）
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Preload("Category").First(&p, id).Error
	if isNotFound(err) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) FindBySlug(ctx context.Context, slug string) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Preload("Category").Where("slug = ?", slug).First(&p).Error
	if isNotFound(err) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	var products []model.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// 削除済みも含めてslugの重複を確認
func (r *ProductGormRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Unscoped().Model(&model.Product{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// 検索候補
func (r *ProductGormRepository) Suggest(ctx context.Context, q string, categorySlug string, limit int) ([]model.Product, error) {
	tx := r.public(ctx).Where("products.name ILIKE ?", "%"+q+"%")
	if categorySlug != "" {
		tx = tx.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", categorySlug)
	}

	var products []model.Product
	if err := tx.Select("products.*").Order("products.sales_count desc").Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductGormRepository) Filters(ctx context.Context, categorySlug string) (repo.ProductFilters, error) {
	scoped := func() *gorm.DB {
		tx := r.public(ctx)
		if categorySlug != "" {
			tx = tx.Joins("JOIN categories ON categories.id = products.category_id").
				Where("categories.slug = ?", categorySlug)
		}
		return tx
	}

	var out repo.ProductFilters

	if err := scoped().
		Where("products.brand <> ''").
		Distinct().
		Order("products.brand").
		Pluck("products.brand", &out.Brands).Error; err != nil {
		return repo.ProductFilters{}, err
	}

	if err := scoped().
		Select("COALESCE(MIN(products.price), 0) AS min_price, COALESCE(MAX(products.price), 0) AS max_price").
		Row().
		Scan(&out.MinPrice, &out.MaxPrice); err != nil {
		return repo.ProductFilters{}, err
	}

	if err := r.db.WithContext(ctx).Order("name").Find(&out.Categories).Error; err != nil {
		return repo.ProductFilters{}, err
	}
	return out, nil
}

// 商品の作成
func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Omit("Category").Create(&p).Error; err != nil {
		if isUniqueViolation(err) {
			return model.Product{}, repo.ErrDuplicate
		}
		return model.Product{}, err
	}
	return p, nil
}

// 商品の更新（slugと販売数は変えない）
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", p.ID).
		Select("category_id", "name", "brand", "description", "price", "stock", "available", "is_limited_offer", "specs").
		Updates(&p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品削除（履歴のため論理削除）
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ProductGormRepository) IncrementSalesCount(ctx context.Context, productID int64, qty int64) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", productID).
		UpdateColumn("sales_count", gorm.Expr("sales_count + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 注文数量の合計が多い順
func (r *ProductGormRepository) Popular(ctx context.Context, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.public(ctx).
		Select("products.*").
		Joins("JOIN order_items ON order_items.product_id = products.id").
		Group("products.id").
		Order("SUM(order_items.quantity) desc").
		Order("products.id asc").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// 同じカテゴリの他の商品
func (r *ProductGormRepository) Similar(ctx context.Context, p model.Product, limit int) ([]model.Product, error) {
	var products []model.Product
	err := r.public(ctx).
		Where("products.category_id = ? AND products.id <> ?", p.CategoryID, p.ID).
		Order("products.sales_count desc").
		Order("products.id desc").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductGormRepository) ByCategoriesExcluding(ctx context.Context, categoryIDs []int64, excludeIDs []int64, limit int) ([]model.Product, error) {
	var products []model.Product
	if len(categoryIDs) == 0 {
		return products, nil
	}

	tx := r.public(ctx).Where("products.category_id IN ?", categoryIDs)
	if len(excludeIDs) > 0 {
		tx = tx.Where("products.id NOT IN ?", excludeIDs)
	}
	if err := tx.Order("products.sales_count desc").Order("products.id desc").Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
