package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/session"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 12
	maxPageSize     = 100
	similarOnDetail = 8
	defaultSuggest  = 8
)

type ProductUsecase struct {
	products   repo.ProductRepository
	categories repo.CategoryRepository
	inventory  repo.InventoryRepository
	reviews    repo.ReviewRepository
	auditRepo  repo.AuditLogRepository
}

// DI
func NewProductUsecase(
	products repo.ProductRepository,
	categories repo.CategoryRepository,
	inventory repo.InventoryRepository,
	reviews repo.ReviewRepository,
	auditRepo repo.AuditLogRepository,
) *ProductUsecase {
	return &ProductUsecase{
		products:   products,
		categories: categories,
		inventory:  inventory,
		reviews:    reviews,
		auditRepo:  auditRepo,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page      int
	PageSize  int
	Category  string
	Q         string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	Brands    []string
	RatingMin *float64
	InStock   bool
	Sort      string
}

// ページング結果
type ProductPage struct {
	Items      []model.Product `json:"items"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductPage, error) {
	if in.Page == 0 {
		in.Page = 1
	}
	if in.PageSize == 0 {
		in.PageSize = defaultPageSize
	}
	if in.Page < 1 {
		return ProductPage{}, badRequest("invalid page")
	}
	if in.PageSize < 1 || in.PageSize > maxPageSize {
		return ProductPage{}, badRequest("invalid page_size")
	}
	if len(in.Q) > 100 {
		return ProductPage{}, badRequest("q too long")
	}
	switch in.Sort {
	case "", repo.SortLatest, repo.SortLowPrice, repo.SortHighPrice, repo.SortPopular, repo.SortRating:
	default:
		return ProductPage{}, badRequest("invalid sort")
	}

	brands := make([]string, 0, len(in.Brands))
	for _, b := range in.Brands {
		if b = strings.TrimSpace(b); b != "" {
			brands = append(brands, b)
		}
	}

	items, total, err := u.products.ListPublic(ctx, repo.ProductListQuery{
		Page:         in.Page,
		PageSize:     in.PageSize,
		CategorySlug: strings.TrimSpace(in.Category),
		Q:            strings.TrimSpace(in.Q),
		MinPrice:     in.MinPrice,
		MaxPrice:     in.MaxPrice,
		Brands:       brands,
		RatingMin:    in.RatingMin,
		InStock:      in.InStock,
		Sort:         in.Sort,
	})
	if err != nil {
		return ProductPage{}, errDB
	}

	return ProductPage{
		Items:      items,
		Total:      total,
		Page:       in.Page,
		PageSize:   in.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(in.PageSize))),
	}, nil
}

type ProductDetail struct {
	Product        model.Product   `json:"product"`
	AverageRating  float64         `json:"average_rating"`
	ReviewCount    int64           `json:"review_count"`
	Similar        []model.Product `json:"similar"`
	RecentlyViewed []model.Product `json:"recently_viewed"`
}

// 商品詳細。閲覧履歴をセッションに積む。
func (u *ProductUsecase) GetProductDetail(ctx context.Context, sess *session.Session, productID int64) (ProductDetail, error) {
	if productID <= 0 {
		return ProductDetail{}, badRequest("invalid product id")
	}
	p, err := u.products.FindByID(ctx, productID)
	return u.detail(ctx, sess, p, err)
}

func (u *ProductUsecase) GetProductDetailBySlug(ctx context.Context, sess *session.Session, s string) (ProductDetail, error) {
	p, err := u.products.FindBySlug(ctx, s)
	return u.detail(ctx, sess, p, err)
}

func (u *ProductUsecase) detail(ctx context.Context, sess *session.Session, p model.Product, findErr error) (ProductDetail, error) {
	if errors.Is(findErr, repo.ErrNotFound) {
		return ProductDetail{}, notFound("Product not found")
	}
	if findErr != nil {
		return ProductDetail{}, errDB
	}
	if !p.Available {
		return ProductDetail{}, notFound("Product not found")
	}

	summary, err := u.reviews.Summary(ctx, p.ID)
	if err != nil {
		return ProductDetail{}, errDB
	}

	similar, err := u.products.Similar(ctx, p, similarOnDetail)
	if err != nil {
		return ProductDetail{}, errDB
	}

	out := ProductDetail{
		Product:        p,
		AverageRating:  math.Round(summary.Average*10) / 10,
		ReviewCount:    summary.Total,
		Similar:        similar,
		RecentlyViewed: []model.Product{},
	}

	if sess != nil {
		//今見ている商品は除いて、履歴の順に並べる
		ids := make([]int64, 0, len(sess.RecentlyViewed()))
		for _, id := range sess.RecentlyViewed() {
			if id != p.ID {
				ids = append(ids, id)
			}
		}
		recent, err := u.productsInOrder(ctx, ids)
		if err != nil {
			return ProductDetail{}, errDB
		}
		out.RecentlyViewed = recent
		sess.PushRecentlyViewed(p.ID)
	}

	return out, nil
}

// ids の順番を保って公開中の商品だけ返す
func (u *ProductUsecase) productsInOrder(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}
	found, err := u.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && p.Available {
			out = append(out, p)
		}
	}
	return out, nil
}

type ProductSuggestion struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Slug  string          `json:"slug"`
	Price decimal.Decimal `json:"price"`
}

// 検索候補（空のqは空配列）
func (u *ProductUsecase) Suggest(ctx context.Context, q string, category string, limit int) ([]ProductSuggestion, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []ProductSuggestion{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = defaultSuggest
	}

	products, err := u.products.Suggest(ctx, q, strings.TrimSpace(category), limit)
	if err != nil {
		return nil, errDB
	}

	out := make([]ProductSuggestion, 0, len(products))
	for _, p := range products {
		out = append(out, ProductSuggestion{ID: p.ID, Name: p.Name, Slug: p.Slug, Price: p.Price})
	}
	return out, nil
}

func (u *ProductUsecase) Filters(ctx context.Context, category string) (repo.ProductFilters, error) {
	f, err := u.products.Filters(ctx, strings.TrimSpace(category))
	if err != nil {
		return repo.ProductFilters{}, errDB
	}
	if f.Brands == nil {
		f.Brands = []string{}
	}
	return f, nil
}

func (u *ProductUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	list, err := u.categories.List(ctx)
	if err != nil {
		return nil, errDB
	}
	return list, nil
}

func (u *ProductUsecase) AdminCreateCategory(ctx context.Context, name string) (model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return model.Category{}, badRequest("name required")
	}

	c, err := u.categories.Create(ctx, model.Category{Name: name, Slug: slug.Make(name)})
	if errors.Is(err, repo.ErrDuplicate) {
		return model.Category{}, NewHTTPError(http.StatusConflict, "category already exists")
	}
	if err != nil {
		return model.Category{}, errDB
	}
	return c, nil
}

type AdminProductInput struct {
	CategoryID     int64
	Name           string
	Brand          string
	Description    string
	Price          decimal.Decimal
	Stock          int64
	Available      bool
	IsLimitedOffer bool
	Specs          map[string]string
}

func (in AdminProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return badRequest("name required")
	}
	if len(in.Name) > 200 {
		return badRequest("name too long")
	}
	if in.CategoryID <= 0 {
		return badRequest("category_id required")
	}
	if in.Price.IsNegative() {
		return badRequest("price must be >= 0")
	}
	if in.Stock < 0 {
		return badRequest("stock must be >= 0")
	}
	return nil
}

func (in AdminProductInput) toModel() model.Product {
	return model.Product{
		CategoryID:     in.CategoryID,
		Name:           strings.TrimSpace(in.Name),
		Brand:          strings.TrimSpace(in.Brand),
		Description:    in.Description,
		Price:          in.Price.Round(2),
		Stock:          in.Stock,
		Available:      in.Available,
		IsLimitedOffer: in.IsLimitedOffer,
		Specs:          in.Specs,
	}
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, errUnauthorized
	}
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}
	if _, err := u.categories.FindByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Product{}, notFound("category not found")
		}
		return model.Product{}, errDB
	}

	p := in.toModel()
	s, err := u.uniqueSlug(ctx, p.Name)
	if err != nil {
		return model.Product{}, errDB
	}
	p.Slug = s

	created, err := u.products.Create(ctx, p)
	if errors.Is(err, repo.ErrDuplicate) {
		return model.Product{}, NewHTTPError(http.StatusConflict, "slug already exists")
	}
	if err != nil {
		return model.Product{}, errDB
	}

	if err := u.audit(ctx, adminUserID, model.AuditActionCreateProduct, created.ID, nil, created); err != nil {
		return model.Product{}, errDB
	}
	return created, nil
}

// 名前からslugを作り、重複していれば -2, -3 ... を付ける
func (u *ProductUsecase) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "product"
	}
	candidate := base
	for i := 2; ; i++ {
		exists, err := u.products.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) error {
	if adminUserID <= 0 {
		return errUnauthorized
	}
	if productID <= 0 {
		return badRequest("invalid product id")
	}
	if err := in.validate(); err != nil {
		return err
	}

	p := in.toModel()
	p.ID = productID
	if err := u.products.Update(ctx, p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("not found")
		}
		return errDB
	}
	return nil
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return errUnauthorized
	}
	if productID <= 0 {
		return badRequest("invalid product id")
	}

	if err := u.products.SoftDelete(ctx, productID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("not found")
		}
		return errDB
	}

	if err := u.audit(ctx, adminUserID, model.AuditActionDeleteProduct, productID, nil, nil); err != nil {
		return errDB
	}
	return nil
}

// 在庫を上書きし、調整履歴と監査ログを残す
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID int64, productID int64, newStock int64, note string) error {
	if adminUserID <= 0 {
		return errUnauthorized
	}
	if productID <= 0 {
		return badRequest("invalid product id")
	}
	if newStock < 0 {
		return badRequest("stock must be >= 0")
	}
	if len(note) > 255 {
		return badRequest("reason too long")
	}

	before, err := u.inventory.SetStockWithAdjustment(ctx, adminUserID, productID, newStock, strings.TrimSpace(note))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return notFound("not found")
		}
		return errDB
	}

	if err := u.audit(ctx, adminUserID, model.AuditActionUpdateStock, productID,
		map[string]int64{"stock": before},
		map[string]int64{"stock": newStock},
	); err != nil {
		return errDB
	}
	return nil
}

func (u *ProductUsecase) audit(ctx context.Context, actor int64, action model.AuditAction, productID int64, before, after any) error {
	return u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actor,
		Action:       action,
		ResourceType: model.AuditResourceProduct,
		ResourceID:   productID,
		BeforeJSON:   toJSON(before),
		AfterJSON:    toJSON(after),
		CreatedAt:    time.Now(),
	})
}

// nilは空文字
func toJSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
