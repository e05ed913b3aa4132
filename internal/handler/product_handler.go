package handler

import (
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/domain/money"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products の公開API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/suggest", h.suggest)
	e.GET("/products/filters", h.filters)
	e.GET("/products/slug/:slug", h.detailBySlug)
	e.GET("/products/:id", h.detail)
	e.GET("/categories", h.categories)
}

func (h *ProductHandler) list(c echo.Context) error {
	// page（default 1）
	page, ok := queryInt(c, "page", 1)
	if !ok {
		return badRequest(c, "invalid page")
	}

	// page_size（default 12）
	pageSize, ok := queryInt(c, "page_size", 12)
	if !ok {
		return badRequest(c, "invalid page_size")
	}

	//brandは複数指定 or カンマ区切り
	var brands []string
	for _, v := range c.QueryParams()["brand"] {
		brands = append(brands, strings.Split(v, ",")...)
	}

	//数値でない価格・評価は無視
	var ratingMin *float64
	if v := c.QueryParam("rating_min"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			ratingMin = &r
		}
	}

	inStock, _ := strconv.ParseBool(c.QueryParam("in_stock"))

	out, err := h.uc.ListPublicProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:      page,
		PageSize:  pageSize,
		Category:  c.QueryParam("category"),
		Q:         c.QueryParam("q"),
		MinPrice:  money.ParseOptional(c.QueryParam("min_price")),
		MaxPrice:  money.ParseOptional(c.QueryParam("max_price")),
		Brands:    brands,
		RatingMin: ratingMin,
		InStock:   inStock,
		Sort:      c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), middleware.GetSession(c), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) detailBySlug(c echo.Context) error {
	p, err := h.uc.GetProductDetailBySlug(c.Request().Context(), middleware.GetSession(c), c.Param("slug"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) suggest(c echo.Context) error {
	limit, ok := queryInt(c, "limit", 8)
	if !ok {
		return badRequest(c, "invalid limit")
	}

	out, err := h.uc.Suggest(c.Request().Context(), c.QueryParam("q"), c.QueryParam("category"), limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) filters(c echo.Context) error {
	out, err := h.uc.Filters(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) categories(c echo.Context) error {
	out, err := h.uc.ListCategories(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
