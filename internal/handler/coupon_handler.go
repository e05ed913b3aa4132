package handler

import (
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/middleware"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type CouponHandler struct {
	uc *usecase.CouponUsecase
}

func NewCouponHandler(uc *usecase.CouponUsecase) *CouponHandler {
	return &CouponHandler{uc: uc}
}

type CouponApplyRequest struct {
	Code string `json:"code"`
}

type CouponCreateRequest struct {
	Code           string          `json:"code"`
	DiscountType   string          `json:"discount_type"`
	DiscountValue  decimal.Decimal `json:"discount_value"`
	MinOrderAmount decimal.Decimal `json:"min_order_amount"`
	ValidFrom      time.Time       `json:"valid_from"`
	ValidTo        time.Time       `json:"valid_to"`
	Active         *bool           `json:"active"`
	UsageLimit     int64           `json:"usage_limit"`
}

func (h *CouponHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repo.UserRepository) {
	g := e.Group("/coupon")
	g.POST("/apply", h.apply)
	g.POST("/remove", h.remove)
	g.GET("/list", h.list)

	admin := adminGroup(e, cfg, userRepo)
	admin.POST("/coupons", h.create)
	admin.GET("/coupons", h.adminList)
}

func (h *CouponHandler) apply(c echo.Context) error {
	var req CouponApplyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	res, err := h.uc.Apply(c.Request().Context(), middleware.GetSession(c), req.Code)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *CouponHandler) remove(c echo.Context) error {
	if err := h.uc.Remove(middleware.GetSession(c)); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "coupon removed"})
}

func (h *CouponHandler) list(c echo.Context) error {
	out, err := h.uc.ListActive(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CouponHandler) create(c echo.Context) error {
	var req CouponCreateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	cp, err := h.uc.AdminCreate(c.Request().Context(), adminID, usecase.AdminCouponInput{
		Code:           req.Code,
		DiscountType:   req.DiscountType,
		DiscountValue:  req.DiscountValue,
		MinOrderAmount: req.MinOrderAmount,
		ValidFrom:      req.ValidFrom,
		ValidTo:        req.ValidTo,
		Active:         active,
		UsageLimit:     req.UsageLimit,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, cp)
}

func (h *CouponHandler) adminList(c echo.Context) error {
	out, err := h.uc.AdminList(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
