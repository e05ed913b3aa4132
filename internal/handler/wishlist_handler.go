package handler

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/middleware"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type WishlistHandler struct {
	uc  *usecase.WishlistUsecase
	log *zap.Logger
}

func NewWishlistHandler(uc *usecase.WishlistUsecase, log *zap.Logger) *WishlistHandler {
	return &WishlistHandler{uc: uc, log: log}
}

type WishlistRequest struct {
	ProductID int64 `json:"product_id"`
}

func (h *WishlistHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repo.UserRepository) {
	auth := []echo.MiddlewareFunc{middleware.AuthJWT(cfg), middleware.TokenVersionGuard(userRepo)}

	e.GET("/wishlist", h.list, auth...)
	e.POST("/wishlist", h.add, auth...)
	e.DELETE("/wishlist/:id", h.remove, auth...)
	e.GET("/wishlist/check/:product_id", h.check, auth...)

	//未ログインでも使える
	e.POST("/wishlist/toggle", h.toggle, middleware.OptionalAuthJWT(cfg, userRepo))
}

func (h *WishlistHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	//未ログイン時のお気に入りを取り込む（失敗しても一覧は返す）
	if err := h.uc.MergeSession(c.Request().Context(), userID, middleware.GetSession(c)); err != nil {
		h.log.Warn("wishlist merge failed", zap.Int64("user_id", userID), zap.Error(err))
	}

	out, err := h.uc.List(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *WishlistHandler) add(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req WishlistRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	item, created, err := h.uc.Add(c.Request().Context(), userID, req.ProductID)
	if err != nil {
		return writeError(c, err)
	}
	if !created {
		return c.JSON(http.StatusOK, SuccessResponse{Message: "Already in wishlist"})
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *WishlistHandler) remove(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	if err := h.uc.Remove(c.Request().Context(), userID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *WishlistHandler) check(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	productID, ok := paramID(c, "product_id")
	if !ok {
		return badRequest(c, "invalid product_id")
	}

	in, err := h.uc.Check(c.Request().Context(), userID, productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"in_wishlist": in})
}

func (h *WishlistHandler) toggle(c echo.Context) error {
	var req WishlistRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	//未ログインなら0
	userID, _ := getUserIDFromContext(c)

	out, err := h.uc.Toggle(c.Request().Context(), userID, middleware.GetSession(c), req.ProductID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
