package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/config"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	uc *usecase.NotificationUsecase
}

func NewNotificationHandler(uc *usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

type DeviceTokenRequest struct {
	Token      string `json:"token"`
	DeviceType string `json:"device_type"`
}

type SendNotificationRequest struct {
	UserID int64  `json:"user_id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

type BroadcastRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *NotificationHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repo.UserRepository) {
	g := authGroup(e, "/notifications", cfg, userRepo)
	g.POST("/token", h.registerToken)

	admin := adminGroup(e, cfg, userRepo)
	admin.POST("/notifications/send", h.send)
	admin.POST("/notifications/broadcast", h.broadcast)
	admin.GET("/notifications/logs/:user_id", h.logs)
}

func (h *NotificationHandler) registerToken(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req DeviceTokenRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	saved, err := h.uc.RegisterToken(c.Request().Context(), userID, req.Token, req.DeviceType)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, saved)
}

func (h *NotificationHandler) send(c echo.Context) error {
	var req SendNotificationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	res, err := h.uc.SendToUser(c.Request().Context(), req.UserID, req.Title, req.Body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *NotificationHandler) broadcast(c echo.Context) error {
	var req BroadcastRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	res, err := h.uc.Broadcast(c.Request().Context(), req.Title, req.Body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *NotificationHandler) logs(c echo.Context) error {
	userID, ok := paramID(c, "user_id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}

	var limit int64
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid limit")
		}
		limit = n
	}

	logs, err := h.uc.DeliveryLogs(c.Request().Context(), userID, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, logs)
}
