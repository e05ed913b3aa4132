package handler

import (
	"net/http"
	"strconv"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 強制ログアウトと監査ログの参照
type AdminUserHandler struct {
	cfg      config.Config
	userRepo repo.UserRepository
	uc       *usecase.AuthUsecase
	audit    *usecase.AuditUsecase
}

func NewAdminUserHandler(cfg config.Config, userRepo repo.UserRepository, uc *usecase.AuthUsecase, audit *usecase.AuditUsecase) *AdminUserHandler {
	return &AdminUserHandler{cfg: cfg, userRepo: userRepo, uc: uc, audit: audit}
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo) {
	admin := adminGroup(e, h.cfg, h.userRepo)

	admin.POST("/users/:id/force-logout", h.ForceLogout)
	admin.GET("/audit-logs", h.AuditLogs)
}

func (h *AdminUserHandler) ForceLogout(c echo.Context) error {
	userID, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}

	res, err := h.uc.ForceLogout(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

func (h *AdminUserHandler) AuditLogs(c echo.Context) error {
	limit, ok := queryInt(c, "limit", 50)
	if !ok {
		return badRequest(c, "invalid limit")
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return badRequest(c, "invalid offset")
	}

	f := repo.AuditLogFilter{Limit: limit, Offset: offset}
	if v := c.QueryParam("action"); v != "" {
		a := model.AuditAction(v)
		f.Action = &a
	}
	if v := c.QueryParam("resource_type"); v != "" {
		rt := model.AuditResourceType(v)
		f.ResourceType = &rt
	}
	if v := c.QueryParam("resource_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return badRequest(c, "invalid resource_id")
		}
		f.ResourceID = &id
	}

	var from, to *time.Time
	if from, ok = queryTime(c, "from"); !ok {
		return badRequest(c, "invalid from")
	}
	if to, ok = queryTime(c, "to"); !ok {
		return badRequest(c, "invalid to")
	}
	f.CreatedFrom = from
	f.CreatedTo = to

	logs, err := h.audit.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, logs)
}
