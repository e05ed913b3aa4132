package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"storefront/internal/config"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// 管理画面の集計とエクスポート
type DashboardHandler struct {
	dashboard *usecase.DashboardUsecase
	export    *usecase.ExportUsecase
}

func NewDashboardHandler(dashboard *usecase.DashboardUsecase, export *usecase.ExportUsecase) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, export: export}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repo.UserRepository) {
	admin := adminGroup(e, cfg, userRepo)

	admin.GET("/dashboard", h.get)
	admin.GET("/export/orders.csv", h.file("orders.csv", "text/csv", h.export.OrdersCSV))
	admin.GET("/export/order-items.csv", h.file("order_items.csv", "text/csv", h.export.OrderItemsCSV))
	admin.GET("/export/orders.xlsx", h.file("orders.xlsx", xlsxContentType, h.export.OrdersXLSX))
	admin.GET("/export/order-items.xlsx", h.file("order_items.xlsx", xlsxContentType, h.export.OrderItemsXLSX))
}

func (h *DashboardHandler) get(c echo.Context) error {
	out, err := h.dashboard.Get(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 書き出しが終わってから返す（途中で失敗したらJSONのエラー）
func (h *DashboardHandler) file(name, contentType string, write func(context.Context, io.Writer) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		var buf bytes.Buffer
		if err := write(c.Request().Context(), &buf); err != nil {
			return writeError(c, err)
		}

		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
		return c.Blob(http.StatusOK, contentType, buf.Bytes())
	}
}
