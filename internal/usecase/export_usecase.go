package usecase

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var (
	orderExportHeader     = []string{"ID", "Customer Email", "Total Cost", "Paid", "Created"}
	orderItemExportHeader = []string{"Order ID", "Product", "Price", "Quantity", "Subtotal"}
)

type ExportUsecase struct {
	stats repo.DashboardRepository
	log   *zap.Logger
}

func NewExportUsecase(stats repo.DashboardRepository, log *zap.Logger) *ExportUsecase {
	return &ExportUsecase{stats: stats, log: log}
}

func orderRows(orders []model.Order) [][]string {
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			strconv.FormatInt(o.ID, 10),
			o.Email,
			o.TotalCost().StringFixed(2),
			strconv.FormatBool(o.Paid),
			o.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows
}

func orderItemRows(orders []model.Order) [][]string {
	var rows [][]string
	for _, o := range orders {
		for _, it := range o.Items {
			rows = append(rows, []string{
				strconv.FormatInt(o.ID, 10),
				it.ProductName,
				it.Price.StringFixed(2),
				strconv.FormatInt(it.Quantity, 10),
				it.Cost().StringFixed(2),
			})
		}
	}
	return rows
}

func (u *ExportUsecase) load(ctx context.Context) ([]model.Order, error) {
	orders, err := u.stats.AllOrdersWithItems(ctx)
	if err != nil {
		u.log.Error("export query failed", zap.Error(err))
		return nil, errDB
	}
	return orders, nil
}

func (u *ExportUsecase) OrdersCSV(ctx context.Context, w io.Writer) error {
	orders, err := u.load(ctx)
	if err != nil {
		return err
	}
	return writeCSV(w, orderExportHeader, orderRows(orders))
}

func (u *ExportUsecase) OrderItemsCSV(ctx context.Context, w io.Writer) error {
	orders, err := u.load(ctx)
	if err != nil {
		return err
	}
	return writeCSV(w, orderItemExportHeader, orderItemRows(orders))
}

func (u *ExportUsecase) OrdersXLSX(ctx context.Context, w io.Writer) error {
	orders, err := u.load(ctx)
	if err != nil {
		return err
	}
	return writeXLSX(w, "Orders", orderExportHeader, orderRows(orders))
}

func (u *ExportUsecase) OrderItemsXLSX(ctx context.Context, w io.Writer) error {
	orders, err := u.load(ctx)
	if err != nil {
		return err
	}
	return writeXLSX(w, "Order Items", orderItemExportHeader, orderItemRows(orders))
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// 1シート目に書く
func writeXLSX(w io.Writer, sheet string, header []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	all := append([][]string{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}
