// Package export renders expense reports as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/garyjia/expense-approvals/internal/application/port"
	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// SheetName is the worksheet holding the approved expenses
const SheetName = "Approved Expenses"

const headerRow = 3

var columns = []string{"ID", "Employee", "Category", "Description", "Currency", "Amount", "Approved Amount", "Expense Date"}

// XLSXWriter implements port.ReportWriter with excelize
type XLSXWriter struct {
	logger *zap.Logger
}

// NewXLSXWriter creates a new spreadsheet writer
func NewXLSXWriter(logger *zap.Logger) *XLSXWriter {
	return &XLSXWriter{logger: logger}
}

// WriteApprovedExpenses writes a title, a header row, one row per expense,
// and a total of approved amounts.
func (x *XLSXWriter) WriteApprovedExpenses(w io.Writer, companyName string, rows []*entity.ExpenseReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	x.setCell(f, "A1", fmt.Sprintf("%s - approved expenses", companyName))

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("failed to create money style: %w", err)
	}

	for i, title := range columns {
		x.setCell(f, cellName(i+1, headerRow), title)
	}
	if err := f.SetCellStyle(SheetName, cellName(1, headerRow), cellName(len(columns), headerRow), headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	total := decimal.Zero
	rowNum := headerRow
	for _, r := range rows {
		rowNum++
		amount, _ := r.Amount.Float64()
		approved, _ := r.ApprovedAmount.Float64()

		x.setCell(f, cellName(1, rowNum), r.ID)
		x.setCell(f, cellName(2, rowNum), r.EmployeeName)
		x.setCell(f, cellName(3, rowNum), r.Category)
		x.setCell(f, cellName(4, rowNum), r.Description)
		x.setCell(f, cellName(5, rowNum), r.Currency)
		x.setCell(f, cellName(6, rowNum), amount)
		x.setCell(f, cellName(7, rowNum), approved)
		x.setCell(f, cellName(8, rowNum), r.ExpenseDate.Format("2006-01-02"))

		total = total.Add(r.ApprovedAmount)
	}

	totalRow := rowNum + 1
	totalValue, _ := total.Float64()
	x.setCell(f, cellName(6, totalRow), "Total")
	x.setCell(f, cellName(7, totalRow), totalValue)

	if err := f.SetCellStyle(SheetName, cellName(6, headerRow+1), cellName(7, totalRow), moneyStyle); err != nil {
		return fmt.Errorf("failed to style amounts: %w", err)
	}
	if err := f.SetColWidth(SheetName, "B", "D", 24); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write spreadsheet: %w", err)
	}

	x.logger.Info("Expense report rendered",
		zap.String("company", companyName),
		zap.Int("rows", len(rows)))
	return nil
}

// setCell sets a cell value, logging instead of failing on a bad cell
func (x *XLSXWriter) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		x.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

var _ port.ReportWriter = (*XLSXWriter)(nil)
