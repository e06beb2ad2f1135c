package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/garyjia/expense-approvals/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestXLSXWriter_WriteApprovedExpenses(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	w := NewXLSXWriter(logger)

	rows := []*entity.ExpenseReportRow{
		{
			ID: 1, EmployeeName: "Eve", Category: "Travel", Description: "Taxi", Currency: "USD",
			Amount: decimal.RequireFromString("40.00"), ApprovedAmount: decimal.RequireFromString("35.50"),
			ExpenseDate: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: 2, EmployeeName: "Bob", Category: "Meals", Description: "Lunch", Currency: "EUR",
			Amount: decimal.RequireFromString("12"), ApprovedAmount: decimal.RequireFromString("12"),
			ExpenseDate: time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, w.WriteApprovedExpenses(&buf, "Acme", rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	title, err := f.GetCellValue(SheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Acme - approved expenses", title)

	header, err := f.GetCellValue(SheetName, "G3")
	require.NoError(t, err)
	assert.Equal(t, "Approved Amount", header)

	employee, err := f.GetCellValue(SheetName, "B4")
	require.NoError(t, err)
	assert.Equal(t, "Eve", employee)

	date, err := f.GetCellValue(SheetName, "H5")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-02", date)

	label, err := f.GetCellValue(SheetName, "F6")
	require.NoError(t, err)
	assert.Equal(t, "Total", label)

	total, err := f.GetCellValue(SheetName, "G6", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "47.5", total)
}

func TestXLSXWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewXLSXWriter(zap.NewNop()).WriteApprovedExpenses(&buf, "Acme", nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	label, err := f.GetCellValue(SheetName, "F4")
	require.NoError(t, err)
	assert.Equal(t, "Total", label)
}
