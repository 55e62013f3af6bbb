// internal/export/monthly.go
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"helper-admin.kz/internal/stats"
)

const monthlySheet = "Выручка по месяцам"

var monthlyHeaders = []string{"Месяц", "Выручка", "Комиссия", "Платежей", "Средний чек"}

// WriteMonthly пишет помесячную выручку в xlsx с итоговой строкой.
func WriteMonthly(w io.Writer, rows []stats.MonthlyRow, title string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", monthlySheet); err != nil {
		return fmt.Errorf("ошибка создания листа: %w", err)
	}

	f.SetCellValue(monthlySheet, "A1", title)
	if titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}); err == nil {
		f.SetCellStyle(monthlySheet, "A1", "A1", titleStyle)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("ошибка создания стиля: %w", err)
	}
	for i, h := range monthlyHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 3)
		f.SetCellValue(monthlySheet, cell, h)
		f.SetCellStyle(monthlySheet, cell, cell, headerStyle)
	}

	moneyFmt := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return fmt.Errorf("ошибка создания стиля: %w", err)
	}

	var (
		totalRevenue    float64
		totalCommission float64
		totalOrders     int
	)
	row := 4
	for _, m := range rows {
		values := []interface{}{m.Month, m.Revenue, m.Commission, m.Orders, m.AvgOrderValue}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			f.SetCellValue(monthlySheet, cell, v)
		}
		totalRevenue += m.Revenue
		totalCommission += m.Commission
		totalOrders += m.Orders
		row++
	}

	var avg float64
	if totalOrders > 0 {
		avg = totalRevenue / float64(totalOrders)
	}
	totals := []interface{}{"Итого", totalRevenue, totalCommission, totalOrders, avg}
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	boldMoneyStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFmt})
	for i, v := range totals {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(monthlySheet, cell, v)
		style := boldMoneyStyle
		if i == 0 || i == 3 {
			style = boldStyle
		}
		f.SetCellStyle(monthlySheet, cell, cell, style)
	}

	if len(rows) > 0 {
		f.SetCellStyle(monthlySheet, "B4", fmt.Sprintf("C%d", row-1), moneyStyle)
		f.SetCellStyle(monthlySheet, "E4", fmt.Sprintf("E%d", row-1), moneyStyle)
	}
	f.SetColWidth(monthlySheet, "A", "A", 16)
	f.SetColWidth(monthlySheet, "B", "E", 18)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("ошибка записи xlsx: %w", err)
	}
	return nil
}
