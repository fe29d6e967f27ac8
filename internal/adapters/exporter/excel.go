package exporter

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"chat-export-bot/internal/core/output"
	"chat-export-bot/internal/domain"
	"chat-export-bot/internal/ports"
)

const defaultSheet = "Sheet1"

var columnWidths = []float64{22, 24, 32, 32, 22, 16}

// ExcelRenderer строит xlsx-книгу: по листу на категорию, шесть колонок на листе.
type ExcelRenderer struct{}

// NewExcelRenderer создает новый экземпляр ExcelRenderer.
func NewExcelRenderer() ports.SpreadsheetRenderer {
	return &ExcelRenderer{}
}

// Render записывает таблицы в книгу и возвращает ее содержимое.
// Известные категории идут в фиксированном порядке, остальные ключи по алфавиту.
func (r *ExcelRenderer) Render(tables map[domain.Category][]domain.Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for _, key := range sheetOrder(tables) {
		title := output.SheetTitle(string(key))
		if _, err := f.NewSheet(title); err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", title, err)
		}
		if err := writeSheet(f, title, tables[key], headerStyle); err != nil {
			return nil, err
		}
	}

	if len(f.GetSheetList()) > 1 {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return nil, fmt.Errorf("failed to delete default sheet: %w", err)
		}
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, rows []domain.Row, headerStyle int) error {
	header := output.Columns
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header of %q: %w", sheet, err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header of %q: %w", sheet, err)
	}

	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := row.Values()
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", i+2, sheet, err)
		}
	}
	return nil
}

func sheetOrder(tables map[domain.Category][]domain.Row) []domain.Category {
	order := make([]domain.Category, 0, len(tables))
	known := make(map[domain.Category]bool, 3)
	for _, c := range domain.Categories() {
		known[c] = true
		if _, ok := tables[c]; ok {
			order = append(order, c)
		}
	}

	var extra []domain.Category
	for c := range tables {
		if !known[c] {
			extra = append(extra, c)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(order, extra...)
}

// WorkbookFileName возвращает имя файла книги вида participants_20240312_100500.xlsx.
func WorkbookFileName(t time.Time) string {
	return fmt.Sprintf("participants_%s.xlsx", t.Format("20060102_150405"))
}
