package importer

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/dp-desktop/client/internal/models"
)

// XLSXImporter reads workbooks, producing one frame per non-empty sheet.
type XLSXImporter struct{}

func NewXLSXImporter() *XLSXImporter {
	return &XLSXImporter{}
}

func (x *XLSXImporter) Name() string {
	return "xlsx"
}

func (x *XLSXImporter) CanImport(path string) bool {
	return hasExtension(path, ".xlsx", ".xlsm")
}

func (x *XLSXImporter) Import(path string) ([]models.DataFrame, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer book.Close()

	var frames []models.DataFrame
	for _, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		if len(rows) < 2 {
			continue
		}
		frame, err := buildFrame(sheet, rows)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}
