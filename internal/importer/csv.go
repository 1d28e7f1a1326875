package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dp-desktop/client/internal/models"
)

// CSVImporter reads comma separated files into a single frame named after
// the file.
type CSVImporter struct{}

func NewCSVImporter() *CSVImporter {
	return &CSVImporter{}
}

func (c *CSVImporter) Name() string {
	return "csv"
}

func (c *CSVImporter) CanImport(path string) bool {
	return hasExtension(path, ".csv")
}

func (c *CSVImporter) Import(path string) ([]models.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	frame, err := buildFrame(name, records)
	if err != nil {
		return nil, err
	}
	return []models.DataFrame{frame}, nil
}
