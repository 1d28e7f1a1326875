// Package importer turns spreadsheet files into data frames ready for
// ingestion.
//
// Every supported layout is a table whose first row is a header: the first
// column holds timestamps and each further column holds the values of one PV.
package importer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dp-desktop/client/internal/logging"
	"github.com/dp-desktop/client/internal/models"
)

var logger = logging.For("importer")

// Importer reads one file format.
type Importer interface {
	// Name returns the unique name of the importer.
	Name() string
	// CanImport reports whether the importer handles the file.
	CanImport(path string) bool
	// Import reads the file into frames.
	Import(path string) ([]models.DataFrame, error)
}

// Registry holds the available importers.
type Registry struct {
	importers []Importer
}

var defaultRegistry = NewRegistry()

// NewRegistry creates a registry with the built-in importers.
func NewRegistry() *Registry {
	return &Registry{
		importers: []Importer{
			NewXLSXImporter(),
			NewCSVImporter(),
		},
	}
}

// DefaultRegistry returns the shared registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds an importer. Later registrations are consulted last.
func (r *Registry) Register(i Importer) {
	r.importers = append(r.importers, i)
}

// Find returns the importer for path.
func (r *Registry) Find(path string) (Importer, error) {
	for _, i := range r.importers {
		if i.CanImport(path) {
			return i, nil
		}
	}
	return nil, fmt.Errorf("no importer for file: %s", filepath.Base(path))
}

// ByName returns an importer by its name.
func (r *Registry) ByName(name string) (Importer, error) {
	name = strings.ToLower(name)
	for _, i := range r.importers {
		if strings.ToLower(i.Name()) == name {
			return i, nil
		}
	}
	return nil, fmt.Errorf("importer not found: %s", name)
}

// Import reads path with the matching importer. It never fails with an
// error; problems are reported in the result status.
func (r *Registry) Import(path string) models.DataImportResult {
	imp, err := r.Find(path)
	if err != nil {
		return models.DataImportResult{Status: models.FailureFrom(err)}
	}

	frames, err := imp.Import(path)
	if err != nil {
		logger.Warnf("[Import] %s via %s failed: %v", filepath.Base(path), imp.Name(), err)
		return models.DataImportResult{Status: models.FailureFrom(err)}
	}
	if len(frames) == 0 {
		return models.DataImportResult{Status: models.Failure("No data found in " + filepath.Base(path))}
	}

	logger.Infof("[Import] %s via %s: %d frame(s)", filepath.Base(path), imp.Name(), len(frames))
	return models.DataImportResult{
		Status:     models.Success(fmt.Sprintf("Imported %d data frame(s)", len(frames))),
		DataFrames: frames,
	}
}

// Import reads path with the default registry.
func Import(path string) models.DataImportResult {
	return defaultRegistry.Import(path)
}

func hasExtension(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
