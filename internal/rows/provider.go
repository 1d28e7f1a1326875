package rows

import "github.com/dp-desktop/client/internal/models"

// ProviderRow is one row of the provider explore results.
type ProviderRow struct {
	Provider      models.Provider
	Description   string
	Tags          string
	Attributes    string
	LastIngestion string
}

// NewProviderRow projects p into a row.
func NewProviderRow(p models.Provider) *ProviderRow {
	return &ProviderRow{
		Provider:      p,
		Description:   Truncate(p.Description, 60),
		Tags:          JoinList(p.Tags),
		Attributes:    FormatAttributes(p.Attributes),
		LastIngestion: formatOptionalTimestamp(p.LastIngestion),
	}
}

// ProviderRows projects every record.
func ProviderRows(providers []models.Provider) []*ProviderRow {
	out := make([]*ProviderRow, len(providers))
	for i, p := range providers {
		out[i] = NewProviderRow(p)
	}
	return out
}
