// Package site turns federation registry records into the flat site summaries the portal renders
package site

import "github.com/one-edge/portal/internal/registry"

// The record properties a Summary is built from
const (
	PropertyPhone       = "phone"
	PropertyDescription = "description"
)

// Summary represents a site in the shape the rendering layer consumes.
// Fields missing in the registry record are empty.
type Summary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Description string `json:"description"`
}

// FromRecord builds the summary of a single registry record
func FromRecord(record registry.RawSiteRecord) Summary {
	summary := Summary{}
	if record.ID != nil {
		summary.ID = *record.ID
	}
	if record.Spec != nil && record.Spec.Name != nil {
		summary.Name = *record.Spec.Name
	}
	summary.Phone, _ = record.Property(PropertyPhone)
	summary.Description, _ = record.Property(PropertyDescription)
	return summary
}

// Transform builds one summary per record, keeping the order of the records.
// The result is never nil.
func Transform(records []registry.RawSiteRecord) []Summary {
	summaries := make([]Summary, len(records))
	for i, record := range records {
		summaries[i] = FromRecord(record)
	}
	return summaries
}
