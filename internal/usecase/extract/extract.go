// Package extract implements per-category structured field extraction.
// Extractors are pure functions over cleaned document text: a field whose
// pattern does not match is absent from the result, never an error.
package extract

import "github.com/kailas-cloud/docdex/internal/domain"

// Extractor pulls structured fields from cleaned document text.
type Extractor interface {
	Extract(text string) domain.Fields
}

// Registry maps categories to their extractors. Dispatch is by explicit
// lookup; categories without an extractor (Other, Unclassifiable) yield an
// empty field mapping.
type Registry map[domain.Category]Extractor

// NewRegistry returns the standard category-to-extractor mapping.
func NewRegistry() Registry {
	return Registry{
		domain.CategoryInvoice:     Invoice{},
		domain.CategoryResume:      Resume{},
		domain.CategoryUtilityBill: UtilityBill{},
	}
}

// Extract dispatches to the extractor registered for category.
func (r Registry) Extract(category domain.Category, text string) domain.Fields {
	ex, ok := r[category]
	if !ok {
		return domain.Fields{}
	}
	return ex.Extract(text)
}
