package domain

// Category is a document type from the closed classification set.
type Category string

// The closed category set. Unclassifiable is a terminal outcome, not an error.
const (
	CategoryInvoice        Category = "Invoice"
	CategoryResume         Category = "Resume"
	CategoryUtilityBill    Category = "UtilityBill"
	CategoryOther          Category = "Other"
	CategoryUnclassifiable Category = "Unclassifiable"
)

// ScoringLabels returns the label set sent to the zero-shot scorer.
// Unclassifiable is excluded: it is decided by the confidence floor, never predicted.
func ScoringLabels() []Category {
	return []Category{CategoryInvoice, CategoryResume, CategoryUtilityBill, CategoryOther}
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	switch c {
	case CategoryInvoice, CategoryResume, CategoryUtilityBill, CategoryOther, CategoryUnclassifiable:
		return true
	}
	return false
}

// Source records which classification layer produced the final label.
type Source string

const (
	// SourceModel means the model and rule layers agreed on the top category.
	SourceModel Source = "model"
	// SourceRule means the rule layer decided alone (override or scorer fallback).
	SourceRule Source = "rule"
	// SourceHybrid means the fused score decided between disagreeing layers.
	SourceHybrid Source = "hybrid"
)

// Classification is the terminal output of the hybrid classifier.
type Classification struct {
	Category   Category
	Confidence float64
	Source     Source
}
