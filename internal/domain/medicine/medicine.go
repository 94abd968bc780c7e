// Package medicine implements extraction of structured medicine records
// from recognized prescription text.
package medicine

// Dosage is the amount and unit of a single dose
type Dosage struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// Frequency is how often a dose is taken within a period
type Frequency struct {
	Times  int    `json:"times"`
	Period string `json:"period"`
}

// Timing is a human-readable dosing hint
type Timing struct {
	Time         string `json:"time"`
	Instructions string `json:"instructions"`
}

// Duration is how long a course of medication runs
type Duration struct {
	Value int    `json:"value"`
	Unit  string `json:"unit"`
}

// Medicine is a structured medicine record extracted from prescription text.
// Immutable once produced by the extractor.
type Medicine struct {
	Name         string    `json:"name"`
	Dosage       Dosage    `json:"dosage"`
	Frequency    Frequency `json:"frequency"`
	Timing       []Timing  `json:"timing"`
	Duration     *Duration `json:"duration,omitempty"`
	Instructions string    `json:"instructions"`
	BeforeMeal   bool      `json:"before_meal"`
	AfterMeal    bool      `json:"after_meal"`
}
