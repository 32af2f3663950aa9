package core

import (
	"errors"
	"strings"
	"time"
)

const (
	CategoryFood      Category = "food"
	CategoryTransport Category = "transport"
	CategoryProduct   Category = "product"
	CategoryEnergy    Category = "energy"
)

// Categories lists every activity category in a stable order. Aggregations
// iterate this slice so category totals always carry one entry per category,
// zero-valued entries included.
var Categories = []Category{CategoryFood, CategoryTransport, CategoryProduct, CategoryEnergy}

type (
	Category string

	// Severity classifies a scanned object's carbon impact as reported by
	// the upstream analysis service.
	Severity string

	// ScannedObject is one item detected in a product scan. Carbon values
	// are trusted input from the analyzer.
	ScannedObject struct {
		ID          string
		Name        string
		CarbonKg    float64
		Severity    Severity
		Description string
	}

	// ProductDetails carries the sub-items aggregated into a single
	// product activity.
	ProductDetails struct {
		Quantity int
		Objects  []ScannedObject
	}

	TransportDetails struct {
		Mode        string
		DistanceKm  float64
		DurationMin int
	}

	EnergyDetails struct {
		EnergyType EnergyType
		Period     string
		Estimated  bool
	}

	// Activity is a single logged carbon-emitting event. Activities are
	// immutable once created: they can be removed but never edited.
	Activity struct {
		ID        string
		Timestamp time.Time
		Category  Category
		Name      string
		CarbonKg  float64

		// At most one of the following is set, matching Category.
		Product   *ProductDetails
		Transport *TransportDetails
		Energy    *EnergyDetails
	}

	// ActivityDraft is the caller-supplied payload for a new activity.
	// The persistence adapter assigns ID and Timestamp at creation time.
	ActivityDraft struct {
		Category  Category
		Name      string
		CarbonKg  float64
		Product   *ProductDetails
		Transport *TransportDetails
		Energy    *EnergyDetails
	}

	// ScanRecord is one entry of the scan history: the raw result of a
	// product scan, kept separately from the ledger so per-date scan
	// lookups never double-count into daily totals.
	ScanRecord struct {
		ID            string
		Timestamp     time.Time
		Objects       []ScannedObject
		TotalCarbonKg float64
	}
)

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrEmptyName       = errors.New("empty activity name")
	ErrEmptyDate       = errors.New("empty date key")
	ErrUnknownActivity = errors.New("activity not found")
)

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryFood, CategoryTransport, CategoryProduct, CategoryEnergy:
		return true
	default:
		return false
	}
}

func (c Category) String() string {
	return string(c)
}

func (d ActivityDraft) Validate() error {
	if !d.Category.IsValid() {
		return ErrInvalidCategory
	}
	if len(strings.TrimSpace(d.Name)) == 0 {
		return ErrEmptyName
	}
	return nil
}

// Draft returns the payload that would recreate this activity, used when
// rebuilding rows loaded from storage.
func (a Activity) Draft() ActivityDraft {
	return ActivityDraft{
		Category:  a.Category,
		Name:      a.Name,
		CarbonKg:  a.CarbonKg,
		Product:   a.Product,
		Transport: a.Transport,
		Energy:    a.Energy,
	}
}
