package core

import "time"

// Energy baseline: a continuous daily carbon estimate derived from a monthly
// utility bill, added to every day's total regardless of date.

const (
	EnergyElectricity EnergyType = "electricity"
	EnergyNaturalGas  EnergyType = "naturalGas"
	EnergyHeatingOil  EnergyType = "heatingOil"
)

// DefaultBaselinePeriodDays is the billing-period length assumed when the
// caller does not supply one.
const DefaultBaselinePeriodDays = 30

type (
	EnergyType string

	// EnergyBaseline holds the derived daily contribution of one utility.
	EnergyBaseline struct {
		Enabled       bool
		MonthlyAmount float64
		Unit          string
		DailyAverage  float64
		DailyCarbonKg float64
		LastUpdated   time.Time
	}

	// EnergyBaselines aggregates the three utility baselines.
	// TotalDailyCarbonKg sums DailyCarbonKg over enabled baselines only; a
	// disabled baseline keeps its stale value but is excluded from the total.
	EnergyBaselines struct {
		Electricity        EnergyBaseline
		NaturalGas         EnergyBaseline
		HeatingOil         EnergyBaseline
		TotalDailyCarbonKg float64
	}
)

// Emission factors per unit of billed consumption. Fixed constants; the
// ledger does not attempt regional grids or fuel mixes.
const (
	electricityKgPerKWh   = 0.4
	naturalGasKgPerCubicM = 2.0
	heatingOilKgPerLiter  = 2.68
)

// EmissionFactor returns the kg CO2 per billing unit for a utility type.
func EmissionFactor(t EnergyType) float64 {
	switch t {
	case EnergyElectricity:
		return electricityKgPerKWh
	case EnergyNaturalGas:
		return naturalGasKgPerCubicM
	case EnergyHeatingOil:
		return heatingOilKgPerLiter
	default:
		return 0
	}
}

// BillingUnit returns the display unit for a utility type.
func BillingUnit(t EnergyType) string {
	switch t {
	case EnergyElectricity:
		return "kWh"
	case EnergyNaturalGas:
		return "m³"
	case EnergyHeatingOil:
		return "liters"
	default:
		return ""
	}
}

// IsValid reports whether t names a known utility type.
func (t EnergyType) IsValid() bool {
	return EmissionFactor(t) > 0
}

// ComputeBaseline derives one utility's baseline from a monthly bill amount.
// A zero (or negative) monthly amount disables the baseline. daysInPeriod
// values below 1 fall back to DefaultBaselinePeriodDays.
func ComputeBaseline(t EnergyType, monthlyAmount float64, daysInPeriod int, updatedAt time.Time) EnergyBaseline {
	if daysInPeriod < 1 {
		daysInPeriod = DefaultBaselinePeriodDays
	}
	dailyAverage := monthlyAmount / float64(daysInPeriod)
	return EnergyBaseline{
		Enabled:       monthlyAmount > 0,
		MonthlyAmount: monthlyAmount,
		Unit:          BillingUnit(t),
		DailyAverage:  dailyAverage,
		DailyCarbonKg: dailyAverage * EmissionFactor(t),
		LastUpdated:   updatedAt,
	}
}

// Get returns the baseline for a utility type.
func (b EnergyBaselines) Get(t EnergyType) EnergyBaseline {
	switch t {
	case EnergyElectricity:
		return b.Electricity
	case EnergyNaturalGas:
		return b.NaturalGas
	case EnergyHeatingOil:
		return b.HeatingOil
	default:
		return EnergyBaseline{}
	}
}

// Set replaces the baseline for a utility type and recomputes the enabled
// total from scratch.
func (b *EnergyBaselines) Set(t EnergyType, baseline EnergyBaseline) {
	switch t {
	case EnergyElectricity:
		b.Electricity = baseline
	case EnergyNaturalGas:
		b.NaturalGas = baseline
	case EnergyHeatingOil:
		b.HeatingOil = baseline
	}
	b.recomputeTotal()
}

func (b *EnergyBaselines) recomputeTotal() {
	total := 0.0
	for _, bl := range []EnergyBaseline{b.Electricity, b.NaturalGas, b.HeatingOil} {
		if bl.Enabled {
			total += bl.DailyCarbonKg
		}
	}
	b.TotalDailyCarbonKg = total
}
