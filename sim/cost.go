package sim

import "github.com/shopspring/decimal"

// OperationalCostBreakdown prices a run. Values are decimals rounded to
// cents; NetCost = power + chemicals + disposal + maintenance - oil credit
// and may be negative when the recovered oil pays for the run.
type OperationalCostBreakdown struct {
	PowerCost       decimal.Decimal
	ChemicalCost    decimal.Decimal
	DisposalCost    decimal.Decimal
	MaintenanceCost decimal.Decimal
	OilCredit       decimal.Decimal
	NetCost         decimal.Decimal
}

// computeCosts prices the accumulated totals. Chemical dosing is mass-based
// (ppm of separator feed mass); disposal is per tonne of cake.
func computeCosts(cfg CostConfig, chems []ChemicalTreatment, t Totals, runtimeH, sepFeedMassKg, cakeMassKg float64) OperationalCostBreakdown {
	power := decimal.NewFromFloat(t.EnergyKWh).Mul(decimal.NewFromFloat(cfg.PowerPerKWh))
	chem := decimal.Zero
	for _, c := range chems {
		doseKg := c.DoseRatePPM * 1e-6 * sepFeedMassKg
		chem = chem.Add(decimal.NewFromFloat(doseKg).Mul(decimal.NewFromFloat(c.CostPerKg)))
	}
	disposal := decimal.NewFromFloat(cakeMassKg / 1000).Mul(decimal.NewFromFloat(cfg.DisposalPerTonne))
	maint := decimal.NewFromFloat(runtimeH).Mul(decimal.NewFromFloat(cfg.MaintenancePerHour))
	credit := decimal.NewFromFloat(t.OilRecoveredM3).Mul(decimal.NewFromFloat(cfg.OilCreditPerM3))

	b := OperationalCostBreakdown{
		PowerCost:       power.Round(2),
		ChemicalCost:    chem.Round(2),
		DisposalCost:    disposal.Round(2),
		MaintenanceCost: maint.Round(2),
		OilCredit:       credit.Round(2),
	}
	b.NetCost = b.PowerCost.Add(b.ChemicalCost).Add(b.DisposalCost).Add(b.MaintenanceCost).Sub(b.OilCredit)
	return b
}
