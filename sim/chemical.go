package sim

import "fmt"

// ChemicalKind tags a treatment chemical. Each kind carries the same fixed
// fields; there are no open-ended property bags, so configs are checkable at
// load time.
type ChemicalKind string

const (
	ChemicalDemulsifier ChemicalKind = "demulsifier"
	ChemicalFlocculant  ChemicalKind = "flocculant"
	ChemicalAntiscalant ChemicalKind = "antiscalant"
)

// ChemicalTreatment is one dosed chemical. DoseRatePPM is mass of chemical
// per mass of feed; consumption accumulates while the separator is fed.
type ChemicalTreatment struct {
	Kind        ChemicalKind `yaml:"kind"`
	Name        string       `yaml:"name"`
	DoseRatePPM float64      `yaml:"dose_rate_ppm"`
	CostPerKg   float64      `yaml:"cost_per_kg"` // plant currency per kg
}

func (c ChemicalTreatment) validate() error {
	switch c.Kind {
	case ChemicalDemulsifier, ChemicalFlocculant, ChemicalAntiscalant:
	default:
		return fmt.Errorf("chemical %q: unknown kind %q", c.Name, c.Kind)
	}
	if c.DoseRatePPM < 0 {
		return fmt.Errorf("chemical %q: negative dose rate", c.Name)
	}
	if c.CostPerKg < 0 {
		return fmt.Errorf("chemical %q: negative cost", c.Name)
	}
	return nil
}
