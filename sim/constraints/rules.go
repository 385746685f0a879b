package constraints

// Limits holds the numeric envelope for one separation unit. Warning limits
// feed the constraint set; trip limits feed the interlock set. Zero values
// are filled from DefaultLimits by the plant config loader.
type Limits struct {
	MaxSpeedRPM        float64 `yaml:"maxSpeedRPM"`
	MaxTorqueNm        float64 `yaml:"maxTorqueNm"`
	TripTorqueNm       float64 `yaml:"tripTorqueNm"`
	MaxVibrationMMs    float64 `yaml:"maxVibrationMMs"`
	TripVibrationMMs   float64 `yaml:"tripVibrationMMs"`
	MaxBearingTempC    float64 `yaml:"maxBearingTempC"`
	TripBearingTempC   float64 `yaml:"tripBearingTempC"`
	MaxMotorTempC      float64 `yaml:"maxMotorTempC"`
	MaxFeedRateM3h     float64 `yaml:"maxFeedRateM3h"`
	MinFeedTempC       float64 `yaml:"minFeedTempC"`
	MaxFeedPressureKPa float64 `yaml:"maxFeedPressureKPa"`
	MaxDiffSpeedRPM    float64 `yaml:"maxDiffSpeedRPM"`
	MaxPowerKW         float64 `yaml:"maxPowerKW"`
}

// DefaultLimits returns the envelope of the reference decanter unit.
// Vibration limits follow the ISO 10816 zone boundaries for this frame size.
func DefaultLimits() Limits {
	return Limits{
		MaxSpeedRPM:        3250,
		MaxTorqueNm:        700,
		TripTorqueNm:       715,
		MaxVibrationMMs:    7.1,
		TripVibrationMMs:   11.0,
		MaxBearingTempC:    85,
		TripBearingTempC:   95,
		MaxMotorTempC:      95,
		MaxFeedRateM3h:     30,
		MinFeedTempC:       60,
		MaxFeedPressureKPa: 600,
		MaxDiffSpeedRPM:    18,
		MaxPowerKW:         90,
	}
}

// DefaultConstraints builds the independent warning rules from an envelope.
func DefaultConstraints(l Limits) []Constraint {
	return []Constraint{
		{ID: "CON-SPEED", Description: "bowl speed above rated", Variable: VarSpeed, Limit: l.MaxSpeedRPM, Kind: KindMax},
		{ID: "CON-TORQUE", Description: "scroll torque above continuous rating", Variable: VarTorque, Limit: l.MaxTorqueNm, Kind: KindMax},
		{ID: "CON-VIB", Description: "casing vibration above warning zone", Variable: VarVibration, Limit: l.MaxVibrationMMs, Kind: KindMax},
		{ID: "CON-BRG-TEMP", Description: "main bearing temperature high", Variable: VarBearingTemp, Limit: l.MaxBearingTempC, Kind: KindMax},
		{ID: "CON-MTR-TEMP", Description: "motor winding temperature high", Variable: VarMotorTemp, Limit: l.MaxMotorTempC, Kind: KindMax},
		{ID: "CON-FEED", Description: "feed rate above hydraulic capacity", Variable: VarFeedRate, Limit: l.MaxFeedRateM3h, Kind: KindMax},
		{ID: "CON-FEED-PRESS", Description: "feed pressure above design", Variable: VarFeedPressure, Limit: l.MaxFeedPressureKPa, Kind: KindMax},
		{ID: "CON-DIFF", Description: "differential speed above gearbox rating", Variable: VarDiffSpeed, Limit: l.MaxDiffSpeedRPM, Kind: KindMax},
		{ID: "CON-POWER", Description: "main drive power above rating", Variable: VarPower, Limit: l.MaxPowerKW, Kind: KindMax},
	}
}

// DefaultInterlocks builds the safety rules from an envelope.
func DefaultInterlocks(l Limits) []InterlockRule {
	return []InterlockRule{
		{
			ID:          "IL-TORQUE",
			Description: "high torque trip: stop feed before the scroll stalls",
			Conditions:  []Condition{{Variable: VarTorque, Limit: l.TripTorqueNm, Kind: KindMax}},
			Actions:     []Action{{Variable: VarFeedRate, Value: 0}},
		},
		{
			ID:          "IL-VIB",
			Description: "high vibration trip: stop feed and coast the bowl down",
			Conditions:  []Condition{{Variable: VarVibration, Limit: l.TripVibrationMMs, Kind: KindMax}},
			Actions: []Action{
				{Variable: VarFeedRate, Value: 0},
				{Variable: VarSpeed, Value: 0},
			},
		},
		{
			ID:          "IL-BRG-TEMP",
			Description: "bearing over-temperature trip: stop feed and coast down",
			Conditions:  []Condition{{Variable: VarBearingTemp, Limit: l.TripBearingTempC, Kind: KindMax}},
			Actions: []Action{
				{Variable: VarFeedRate, Value: 0},
				{Variable: VarSpeed, Value: 0},
			},
		},
		{
			// Start permissive: feeding cold emulsion fouls the bowl, so a
			// feed below the minimum temperature while feeding trips the feed.
			ID:          "IL-FEED-TEMP",
			Description: "cold feed permissive: feed temperature below minimum while feeding",
			Conditions: []Condition{
				{Variable: VarFeedTemp, Limit: l.MinFeedTempC, Kind: KindMin},
				{Variable: VarFeedRate, Limit: 0, Kind: KindMax},
			},
			Actions: []Action{{Variable: VarFeedRate, Value: 0}},
		},
	}
}
