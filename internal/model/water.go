package model

// Water sensor thresholds, in percent humidity.
const (
	WaterWarnPct     = 30.0
	WaterDangerPct   = 60.0
	WaterCriticalPct = 85.0
)

// WaterSensor is a ground-moisture reading from the cane's contact probe.
type WaterSensor struct {
	HumidityLevel float64 `json:"humidityLevel"`
	RawValue      *int    `json:"rawValue"`
}

// Valid reports whether the humidity percentage and, if present, the raw
// ADC reading lie within their physical ranges.
func (w WaterSensor) Valid() bool {
	if w.HumidityLevel < 0 || w.HumidityLevel > 100 {
		return false
	}
	if w.RawValue != nil && (*w.RawValue < 0 || *w.RawValue > 4095) {
		return false
	}
	return true
}

// Warning reports moderate ground moisture (>=30%).
func (w WaterSensor) Warning() bool { return w.HumidityLevel >= WaterWarnPct }

// Danger reports standing water underfoot (>=60%).
func (w WaterSensor) Danger() bool { return w.HumidityLevel >= WaterDangerPct }

// Submerged reports the probe fully submerged (>=85%).
func (w WaterSensor) Submerged() bool { return w.HumidityLevel >= WaterCriticalPct }
