package telemetry

import (
	"fmt"
	"time"
)

// Device alert severities.
const (
	SeverityInfo = "INFO"
	SeverityWarn = "WARN"
	SeverityCrit = "CRIT"
)

// Device alert kinds.
const (
	KindHighTemperature = "high_temperature"
	KindLowHumidity     = "low_humidity"
	KindSoilDryness     = "soil_dryness"
	KindHighWaterLevel  = "high_water_level"
	KindBatteryLow      = "battery_low"
	KindGeofenceExit    = "geofence_exit"
	KindAllClear        = "all_clear"
)

// Alert is one entry of a device snapshot's alert list.
type Alert struct {
	Severity string    `json:"sev"`
	Kind     string    `json:"kind"`
	Title    string    `json:"title"`
	Message  string    `json:"msg"`
	At       time.Time `json:"at"`
}

// Thresholds parameterise the alert rules of both snapshot variants.
type Thresholds struct {
	HighTempC     float64 `json:"highTempC"`
	LowHumidity   float64 `json:"lowHumidity"`
	SoilDry       float64 `json:"soilDry"`
	HighWaterM    float64 `json:"highWaterM"`
	BatteryLowPct float64 `json:"batteryLowPct"`

	HubAmbientMaxC  float64 `json:"hubAmbientMaxC"`
	HubAmbientMinC  float64 `json:"hubAmbientMinC"`
	HubBatteryLowV  float64 `json:"hubBatteryLowV"`
	HubTurbidityNTU float64 `json:"hubTurbidityNTU"`
}

// DefaultThresholds returns the stock rule thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighTempC:       38,
		LowHumidity:     20,
		SoilDry:         15,
		HighWaterM:      2.2,
		BatteryLowPct:   25,
		HubAmbientMaxC:  38,
		HubAmbientMinC:  18,
		HubBatteryLowV:  3.5,
		HubTurbidityNTU: 12,
	}
}

// alertRule fires when check reports a crossing. idx is the first crossing
// sample of a series rule, or -1 for scalar rules.
type alertRule struct {
	kind     string
	severity string
	title    string
	message  func(t Thresholds) string
	check    func(s *Snapshot, t Thresholds) (fired bool, idx int)
}

func seriesAbove(xs []float64, limit float64) (bool, int) {
	i := firstIndex(xs, func(x float64) bool { return x > limit })
	return i >= 0, i
}

func seriesBelow(xs []float64, limit float64) (bool, int) {
	i := firstIndex(xs, func(x float64) bool { return x < limit })
	return i >= 0, i
}

var deviceRules = []alertRule{
	{
		kind:     KindHighTemperature,
		severity: SeverityWarn,
		title:    "High Temperature",
		message: func(t Thresholds) string {
			return fmt.Sprintf("Temp exceeded %g°C threshold. Triggered cooling/notification task.", t.HighTempC)
		},
		check: func(s *Snapshot, t Thresholds) (bool, int) { return seriesAbove(s.TempC, t.HighTempC) },
	},
	{
		kind:     KindLowHumidity,
		severity: SeverityWarn,
		title:    "Low Humidity",
		message: func(t Thresholds) string {
			return fmt.Sprintf("Humidity dropped below %g%%. Check environment / sensor placement.", t.LowHumidity)
		},
		check: func(s *Snapshot, t Thresholds) (bool, int) { return seriesBelow(s.Humidity, t.LowHumidity) },
	},
	{
		kind:     KindSoilDryness,
		severity: SeverityWarn,
		title:    "Soil Dryness",
		message: func(t Thresholds) string {
			return fmt.Sprintf("Soil moisture below %g%%. Irrigation task scheduled.", t.SoilDry)
		},
		check: func(s *Snapshot, t Thresholds) (bool, int) { return seriesBelow(s.Soil, t.SoilDry) },
	},
	{
		kind:     KindHighWaterLevel,
		severity: SeverityCrit,
		title:    "High Water Level",
		message: func(t Thresholds) string {
			return fmt.Sprintf("Water level exceeded %gm. Flood warning triggered.", t.HighWaterM)
		},
		check: func(s *Snapshot, t Thresholds) (bool, int) { return seriesAbove(s.WaterM, t.HighWaterM) },
	},
	{
		kind:     KindBatteryLow,
		severity: SeverityWarn,
		title:    "Battery Low",
		message: func(t Thresholds) string {
			return fmt.Sprintf("Battery under %g%%. Consider external power/solar.", t.BatteryLowPct)
		},
		check: func(s *Snapshot, t Thresholds) (bool, int) {
			return float64(s.BatteryPct) < t.BatteryLowPct, -1
		},
	},
	{
		kind:     KindGeofenceExit,
		severity: SeverityWarn,
		title:    "Geofence Exit",
		message:  func(Thresholds) string { return "Device moved outside expected area." },
		check: func(s *Snapshot, _ Thresholds) (bool, int) {
			return s.GPS.Geofence == "Outside", -1
		},
	},
}

// DeriveAlerts evaluates the device alert rules against s in their fixed
// order. The result is never empty: when no rule fires it holds exactly one
// all-clear entry.
func DeriveAlerts(s *Snapshot, t Thresholds) []Alert {
	alerts := make([]Alert, 0, len(deviceRules))
	for _, rule := range deviceRules {
		fired, idx := rule.check(s, t)
		if !fired {
			continue
		}
		at := s.GeneratedAt
		if idx >= 0 {
			at = BucketTime(s.GeneratedAt, len(s.EnvLabels), idx)
		}
		alerts = append(alerts, Alert{
			Severity: rule.severity,
			Kind:     rule.kind,
			Title:    rule.title,
			Message:  rule.message(t),
			At:       at,
		})
	}

	if len(alerts) == 0 {
		alerts = append(alerts, Alert{
			Severity: SeverityInfo,
			Kind:     KindAllClear,
			Title:    "All Clear",
			Message:  "No active alerts at this time.",
			At:       s.GeneratedAt,
		})
	}
	return alerts
}

// Derive recomputes the derived fields of s in place. Callers that edit a
// snapshot they own use it to keep status and alerts consistent.
func Derive(s *Snapshot, t Thresholds) {
	s.Status = DeriveStatus(s, t)
	s.Alerts = DeriveAlerts(s, t)
}

// HasAlert reports whether alerts contains an entry of the given kind.
func HasAlert(alerts []Alert, kind string) bool {
	for _, a := range alerts {
		if a.Kind == kind {
			return true
		}
	}
	return false
}
