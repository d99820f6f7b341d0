package telemetry

import (
	"fmt"
	"time"
)

// Hub alert severities.
const (
	SeverityLow      = "Low"
	SeverityMedium   = "Medium"
	SeverityHigh     = "High"
	SeverityCritical = "Critical"
)

// Hub alert kinds.
const (
	KindHubBatteryLow    = "battery_voltage_low"
	KindHighAmbientTemp  = "high_ambient_temperature"
	KindLowAmbientTemp   = "low_ambient_temperature"
	KindPoorSignal       = "poor_signal"
	KindHighTurbidity    = "high_turbidity"
	KindLowSoilMoisture  = "low_soil_moisture"
	KindHighInternalTemp = "high_internal_temperature"
	KindHighMemoryUsage  = "high_memory_usage"
	KindTankLevelHigh    = "tank_level_high"
	KindHubGeofenceExit  = "geofence_exit"
	KindLeakDetected     = "leak_detected"
	KindFirmwareOutdated = "firmware_outdated"
	KindHubAllClear      = KindAllClear
)

// LatestFirmware is the release hubs are compared against.
const LatestFirmware = "v1.6.0"

const (
	channelSMSEmail  = "SMS + Email"
	channelSMS       = "SMS"
	channelPush      = "Push"
	channelEmail     = "Email"
	channelDashboard = "Dashboard"
)

const (
	poorSignalDbm      = -110
	internalTempAlarmC = 42
	memoryAlarmPct     = 80
	tankAlarmFraction  = 0.85
	tankAlarmM         = 4.5
	cropDryPct         = 30
	batteryRulePct     = 20

	faultLowSignal     = "W042: Low signal"
	faultSensorTimeout = "E001: Sensor timeout"
	equipmentFirePump  = "Fire Pump"
)

// hubRule appends zero or more alerts for h.
type hubRule func(h *HubSnapshot, t Thresholds) []HubAlert

func hubAlert(severity, kind, channel string, at time.Time, format string, args ...interface{}) HubAlert {
	return HubAlert{
		Severity:  severity,
		Kind:      kind,
		Message:   fmt.Sprintf(format, args...),
		Timestamp: at,
		Channel:   channel,
	}
}

var hubRules = []hubRule{
	func(h *HubSnapshot, t Thresholds) []HubAlert {
		v := h.DeviceHealth.BatteryVoltage
		if v >= t.HubBatteryLowV {
			return nil
		}
		return []HubAlert{hubAlert(SeverityCritical, KindHubBatteryLow, channelSMSEmail, h.GeneratedAt,
			"Battery voltage critically low (%.2fV)", v)}
	},
	func(h *HubSnapshot, t Thresholds) []HubAlert {
		series := h.Environmental.AmbientTemp
		i := firstIndex(series, func(x float64) bool { return x > t.HubAmbientMaxC })
		if i < 0 {
			return nil
		}
		peak, _ := seriesMax(series)
		return []HubAlert{hubAlert(SeverityHigh, KindHighAmbientTemp, channelSMS, BucketTime(h.GeneratedAt, len(series), i),
			"Ambient temperature peaked at %.1f°C (above %g°C)", peak, t.HubAmbientMaxC)}
	},
	func(h *HubSnapshot, t Thresholds) []HubAlert {
		series := h.Environmental.AmbientTemp
		i := firstIndex(series, func(x float64) bool { return x < t.HubAmbientMinC })
		if i < 0 {
			return nil
		}
		low, _ := seriesMin(series)
		return []HubAlert{hubAlert(SeverityMedium, KindLowAmbientTemp, channelEmail, BucketTime(h.GeneratedAt, len(series), i),
			"Ambient temperature dropped to %.1f°C (below %g°C)", low, t.HubAmbientMinC)}
	},
	func(h *HubSnapshot, _ Thresholds) []HubAlert {
		s := h.DeviceHealth.SignalStrength
		if s > poorSignalDbm {
			return nil
		}
		return []HubAlert{hubAlert(SeverityHigh, KindPoorSignal, channelPush, h.GeneratedAt,
			"Signal strength poor (%d dBm)", s)}
	},
	func(h *HubSnapshot, t Thresholds) []HubAlert {
		v := h.WaterUtility.Turbidity
		if v <= t.HubTurbidityNTU {
			return nil
		}
		return []HubAlert{hubAlert(SeverityHigh, KindHighTurbidity, channelSMS, h.GeneratedAt,
			"Turbidity exceeds safe limit (%.1f NTU)", v)}
	},
	func(h *HubSnapshot, _ Thresholds) []HubAlert {
		var out []HubAlert
		for _, z := range h.Agriculture.CropZones {
			if z.Moisture < cropDryPct {
				out = append(out, hubAlert(SeverityHigh, KindLowSoilMoisture, channelSMS, h.GeneratedAt,
					"Soil moisture below threshold in %s (%.1f%%)", z.Name, z.Moisture))
			}
		}
		return out
	},
	func(h *HubSnapshot, _ Thresholds) []HubAlert {
		v := h.DeviceHealth.InternalTemp
		if v < internalTempAlarmC {
			return nil
		}
		return []HubAlert{hubAlert(SeverityMedium, KindHighInternalTemp, channelEmail, h.GeneratedAt,
			"Internal temperature above %d°C (%.1f°C)", internalTempAlarmC, v)}
	},
	func(h *HubSnapshot, _ Thresholds) []HubAlert {
		v := h.DeviceHealth.MemoryUsage
		if v < memoryAlarmPct {
			return nil
		}
		return []HubAlert{hubAlert(SeverityMedium, KindHighMemoryUsage, channelPush, h.GeneratedAt,
			"Memory usage at %d%%", v)}
	},
	func(h *HubSnapshot, _ Thresholds) []HubAlert {
		w := h.WaterUtility
		if w.TankCapacity <= 0 || w.TankLevel/w.TankCapacity <= tankAlarmFraction {
			return nil
		}
		return []HubAlert{hubAlert(SeverityMedium, KindTankLevelHigh, channelPush, h.GeneratedAt,
			"Water tank level at %.0f%% capacity", w.TankLevel/w.TankCapacity*100)}
	},
	func(h *HubSnapshot, _ Thresholds) []HubAlert {
		if h.GPS.GeofenceStatus != "Outside" {
			return nil
		}
		return []HubAlert{hubAlert(SeverityCritical, KindHubGeofenceExit, channelSMSEmail, h.GeneratedAt,
			"Device outside geofence - location %.5f, %.5f", h.GPS.CurrentLat, h.GPS.CurrentLng)}
	},
	func(h *HubSnapshot, _ Thresholds) []HubAlert {
		leaks := h.WaterUtility.LeakEvents
		if len(leaks) == 0 {
			return nil
		}
		latest := leaks[0].Time
		for _, l := range leaks[1:] {
			if l.Time.After(latest) {
				latest = l.Time
			}
		}
		return []HubAlert{hubAlert(SeverityHigh, KindLeakDetected, channelSMSEmail, latest,
			"Leak detected (%d events in the last 72h)", len(leaks))}
	},
	func(h *HubSnapshot, _ Thresholds) []HubAlert {
		if compareVersions(h.DeviceHealth.FirmwareVersion, LatestFirmware) >= 0 {
			return nil
		}
		return []HubAlert{hubAlert(SeverityLow, KindFirmwareOutdated, channelEmail, h.GeneratedAt,
			"Firmware update available (%s)", LatestFirmware)}
	},
}

// DeriveHubAlerts evaluates the hub alert rules in their fixed order and
// numbers the results a1, a2, ... It never returns an empty list.
func DeriveHubAlerts(h *HubSnapshot, t Thresholds) []HubAlert {
	var alerts []HubAlert
	for _, rule := range hubRules {
		alerts = append(alerts, rule(h, t)...)
	}
	if len(alerts) == 0 {
		alerts = append(alerts, hubAlert(SeverityLow, KindHubAllClear, channelDashboard, h.GeneratedAt,
			"All Clear: no active alerts"))
	}
	for i := range alerts {
		alerts[i].ID = fmt.Sprintf("a%d", i+1)
	}
	return alerts
}

// countActive returns the number of alerts that are not the all-clear entry.
func countActive(alerts []HubAlert) int {
	n := 0
	for _, a := range alerts {
		if a.Kind != KindHubAllClear {
			n++
		}
	}
	return n
}

// HasHubAlert reports whether alerts contains an entry of the given kind.
func HasHubAlert(alerts []HubAlert, kind string) bool {
	for _, a := range alerts {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// compareVersions orders "vMAJOR.MINOR.PATCH" strings. Unparsable input
// sorts before everything else.
func compareVersions(a, b string) int {
	pa, okA := parseVersion(a)
	pb, okB := parseVersion(b)
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return -1
	case !okB:
		return 1
	}
	for i := 0; i < 3; i++ {
		if pa[i] != pb[i] {
			if pa[i] < pb[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func parseVersion(v string) ([3]int, bool) {
	var p [3]int
	if _, err := fmt.Sscanf(v, "v%d.%d.%d", &p[0], &p[1], &p[2]); err != nil {
		return p, false
	}
	return p, true
}
