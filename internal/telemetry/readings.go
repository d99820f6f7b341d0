package telemetry

// Reading is one named scalar taken from a snapshot. Series contribute their
// newest sample.
type Reading struct {
	Metric string
	Value  float64
}

func newest(series []float64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	return series[len(series)-1], true
}

func appendNewest(out []Reading, metric string, series []float64) []Reading {
	if v, ok := newest(series); ok {
		out = append(out, Reading{Metric: metric, Value: v})
	}
	return out
}

// Readings flattens the device snapshot into its current scalar values.
// Metric names match the JSON field names of the snapshot.
func (s *Snapshot) Readings() []Reading {
	out := []Reading{
		{"batteryPct", float64(s.BatteryPct)},
		{"signalDbm", float64(s.SignalDbm)},
		{"vbat", s.Vbat},
		{"vin", s.Vin},
		{"storageUsed", float64(s.StorageUsed)},
		{"speed", s.GPS.Speed},
	}
	out = appendNewest(out, "tempC", s.TempC)
	out = appendNewest(out, "hum", s.Humidity)
	out = appendNewest(out, "soil", s.Soil)
	out = appendNewest(out, "waterM", s.WaterM)
	out = appendNewest(out, "internalTempC", s.InternalTempC)
	out = appendNewest(out, "turbidity", s.Turbidity)
	out = appendNewest(out, "ph", s.PH)
	out = appendNewest(out, "pulse", s.Pulse)
	out = appendNewest(out, "accelX", s.Accel.X)
	out = appendNewest(out, "accelY", s.Accel.Y)
	out = appendNewest(out, "accelZ", s.Accel.Z)
	return out
}

// Readings flattens the hub snapshot into its current scalar values, prefixed
// with "hub." so they never collide with device metrics.
func (h *HubSnapshot) Readings() []Reading {
	out := []Reading{
		{"hub.batteryLevel", float64(h.Executive.BatteryLevel)},
		{"hub.healthScore", float64(h.Executive.HealthScore)},
		{"hub.activeAlerts", float64(h.Executive.ActiveAlerts)},
		{"hub.batteryVoltage", h.DeviceHealth.BatteryVoltage},
		{"hub.signalStrength", float64(h.DeviceHealth.SignalStrength)},
		{"hub.tankLevel", h.WaterUtility.TankLevel},
		{"hub.flowRate", h.WaterUtility.FlowRate},
		{"hub.waterPressure", h.WaterUtility.Pressure},
	}
	out = appendNewest(out, "hub.ambientTemp", h.Environmental.AmbientTemp)
	out = appendNewest(out, "hub.humidity", h.Environmental.Humidity)
	out = appendNewest(out, "hub.pressure", h.Environmental.Pressure)
	out = appendNewest(out, "hub.airQuality", h.Environmental.AirQuality)
	out = appendNewest(out, "hub.soilTemp", h.Environmental.SoilTemp)
	return out
}
