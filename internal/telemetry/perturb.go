package telemetry

import (
	"math"
	"time"
)

// liveTick advances hourly series by one live update. Within the current
// hour only the newest sample moves; when the clock has entered later
// hourly buckets the series shift left and new samples are appended.
type liveTick struct {
	now    time.Time
	shifts int
}

func newLiveTick(prev, now time.Time, n int) liveTick {
	shifts := int(now.Truncate(time.Hour).Sub(prev.Truncate(time.Hour)) / time.Hour)
	if shifts < 0 {
		shifts = 0
	}
	if shifts > n {
		shifts = n
	}
	return liveTick{now: now, shifts: shifts}
}

func (k liveTick) rolled() bool { return k.shifts > 0 }

// walk moves xs in place. delta returns one random step.
func (k liveTick) walk(xs []float64, b Bounds, delta func() float64) {
	n := len(xs)
	if n == 0 {
		return
	}
	if k.shifts == 0 {
		xs[n-1] = Round(b.Clamp(xs[n-1]+delta()), 2)
		return
	}
	for i := 0; i < k.shifts; i++ {
		next := Round(b.Clamp(xs[n-1]+delta()), 2)
		copy(xs, xs[1:])
		xs[n-1] = next
	}
}

// push shifts xs and appends v once per elapsed bucket, or overwrites the
// newest sample within the same hour.
func (k liveTick) push(xs []float64, v float64) {
	n := len(xs)
	if n == 0 {
		return
	}
	for i := 0; i < k.shifts; i++ {
		copy(xs, xs[1:])
	}
	xs[n-1] = v
}

func (k liveTick) labels(ls []string) {
	if k.rolled() {
		copy(ls, HourLabels(k.now, len(ls)))
	}
}

func (s *Source) sym(v float64) func() float64 {
	return func() float64 { return s.Step(v) }
}

func (s *Source) skew(lo, hi float64) func() float64 {
	return func() float64 { return s.Float(lo, hi) }
}

func (s *Source) stepFloat(x, v float64, b Bounds) float64 {
	return Round(b.Clamp(x+s.Step(v)), 2)
}

func (s *Source) stepInt(x int, v float64, b Bounds) int {
	return int(math.Round(b.Clamp(float64(x) + s.Step(v))))
}

func perturbDevice(src *Source, prev *Snapshot, now time.Time, t Thresholds) *Snapshot {
	s := prev.Clone()
	k := newLiveTick(prev.GeneratedAt, now, len(s.EnvLabels))
	s.GeneratedAt = now
	s.LastSeen = now

	s.SignalDbm = src.stepInt(s.SignalDbm, 2.5, SignalDbmRange)
	s.BatteryPct = src.stepInt(s.BatteryPct, 1, BatteryPctRange)
	s.Vbat = src.stepFloat(s.Vbat, 0.02, VbatRange)
	if s.Vin > externalPowerVolts {
		s.Vin = src.stepFloat(s.Vin, 0.3, Bounds{Min: 6, Max: VinRange.Max})
	}
	s.GPS.Speed = src.stepFloat(s.GPS.Speed, 2, SpeedRange)
	s.GPS.Heading = (s.GPS.Heading + src.Int(-5, 5) + 360) % 360
	if src.Chance(0.05) {
		s.StorageUsed = int(StorageUsedRange.Clamp(float64(s.StorageUsed + 1)))
	}

	k.walk(s.TempC, TempCRange, src.sym(1.2))
	k.walk(s.Humidity, HumidityRange, src.sym(4.5))
	k.walk(s.Soil, SoilRange, src.sym(5.5))
	k.walk(s.WaterM, WaterLevelRange, src.sym(0.25))
	k.walk(s.InternalTempC, InternalTempCRange, src.sym(1.0))
	k.walk(s.Accel.X, AccelXYRange, src.sym(0.03))
	k.walk(s.Accel.Y, AccelXYRange, src.sym(0.03))
	k.walk(s.Accel.Z, AccelZRange, src.sym(0.07))
	k.walk(s.Turbidity, TurbidityRange, src.sym(1.2))
	k.walk(s.PH, PHRange, src.sym(0.2))
	k.walk(s.Pulse, PulseRange, src.sym(12))
	k.walk(s.NetworkStats.DataUsageMB, DataUsageMBRange, src.sym(1.5))
	k.walk(s.NetworkStats.UplinkSuccess, UplinkSuccessRange, src.sym(3))
	k.push(s.NetworkStats.SignalHistory, SignalHistoryRange.Clamp(float64(s.SignalDbm)))
	k.walk(s.Solar.PanelVoltage, PanelVoltageRange, src.sym(1.2))
	k.walk(s.Solar.ChargeCurrent, ChargeCurrentRange, src.sym(80))
	k.labels(s.EnvLabels)
	k.labels(s.NetworkStats.Labels)

	if n := len(s.BatteryHistory); n > 0 {
		point := BatteryPoint{
			Time:     BucketTime(now, n, n-1),
			Percent:  BatteryHistoryPct.Clamp(float64(s.BatteryPct)),
			Voltage:  s.Vbat,
			Charging: s.Vin > externalPowerVolts,
		}
		for i := 0; i < k.shifts; i++ {
			copy(s.BatteryHistory, s.BatteryHistory[1:])
		}
		s.BatteryHistory[n-1] = point
	}

	Derive(s, t)
	return s
}

func perturbHub(src *Source, prev *HubSnapshot, now time.Time, t Thresholds) *HubSnapshot {
	h := prev.Clone()
	k := newLiveTick(prev.GeneratedAt, now, len(h.Environmental.TimeLabels))
	h.GeneratedAt = now

	ex := &h.Executive
	ex.BatteryLevel = src.stepInt(ex.BatteryLevel, 1, HubBatteryLevelRange)
	ex.HealthScore = src.stepInt(ex.HealthScore, 0.5, HealthScoreRange)
	ex.LastSync = now
	ex.LastGPSFix = now

	dh := &h.DeviceHealth
	dh.BatteryVoltage = src.stepFloat(dh.BatteryVoltage, 0.025, HubVoltageRange)
	dh.SignalStrength = src.stepInt(dh.SignalStrength, 2.5, HubSignalRange)
	dh.InternalTemp = src.stepFloat(dh.InternalTemp, 0.5, HubInternalTempRange)
	dh.MemoryUsage = src.stepInt(dh.MemoryUsage, 1, MemoryUsageRange)
	if n := len(dh.HealthTimeline); n > 0 && k.rolled() {
		for i := 0; i < k.shifts; i++ {
			copy(dh.HealthTimeline, dh.HealthTimeline[1:])
		}
		dh.HealthTimeline[n-1] = HealthPoint{
			Time:  HourLabel(BucketTime(now, n, n-1)),
			Score: int(TimelineScoreRange.Clamp(float64(ex.HealthScore))),
		}
		labels := HourLabels(now, n)
		for i := range dh.HealthTimeline {
			dh.HealthTimeline[i].Time = labels[i]
		}
	}

	cn := &h.Connectivity
	k.push(cn.SignalHistory, HubSignalRange.Clamp(float64(dh.SignalStrength)))
	k.walk(cn.PacketSuccess, PacketSuccessRange, src.sym(2.5))
	k.walk(cn.DataUsageUp, DataUsageUpRange, src.skew(-0.15, 0.35))
	k.walk(cn.DataUsageDown, DataUsageDownRange, src.skew(-0.24, 0.56))
	k.labels(cn.TimeLabels)

	env := &h.Environmental
	k.walk(env.AmbientTemp, AmbientTempRange, src.sym(1))
	k.walk(env.InternalTemp, EnvInternalTempRange, src.sym(1))
	k.walk(env.Humidity, EnvHumidityRange, src.sym(2.5))
	k.walk(env.Pressure, PressureRange, src.sym(1.5))
	k.walk(env.Rainfall, RainfallRange, src.skew(-0.4, 0.1))
	k.walk(env.AirQuality, AirQualityRange, src.sym(4))
	k.walk(env.SoilTemp, SoilTempRange, src.sym(0.75))
	k.labels(env.TimeLabels)

	ag := &h.Agriculture
	for i := range ag.CropZones {
		ag.CropZones[i].Moisture = src.stepFloat(ag.CropZones[i].Moisture, 1.5, CropMoistureRange)
		ag.CropZones[i].PH = src.stepFloat(ag.CropZones[i].PH, 0.05, CropPHRange)
	}
	for i := range ag.SoilMoisture {
		ag.SoilMoisture[i].Value = src.stepFloat(ag.SoilMoisture[i].Value, 2, SoilProbeRange)
	}
	k.walk(ag.SoilPH, SoilPHRange, src.sym(0.075))
	k.walk(ag.ElectricalConductivity, ConductivityRange, src.sym(0.1))
	k.walk(ag.RainfallPulses, RainfallPulsesRange, src.sym(1))

	w := &h.WaterUtility
	w.TankLevel = src.stepFloat(w.TankLevel, 0.025, TankLevelRange)
	w.FlowRate = src.stepFloat(w.FlowRate, 1.5, FlowRateRange)
	w.Pressure = src.stepFloat(w.Pressure, 0.075, WaterPressureRange)
	w.Turbidity = src.stepFloat(w.Turbidity, 0.4, HubTurbidityRange)
	w.TDS = Round(TDSRange.Clamp(w.TDS+src.Step(5)), 0)
	k.push(w.FlowHistory, FlowHistoryRange.Clamp(w.FlowRate))

	h.GPS.Speed = src.stepFloat(h.GPS.Speed, 2, SpeedRange)
	k.walk(h.Automation.ExecutionLatency, ExecutionLatencyRange, src.sym(20))

	c := &h.Construction
	c.EnergyPerformance.CurrentUsage = src.stepFloat(c.EnergyPerformance.CurrentUsage, 20, EnergyHistoryRange)
	k.push(c.EnergyPerformance.History, EnergyHistoryRange.Clamp(c.EnergyPerformance.CurrentUsage))
	k.labels(c.EnergyPerformance.TimeLabels)
	for i := range c.Occupancy.Zones {
		z := &c.Occupancy.Zones[i]
		z.Current = src.stepInt(z.Current, 5, Bounds{Min: 0, Max: float64(z.Capacity)})
	}
	k.walk(c.Occupancy.TrafficFlow, TrafficFlowRange, src.sym(15))
	k.labels(c.Occupancy.TimeLabels)

	deriveHub(h, t)
	return h
}
