package telemetry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 14, 10, 37, 12, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func assertSeries(t *testing.T, name string, xs []float64, n int, b Bounds) {
	t.Helper()
	assert.Len(t, xs, n, "%s length", name)
	for i, x := range xs {
		assert.True(t, b.Contains(x), "%s[%d]=%v outside [%v,%v]", name, i, x, b.Min, b.Max)
	}
}

func assertInRange(t *testing.T, name string, x float64, b Bounds) {
	t.Helper()
	assert.True(t, b.Contains(x), "%s=%v outside [%v,%v]", name, x, b.Min, b.Max)
}

func assertDeviceInvariants(t *testing.T, s *Snapshot) {
	t.Helper()
	n := HourlyPoints

	assertInRange(t, "batteryPct", float64(s.BatteryPct), BatteryPctRange)
	assertInRange(t, "vbat", s.Vbat, VbatRange)
	assertInRange(t, "vin", s.Vin, VinRange)
	assertInRange(t, "signalDbm", float64(s.SignalDbm), SignalDbmRange)
	assertInRange(t, "storageUsed", float64(s.StorageUsed), StorageUsedRange)
	assertInRange(t, "gps.speed", s.GPS.Speed, SpeedRange)
	assertInRange(t, "gps.heading", float64(s.GPS.Heading), HeadingRange)
	assertInRange(t, "gps.sats", float64(s.GPS.Sats), SatsRange)
	assertInRange(t, "gps.hdop", s.GPS.HDOP, HDOPRange)

	assert.Len(t, s.EnvLabels, n)
	assert.Len(t, s.NetworkStats.Labels, n)
	assertSeries(t, "tempC", s.TempC, n, TempCRange)
	assertSeries(t, "hum", s.Humidity, n, HumidityRange)
	assertSeries(t, "soil", s.Soil, n, SoilRange)
	assertSeries(t, "waterM", s.WaterM, n, WaterLevelRange)
	assertSeries(t, "internalTempC", s.InternalTempC, n, InternalTempCRange)
	assertSeries(t, "accel.x", s.Accel.X, n, AccelXYRange)
	assertSeries(t, "accel.y", s.Accel.Y, n, AccelXYRange)
	assertSeries(t, "accel.z", s.Accel.Z, n, AccelZRange)
	assertSeries(t, "turbidity", s.Turbidity, n, TurbidityRange)
	assertSeries(t, "ph", s.PH, n, PHRange)
	assertSeries(t, "pulse", s.Pulse, n, PulseRange)
	assertSeries(t, "dataUsageMB", s.NetworkStats.DataUsageMB, n, DataUsageMBRange)
	assertSeries(t, "signalHistory", s.NetworkStats.SignalHistory, n, SignalHistoryRange)
	assertSeries(t, "uplinkSuccess", s.NetworkStats.UplinkSuccess, n, UplinkSuccessRange)
	assertSeries(t, "panelVoltage", s.Solar.PanelVoltage, n, PanelVoltageRange)
	assertSeries(t, "chargeCurrent", s.Solar.ChargeCurrent, n, ChargeCurrentRange)

	require.Len(t, s.BatteryHistory, n)
	for _, p := range s.BatteryHistory {
		assertInRange(t, "batteryHistory.percent", p.Percent, BatteryHistoryPct)
		assertInRange(t, "batteryHistory.voltage", p.Voltage, VbatRange)
	}
	assert.Len(t, s.Uptime, UptimeDays)
	for _, u := range s.Uptime {
		assertInRange(t, "uptime", u.Pct, UptimePctRange)
	}
	assert.Len(t, s.LocationHistory, LocationPoints)
	assert.Len(t, s.Events, EventCount)
	assert.Len(t, s.AuditLog, AuditCount)
	assertInRange(t, "compliance.coverage", s.Compliance.Coverage, CoverageRange)
	assertInRange(t, "compliance.uptime", s.Compliance.Uptime, ComplianceUptime)
	assertInRange(t, "compliance.dataPoints", float64(s.Compliance.DataPoints), DataPointsRange)

	assert.Contains(t, ConnModes, s.ConnMode)
	assert.Contains(t, GPSFixes, s.GPS.Fix)
	assert.Contains(t, GPSAccuracies, s.GPS.Accuracy)
	assert.Contains(t, GeofenceStates, s.GPS.Geofence)
	assert.Contains(t, SamplingRates, s.SamplingRate)
	assert.Contains(t, UploadIntervals, s.UploadInterval)
	assert.Contains(t, ChargeStates, s.Solar.ChargeState)
	for _, e := range s.Events {
		assert.Contains(t, EventTypes, e.Type)
		assert.Contains(t, EventSeverities, e.Severity)
		assert.False(t, e.Time.After(s.GeneratedAt), "event in the future")
	}
	for _, a := range s.AuditLog {
		assert.Contains(t, AuditResults, a.Result)
		assert.False(t, a.Timestamp.After(s.GeneratedAt), "audit entry in the future")
	}
	for _, a := range s.Analog {
		assert.Contains(t, ChannelStatuses, a.Status)
	}

	require.NotEmpty(t, s.Alerts)
	for _, a := range s.Alerts {
		assert.Contains(t, AlertSeverities, a.Severity)
	}
	assert.Contains(t, ConnectionLabels, s.Status.Connection)
	assert.Contains(t, PowerLabels, s.Status.Power)
}

func TestGenerateSnapshot(t *testing.T) {
	t.Run("Should keep every field inside its documented domain", func(t *testing.T) {
		for seed := int64(1); seed <= 200; seed++ {
			g := New(WithSeed(seed), WithClock(fixedClock))
			assertDeviceInvariants(t, g.Generate())
		}
	})

	t.Run("Should anchor labels and timestamps to the clock", func(t *testing.T) {
		s := New(WithSeed(3), WithClock(fixedClock)).Generate()

		assert.Equal(t, testNow, s.GeneratedAt)
		assert.Equal(t, testNow, s.LastSeen)
		assert.Equal(t, "10:00", s.EnvLabels[HourlyPoints-1])
		assert.Equal(t, "11:00", s.EnvLabels[0])
		assert.Equal(t, s.EnvLabels, s.NetworkStats.Labels)
	})

	t.Run("Should be deterministic for a fixed seed", func(t *testing.T) {
		a := New(WithSeed(42), WithClock(fixedClock)).Generate()
		b := New(WithSeed(42), WithClock(fixedClock)).Generate()
		assert.Equal(t, a, b)
	})

	t.Run("Should produce independent snapshots on consecutive calls", func(t *testing.T) {
		prev := GenerateSnapshot()
		differing := 0
		for i := 0; i < 100; i++ {
			next := GenerateSnapshot()
			if next.DeviceID != prev.DeviceID || next.BatteryPct != prev.BatteryPct ||
				next.SignalDbm != prev.SignalDbm || next.Vbat != prev.Vbat {
				differing++
			}
			prev = next
		}
		assert.GreaterOrEqual(t, differing, 95)
	})

	t.Run("Should not share slices between snapshots", func(t *testing.T) {
		g := New(WithSeed(5), WithClock(fixedClock))
		a := g.Generate()
		b := g.Generate()
		a.TempC[0] = -999
		a.EnvLabels[0] = "xx"
		assert.NotEqual(t, -999.0, b.TempC[0])
		assert.NotEqual(t, "xx", b.EnvLabels[0])
	})
}

func TestDeriveAlerts(t *testing.T) {
	th := DefaultThresholds()

	t.Run("Should agree with the series extremes for every snapshot", func(t *testing.T) {
		for seed := int64(1); seed <= 300; seed++ {
			s := New(WithSeed(seed), WithClock(fixedClock)).Generate()

			maxTemp, _ := seriesMax(s.TempC)
			minHum, _ := seriesMin(s.Humidity)
			minSoil, _ := seriesMin(s.Soil)
			maxWater, _ := seriesMax(s.WaterM)

			assert.Equal(t, maxTemp > th.HighTempC, HasAlert(s.Alerts, KindHighTemperature), "seed %d", seed)
			assert.Equal(t, minHum < th.LowHumidity, HasAlert(s.Alerts, KindLowHumidity), "seed %d", seed)
			assert.Equal(t, minSoil < th.SoilDry, HasAlert(s.Alerts, KindSoilDryness), "seed %d", seed)
			assert.Equal(t, maxWater > th.HighWaterM, HasAlert(s.Alerts, KindHighWaterLevel), "seed %d", seed)
			assert.Equal(t, float64(s.BatteryPct) < th.BatteryLowPct, HasAlert(s.Alerts, KindBatteryLow), "seed %d", seed)
			assert.Equal(t, s.GPS.Geofence == "Outside", HasAlert(s.Alerts, KindGeofenceExit), "seed %d", seed)

			if HasAlert(s.Alerts, KindAllClear) {
				assert.Len(t, s.Alerts, 1)
			}
		}
	})

	t.Run("Should fall back to a single all clear entry", func(t *testing.T) {
		s := quietSnapshot()
		alerts := DeriveAlerts(s, th)

		require.Len(t, alerts, 1)
		assert.Equal(t, KindAllClear, alerts[0].Kind)
		assert.Equal(t, SeverityInfo, alerts[0].Severity)
		assert.Equal(t, "All Clear", alerts[0].Title)
	})

	t.Run("Should keep rule order and stamp the first crossing bucket", func(t *testing.T) {
		s := quietSnapshot()
		s.WaterM[5] = 3
		s.TempC[7] = 39
		s.TempC[9] = 41
		s.GPS.Geofence = "Outside"

		alerts := DeriveAlerts(s, th)

		require.Len(t, alerts, 3)
		assert.Equal(t, KindHighTemperature, alerts[0].Kind)
		assert.Equal(t, KindHighWaterLevel, alerts[1].Kind)
		assert.Equal(t, KindGeofenceExit, alerts[2].Kind)
		assert.Equal(t, BucketTime(testNow, HourlyPoints, 7), alerts[0].At)
		assert.Equal(t, BucketTime(testNow, HourlyPoints, 5), alerts[1].At)
		assert.Equal(t, testNow, alerts[2].At)
		assert.Equal(t, alerts, DeriveAlerts(s, th))
	})

	t.Run("Should honour overridden thresholds", func(t *testing.T) {
		s := quietSnapshot()
		custom := th
		custom.HighTempC = 20

		assert.True(t, HasAlert(DeriveAlerts(s, custom), KindHighTemperature))
		assert.False(t, HasAlert(DeriveAlerts(s, th), KindHighTemperature))
	})
}

func TestHighTemperatureAndLowBatteryScenario(t *testing.T) {
	g := New(WithSeed(2024), WithClock(fixedClock))
	s := g.Generate()

	s.TempC[10] = 40
	s.BatteryPct = 10
	s.Vin = 0

	require.NotPanics(t, func() { Derive(s, g.Thresholds()) })

	assert.True(t, HasAlert(s.Alerts, KindHighTemperature))
	assert.True(t, HasAlert(s.Alerts, KindBatteryLow))
	assert.False(t, HasAlert(s.Alerts, KindAllClear))
	assert.False(t, s.Status.ExternalPower)
	assert.False(t, s.Status.PowerOK)
	assert.Equal(t, "Low Battery", s.Status.Power)

	for _, a := range s.Alerts {
		if a.Kind == KindHighTemperature {
			assert.Equal(t, "High Temperature", a.Title)
			assert.Equal(t, SeverityWarn, a.Severity)
		}
		if a.Kind == KindBatteryLow {
			assert.Equal(t, "Battery Low", a.Title)
		}
	}
}

func TestDeriveStatus(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(s *Snapshot)
		check  func(t *testing.T, st DeviceStatus)
	}{
		{
			name:   "Should report weak signal at -105 dBm",
			mutate: func(s *Snapshot) { s.SignalDbm = -105 },
			check:  func(t *testing.T, st DeviceStatus) { assert.Equal(t, "Weak Signal", st.Connection) },
		},
		{
			name:   "Should report connected above -105 dBm",
			mutate: func(s *Snapshot) { s.SignalDbm = -104 },
			check:  func(t *testing.T, st DeviceStatus) { assert.Equal(t, "Connected", st.Connection) },
		},
		{
			name:   "Should prefer external power over battery",
			mutate: func(s *Snapshot) { s.Vin = 12; s.BatteryPct = 5 },
			check: func(t *testing.T, st DeviceStatus) {
				assert.True(t, st.PowerOK)
				assert.Equal(t, "External + Backup", st.Power)
			},
		},
		{
			name:   "Should report battery at the low battery boundary",
			mutate: func(s *Snapshot) { s.Vin = 0; s.BatteryPct = 25 },
			check:  func(t *testing.T, st DeviceStatus) { assert.Equal(t, "Battery", st.Power) },
		},
		{
			name:   "Should report no fix",
			mutate: func(s *Snapshot) { s.GPS.Fix = "No Fix" },
			check:  func(t *testing.T, st DeviceStatus) { assert.Equal(t, "No Fix", st.GPS) },
		},
		{
			name:   "Should report storage near full at 80 percent",
			mutate: func(s *Snapshot) { s.StorageUsed = 80 },
			check:  func(t *testing.T, st DeviceStatus) { assert.Equal(t, "Near Full", st.Storage) },
		},
		{
			name:   "Should use the latest internal temperature sample",
			mutate: func(s *Snapshot) { s.InternalTempC[0] = 60; s.InternalTempC[HourlyPoints-1] = 45 },
			check:  func(t *testing.T, st DeviceStatus) { assert.Equal(t, "High", st.InternalTemp) },
		},
		{
			name: "Should detect movement from the last accelerometer samples",
			mutate: func(s *Snapshot) {
				s.Accel.X[HourlyPoints-1] = 0.3
				s.Accel.Y[HourlyPoints-1] = 0.3
			},
			check: func(t *testing.T, st DeviceStatus) { assert.Equal(t, "Movement", st.Tamper) },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := quietSnapshot()
			tc.mutate(s)
			tc.check(t, DeriveStatus(s, DefaultThresholds()))
		})
	}

	t.Run("Should report a healthy device", func(t *testing.T) {
		st := DeriveStatus(quietSnapshot(), DefaultThresholds())
		assert.Equal(t, DeviceStatus{
			Connection:    "Connected",
			ExternalPower: false,
			PowerOK:       true,
			Power:         "Battery",
			GPS:           "GPS OK",
			Storage:       "Healthy",
			InternalTemp:  "Normal",
			Tamper:        "Stable",
		}, st)
	})

	t.Run("Should follow an overridden battery threshold", func(t *testing.T) {
		th := DefaultThresholds()
		th.BatteryLowPct = 30

		s := quietSnapshot()
		s.BatteryPct = 27
		Derive(s, th)

		assert.True(t, HasAlert(s.Alerts, KindBatteryLow))
		assert.False(t, s.Status.PowerOK)
		assert.Equal(t, "Low Battery", s.Status.Power)

		s.BatteryPct = 30
		Derive(s, th)
		assert.False(t, HasAlert(s.Alerts, KindBatteryLow))
		assert.True(t, s.Status.PowerOK)
		assert.Equal(t, "Battery", s.Status.Power)
	})
}

// quietSnapshot returns a snapshot whose readings cross no alert threshold.
func quietSnapshot() *Snapshot {
	flat := func(v float64) []float64 {
		xs := make([]float64, HourlyPoints)
		for i := range xs {
			xs[i] = v
		}
		return xs
	}
	return &Snapshot{
		GeneratedAt:   testNow,
		SignalDbm:     -90,
		BatteryPct:    80,
		GPS:           GPSFix{Fix: "3D Fix", Geofence: "Inside"},
		StorageUsed:   40,
		EnvLabels:     HourLabels(testNow, HourlyPoints),
		TempC:         flat(25),
		Humidity:      flat(50),
		Soil:          flat(50),
		WaterM:        flat(1),
		InternalTempC: flat(30),
		Accel:         Accel{X: flat(0.05), Y: flat(0.05), Z: flat(1)},
	}
}

func TestSeries(t *testing.T) {
	t.Run("Should stay bounded under extreme variance", func(t *testing.T) {
		src := NewSource(9)
		b := Bounds{Min: 0, Max: 1}
		xs := src.Series(0.5, 1000, 500, b)
		assert.Len(t, xs, 500)
		assert.True(t, b.ContainsAll(xs))
	})

	t.Run("Should round samples to two decimals", func(t *testing.T) {
		for _, x := range NewSource(1).Series(10, 3, 50, Bounds{Min: 0, Max: 20}) {
			assert.InDelta(t, x, math.Round(x*100)/100, 1e-9)
		}
	})

	t.Run("Should include both ends of an integer range", func(t *testing.T) {
		src := NewSource(11)
		seen := map[int]bool{}
		for i := 0; i < 500; i++ {
			v := src.Int(1, 3)
			require.True(t, v >= 1 && v <= 3)
			seen[v] = true
		}
		assert.Len(t, seen, 3)
	})
}

func TestReadings(t *testing.T) {
	g := New(WithSeed(21), WithClock(fixedClock))

	t.Run("Should take the newest sample of each device series", func(t *testing.T) {
		s := g.Generate()
		readings := make(map[string]float64)
		for _, r := range s.Readings() {
			readings[r.Metric] = r.Value
		}

		assert.Equal(t, s.TempC[len(s.TempC)-1], readings["tempC"])
		assert.Equal(t, s.Accel.Z[len(s.Accel.Z)-1], readings["accelZ"])
		assert.Equal(t, float64(s.BatteryPct), readings["batteryPct"])
		assert.Len(t, readings, len(s.Readings()))
	})

	t.Run("Should prefix hub metrics", func(t *testing.T) {
		h := g.GenerateHub()
		for _, r := range h.Readings() {
			assert.Contains(t, r.Metric, "hub.")
		}
	})

	t.Run("Should skip empty series", func(t *testing.T) {
		s := &Snapshot{}
		for _, r := range s.Readings() {
			assert.NotEqual(t, "tempC", r.Metric)
		}
	})
}
