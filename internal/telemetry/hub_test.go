package telemetry

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertHubInvariants(t *testing.T, h *HubSnapshot) {
	t.Helper()
	n := HourlyPoints

	assertInRange(t, "batteryLevel", float64(h.Executive.BatteryLevel), HubBatteryLevelRange)
	assertInRange(t, "healthScore", float64(h.Executive.HealthScore), HealthScoreRange)
	assertInRange(t, "batteryVoltage", h.DeviceHealth.BatteryVoltage, HubVoltageRange)
	assertInRange(t, "signalStrength", float64(h.DeviceHealth.SignalStrength), HubSignalRange)
	assertInRange(t, "internalTemp", h.DeviceHealth.InternalTemp, HubInternalTempRange)
	assertInRange(t, "memoryUsage", float64(h.DeviceHealth.MemoryUsage), MemoryUsageRange)
	assertInRange(t, "tankLevel", h.WaterUtility.TankLevel, TankLevelRange)
	assertInRange(t, "turbidity", h.WaterUtility.Turbidity, HubTurbidityRange)
	assertInRange(t, "tds", h.WaterUtility.TDS, TDSRange)
	assert.Equal(t, TankCapacity, h.WaterUtility.TankCapacity)

	env := h.Environmental
	assert.Len(t, env.TimeLabels, n)
	assertSeries(t, "ambientTemp", env.AmbientTemp, n, AmbientTempRange)
	assertSeries(t, "env.internalTemp", env.InternalTemp, n, EnvInternalTempRange)
	assertSeries(t, "humidity", env.Humidity, n, EnvHumidityRange)
	assertSeries(t, "pressure", env.Pressure, n, PressureRange)
	assertSeries(t, "rainfall", env.Rainfall, n, RainfallRange)
	assertSeries(t, "airQuality", env.AirQuality, n, AirQualityRange)
	assertSeries(t, "soilTemp", env.SoilTemp, n, SoilTempRange)

	cn := h.Connectivity
	assert.Len(t, cn.TimeLabels, n)
	assertSeries(t, "signalHistory", cn.SignalHistory, n, HubSignalRange)
	assertSeries(t, "packetSuccess", cn.PacketSuccess, n, PacketSuccessRange)
	assertSeries(t, "dataUsageUp", cn.DataUsageUp, n, DataUsageUpRange)
	assertSeries(t, "dataUsageDown", cn.DataUsageDown, n, DataUsageDownRange)
	for _, w := range cn.OfflineWindows {
		assert.Equal(t, w.Start.Add(time.Duration(w.Duration)*time.Minute), w.End)
	}

	for _, z := range h.Agriculture.CropZones {
		assertInRange(t, "crop.moisture", z.Moisture, CropMoistureRange)
		assertInRange(t, "crop.ph", z.PH, CropPHRange)
		assert.Contains(t, CropZoneStates, z.Status)
	}
	for _, p := range h.Agriculture.SoilMoisture {
		assertInRange(t, "soilProbe", p.Value, SoilProbeRange)
	}

	assert.Len(t, h.Analytics.LongTermTrends, TrendDays)
	assert.Len(t, h.Fleet.Devices, FleetSize)
	assert.Len(t, h.Construction.Buildings, BuildingCount)
	assert.Len(t, h.Construction.EnergyPerformance.History, n)
	assert.Len(t, h.Construction.EnergyPerformance.TimeLabels, n)
	assertSeries(t, "energyHistory", h.Construction.EnergyPerformance.History, n, EnergyHistoryRange)
	assert.Len(t, h.Security.AccessHistory, AccessHistoryCount)
	assert.Contains(t, OTAStates, h.Configuration.OTAStatus)
	assert.Contains(t, GeofenceStates, h.GPS.GeofenceStatus)

	require.NotEmpty(t, h.Alerts.Active)
	for _, a := range h.Alerts.Active {
		assert.Contains(t, HubSeverities, a.Severity)
		assert.False(t, a.Acknowledged)
		assert.False(t, a.Timestamp.After(h.GeneratedAt), "alert %s in the future", a.ID)
	}
}

func TestGenerateHubSnapshot(t *testing.T) {
	t.Run("Should keep every section inside its documented domain", func(t *testing.T) {
		for seed := int64(1); seed <= 150; seed++ {
			assertHubInvariants(t, New(WithSeed(seed), WithClock(fixedClock)).GenerateHub())
		}
	})

	t.Run("Should be deterministic for a fixed seed", func(t *testing.T) {
		a := New(WithSeed(77), WithClock(fixedClock)).GenerateHub()
		b := New(WithSeed(77), WithClock(fixedClock)).GenerateHub()
		assert.Equal(t, a, b)
	})

	t.Run("Should keep derived sections consistent with raw readings", func(t *testing.T) {
		th := DefaultThresholds()
		for seed := int64(1); seed <= 150; seed++ {
			h := New(WithSeed(seed), WithClock(fixedClock)).GenerateHub()

			// Executive counters
			assert.Equal(t, countActive(h.Alerts.Active), h.Executive.ActiveAlerts)
			assert.Equal(t, h.Connectivity.NetworkType, h.Executive.Connectivity)

			// Fault codes
			assert.Equal(t, h.DeviceHealth.SignalStrength <= poorSignalDbm,
				containsString(h.DeviceHealth.FaultCodes, faultLowSignal), "seed %d", seed)

			// Alert rules
			maxAmbient, _ := seriesMax(h.Environmental.AmbientTemp)
			minAmbient, _ := seriesMin(h.Environmental.AmbientTemp)
			assert.Equal(t, maxAmbient > th.HubAmbientMaxC, HasHubAlert(h.Alerts.Active, KindHighAmbientTemp), "seed %d", seed)
			assert.Equal(t, minAmbient < th.HubAmbientMinC, HasHubAlert(h.Alerts.Active, KindLowAmbientTemp), "seed %d", seed)
			assert.Equal(t, h.DeviceHealth.BatteryVoltage < th.HubBatteryLowV, HasHubAlert(h.Alerts.Active, KindHubBatteryLow), "seed %d", seed)
			assert.Equal(t, h.WaterUtility.Turbidity > th.HubTurbidityNTU, HasHubAlert(h.Alerts.Active, KindHighTurbidity), "seed %d", seed)
			assert.Equal(t, len(h.WaterUtility.LeakEvents) > 0, HasHubAlert(h.Alerts.Active, KindLeakDetected), "seed %d", seed)
			assert.Equal(t, h.Agriculture.IrrigationStatus, HasHubAlert(h.Alerts.Active, KindLowSoilMoisture), "seed %d", seed)
			for i, a := range h.Alerts.Active {
				assert.Equal(t, fmt.Sprintf("a%d", i+1), a.ID)
			}

			// Fleet
			total := 0
			for _, r := range h.Fleet.RegionalSummary {
				total += r.Online + r.Offline
			}
			assert.Equal(t, FleetSize, total)

			// Construction
			c := h.Construction
			sum := 0
			for _, z := range c.Occupancy.Zones {
				sum += z.Current
				assert.Equal(t, int(math.Round(float64(z.Current)/float64(z.Capacity)*100)), z.Utilization)
			}
			assert.Equal(t, sum, c.Occupancy.Current)
			assert.Equal(t, len(c.Buildings), c.Portfolio.TotalBuildings)
			assert.LessOrEqual(t, c.Portfolio.OnlineBuildings, c.Portfolio.TotalBuildings)
			assert.Equal(t, equipmentStatus(c.Maintenance.EquipmentHealth, equipmentFirePump) == "Critical",
				hasRisk(c.AtRisk, "R006"), "seed %d", seed)
			assert.Equal(t, hasOverdue(c.Maintenance.OverdueItems, "M002"), hasRisk(c.AtRisk, "R002"), "seed %d", seed)

			denied := 0
			for _, e := range c.Security.AccessEvents {
				if e.Clearance == "Denied" {
					denied++
				}
			}
			assert.Equal(t, denied, c.Security.BreachAttempts)
		}
	})

	t.Run("Should render automation rule conditions", func(t *testing.T) {
		h := New(WithSeed(9), WithClock(fixedClock)).GenerateHub()
		require.Len(t, h.Automation.ActiveRules, 3)
		assert.Equal(t, "soil_moisture < 30%", h.Automation.ActiveRules[0].Condition)
		assert.Equal(t, "tank_level > 4.5m", h.Automation.ActiveRules[1].Condition)
		assert.Equal(t, "battery < 20%", h.Automation.ActiveRules[2].Condition)
	})

	t.Run("Should draw current and outdated firmware and reach all clear", func(t *testing.T) {
		current, outdated, allClear := 0, 0, 0
		for seed := int64(1); seed <= 5000; seed++ {
			h := New(WithSeed(seed), WithClock(fixedClock)).GenerateHub()
			if compareVersions(h.DeviceHealth.FirmwareVersion, LatestFirmware) >= 0 {
				current++
				assert.False(t, HasHubAlert(h.Alerts.Active, KindFirmwareOutdated), "seed %d", seed)
			} else {
				outdated++
				assert.True(t, HasHubAlert(h.Alerts.Active, KindFirmwareOutdated), "seed %d", seed)
			}
			if HasHubAlert(h.Alerts.Active, KindHubAllClear) {
				allClear++
				assert.Len(t, h.Alerts.Active, 1)
				assert.Equal(t, 0, h.Executive.ActiveAlerts)
			}
		}
		assert.Positive(t, current)
		assert.Positive(t, outdated)
		assert.Positive(t, allClear)
	})
}

func TestDeriveHubAlerts(t *testing.T) {
	th := DefaultThresholds()

	t.Run("Should fall back to an all clear entry when nothing fires", func(t *testing.T) {
		h := quietHub(t)
		DeriveHub(h, th)

		require.Len(t, h.Alerts.Active, 1)
		a := h.Alerts.Active[0]
		assert.Equal(t, KindHubAllClear, a.Kind)
		assert.Equal(t, SeverityLow, a.Severity)
		assert.Equal(t, "a1", a.ID)
		assert.Equal(t, 0, h.Executive.ActiveAlerts)
	})

	t.Run("Should evaluate rules in their fixed order", func(t *testing.T) {
		h := quietHub(t)
		h.DeviceHealth.FirmwareVersion = "v1.5.9"
		h.GPS.GeofenceStatus = "Outside"
		h.DeviceHealth.BatteryVoltage = 3.4
		h.Environmental.AmbientTemp[3] = 40
		DeriveHub(h, th)

		kinds := make([]string, 0, len(h.Alerts.Active))
		for _, a := range h.Alerts.Active {
			kinds = append(kinds, a.Kind)
		}
		assert.Equal(t, []string{KindHubBatteryLow, KindHighAmbientTemp, KindHubGeofenceExit, KindFirmwareOutdated}, kinds)
		assert.Equal(t, BucketTime(testNow, HourlyPoints, 3), h.Alerts.Active[1].Timestamp)
		assert.Equal(t, 4, h.Executive.ActiveAlerts)
	})

	t.Run("Should raise one alert per dry crop zone", func(t *testing.T) {
		h := quietHub(t)
		require.GreaterOrEqual(t, len(h.Agriculture.CropZones), 2)
		h.Agriculture.CropZones[0].Moisture = 25
		h.Agriculture.CropZones[1].Moisture = 22
		DeriveHub(h, th)

		dry := 0
		for _, a := range h.Alerts.Active {
			if a.Kind == KindLowSoilMoisture {
				dry++
			}
		}
		assert.Equal(t, 2, dry)
		assert.True(t, h.Agriculture.IrrigationStatus)
		assert.Equal(t, "Needs Water", h.Agriculture.CropZones[0].Status)
	})

	t.Run("Should add the low signal fault code once", func(t *testing.T) {
		h := quietHub(t)
		h.DeviceHealth.SignalStrength = -110
		DeriveHub(h, th)
		DeriveHub(h, th)

		count := 0
		for _, c := range h.DeviceHealth.FaultCodes {
			if c == faultLowSignal {
				count++
			}
		}
		assert.Equal(t, 1, count)
		assert.True(t, HasHubAlert(h.Alerts.Active, KindPoorSignal))
	})
}

func TestCompareVersions(t *testing.T) {
	testCases := []struct {
		a, b string
		want int
	}{
		{"v1.5.9", "v1.6.0", -1},
		{"v1.6.0", "v1.6.0", 0},
		{"v1.10.0", "v1.6.0", 1},
		{"garbage", "v1.6.0", -1},
	}
	for _, tc := range testCases {
		t.Run(tc.a+" vs "+tc.b, func(t *testing.T) {
			assert.Equal(t, tc.want, compareVersions(tc.a, tc.b))
		})
	}
}

// quietHub returns a generated hub whose readings cross no alert rule.
func quietHub(t *testing.T) *HubSnapshot {
	t.Helper()
	h := New(WithSeed(1), WithClock(fixedClock)).GenerateHub()

	h.DeviceHealth.BatteryVoltage = 4.0
	h.DeviceHealth.SignalStrength = -80
	h.DeviceHealth.InternalTemp = 30
	h.DeviceHealth.MemoryUsage = 50
	h.DeviceHealth.FirmwareVersion = LatestFirmware
	for i := range h.Environmental.AmbientTemp {
		h.Environmental.AmbientTemp[i] = 25
	}
	for i := range h.Agriculture.CropZones {
		h.Agriculture.CropZones[i].Moisture = 60
	}
	h.WaterUtility.Turbidity = 2
	h.WaterUtility.TankLevel = 2
	h.WaterUtility.LeakEvents = nil
	h.GPS.GeofenceStatus = "Inside"
	return h
}

func containsString(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func hasRisk(items []RiskItem, id string) bool {
	for _, r := range items {
		if r.ID == id {
			return true
		}
	}
	return false
}
