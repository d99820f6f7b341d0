package telemetry

import (
	"fmt"
	"math"
)

const (
	anomalySigma       = 2.0
	peakDemandFraction = 0.85
)

var failedTaskErrors = map[string]string{
	"Irrigation Control":  "Pump relay did not respond",
	"High Water Alert":    "SMS gateway timeout",
	"Temperature Warning": "Notification queue full",
}

// DeriveHub recomputes every derived field of h in place.
func DeriveHub(h *HubSnapshot, t Thresholds) {
	deriveHub(h, t)
}

func deriveHub(h *HubSnapshot, t Thresholds) {
	h.Environmental.Thresholds = Bounds{Min: t.HubAmbientMinC, Max: t.HubAmbientMaxC}

	deriveAgriculture(h)
	deriveAutomation(h)
	deriveDeviceHealth(h)
	deriveConfiguration(h)
	deriveSecurity(h)
	deriveAnalytics(h)
	deriveFleet(h)
	deriveConstruction(&h.Construction)

	h.Alerts.Active = DeriveHubAlerts(h, t)
	h.Executive.Connectivity = h.Connectivity.NetworkType
	h.Executive.ActiveAlerts = countActive(h.Alerts.Active)
}

func cropZonesNeedWater(zones []CropZone) bool {
	for _, z := range zones {
		if z.Moisture < cropDryPct {
			return true
		}
	}
	return false
}

func deriveAgriculture(h *HubSnapshot) {
	for i := range h.Agriculture.CropZones {
		z := &h.Agriculture.CropZones[i]
		z.Status = "Optimal"
		if z.Moisture < cropDryPct {
			z.Status = "Needs Water"
		}
	}
	h.Agriculture.IrrigationStatus = cropZonesNeedWater(h.Agriculture.CropZones)
}

func deriveAutomation(h *HubSnapshot) {
	a := &h.Automation
	fired := map[string]bool{
		"r1": h.Agriculture.IrrigationStatus,
		"r2": h.WaterUtility.TankLevel > tankAlarmM,
		"r3": h.Executive.BatteryLevel < batteryRulePct,
	}
	for i := range a.ActiveRules {
		r := &a.ActiveRules[i]
		if fired[r.ID] && r.LastTriggered == nil {
			at := h.GeneratedAt
			r.LastTriggered = &at
		}
	}

	a.FailedTasks = make([]FailedTask, 0)
	for _, rec := range a.TriggerHistory {
		if rec.Result != "Failed" {
			continue
		}
		a.FailedTasks = append(a.FailedTasks, FailedTask{
			Time:  rec.Time,
			Task:  rec.Rule,
			Error: failedTaskErrors[rec.Rule],
		})
	}
}

func deriveDeviceHealth(h *HubSnapshot) {
	codes := make([]string, 0, len(h.DeviceHealth.FaultCodes)+1)
	for _, c := range h.DeviceHealth.FaultCodes {
		if c != faultLowSignal {
			codes = append(codes, c)
		}
	}
	if h.DeviceHealth.SignalStrength <= poorSignalDbm {
		codes = append(codes, faultLowSignal)
	}
	h.DeviceHealth.FaultCodes = codes
}

func deriveConfiguration(h *HubSnapshot) {
	switch h.Configuration.OTAStatus {
	case "Idle":
		h.Configuration.OTAProgress = 0
	case "Complete":
		h.Configuration.OTAProgress = 100
	default:
		h.Configuration.OTAProgress = int(Clamp(float64(h.Configuration.OTAProgress), 1, 99))
	}
}

func deriveSecurity(h *HubSnapshot) {
	s := &h.Security
	flags := make([]string, 0)
	if !s.EncryptionEnabled {
		flags = append(flags, "Encryption disabled")
	}
	failed := 0
	for _, l := range s.AuthLogs {
		if l.Result == "Failed" {
			failed++
		}
	}
	if failed > 0 {
		flags = append(flags, fmt.Sprintf("%d failed authentication attempts in the last 7 days", failed))
	}
	for _, c := range s.IntegrityChecks {
		if c.Status == "FAIL" {
			flags = append(flags, "Integrity check failed: "+c.Component)
		}
	}
	s.ComplianceFlags = flags
}

func deriveAnalytics(h *HubSnapshot) {
	env := h.Environmental
	n := len(env.TimeLabels)

	anomalies := make([]Anomaly, 0)
	for _, m := range []struct {
		name   string
		series []float64
	}{
		{"Ambient Temperature", env.AmbientTemp},
		{"Humidity", env.Humidity},
		{"Air Quality", env.AirQuality},
	} {
		mu, sd := mean(m.series), stddev(m.series)
		if sd == 0 {
			continue
		}
		for i, x := range m.series {
			if math.Abs(x-mu) > anomalySigma*sd {
				anomalies = append(anomalies, Anomaly{
					Time:     BucketTime(h.GeneratedAt, n, i),
					Metric:   m.name,
					Value:    x,
					Expected: Round(mu, 2),
				})
			}
		}
	}
	h.Analytics.Anomalies = anomalies

	h.Analytics.Correlations = []Correlation{
		{Metric1: "Temperature", Metric2: "Humidity", Correlation: Round(pearson(env.AmbientTemp, env.Humidity), 2)},
		{Metric1: "Rainfall", Metric2: "Rainfall Pulses", Correlation: Round(pearson(env.Rainfall, h.Agriculture.RainfallPulses), 2)},
		{Metric1: "Ambient Temperature", Metric2: "Soil Temperature", Correlation: Round(pearson(env.AmbientTemp, env.SoilTemp), 2)},
	}
}

func deriveFleet(h *HubSnapshot) {
	summary := make([]RegionSummary, len(Regions))
	index := make(map[string]int, len(Regions))
	for i, r := range Regions {
		summary[i] = RegionSummary{Region: r}
		index[r] = i
	}
	for _, d := range h.Fleet.Devices {
		i, ok := index[d.Region]
		if !ok {
			continue
		}
		if d.Status == "online" {
			summary[i].Online++
		} else {
			summary[i].Offline++
		}
	}
	h.Fleet.RegionalSummary = summary
}

func deriveConstruction(c *Construction) {
	for i := range c.Occupancy.Zones {
		z := &c.Occupancy.Zones[i]
		if z.Capacity > 0 {
			z.Utilization = int(math.Round(float64(z.Current) / float64(z.Capacity) * 100))
		}
	}
	current := 0
	for _, z := range c.Occupancy.Zones {
		current += z.Current
	}
	c.Occupancy.Current = current

	p := Portfolio{TotalBuildings: len(c.Buildings)}
	var scoreSum float64
	for _, b := range c.Buildings {
		if b.Status != "offline" {
			p.OnlineBuildings++
		}
		if b.Status == "critical" {
			p.CriticalIssues++
		}
		scoreSum += float64(b.EnergyScore+b.SecurityScore+b.MaintenanceScore) / 3
	}
	if len(c.Buildings) > 0 {
		p.OverallScore = int(math.Round(scoreSum / float64(len(c.Buildings))))
	}
	c.Portfolio = p

	denied := 0
	for _, e := range c.Security.AccessEvents {
		if e.Clearance == "Denied" {
			denied++
		}
	}
	c.Security.BreachAttempts = denied

	c.AtRisk = deriveRisks(c)
}

func deriveRisks(c *Construction) []RiskItem {
	risks := make([]RiskItem, 0)

	if peak, _ := seriesMax(c.EnergyPerformance.History); len(c.EnergyPerformance.History) > 0 && peak >= peakDemandFraction*c.EnergyPerformance.PeakDemand {
		risks = append(risks, RiskItem{ID: "R001", Category: "Energy", Issue: "Peak demand approaching grid limit", Severity: SeverityHigh, Impact: "Potential power outage", DueDate: "Today"})
	}
	if hasOverdue(c.Maintenance.OverdueItems, "M002") {
		risks = append(risks, RiskItem{ID: "R002", Category: "Safety", Issue: "Fire suppression system overdue for inspection", Severity: SeverityCritical, Impact: "Code violation, insurance risk", DueDate: "5 days overdue"})
	}
	if equipmentStatus(c.Maintenance.EquipmentHealth, "Chiller Unit A") == "Poor" {
		risks = append(risks, RiskItem{ID: "R003", Category: "Equipment", Issue: "Chiller efficiency below 70%", Severity: SeverityMedium, Impact: "Increased energy costs", DueDate: "3 days"})
	}
	if offline := c.Security.CamerasTotal - c.Security.CamerasOnline; offline > 0 {
		risks = append(risks, RiskItem{ID: "R004", Category: "Security", Issue: fmt.Sprintf("%d cameras offline in parking area", offline), Severity: SeverityHigh, Impact: "Blind spots in surveillance", DueDate: "Today"})
	}
	if hasOverdue(c.Maintenance.OverdueItems, "M003") {
		risks = append(risks, RiskItem{ID: "R005", Category: "Compliance", Issue: "Annual elevator inspection due", Severity: SeverityMedium, Impact: "Regulatory compliance", DueDate: "7 days"})
	}
	if equipmentStatus(c.Maintenance.EquipmentHealth, equipmentFirePump) == "Critical" {
		risks = append(risks, RiskItem{ID: "R006", Category: "Equipment", Issue: "Fire pump showing critical status", Severity: SeverityCritical, Impact: "Fire safety system failure", DueDate: "Immediate"})
	}
	return risks
}

func hasOverdue(items []MaintenanceItem, id string) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func equipmentStatus(list []EquipmentStatus, name string) string {
	for _, e := range list {
		if e.Equipment == name {
			return e.Status
		}
	}
	return ""
}
