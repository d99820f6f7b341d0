package telemetry

import "slices"

// Clone returns a deep copy that shares no slices or pointers with h.
func (h *HubSnapshot) Clone() *HubSnapshot {
	if h == nil {
		return nil
	}
	c := *h

	c.DeviceHealth.FaultCodes = slices.Clone(h.DeviceHealth.FaultCodes)
	c.DeviceHealth.HealthTimeline = slices.Clone(h.DeviceHealth.HealthTimeline)

	c.Connectivity.SignalHistory = slices.Clone(h.Connectivity.SignalHistory)
	c.Connectivity.DataUsageUp = slices.Clone(h.Connectivity.DataUsageUp)
	c.Connectivity.DataUsageDown = slices.Clone(h.Connectivity.DataUsageDown)
	c.Connectivity.PacketSuccess = slices.Clone(h.Connectivity.PacketSuccess)
	c.Connectivity.OfflineWindows = slices.Clone(h.Connectivity.OfflineWindows)
	c.Connectivity.TimeLabels = slices.Clone(h.Connectivity.TimeLabels)

	c.Environmental.AmbientTemp = slices.Clone(h.Environmental.AmbientTemp)
	c.Environmental.InternalTemp = slices.Clone(h.Environmental.InternalTemp)
	c.Environmental.Humidity = slices.Clone(h.Environmental.Humidity)
	c.Environmental.Pressure = slices.Clone(h.Environmental.Pressure)
	c.Environmental.Rainfall = slices.Clone(h.Environmental.Rainfall)
	c.Environmental.AirQuality = slices.Clone(h.Environmental.AirQuality)
	c.Environmental.SoilTemp = slices.Clone(h.Environmental.SoilTemp)
	c.Environmental.TimeLabels = slices.Clone(h.Environmental.TimeLabels)

	c.Agriculture.SoilMoisture = slices.Clone(h.Agriculture.SoilMoisture)
	c.Agriculture.SoilPH = slices.Clone(h.Agriculture.SoilPH)
	c.Agriculture.ElectricalConductivity = slices.Clone(h.Agriculture.ElectricalConductivity)
	c.Agriculture.RainfallPulses = slices.Clone(h.Agriculture.RainfallPulses)
	c.Agriculture.CropZones = slices.Clone(h.Agriculture.CropZones)

	c.WaterUtility.LeakEvents = slices.Clone(h.WaterUtility.LeakEvents)
	c.WaterUtility.PumpHistory = slices.Clone(h.WaterUtility.PumpHistory)
	c.WaterUtility.FlowHistory = slices.Clone(h.WaterUtility.FlowHistory)

	c.IOCards = make([]IOCardModule, len(h.IOCards))
	for i, card := range h.IOCards {
		card.Inputs = slices.Clone(card.Inputs)
		c.IOCards[i] = card
	}

	c.GPS.MovementHistory = slices.Clone(h.GPS.MovementHistory)
	c.GPS.TamperEvents = slices.Clone(h.GPS.TamperEvents)

	c.Automation.ActiveRules = make([]AutomationRule, len(h.Automation.ActiveRules))
	for i, r := range h.Automation.ActiveRules {
		if r.LastTriggered != nil {
			at := *r.LastTriggered
			r.LastTriggered = &at
		}
		c.Automation.ActiveRules[i] = r
	}
	c.Automation.TriggerHistory = slices.Clone(h.Automation.TriggerHistory)
	c.Automation.FailedTasks = slices.Clone(h.Automation.FailedTasks)
	c.Automation.ExecutionLatency = slices.Clone(h.Automation.ExecutionLatency)

	c.Alerts.Active = slices.Clone(h.Alerts.Active)
	c.Alerts.Resolved = slices.Clone(h.Alerts.Resolved)

	c.Analytics.LongTermTrends = slices.Clone(h.Analytics.LongTermTrends)
	c.Analytics.Anomalies = slices.Clone(h.Analytics.Anomalies)
	c.Analytics.Correlations = slices.Clone(h.Analytics.Correlations)

	c.Configuration.SensorCalibration = slices.Clone(h.Configuration.SensorCalibration)

	c.Security.AuthLogs = slices.Clone(h.Security.AuthLogs)
	c.Security.AccessHistory = slices.Clone(h.Security.AccessHistory)
	c.Security.IntegrityChecks = slices.Clone(h.Security.IntegrityChecks)
	c.Security.ComplianceFlags = slices.Clone(h.Security.ComplianceFlags)

	c.Fleet.Devices = slices.Clone(h.Fleet.Devices)
	c.Fleet.RegionalSummary = slices.Clone(h.Fleet.RegionalSummary)

	cc := &c.Construction
	hc := &h.Construction
	cc.Buildings = slices.Clone(hc.Buildings)
	cc.EnergyPerformance.History = slices.Clone(hc.EnergyPerformance.History)
	cc.EnergyPerformance.TimeLabels = slices.Clone(hc.EnergyPerformance.TimeLabels)
	cc.Security.AccessEvents = slices.Clone(hc.Security.AccessEvents)
	cc.Security.LockStatus = slices.Clone(hc.Security.LockStatus)
	cc.Occupancy.Zones = slices.Clone(hc.Occupancy.Zones)
	cc.Occupancy.TrafficFlow = slices.Clone(hc.Occupancy.TrafficFlow)
	cc.Occupancy.TimeLabels = slices.Clone(hc.Occupancy.TimeLabels)
	cc.Maintenance.OverdueItems = slices.Clone(hc.Maintenance.OverdueItems)
	cc.Maintenance.ScheduledToday = slices.Clone(hc.Maintenance.ScheduledToday)
	cc.Maintenance.EquipmentHealth = slices.Clone(hc.Maintenance.EquipmentHealth)
	cc.AtRisk = slices.Clone(hc.AtRisk)

	return &c
}
