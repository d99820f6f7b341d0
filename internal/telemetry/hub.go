package telemetry

import (
	"fmt"
	"sort"
	"time"
)

const (
	// AccessHistoryCount is the number of remote access records per hub snapshot.
	AccessHistoryCount = 8

	peakOccupancy = 3500
	camerasTotal  = 150
)

var (
	weightedOnline    = []string{"online", "online", "online", "offline"}
	weightedSuccess   = []string{"Success", "Success", "Success", "Failed"}
	weightedIntegrity = []string{"OK", "OK", "OK", "OK", "OK", "OK", "OK", "OK", "OK", "FAIL"}
	weightedBuilding  = []string{"operational", "operational", "operational", "warning", "critical", "offline"}
	weightedClearance = []string{"Authorized", "Authorized", "Authorized", "Denied"}

	authUsers     = []string{"admin@company.com", "API Service", "Mobile App"}
	accessActions = []string{"SSH session", "Config download", "API read", "Firmware push"}
	tamperTypes   = []string{"Enclosure Opened", "Tilt Detected", "Cable Disconnected"}

	buildingNames = []string{
		"HQ Tower", "East Wing", "West Wing", "Manufacturing Plant A",
		"Warehouse B", "Office Complex C", "Research Lab D", "Data Center E",
		"Storage Facility F", "Admin Building G", "Maintenance Hub H", "Parking Structure I",
	}

	occupancyZones = []struct {
		name     string
		min, max int
		capacity int
	}{
		{"Manufacturing Floor", 200, 450, 500},
		{"Office Block A", 150, 350, 400},
		{"Office Block B", 100, 280, 350},
		{"Executive Wing", 20, 80, 100},
		{"Cafeteria", 50, 200, 300},
		{"Conference Center", 30, 150, 250},
	}

	overdueCatalog = []MaintenanceItem{
		{ID: "M001", Item: "HVAC Filter Replacement - Floor 3", DueDate: "2 days ago", Priority: "High"},
		{ID: "M002", Item: "Fire Suppression System Inspection", DueDate: "5 days ago", Priority: "Critical"},
		{ID: "M003", Item: "Elevator Safety Check - Tower B", DueDate: "1 day ago", Priority: "High"},
		{ID: "M004", Item: "Emergency Lighting Test", DueDate: "3 days ago", Priority: "Medium"},
	}
)

// generateHub draws every raw reading of a hub snapshot, then derives the
// fields that depend on them.
func generateHub(src *Source, now time.Time, t Thresholds) *HubSnapshot {
	n := HourlyPoints
	labels := HourLabels(now, n)
	lat := homeLat + src.Float(-0.01, 0.01)
	lng := homeLng + src.Float(-0.01, 0.01)

	h := &HubSnapshot{GeneratedAt: now}

	h.Executive = Executive{
		DeviceStatus:    Pick(src, weightedOnline),
		BatteryLevel:    src.Int(20, 95),
		BatteryCharging: Pick(src, []bool{true, false, false}),
		LastSync:        minutesAgo(now, src.Int(1, 15)),
		LastGPSFix:      minutesAgo(now, src.Int(1, 10)),
		HealthScore:     src.Int(75, 99),
	}

	signal := src.Int(-115, -70)
	h.DeviceHealth = DeviceHealth{
		BatteryVoltage:   src.Float2(3.4, 4.2),
		PowerSource:      Pick(src, PowerSources),
		SignalStrength:   signal,
		InternalTemp:     src.Float2(25, 45),
		MemoryUsage:      src.Int(35, 85),
		FirmwareVersion:  fmt.Sprintf("v1.%d.%d", src.Int(0, 6), src.Int(0, 20)),
		Uptime:           fmt.Sprintf("%dd %dh %dm", src.Int(1, 30), src.Int(0, 23), src.Int(0, 59)),
		LastRebootReason: Pick(src, RebootReasons),
		FaultCodes:       Pick(src, [][]string{{}, {}, {faultSensorTimeout}, {}}),
		HealthTimeline:   make([]HealthPoint, n),
	}
	h.DeviceHealth.FaultCodes = append([]string(nil), h.DeviceHealth.FaultCodes...)
	for i := range h.DeviceHealth.HealthTimeline {
		h.DeviceHealth.HealthTimeline[i] = HealthPoint{Time: labels[i], Score: src.Int(70, 100)}
	}

	h.Connectivity = Connectivity{
		NetworkType:   Pick(src, ConnModes),
		Carrier:       Pick(src, Carriers),
		SignalHistory: src.Series(float64(signal), 8, n, HubSignalRange),
		DataUsageUp:   src.Series(src.Float(1, 5), 1.2, n, DataUsageUpRange),
		DataUsageDown: src.Series(src.Float(0.2, 1.5), 0.5, n, DataUsageDownRange),
		PacketSuccess: src.Series(src.Float(85, 98), 3, n, PacketSuccessRange),
		TimeLabels:    append([]string(nil), labels...),
	}
	h.Connectivity.OfflineWindows = make([]OfflineWindow, src.Int(0, 3))
	for i := range h.Connectivity.OfflineWindows {
		start := hoursAgo(now, src.Int(1, 48))
		minutes := src.Int(5, 120)
		h.Connectivity.OfflineWindows[i] = OfflineWindow{
			Start:    start,
			End:      start.Add(time.Duration(minutes) * time.Minute),
			Duration: minutes,
		}
	}
	sort.Slice(h.Connectivity.OfflineWindows, func(i, j int) bool {
		return h.Connectivity.OfflineWindows[i].Start.Before(h.Connectivity.OfflineWindows[j].Start)
	})

	h.Environmental = Environmental{
		AmbientTemp:  src.Series(src.Float(24, 32), 2.5, n, AmbientTempRange),
		InternalTemp: src.Series(src.Float(28, 38), 2, n, EnvInternalTempRange),
		Humidity:     src.Series(src.Float(45, 75), 6, n, EnvHumidityRange),
		Pressure:     src.Series(src.Float(1010, 1020), 3, n, PressureRange),
		Rainfall:     src.Series(src.Float(0, 2), 1.5, n, RainfallRange),
		AirQuality:   src.Series(src.Float(50, 150), 20, n, AirQualityRange),
		SoilTemp:     src.Series(src.Float(22, 28), 1.5, n, SoilTempRange),
		TimeLabels:   append([]string(nil), labels...),
		Thresholds:   Bounds{Min: t.HubAmbientMinC, Max: t.HubAmbientMaxC},
	}

	h.Agriculture = Agriculture{
		SoilMoisture: []SoilProbe{
			{Zone: "Zone A", Value: src.Float2(25, 65), Depth: "10cm"},
			{Zone: "Zone A", Value: src.Float2(30, 70), Depth: "20cm"},
			{Zone: "Zone B", Value: src.Float2(20, 60), Depth: "10cm"},
			{Zone: "Zone B", Value: src.Float2(25, 65), Depth: "20cm"},
		},
		SoilPH:                 src.Series(src.Float(6.2, 7.5), 0.3, n, SoilPHRange),
		ElectricalConductivity: src.Series(src.Float(0.5, 2.5), 0.4, n, ConductivityRange),
		RainfallPulses:         src.Series(src.Float(0, 5), 2, n, RainfallPulsesRange),
		CropZones: []CropZone{
			{Name: "Zone A - North Field", Moisture: src.Float2(30, 60), PH: src.Float2(6.5, 7.2)},
			{Name: "Zone B - South Field", Moisture: src.Float2(20, 45), PH: src.Float2(6.0, 6.8)},
			{Name: "Zone C - East Field", Moisture: src.Float2(35, 65), PH: src.Float2(6.8, 7.5)},
		},
	}

	h.WaterUtility = WaterUtility{
		TankLevel:    src.Float2(0.5, 3.5),
		TankCapacity: TankCapacity,
		FlowRate:     src.Float2(5, 45),
		Pressure:     src.Float2(1.5, 4.5),
		Turbidity:    src.Float2(0.5, 15),
		TDS:          src.Float2(50, 300),
		LeakEvents:   make([]LeakEvent, src.Int(0, 2)),
		PumpHistory:  make([]PumpState, PumpPoints),
		FlowHistory:  src.Series(src.Float(10, 35), 8, n, FlowHistoryRange),
	}
	for i := range h.WaterUtility.LeakEvents {
		h.WaterUtility.LeakEvents[i] = LeakEvent{
			Time:     hoursAgo(now, src.Int(1, 72)),
			Severity: Pick(src, LeakSeverities),
		}
	}
	sort.Slice(h.WaterUtility.LeakEvents, func(i, j int) bool {
		return h.WaterUtility.LeakEvents[i].Time.After(h.WaterUtility.LeakEvents[j].Time)
	})
	for i := range h.WaterUtility.PumpHistory {
		h.WaterUtility.PumpHistory[i] = PumpState{
			Time:  hoursAgo(now, (PumpPoints-1-i)*2),
			State: Pick(src, PumpStates),
		}
	}

	h.IOCards = []IOCardModule{
		{
			ID:   "card-1",
			Type: "AgTech1",
			Inputs: []IOInput{
				{Channel: "A1", SensorType: "Soil Moisture", RawValue: src.Float2(500, 800), CalibratedValue: src.Float2(25, 65), Unit: "%", PowerConsumption: src.Float2(5, 15), Health: "OK"},
				{Channel: "A2", SensorType: "Temperature", RawValue: src.Float2(200, 350), CalibratedValue: src.Float2(22, 32), Unit: "°C", PowerConsumption: src.Float2(3, 8), Health: "OK"},
			},
		},
		{
			ID:   "card-2",
			Type: "RS-1 (Serial)",
			Inputs: []IOInput{
				{Channel: "RS485", SensorType: "Modbus Device", CalibratedValue: src.Float2(100, 500), Unit: "units", PowerConsumption: src.Float2(10, 25), Health: Pick(src, []string{"OK", "WARN"})},
			},
		},
	}

	h.GPS = HubGPS{
		CurrentLat:      Round(lat, 6),
		CurrentLng:      Round(lng, 6),
		Accuracy:        src.Float2(2.5, 8),
		MovementHistory: make([]LocationPoint, MovementPoints),
		Speed:           src.Float2(0, 45),
		GeofenceStatus:  Pick(src, weightedGeofence),
		TamperEvents:    []TamperEvent{},
	}
	for i := range h.GPS.MovementHistory {
		h.GPS.MovementHistory[i] = LocationPoint{
			Lat:   Round(lat+src.Float(-0.003, 0.003), 6),
			Lng:   Round(lng+src.Float(-0.003, 0.003), 6),
			Time:  minutesAgo(now, (MovementPoints-1-i)*20),
			Speed: src.Float2(0, 50),
		}
	}
	if src.Chance(0.15) {
		h.GPS.TamperEvents = append(h.GPS.TamperEvents, TamperEvent{
			Time: minutesAgo(now, src.Int(5, 600)),
			Type: Pick(src, tamperTypes),
		})
	}

	h.Automation = Automation{
		ActiveRules: []AutomationRule{
			{ID: "r1", Name: "Irrigation Control", Condition: fmt.Sprintf("soil_moisture < %d%%", cropDryPct), Action: "Turn ON pump", Enabled: true},
			{ID: "r2", Name: "High Water Alert", Condition: fmt.Sprintf("tank_level > %gm", tankAlarmM), Action: "Send SMS alert", Enabled: true},
			{ID: "r3", Name: "Battery Low", Condition: fmt.Sprintf("battery < %d%%", batteryRulePct), Action: "Email notification", Enabled: true},
		},
		TriggerHistory:   make([]TriggerRecord, TriggerCount),
		ExecutionLatency: src.Series(src.Float(50, 200), 40, n, ExecutionLatencyRange),
	}
	for i := range h.Automation.TriggerHistory {
		h.Automation.TriggerHistory[i] = TriggerRecord{
			Time:   minutesAgo(now, src.Int(5, 240)),
			Rule:   Pick(src, TriggerRules),
			Result: Pick(src, weightedSuccess),
		}
	}
	sort.Slice(h.Automation.TriggerHistory, func(i, j int) bool {
		return h.Automation.TriggerHistory[i].Time.After(h.Automation.TriggerHistory[j].Time)
	})
	if cropZonesNeedWater(h.Agriculture.CropZones) {
		at := minutesAgo(now, src.Int(10, 120))
		h.Automation.ActiveRules[0].LastTriggered = &at
	}

	h.Alerts.Resolved = make([]ResolvedAlert, ResolvedCount)
	for i := range h.Alerts.Resolved {
		h.Alerts.Resolved[i] = ResolvedAlert{
			ID:             fmt.Sprintf("r%d", i),
			ResolvedAt:     hoursAgo(now, src.Int(1, 48)),
			ResolutionTime: src.Int(5, 120),
		}
	}

	day := now.Truncate(24 * time.Hour)
	h.Analytics.LongTermTrends = make([]TrendPoint, TrendDays)
	for i := range h.Analytics.LongTermTrends {
		h.Analytics.LongTermTrends[i] = TrendPoint{
			Date:        day.AddDate(0, 0, -(TrendDays - 1 - i)),
			AvgTemp:     src.Float2(25, 35),
			AvgHumidity: src.Float2(50, 80),
			AvgSoil:     src.Float2(30, 60),
		}
	}

	h.Configuration = Configuration{
		SamplingRate:   Pick(src, HubSamplingRates),
		UploadInterval: Pick(src, HubUploadIntervals),
		PowerProfile:   Pick(src, PowerProfiles),
		SensorCalibration: []Calibration{
			{Sensor: "Soil Moisture A1", Offset: src.Float2(-2, 2), Scale: Round(src.Float(0.95, 1.05), 3)},
			{Sensor: "Temperature A2", Offset: src.Float2(-1, 1), Scale: 1.0},
		},
		OTAStatus:   Pick(src, OTAStates),
		OTAProgress: src.Int(1, 99),
	}

	h.Security = Security{
		EncryptionEnabled: true,
		AuthLogs:          make([]AuthLog, AuthLogCount),
		AccessHistory:     make([]AccessRecord, AccessHistoryCount),
		IntegrityChecks: []IntegrityCheck{
			{Component: "Firmware", Status: Pick(src, weightedIntegrity)},
			{Component: "Configuration", Status: Pick(src, weightedIntegrity)},
			{Component: "Data Storage", Status: Pick(src, weightedIntegrity)},
		},
	}
	for i := range h.Security.AuthLogs {
		h.Security.AuthLogs[i] = AuthLog{
			Time:   hoursAgo(now, src.Int(1, 168)),
			User:   Pick(src, authUsers),
			Action: Pick(src, AuthActions),
			Result: Pick(src, weightedSuccess),
		}
	}
	sort.Slice(h.Security.AuthLogs, func(i, j int) bool {
		return h.Security.AuthLogs[i].Time.After(h.Security.AuthLogs[j].Time)
	})
	for i := range h.Security.AccessHistory {
		h.Security.AccessHistory[i] = AccessRecord{
			Time:   minutesAgo(now, src.Int(1, 24*60)),
			IP:     fmt.Sprintf("10.20.%d.%d", src.Int(0, 15), src.Int(2, 254)),
			Action: Pick(src, accessActions),
		}
	}
	sort.Slice(h.Security.AccessHistory, func(i, j int) bool {
		return h.Security.AccessHistory[i].Time.After(h.Security.AccessHistory[j].Time)
	})

	h.Fleet.Devices = make([]FleetDevice, FleetSize)
	for i := range h.Fleet.Devices {
		h.Fleet.Devices[i] = FleetDevice{
			ID:       fmt.Sprintf("HAWK-%d", 100000+i),
			Name:     fmt.Sprintf("Sensor Hub %d", i+1),
			Region:   Pick(src, Regions),
			Status:   Pick(src, weightedOnline),
			Battery:  src.Int(20, 95),
			Signal:   src.Int(-110, -70),
			Location: LatLng{Lat: Round(lat+src.Float(-0.05, 0.05), 6), Lng: Round(lng+src.Float(-0.05, 0.05), 6)},
			LastSeen: minutesAgo(now, src.Int(1, 120)),
		}
	}

	generateConstruction(src, now, labels, &h.Construction)

	deriveHub(h, t)
	return h
}

func generateConstruction(src *Source, now time.Time, labels []string, c *Construction) {
	c.Buildings = make([]Building, BuildingCount)
	for i := range c.Buildings {
		c.Buildings[i] = Building{
			ID:               fmt.Sprintf("BLD-%d", 1000+i),
			Name:             buildingNames[i],
			Status:           Pick(src, weightedBuilding),
			Occupancy:        src.Int(50, 450),
			MaxOccupancy:     500,
			EnergyScore:      src.Int(65, 98),
			SecurityScore:    src.Int(80, 100),
			MaintenanceScore: src.Int(70, 95),
		}
	}

	c.EnergyPerformance = EnergyPerformance{
		CurrentUsage: src.Float2(850, 1250),
		PeakDemand:   src.Float2(1400, 1800),
		Efficiency:   src.Int(78, 94),
		CostToday:    src.Float2(2500, 4500),
		History:      src.Series(1000, 100, len(labels), EnergyHistoryRange),
		TimeLabels:   append([]string(nil), labels...),
	}

	c.Security = BuildingSecurity{
		AccessEvents:  make([]AccessEvent, AccessCount),
		CamerasOnline: src.Int(142, camerasTotal),
		CamerasTotal:  camerasTotal,
		LockStatus: []LockState{
			{Zone: "Main Entrance", Status: Pick(src, []string{"Locked", "Unlocked"})},
			{Zone: "Server Room", Status: "Locked"},
			{Zone: "Executive Wing", Status: "Locked"},
			{Zone: "Loading Dock", Status: Pick(src, []string{"Locked", "Unlocked"})},
			{Zone: "Emergency Exits", Status: Pick(src, []string{"Locked", "Error"})},
		},
	}
	for i := range c.Security.AccessEvents {
		c.Security.AccessEvents[i] = AccessEvent{
			Time:      minutesAgo(now, src.Int(1, 480)),
			Location:  Pick(src, AccessLocations),
			Type:      Pick(src, AccessTypes),
			Clearance: Pick(src, weightedClearance),
		}
	}
	sort.Slice(c.Security.AccessEvents, func(i, j int) bool {
		return c.Security.AccessEvents[i].Time.After(c.Security.AccessEvents[j].Time)
	})

	c.Occupancy = Occupancy{
		Peak:        peakOccupancy,
		Zones:       make([]OccupancyZone, len(occupancyZones)),
		TrafficFlow: src.Series(150, 30, len(labels), TrafficFlowRange),
		TimeLabels:  append([]string(nil), labels...),
	}
	for i, z := range occupancyZones {
		c.Occupancy.Zones[i] = OccupancyZone{Name: z.name, Current: src.Int(z.min, z.max), Capacity: z.capacity}
	}

	c.Maintenance = Maintenance{
		OverdueItems: make([]MaintenanceItem, 0, len(overdueCatalog)),
		ScheduledToday: []ScheduledJob{
			{Time: "09:00", Item: "Roof Inspection", Technician: "John Smith"},
			{Time: "11:30", Item: "Boiler Maintenance", Technician: "Sarah Lee"},
			{Time: "14:00", Item: "Security System Upgrade", Technician: "Mike Johnson"},
			{Time: "16:15", Item: "Parking Gate Repair", Technician: "David Chen"},
		},
		EquipmentHealth: []EquipmentStatus{
			{Equipment: "Chiller Unit A", Status: Pick(src, []string{"Good", "Fair", "Poor"}), LastService: "15 days ago"},
			{Equipment: "Boiler System", Status: Pick(src, []string{"Good", "Fair"}), LastService: "8 days ago"},
			{Equipment: "Generator Backup", Status: "Good", LastService: "22 days ago"},
			{Equipment: "HVAC Zone 1", Status: Pick(src, []string{"Good", "Fair", "Poor"}), LastService: "45 days ago"},
			{Equipment: equipmentFirePump, Status: Pick(src, []string{"Critical", "Poor"}), LastService: "62 days ago"},
			{Equipment: "Elevator Bank A", Status: "Good", LastService: "12 days ago"},
		},
		WorkOrders: WorkOrders{
			Open:       src.Int(8, 25),
			InProgress: src.Int(5, 15),
			Completed:  src.Int(45, 120),
		},
	}
	for _, item := range overdueCatalog {
		if src.Chance(0.7) {
			c.Maintenance.OverdueItems = append(c.Maintenance.OverdueItems, item)
		}
	}
}
