package telemetry

import (
	"fmt"
	"sort"
	"time"
)

const (
	homeLat = 42.5145
	homeLng = -83.0146
)

var (
	serialPayloads = []func(s *Source) string{
		func(s *Source) string { return fmt.Sprintf("SENSOR=FLOW;RATE=%.2f;UNIT=L/min", s.Float(2.1, 15.8)) },
		func(s *Source) string { return fmt.Sprintf("MODBUS:0x01 0x03 REG=0x0010 VAL=%d", s.Int(100, 980)) },
		func(s *Source) string {
			return fmt.Sprintf("LEVEL=%.2fm;TEMP=%.1f", s.Float(0.2, 2.8), s.Float(18, 39))
		},
		func(s *Source) string { return fmt.Sprintf("STATUS=OK;ERR=0;RSSI=%d", s.Int(-110, -75)) },
		func(s *Source) string { return fmt.Sprintf("PH=%.2f;TURB=%.1f", s.Float(6.5, 8.2), s.Float(0.5, 10)) },
	}

	bleNames = []string{"BLE-TempTag", "BLE-HumidityTag", "BLE-SoilProbe", "BLE-AssetTag", "BLE-Beacon"}
	bleReadings = []func(s *Source) string{
		func(s *Source) string { return fmt.Sprintf("Temp %.1f°C", s.Float(15, 38)) },
		func(s *Source) string { return fmt.Sprintf("Humidity %d%%", s.Int(20, 90)) },
		func(s *Source) string { return fmt.Sprintf("Soil %d%%", s.Int(5, 60)) },
		func(s *Source) string { return fmt.Sprintf("Vibration %.2fg", s.Float(0.02, 0.33)) },
		func(s *Source) string { return "Door " + Pick(s, []string{"Open", "Closed"}) },
	}

	eventMessages = []string{
		"Uploaded batch successfully",
		"Stored offline record (no coverage)",
		"GPS fix updated",
		"Sensor power switched ON",
		"Sensor power switched OFF",
		"Threshold crossed, task triggered",
		"Webhook delivered (200 OK)",
		"TCP direct send completed",
		"Signal drop detected, retrying",
		"Battery low warning",
		"Firmware download started",
		"Firmware install complete",
		"Device restart requested",
	}

	auditActions = []string{
		"Configuration updated",
		"Firmware OTA initiated",
		"Device reboot requested",
		"Sensor threshold modified",
		"Data export completed",
		"Task schedule changed",
		"User login",
		"API key regenerated",
	}
	auditUsers = []string{"admin@company.com", "operator@company.com", "API Service", "Scheduled Task"}

	weightedAudit    = []string{"Success", "Success", "Success", "Failed"}
	weightedEventSev = []string{SeverityInfo, SeverityInfo, SeverityInfo, SeverityWarn, SeverityCrit}
	weightedGeofence = []string{"Inside", "Inside", "Inside", "Outside"}
)

// generateDevice draws every raw reading of a device snapshot, then derives
// its status and alerts.
func generateDevice(src *Source, now time.Time, t Thresholds) *Snapshot {
	n := HourlyPoints
	signal := src.Int(-115, -75)
	battery := src.Int(18, 98)
	lat := homeLat + src.Float(-0.01, 0.01)
	lng := homeLng + src.Float(-0.01, 0.01)

	s := &Snapshot{
		GeneratedAt:    now,
		DeviceID:       fmt.Sprintf("HAWK-%d", src.Int(100000, 999999)),
		Firmware:       fmt.Sprintf("v1.%d.%d", src.Int(0, 5), src.Int(0, 30)),
		ConnMode:       Pick(src, ConnModes),
		SignalDbm:      signal,
		LastSeen:       now,
		BatteryPct:     battery,
		Vbat:           src.Float2(3.55, 4.15),
		SamplingRate:   Pick(src, SamplingRates),
		UploadInterval: Pick(src, UploadIntervals),
		StorageUsed:    src.Int(4, 92),
		EnvLabels:      HourLabels(now, n),
		TempC:          src.Series(src.Float(26, 34), 1.2, n, TempCRange),
		Humidity:       src.Series(src.Float(35, 70), 4.5, n, HumidityRange),
		Soil:           src.Series(src.Float(10, 45), 5.5, n, SoilRange),
		WaterM:         src.Series(src.Float(0.4, 2.4), 0.25, n, WaterLevelRange),
		InternalTempC:  src.Series(src.Float(24, 41), 1.0, n, InternalTempCRange),
		Accel: Accel{
			X: src.Series(src.Float(0.02, 0.08), 0.03, n, AccelXYRange),
			Y: src.Series(src.Float(0.02, 0.08), 0.03, n, AccelXYRange),
			Z: src.Series(src.Float(0.90, 1.05), 0.07, n, AccelZRange),
		},
		Turbidity: src.Series(src.Float(1, 8), 1.2, n, TurbidityRange),
		PH:        src.Series(src.Float(6.6, 7.8), 0.2, n, PHRange),
		Pulse:     src.Series(src.Float(10, 90), 12, n, PulseRange),
	}

	// One draw in four has no external supply.
	if src.Int(0, 3) > 0 {
		s.Vin = src.Float2(6, 28)
	}

	s.GPS = GPSFix{
		Lat:      Round(lat, 6),
		Lng:      Round(lng, 6),
		Fix:      Pick(src, GPSFixes),
		Accuracy: Pick(src, GPSAccuracies),
		Speed:    src.Float2(0, 45),
		Heading:  src.Int(0, 359),
		Sats:     src.Int(6, 16),
		HDOP:     src.Float2(0.6, 2.5),
		Geofence: Pick(src, weightedGeofence),
	}

	s.Analog = []AnalogChannel{
		{Channel: "A1", Type: "Analog (0-30V)", Value: src.Float2(1.2, 12.5), Unit: "V", Status: Pick(src, []string{"OK", "OK", "WARN"})},
		{Channel: "A2", Type: "Analog (0-30V)", Value: src.Float2(0.2, 2.8), Unit: "V", Status: "OK"},
		{Channel: "A3", Type: "4-20mA", Value: src.Float2(4, 20), Unit: "mA", Status: Pick(src, []string{"OK", "OK", "OK", "WARN"})},
		{Channel: "A4", Type: "4-20mA", Value: src.Float2(4, 20), Unit: "mA", Status: Pick(src, []string{"OK", "OK", "CRIT"})},
		{Channel: "A5", Type: "Analog (0-30V)", Value: src.Float2(0, 30), Unit: "V", Status: "OK"},
	}

	s.Digital = make([]DigitalPin, 0, 7)
	for i := 1; i <= 6; i++ {
		volts := src.Float2(0, 40)
		s.Digital = append(s.Digital, DigitalPin{
			Name:  fmt.Sprintf("DI%d", i),
			State: Pick(src, []int{0, 1, 1, 0, 1}),
			Volts: &volts,
			Mode:  Pick(src, []string{"Input", "Input", "Pulse", "Input"}),
		})
	}
	s.Digital = append(s.Digital, DigitalPin{
		Name:  "DO1",
		State: Pick(src, []int{0, 1, 0}),
		Mode:  "Switched Ground (Output)",
	})

	s.Serial = make([]SerialFrame, SerialFrames)
	for i := range s.Serial {
		s.Serial[i] = SerialFrame{
			Time:    minutesAgo(now, src.Int(2, 180)),
			Port:    Pick(src, SerialPorts),
			Payload: Pick(src, serialPayloads)(src),
		}
	}
	sort.Slice(s.Serial, func(i, j int) bool { return s.Serial[i].Time.Before(s.Serial[j].Time) })

	s.BLE = make([]BLETag, BLETags)
	for i := range s.BLE {
		s.BLE[i] = BLETag{
			Name:    fmt.Sprintf("%s-%d", Pick(src, bleNames), src.Int(10, 99)),
			RSSI:    src.Int(-98, -45),
			Battery: src.Int(35, 98),
			Reading: Pick(src, bleReadings)(src),
			Updated: minutesAgo(now, src.Int(1, 25)),
		}
	}

	s.Tasks = []Task{
		{Name: fmt.Sprintf("Threshold: Water Level > %gm", t.HighWaterM), Action: "Send CRIT alert + push webhook", Schedule: "Event-driven", Enabled: true},
		{Name: "Irrigation Assist", Action: fmt.Sprintf("If soil < %g%%, turn DO1 ON for 5m", t.SoilDry), Schedule: "Event-driven", Enabled: Pick(src, []bool{true, true, false})},
		{Name: "Daily Summary", Action: "Upload daily report + store metrics", Schedule: "Every 24h", Enabled: true},
		{Name: "Power Saving", Action: "Gate sensor power when battery < 20%", Schedule: "Event-driven", Enabled: true},
	}

	s.Events = make([]Event, EventCount)
	for i := range s.Events {
		s.Events[i] = Event{
			Time:     now.Add(-time.Duration(src.Int(5, 24*60)) * time.Second),
			Type:     Pick(src, EventTypes),
			Message:  Pick(src, eventMessages),
			Severity: Pick(src, weightedEventSev),
		}
	}
	sort.Slice(s.Events, func(i, j int) bool { return s.Events[i].Time.After(s.Events[j].Time) })

	s.PowerOut = []PowerRail{
		{Label: "3.3V Sensor Rail", Value: src.Float2(20, 160)},
		{Label: "5V Sensor Rail", Value: src.Float2(10, 220)},
		{Label: "12V Sensor Rail", Value: src.Float2(0, 350)},
		{Label: "DO1 Load (mA)", Value: src.Float2(0, 900)},
	}

	day := now.Truncate(24 * time.Hour)
	s.Uptime = make([]UptimeDay, UptimeDays)
	for i := range s.Uptime {
		s.Uptime[i] = UptimeDay{
			Day: day.AddDate(0, 0, -(UptimeDays - 1 - i)),
			Pct: src.Float2(UptimePctRange.Min, UptimePctRange.Max),
		}
	}

	s.IOCards = []IOCard{
		{Slot: 1, Name: "Cellular Modem (LTE-M)", Type: "Comms", Status: "Active"},
		{Slot: 2, Name: "GPS / GNSS Module", Type: "Pos", Status: "Active"},
		{Slot: 3, Name: "Analog Input Card (8-ch)", Type: "I/O", Status: "OK"},
		{Slot: 4, Name: "Digital I/O Card", Type: "I/O", Status: "OK"},
	}

	s.BatteryHistory = make([]BatteryPoint, n)
	for i := range s.BatteryHistory {
		pct := float64(battery-src.Int(0, 15)) + float64(i)*0.5
		s.BatteryHistory[i] = BatteryPoint{
			Time:     BucketTime(now, n, i),
			Percent:  BatteryHistoryPct.Clamp(pct),
			Voltage:  src.Float2(VbatRange.Min, VbatRange.Max),
			Charging: Pick(src, []bool{false, false, false, true}),
		}
	}

	s.NetworkStats = NetworkStats{
		DataUsageMB:   src.Series(src.Float(2, 8), 1.5, n, DataUsageMBRange),
		SignalHistory: src.Series(float64(signal), 5, n, SignalHistoryRange),
		UplinkSuccess: src.Series(src.Float(85, 98), 3, n, UplinkSuccessRange),
		Labels:        HourLabels(now, n),
	}

	s.LocationHistory = make([]LocationPoint, LocationPoints)
	for i := range s.LocationHistory {
		s.LocationHistory[i] = LocationPoint{
			Lat:   Round(lat+src.Float(-0.002, 0.002), 6),
			Lng:   Round(lng+src.Float(-0.002, 0.002), 6),
			Time:  minutesAgo(now, (LocationPoints-1-i)*15),
			Speed: src.Float2(0, 45),
		}
	}

	s.AuditLog = make([]AuditEntry, AuditCount)
	for i := range s.AuditLog {
		s.AuditLog[i] = AuditEntry{
			Timestamp: hoursAgo(now, src.Int(1, 72)),
			Action:    Pick(src, auditActions),
			User:      Pick(src, auditUsers),
			Result:    Pick(src, weightedAudit),
		}
	}
	sort.Slice(s.AuditLog, func(i, j int) bool { return s.AuditLog[i].Timestamp.After(s.AuditLog[j].Timestamp) })

	s.Solar = SolarCharging{
		PanelVoltage:  src.Series(src.Float(12, 18), 1.2, n, PanelVoltageRange),
		ChargeCurrent: src.Series(src.Float(100, 500), 80, n, ChargeCurrentRange),
		ChargeState:   Pick(src, ChargeStates),
	}

	s.Compliance = Compliance{
		DataPoints: src.Int(15000, 95000),
		Coverage:   src.Float2(CoverageRange.Min, CoverageRange.Max),
		Uptime:     src.Float2(ComplianceUptime.Min, ComplianceUptime.Max),
		LastExport: hoursAgo(now, src.Int(1, 48)),
	}

	Derive(s, t)
	return s
}
