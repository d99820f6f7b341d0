package telemetry

import "math"

// Bounds is a closed numeric domain.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Clamp limits x to the domain.
func (b Bounds) Clamp(x float64) float64 {
	return Clamp(x, b.Min, b.Max)
}

// Contains reports whether x lies inside the domain.
func (b Bounds) Contains(x float64) bool {
	return !math.IsNaN(x) && x >= b.Min && x <= b.Max
}

// ContainsAll reports whether every sample lies inside the domain.
func (b Bounds) ContainsAll(xs []float64) bool {
	for _, x := range xs {
		if !b.Contains(x) {
			return false
		}
	}
	return true
}

// Series lengths.
const (
	HourlyPoints   = 24
	PumpPoints     = 12
	MovementPoints = 15
	TrendDays      = 30
	UptimeDays     = 7
	LocationPoints = 10
	EventCount     = 48
	AuditCount     = 15
	SerialFrames   = 6
	BLETags        = 5
	FleetSize      = 8
	BuildingCount  = 12
	TriggerCount   = 10
	AuthLogCount   = 10
	AccessCount    = 15
	ResolvedCount  = 5
)

// Device snapshot domains.
var (
	BatteryPctRange    = Bounds{0, 100}
	BatteryHistoryPct  = Bounds{18, 100}
	VbatRange          = Bounds{3.4, 4.2}
	VinRange           = Bounds{0, 28}
	SignalDbmRange     = Bounds{-115, -75}
	SpeedRange         = Bounds{0, 45}
	HeadingRange       = Bounds{0, 359}
	SatsRange          = Bounds{6, 16}
	HDOPRange          = Bounds{0.6, 2.5}
	StorageUsedRange   = Bounds{0, 100}
	TempCRange         = Bounds{18, 45}
	HumidityRange      = Bounds{5, 95}
	SoilRange          = Bounds{0, 100}
	WaterLevelRange    = Bounds{0, 4}
	InternalTempCRange = Bounds{-10, 65}
	AccelXYRange       = Bounds{0, 0.35}
	AccelZRange        = Bounds{0.5, 1.5}
	TurbidityRange     = Bounds{0, 50}
	PHRange            = Bounds{0, 14}
	PulseRange         = Bounds{0, 220}
	DataUsageMBRange   = Bounds{0, 50}
	SignalHistoryRange = Bounds{-120, -70}
	UplinkSuccessRange = Bounds{60, 100}
	PanelVoltageRange  = Bounds{0, 22}
	ChargeCurrentRange = Bounds{0, 800}
	UptimePctRange     = Bounds{92, 100}
	CoverageRange      = Bounds{92, 99.9}
	ComplianceUptime   = Bounds{96, 99.99}
	DataPointsRange    = Bounds{15000, 95000}
)

// TankCapacity is the hub water tank size in metres.
const TankCapacity = 5.0

// Hub snapshot domains.
var (
	HubBatteryLevelRange  = Bounds{20, 100}
	HealthScoreRange      = Bounds{75, 100}
	TimelineScoreRange    = Bounds{70, 100}
	HubVoltageRange       = Bounds{3.4, 4.2}
	HubSignalRange        = Bounds{-120, -60}
	HubInternalTempRange  = Bounds{20, 60}
	MemoryUsageRange      = Bounds{30, 95}
	DataUsageUpRange      = Bounds{0, 20}
	DataUsageDownRange    = Bounds{0, 5}
	PacketSuccessRange    = Bounds{60, 100}
	AmbientTempRange      = Bounds{15, 45}
	EnvInternalTempRange  = Bounds{20, 50}
	EnvHumidityRange      = Bounds{10, 95}
	PressureRange         = Bounds{980, 1040}
	RainfallRange         = Bounds{0, 50}
	AirQualityRange       = Bounds{0, 500}
	SoilTempRange         = Bounds{15, 35}
	SoilProbeRange        = Bounds{15, 95}
	CropMoistureRange     = Bounds{20, 90}
	CropPHRange           = Bounds{5.5, 8}
	SoilPHRange           = Bounds{5, 8.5}
	ConductivityRange     = Bounds{0, 5}
	RainfallPulsesRange   = Bounds{0, 50}
	TankLevelRange        = Bounds{0.5, TankCapacity - 0.1}
	FlowRateRange         = Bounds{0, 50}
	WaterPressureRange    = Bounds{1.5, 4.5}
	HubTurbidityRange     = Bounds{0.5, 15}
	TDSRange              = Bounds{50, 300}
	FlowHistoryRange      = Bounds{0, 80}
	GPSAccuracyRange      = Bounds{2.5, 8}
	MovementSpeedRange    = Bounds{0, 50}
	ExecutionLatencyRange = Bounds{10, 500}
	EnergyHistoryRange    = Bounds{600, 1500}
	TrafficFlowRange      = Bounds{20, 400}
	OTAProgressRange      = Bounds{0, 100}
)

// Device snapshot enums.
var (
	ConnModes        = []string{"LTE-M", "NB-IoT"}
	GPSFixes         = []string{"3D Fix", "2D Fix", "No Fix"}
	GPSAccuracies    = []string{"~3m", "~5m", "~10m"}
	GeofenceStates   = []string{"Inside", "Outside"}
	SamplingRates    = []string{"1 min", "5 min", "10 min", "30 sec"}
	UploadIntervals  = []string{"5 min", "15 min", "30 min", "60 min"}
	SerialPorts      = []string{"RS-485", "RS-232", "TTL"}
	EventTypes       = []string{"SENSOR", "GPS", "POWER", "CONNECT", "OTA", "TASK"}
	EventSeverities  = []string{"INFO", "WARN", "CRIT"}
	ChannelStatuses  = []string{"OK", "WARN", "CRIT"}
	AuditResults     = []string{"Success", "Failed"}
	ChargeStates     = []string{"Charging", "Float", "Idle", "MPPT"}
	AlertSeverities  = []string{SeverityInfo, SeverityWarn, SeverityCrit}
	DigitalModes     = []string{"Input", "Pulse", "Switched Ground (Output)"}
	ConnectionLabels = []string{"Connected", "Weak Signal"}
	PowerLabels      = []string{"External + Backup", "Battery", "Low Battery"}
)

// Hub snapshot enums.
var (
	DeviceStates        = []string{"online", "offline"}
	PowerSources        = []string{"Battery", "Solar", "External", "Hybrid"}
	RebootReasons       = []string{"Scheduled Update", "Power Cycle", "Watchdog Reset", "Manual Restart"}
	Carriers            = []string{"Robi", "Grameenphone", "Banglalink"}
	LeakSeverities      = []string{"Low", "Medium", "High"}
	PumpStates          = []string{"ON", "OFF"}
	IOHealthStates      = []string{"OK", "WARN", "ERROR"}
	HubSeverities       = []string{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	HubSamplingRates    = []string{"1 min", "5 min", "10 min", "30 min"}
	HubUploadIntervals  = []string{"5 min", "15 min", "30 min", "1 hour"}
	PowerProfiles       = []string{"Low Power", "Balanced", "High Performance"}
	OTAStates           = []string{"Idle", "Downloading", "Installing", "Complete"}
	IntegrityStates     = []string{"OK", "FAIL"}
	Regions             = []string{"North Zone", "South Zone", "East Zone"}
	BuildingStates      = []string{"operational", "warning", "critical", "offline"}
	LockStates          = []string{"Locked", "Unlocked", "Error"}
	Clearances          = []string{"Authorized", "Denied"}
	EquipmentStates     = []string{"Good", "Fair", "Poor", "Critical"}
	RiskCategories      = []string{"Energy", "Security", "Safety", "Equipment", "Compliance"}
	CropZoneStates      = []string{"Optimal", "Needs Water"}
	TriggerResults      = []string{"Success", "Failed"}
	TriggerRules        = []string{"Irrigation Control", "High Water Alert", "Temperature Warning"}
	AuthActions         = []string{"Login", "Config Change", "Data Export", "Device Restart"}
	AccessLocations     = []string{"Main Entrance", "Loading Dock", "Parking Garage", "Executive Floor", "Server Room", "Manufacturing Floor"}
	AccessTypes         = []string{"Badge Scan", "PIN Entry", "Biometric", "Security Override"}
	MaintenancePriority = []string{"Low", "Medium", "High", "Critical"}
)

// Contains reports whether v is one of the enum values.
func Contains(enum []string, v string) bool {
	for _, e := range enum {
		if e == v {
			return true
		}
	}
	return false
}
