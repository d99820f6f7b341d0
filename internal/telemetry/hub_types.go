package telemetry

import "time"

// HubSnapshot is one complete tick of the multi-section hub dashboard feed.
type HubSnapshot struct {
	GeneratedAt   time.Time      `json:"generatedAt"`
	Executive     Executive      `json:"executive"`
	DeviceHealth  DeviceHealth   `json:"deviceHealth"`
	Connectivity  Connectivity   `json:"connectivity"`
	Environmental Environmental  `json:"environmental"`
	Agriculture   Agriculture    `json:"agriculture"`
	WaterUtility  WaterUtility   `json:"waterUtility"`
	IOCards       []IOCardModule `json:"ioCards"`
	GPS           HubGPS         `json:"gps"`
	Automation    Automation     `json:"automation"`
	Alerts        HubAlerts      `json:"alerts"`
	Analytics     Analytics      `json:"analytics"`
	Configuration Configuration  `json:"configuration"`
	Security      Security       `json:"security"`
	Fleet         Fleet          `json:"fleet"`
	Construction  Construction   `json:"construction"`
}

type Executive struct {
	DeviceStatus    string    `json:"deviceStatus"`
	BatteryLevel    int       `json:"batteryLevel"`
	BatteryCharging bool      `json:"batteryCharging"`
	Connectivity    string    `json:"connectivity"`
	LastSync        time.Time `json:"lastSync"`
	ActiveAlerts    int       `json:"activeAlerts"`
	LastGPSFix      time.Time `json:"lastGPSFix"`
	HealthScore     int       `json:"healthScore"`
}

type DeviceHealth struct {
	BatteryVoltage   float64       `json:"batteryVoltage"`
	PowerSource      string        `json:"powerSource"`
	SignalStrength   int           `json:"signalStrength"`
	InternalTemp     float64       `json:"internalTemp"`
	MemoryUsage      int           `json:"memoryUsage"`
	FirmwareVersion  string        `json:"firmwareVersion"`
	Uptime           string        `json:"uptime"`
	LastRebootReason string        `json:"lastRebootReason"`
	FaultCodes       []string      `json:"faultCodes"`
	HealthTimeline   []HealthPoint `json:"healthTimeline"`
}

type HealthPoint struct {
	Time  string `json:"time"`
	Score int    `json:"score"`
}

type Connectivity struct {
	NetworkType    string          `json:"networkType"`
	Carrier        string          `json:"carrier"`
	SignalHistory  []float64       `json:"signalHistory"`
	DataUsageUp    []float64       `json:"dataUsageUp"`
	DataUsageDown  []float64       `json:"dataUsageDown"`
	PacketSuccess  []float64       `json:"packetSuccess"`
	OfflineWindows []OfflineWindow `json:"offlineDuration"`
	TimeLabels     []string        `json:"timeLabels"`
}

// OfflineWindow is a past connectivity gap. Duration is in minutes.
type OfflineWindow struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration int       `json:"duration"`
}

type Environmental struct {
	AmbientTemp  []float64 `json:"ambientTemp"`
	InternalTemp []float64 `json:"internalTemp"`
	Humidity     []float64 `json:"humidity"`
	Pressure     []float64 `json:"pressure"`
	Rainfall     []float64 `json:"rainfall"`
	AirQuality   []float64 `json:"airQuality"`
	SoilTemp     []float64 `json:"soilTemp"`
	TimeLabels   []string  `json:"timeLabels"`
	Thresholds   Bounds    `json:"thresholds"`
}

type Agriculture struct {
	SoilMoisture           []SoilProbe `json:"soilMoisture"`
	SoilPH                 []float64   `json:"soilPH"`
	ElectricalConductivity []float64   `json:"electricalConductivity"`
	IrrigationStatus       bool        `json:"irrigationStatus"`
	RainfallPulses         []float64   `json:"rainfallPulses"`
	CropZones              []CropZone  `json:"cropZones"`
}

type SoilProbe struct {
	Zone  string  `json:"zone"`
	Value float64 `json:"value"`
	Depth string  `json:"depth"`
}

type CropZone struct {
	Name     string  `json:"name"`
	Moisture float64 `json:"moisture"`
	PH       float64 `json:"ph"`
	Status   string  `json:"status"`
}

type WaterUtility struct {
	TankLevel    float64     `json:"tankLevel"`
	TankCapacity float64     `json:"tankCapacity"`
	FlowRate     float64     `json:"flowRate"`
	Pressure     float64     `json:"pressure"`
	Turbidity    float64     `json:"turbidity"`
	TDS          float64     `json:"tds"`
	LeakEvents   []LeakEvent `json:"leakEvents"`
	PumpHistory  []PumpState `json:"pumpHistory"`
	FlowHistory  []float64   `json:"flowHistory"`
}

type LeakEvent struct {
	Time     time.Time `json:"time"`
	Severity string    `json:"severity"`
}

type PumpState struct {
	Time  time.Time `json:"time"`
	State string    `json:"state"`
}

type IOCardModule struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	Inputs []IOInput `json:"inputs"`
}

type IOInput struct {
	Channel          string  `json:"channel"`
	SensorType       string  `json:"sensorType"`
	RawValue         float64 `json:"rawValue"`
	CalibratedValue  float64 `json:"calibratedValue"`
	Unit             string  `json:"unit"`
	PowerConsumption float64 `json:"powerConsumption"`
	Health           string  `json:"health"`
}

type HubGPS struct {
	CurrentLat      float64         `json:"currentLat"`
	CurrentLng      float64         `json:"currentLng"`
	Accuracy        float64         `json:"accuracy"`
	MovementHistory []LocationPoint `json:"movementHistory"`
	Speed           float64         `json:"speed"`
	GeofenceStatus  string          `json:"geofenceStatus"`
	TamperEvents    []TamperEvent   `json:"tamperEvents"`
}

type TamperEvent struct {
	Time time.Time `json:"time"`
	Type string    `json:"type"`
}

type Automation struct {
	ActiveRules      []AutomationRule `json:"activeRules"`
	TriggerHistory   []TriggerRecord  `json:"triggerHistory"`
	FailedTasks      []FailedTask     `json:"failedTasks"`
	ExecutionLatency []float64        `json:"executionLatency"`
}

// AutomationRule is an on-device rule. LastTriggered is nil when the rule
// has never fired.
type AutomationRule struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Condition     string     `json:"condition"`
	Action        string     `json:"action"`
	Enabled       bool       `json:"enabled"`
	LastTriggered *time.Time `json:"lastTriggered"`
}

type TriggerRecord struct {
	Time   time.Time `json:"time"`
	Rule   string    `json:"rule"`
	Result string    `json:"result"`
}

type FailedTask struct {
	Time  time.Time `json:"time"`
	Task  string    `json:"task"`
	Error string    `json:"error"`
}

type HubAlerts struct {
	Active   []HubAlert      `json:"active"`
	Resolved []ResolvedAlert `json:"resolved"`
}

// HubAlert is an active alert of the hub feed.
type HubAlert struct {
	ID           string    `json:"id"`
	Severity     string    `json:"severity"`
	Kind         string    `json:"kind"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	Acknowledged bool      `json:"acknowledged"`
	Channel      string    `json:"channel"`
}

// ResolvedAlert records a closed alert. ResolutionTime is in minutes.
type ResolvedAlert struct {
	ID             string    `json:"id"`
	ResolvedAt     time.Time `json:"resolvedAt"`
	ResolutionTime int       `json:"resolutionTime"`
}

type Analytics struct {
	LongTermTrends []TrendPoint  `json:"longTermTrends"`
	Anomalies      []Anomaly     `json:"anomalies"`
	Correlations   []Correlation `json:"correlations"`
}

type TrendPoint struct {
	Date        time.Time `json:"date"`
	AvgTemp     float64   `json:"avgTemp"`
	AvgHumidity float64   `json:"avgHumidity"`
	AvgSoil     float64   `json:"avgSoil"`
}

type Anomaly struct {
	Time     time.Time `json:"time"`
	Metric   string    `json:"metric"`
	Value    float64   `json:"value"`
	Expected float64   `json:"expected"`
}

type Correlation struct {
	Metric1     string  `json:"metric1"`
	Metric2     string  `json:"metric2"`
	Correlation float64 `json:"correlation"`
}

type Configuration struct {
	SamplingRate      string        `json:"samplingRate"`
	UploadInterval    string        `json:"uploadInterval"`
	PowerProfile      string        `json:"powerProfile"`
	SensorCalibration []Calibration `json:"sensorCalibration"`
	OTAStatus         string        `json:"otaStatus"`
	OTAProgress       int           `json:"otaProgress"`
}

type Calibration struct {
	Sensor string  `json:"sensor"`
	Offset float64 `json:"offset"`
	Scale  float64 `json:"scale"`
}

type Security struct {
	EncryptionEnabled bool             `json:"encryptionEnabled"`
	AuthLogs          []AuthLog        `json:"authLogs"`
	AccessHistory     []AccessRecord   `json:"accessHistory"`
	IntegrityChecks   []IntegrityCheck `json:"integrityChecks"`
	ComplianceFlags   []string         `json:"complianceFlags"`
}

type AuthLog struct {
	Time   time.Time `json:"time"`
	User   string    `json:"user"`
	Action string    `json:"action"`
	Result string    `json:"result"`
}

type AccessRecord struct {
	Time   time.Time `json:"time"`
	IP     string    `json:"ip"`
	Action string    `json:"action"`
}

type IntegrityCheck struct {
	Component string `json:"component"`
	Status    string `json:"status"`
}

type Fleet struct {
	Devices         []FleetDevice   `json:"devices"`
	RegionalSummary []RegionSummary `json:"regionalSummary"`
}

type FleetDevice struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Region   string    `json:"region"`
	Status   string    `json:"status"`
	Battery  int       `json:"battery"`
	Signal   int       `json:"signal"`
	Location LatLng    `json:"location"`
	LastSeen time.Time `json:"lastSeen"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type RegionSummary struct {
	Region  string `json:"region"`
	Online  int    `json:"online"`
	Offline int    `json:"offline"`
}

type Construction struct {
	Portfolio         Portfolio         `json:"portfolio"`
	Buildings         []Building        `json:"buildings"`
	EnergyPerformance EnergyPerformance `json:"energyPerformance"`
	Security          BuildingSecurity  `json:"security"`
	Occupancy         Occupancy         `json:"occupancy"`
	Maintenance       Maintenance       `json:"maintenance"`
	AtRisk            []RiskItem        `json:"atRisk"`
}

type Portfolio struct {
	TotalBuildings  int `json:"totalBuildings"`
	OnlineBuildings int `json:"onlineBuildings"`
	OverallScore    int `json:"overallScore"`
	CriticalIssues  int `json:"criticalIssues"`
}

type Building struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Status           string `json:"status"`
	Occupancy        int    `json:"occupancy"`
	MaxOccupancy     int    `json:"maxOccupancy"`
	EnergyScore      int    `json:"energyScore"`
	SecurityScore    int    `json:"securityScore"`
	MaintenanceScore int    `json:"maintenanceScore"`
}

// EnergyPerformance figures are in kW except Efficiency (%) and CostToday.
type EnergyPerformance struct {
	CurrentUsage float64   `json:"currentUsage"`
	PeakDemand   float64   `json:"peakDemand"`
	Efficiency   int       `json:"efficiency"`
	CostToday    float64   `json:"costToday"`
	History      []float64 `json:"history"`
	TimeLabels   []string  `json:"timeLabels"`
}

type BuildingSecurity struct {
	AccessEvents   []AccessEvent `json:"accessEvents"`
	BreachAttempts int           `json:"breachAttempts"`
	CamerasOnline  int           `json:"camerasOnline"`
	CamerasTotal   int           `json:"camerasTotal"`
	LockStatus     []LockState   `json:"lockStatus"`
}

type AccessEvent struct {
	Time      time.Time `json:"time"`
	Location  string    `json:"location"`
	Type      string    `json:"type"`
	Clearance string    `json:"clearance"`
}

type LockState struct {
	Zone   string `json:"zone"`
	Status string `json:"status"`
}

type Occupancy struct {
	Current     int             `json:"current"`
	Peak        int             `json:"peak"`
	Zones       []OccupancyZone `json:"zones"`
	TrafficFlow []float64       `json:"trafficFlow"`
	TimeLabels  []string        `json:"timeLabels"`
}

type OccupancyZone struct {
	Name        string `json:"name"`
	Current     int    `json:"current"`
	Capacity    int    `json:"capacity"`
	Utilization int    `json:"utilization"`
}

type Maintenance struct {
	OverdueItems    []MaintenanceItem `json:"overdueItems"`
	ScheduledToday  []ScheduledJob    `json:"scheduledToday"`
	EquipmentHealth []EquipmentStatus `json:"equipmentHealth"`
	WorkOrders      WorkOrders        `json:"workOrders"`
}

type MaintenanceItem struct {
	ID       string `json:"id"`
	Item     string `json:"item"`
	DueDate  string `json:"dueDate"`
	Priority string `json:"priority"`
}

type ScheduledJob struct {
	Time       string `json:"time"`
	Item       string `json:"item"`
	Technician string `json:"technician"`
}

type EquipmentStatus struct {
	Equipment   string `json:"equipment"`
	Status      string `json:"status"`
	LastService string `json:"lastService"`
}

type WorkOrders struct {
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
}

type RiskItem struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Issue    string `json:"issue"`
	Severity string `json:"severity"`
	Impact   string `json:"impact"`
	DueDate  string `json:"dueDate"`
}
