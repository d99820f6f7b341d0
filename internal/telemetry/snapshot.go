package telemetry

import (
	"slices"
	"time"
)

// Snapshot is one complete tick of single-device telemetry.
type Snapshot struct {
	GeneratedAt     time.Time       `json:"generatedAt"`
	DeviceID        string          `json:"deviceId"`
	Firmware        string          `json:"fw"`
	ConnMode        string          `json:"connMode"`
	SignalDbm       int             `json:"signalDbm"`
	LastSeen        time.Time       `json:"lastSeen"`
	BatteryPct      int             `json:"batteryPct"`
	Vbat            float64         `json:"vbat"`
	Vin             float64         `json:"vin"`
	GPS             GPSFix          `json:"gps"`
	SamplingRate    string          `json:"samplingRate"`
	UploadInterval  string          `json:"uploadInterval"`
	StorageUsed     int             `json:"storageUsed"`
	EnvLabels       []string        `json:"envLabels"`
	TempC           []float64       `json:"tempC"`
	Humidity        []float64       `json:"hum"`
	Soil            []float64       `json:"soil"`
	WaterM          []float64       `json:"waterM"`
	InternalTempC   []float64       `json:"internalTempC"`
	Accel           Accel           `json:"accel"`
	Turbidity       []float64       `json:"turbidity"`
	PH              []float64       `json:"ph"`
	Pulse           []float64       `json:"pulse"`
	Analog          []AnalogChannel `json:"analog"`
	Digital         []DigitalPin    `json:"digital"`
	Serial          []SerialFrame   `json:"serial"`
	BLE             []BLETag        `json:"ble"`
	Tasks           []Task          `json:"tasks"`
	Events          []Event         `json:"events"`
	PowerOut        []PowerRail     `json:"powerOut"`
	Uptime          []UptimeDay     `json:"uptime"`
	IOCards         []IOCard        `json:"ioCards"`
	BatteryHistory  []BatteryPoint  `json:"batteryHistory"`
	NetworkStats    NetworkStats    `json:"networkStats"`
	LocationHistory []LocationPoint `json:"locationHistory"`
	AuditLog        []AuditEntry    `json:"auditLog"`
	Solar           SolarCharging   `json:"solarCharging"`
	Compliance      Compliance      `json:"compliance"`

	Status DeviceStatus `json:"status"`
	Alerts []Alert      `json:"alerts"`
}

// GPSFix is the device's latest position report.
type GPSFix struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Fix      string  `json:"fix"`
	Accuracy string  `json:"acc"`
	Speed    float64 `json:"speed"`
	Heading  int     `json:"heading"`
	Sats     int     `json:"sats"`
	HDOP     float64 `json:"hdop"`
	Geofence string  `json:"geofence"`
}

// Accel holds the three accelerometer axes in g.
type Accel struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
	Z []float64 `json:"z"`
}

type AnalogChannel struct {
	Channel string  `json:"ch"`
	Type    string  `json:"type"`
	Value   float64 `json:"value"`
	Unit    string  `json:"unit"`
	Status  string  `json:"status"`
}

// DigitalPin is a digital input or output. Volts is nil for outputs.
type DigitalPin struct {
	Name  string   `json:"name"`
	State int      `json:"state"`
	Volts *float64 `json:"volts"`
	Mode  string   `json:"mode"`
}

type SerialFrame struct {
	Time    time.Time `json:"time"`
	Port    string    `json:"port"`
	Payload string    `json:"payload"`
}

type BLETag struct {
	Name    string    `json:"name"`
	RSSI    int       `json:"rssi"`
	Battery int       `json:"battery"`
	Reading string    `json:"reading"`
	Updated time.Time `json:"updated"`
}

type Task struct {
	Name     string `json:"name"`
	Action   string `json:"action"`
	Schedule string `json:"schedule"`
	Enabled  bool   `json:"enabled"`
}

type Event struct {
	Time     time.Time `json:"time"`
	Type     string    `json:"type"`
	Message  string    `json:"msg"`
	Severity string    `json:"sev"`
}

type PowerRail struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type UptimeDay struct {
	Day time.Time `json:"day"`
	Pct float64   `json:"pct"`
}

type IOCard struct {
	Slot   int    `json:"slot"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

type BatteryPoint struct {
	Time     time.Time `json:"time"`
	Percent  float64   `json:"percent"`
	Voltage  float64   `json:"voltage"`
	Charging bool      `json:"charging"`
}

type NetworkStats struct {
	DataUsageMB   []float64 `json:"dataUsageMB"`
	SignalHistory []float64 `json:"signalHistory"`
	UplinkSuccess []float64 `json:"uplinkSuccess"`
	Labels        []string  `json:"labels"`
}

// LocationPoint is one entry of a movement trail.
type LocationPoint struct {
	Lat   float64   `json:"lat"`
	Lng   float64   `json:"lng"`
	Time  time.Time `json:"time"`
	Speed float64   `json:"speed"`
}

type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	User      string    `json:"user"`
	Result    string    `json:"result"`
}

type SolarCharging struct {
	PanelVoltage  []float64 `json:"panelVoltage"`
	ChargeCurrent []float64 `json:"chargeCurrent"`
	ChargeState   string    `json:"chargeState"`
}

type Compliance struct {
	DataPoints int       `json:"dataPoints"`
	Coverage   float64   `json:"coverage"`
	Uptime     float64   `json:"uptime"`
	LastExport time.Time `json:"lastExport"`
}

// DeviceStatus holds the labels computed from a snapshot's readings.
type DeviceStatus struct {
	Connection    string `json:"connection"`
	ExternalPower bool   `json:"externalPower"`
	PowerOK       bool   `json:"powerOk"`
	Power         string `json:"power"`
	GPS           string `json:"gps"`
	Storage       string `json:"storage"`
	InternalTemp  string `json:"internalTemp"`
	Tamper        string `json:"tamper"`
}

// Series returns every hourly series of the snapshot keyed by metric name.
// The slices are shared with the snapshot.
func (s *Snapshot) Series() map[string][]float64 {
	return map[string][]float64{
		"tempC":         s.TempC,
		"hum":           s.Humidity,
		"soil":          s.Soil,
		"waterM":        s.WaterM,
		"internalTempC": s.InternalTempC,
		"accel.x":       s.Accel.X,
		"accel.y":       s.Accel.Y,
		"accel.z":       s.Accel.Z,
		"turbidity":     s.Turbidity,
		"ph":            s.PH,
		"pulse":         s.Pulse,
		"dataUsageMB":   s.NetworkStats.DataUsageMB,
		"signalHistory": s.NetworkStats.SignalHistory,
		"uplinkSuccess": s.NetworkStats.UplinkSuccess,
		"panelVoltage":  s.Solar.PanelVoltage,
		"chargeCurrent": s.Solar.ChargeCurrent,
	}
}

// Clone returns a deep copy that shares no slices with s.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.EnvLabels = slices.Clone(s.EnvLabels)
	c.TempC = slices.Clone(s.TempC)
	c.Humidity = slices.Clone(s.Humidity)
	c.Soil = slices.Clone(s.Soil)
	c.WaterM = slices.Clone(s.WaterM)
	c.InternalTempC = slices.Clone(s.InternalTempC)
	c.Accel = Accel{X: slices.Clone(s.Accel.X), Y: slices.Clone(s.Accel.Y), Z: slices.Clone(s.Accel.Z)}
	c.Turbidity = slices.Clone(s.Turbidity)
	c.PH = slices.Clone(s.PH)
	c.Pulse = slices.Clone(s.Pulse)
	c.Analog = slices.Clone(s.Analog)
	c.Digital = make([]DigitalPin, len(s.Digital))
	for i, d := range s.Digital {
		if d.Volts != nil {
			v := *d.Volts
			d.Volts = &v
		}
		c.Digital[i] = d
	}
	c.Serial = slices.Clone(s.Serial)
	c.BLE = slices.Clone(s.BLE)
	c.Tasks = slices.Clone(s.Tasks)
	c.Events = slices.Clone(s.Events)
	c.PowerOut = slices.Clone(s.PowerOut)
	c.Uptime = slices.Clone(s.Uptime)
	c.IOCards = slices.Clone(s.IOCards)
	c.BatteryHistory = slices.Clone(s.BatteryHistory)
	c.NetworkStats = NetworkStats{
		DataUsageMB:   slices.Clone(s.NetworkStats.DataUsageMB),
		SignalHistory: slices.Clone(s.NetworkStats.SignalHistory),
		UplinkSuccess: slices.Clone(s.NetworkStats.UplinkSuccess),
		Labels:        slices.Clone(s.NetworkStats.Labels),
	}
	c.LocationHistory = slices.Clone(s.LocationHistory)
	c.AuditLog = slices.Clone(s.AuditLog)
	c.Solar.PanelVoltage = slices.Clone(s.Solar.PanelVoltage)
	c.Solar.ChargeCurrent = slices.Clone(s.Solar.ChargeCurrent)
	c.Alerts = slices.Clone(s.Alerts)
	return &c
}
