package telemetry

const (
	weakSignalDbm      = -105
	externalPowerVolts = 0.1
	storageNearFullPct = 80
	internalTempHighC  = 45
	tamperWindow       = 3
	tamperLimitG       = 0.6
)

// DeriveStatus computes the status labels of s from its readings. It must
// only be called once every raw reading of s is final. The battery cut-off
// is the one the Battery Low alert uses.
func DeriveStatus(s *Snapshot, t Thresholds) DeviceStatus {
	st := DeviceStatus{
		Connection:   "Connected",
		GPS:          "GPS OK",
		Storage:      "Healthy",
		InternalTemp: "Normal",
		Tamper:       "Stable",
	}

	if s.SignalDbm <= weakSignalDbm {
		st.Connection = "Weak Signal"
	}

	st.ExternalPower = s.Vin > externalPowerVolts
	st.PowerOK = float64(s.BatteryPct) >= t.BatteryLowPct || st.ExternalPower
	switch {
	case st.ExternalPower:
		st.Power = "External + Backup"
	case st.PowerOK:
		st.Power = "Battery"
	default:
		st.Power = "Low Battery"
	}

	if s.GPS.Fix == "No Fix" {
		st.GPS = "No Fix"
	}
	if s.StorageUsed >= storageNearFullPct {
		st.Storage = "Near Full"
	}
	if n := len(s.InternalTempC); n > 0 && s.InternalTempC[n-1] >= internalTempHighC {
		st.InternalTemp = "High"
	}
	if tail(s.Accel.X, tamperWindow)+tail(s.Accel.Y, tamperWindow) >= tamperLimitG {
		st.Tamper = "Movement"
	}

	return st
}

// tail sums the last n samples of xs.
func tail(xs []float64, n int) float64 {
	if len(xs) < n {
		n = len(xs)
	}
	var sum float64
	for _, x := range xs[len(xs)-n:] {
		sum += x
	}
	return sum
}
