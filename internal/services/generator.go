package services

import (
	"github.com/digital-egiz/sensorhub/internal/config"
	"github.com/digital-egiz/sensorhub/internal/telemetry"
)

// Thresholds returns the configured alert thresholds. Unset values keep
// their defaults.
func Thresholds(cfg *config.ThresholdsConfig) telemetry.Thresholds {
	t := telemetry.DefaultThresholds()
	override := func(dst *float64, v float64) {
		if v != 0 {
			*dst = v
		}
	}

	override(&t.HighTempC, cfg.HighTempC)
	override(&t.LowHumidity, cfg.LowHumidity)
	override(&t.SoilDry, cfg.SoilDry)
	override(&t.HighWaterM, cfg.HighWaterM)
	override(&t.BatteryLowPct, cfg.BatteryLowPct)
	override(&t.HubAmbientMaxC, cfg.HubAmbientMaxC)
	override(&t.HubAmbientMinC, cfg.HubAmbientMinC)
	override(&t.HubBatteryLowV, cfg.HubBatteryLowV)
	override(&t.HubTurbidityNTU, cfg.HubTurbidityNTU)
	return t
}

// NewGenerator builds a generator from configuration. A zero seed seeds it
// from the clock.
func NewGenerator(cfg *config.Config) *telemetry.Generator {
	opts := []telemetry.Option{telemetry.WithThresholds(Thresholds(&cfg.Thresholds))}
	if cfg.Simulator.Seed != 0 {
		opts = append(opts, telemetry.WithSeed(cfg.Simulator.Seed))
	}
	return telemetry.New(opts...)
}
