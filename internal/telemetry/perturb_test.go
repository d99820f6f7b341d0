package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// steppingClock advances by step on every read.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	now := start.Add(-step)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func TestPerturb(t *testing.T) {
	t.Run("Should preserve lengths and bounds over many ticks", func(t *testing.T) {
		g := New(WithSeed(31), WithClock(steppingClock(testNow, 25*time.Minute)))
		s := g.Generate()
		for i := 0; i < 300; i++ {
			s = g.Perturb(s)
			assertDeviceInvariants(t, s)
			assert.Equal(t, DeriveStatus(s, g.Thresholds()), s.Status)
			assert.Equal(t, DeriveAlerts(s, g.Thresholds()), s.Alerts)
		}
	})

	t.Run("Should not mutate its input", func(t *testing.T) {
		g := New(WithSeed(8), WithClock(steppingClock(testNow, 2*time.Hour)))
		s := g.Generate()
		before := s.Clone()

		next := g.Perturb(s)

		assert.Equal(t, before, s)
		assert.NotSame(t, s, next)
	})

	t.Run("Should only move the newest sample within the same hour", func(t *testing.T) {
		g := New(WithSeed(12), WithClock(steppingClock(testNow, time.Minute)))
		s := g.Generate()
		next := g.Perturb(s)

		assert.Equal(t, s.TempC[:HourlyPoints-1], next.TempC[:HourlyPoints-1])
		assert.Equal(t, s.EnvLabels, next.EnvLabels)
	})

	t.Run("Should shift series and relabel when an hour passes", func(t *testing.T) {
		g := New(WithSeed(12), WithClock(steppingClock(testNow, time.Hour)))
		s := g.Generate()
		next := g.Perturb(s)

		assert.Equal(t, s.TempC[1:], next.TempC[:HourlyPoints-1])
		assert.Equal(t, HourLabels(next.GeneratedAt, HourlyPoints), next.EnvLabels)
		assert.Equal(t, "11:00", next.EnvLabels[HourlyPoints-1])
	})
}

func TestPerturbHub(t *testing.T) {
	t.Run("Should preserve lengths and bounds over many ticks", func(t *testing.T) {
		g := New(WithSeed(5), WithClock(steppingClock(testNow, 40*time.Minute)))
		h := g.GenerateHub()
		for i := 0; i < 150; i++ {
			h = g.PerturbHub(h)
			assertHubInvariants(t, h)
		}
	})

	t.Run("Should not mutate its input", func(t *testing.T) {
		g := New(WithSeed(6), WithClock(steppingClock(testNow, 3*time.Hour)))
		h := g.GenerateHub()
		before := h.Clone()

		_ = g.PerturbHub(h)

		assert.Equal(t, before, h)
	})

	t.Run("Should keep the health timeline labelled by hour", func(t *testing.T) {
		g := New(WithSeed(6), WithClock(steppingClock(testNow, 90*time.Minute)))
		h := g.PerturbHub(g.GenerateHub())

		labels := HourLabels(h.GeneratedAt, len(h.DeviceHealth.HealthTimeline))
		for i, p := range h.DeviceHealth.HealthTimeline {
			assert.Equal(t, labels[i], p.Time)
		}
	})
}

func TestClone(t *testing.T) {
	t.Run("Should deep copy device snapshots", func(t *testing.T) {
		s := New(WithSeed(1), WithClock(fixedClock)).Generate()
		c := s.Clone()
		require.Equal(t, s, c)

		c.Accel.X[0] = 9
		*c.Digital[0].Volts = -1
		c.Alerts[0].Title = "changed"

		assert.NotEqual(t, 9.0, s.Accel.X[0])
		assert.NotEqual(t, -1.0, *s.Digital[0].Volts)
		assert.NotEqual(t, "changed", s.Alerts[0].Title)
	})

	t.Run("Should deep copy hub snapshots", func(t *testing.T) {
		h := New(WithSeed(1), WithClock(fixedClock)).GenerateHub()
		c := h.Clone()
		require.Equal(t, h, c)

		c.Environmental.AmbientTemp[0] = -50
		c.IOCards[0].Inputs[0].Health = "changed"
		c.Construction.Occupancy.Zones[0].Current = -1

		assert.NotEqual(t, -50.0, h.Environmental.AmbientTemp[0])
		assert.NotEqual(t, "changed", h.IOCards[0].Inputs[0].Health)
		assert.NotEqual(t, -1, h.Construction.Occupancy.Zones[0].Current)
	})

	t.Run("Should return nil for nil receivers", func(t *testing.T) {
		var s *Snapshot
		var h *HubSnapshot
		assert.Nil(t, s.Clone())
		assert.Nil(t, h.Clone())
	})
}

func TestHourLabels(t *testing.T) {
	labels := HourLabels(testNow, 3)
	assert.Equal(t, []string{"08:00", "09:00", "10:00"}, labels)
	assert.Equal(t, time.Date(2024, 5, 14, 8, 0, 0, 0, time.UTC), BucketTime(testNow, 3, 0))
}
