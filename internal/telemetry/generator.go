// Package telemetry generates synthetic, bounded and internally consistent
// sensor-hub telemetry snapshots.
//
// Two snapshot shapes are produced by the same generator family: Snapshot,
// the single-device view, and HubSnapshot, the multi-section hub dashboard
// feed. Every numeric field stays inside the domain exported from bounds.go,
// every hourly series carries a label slice of the same length, and derived
// fields (status labels, alert lists, summaries) are computed from the raw
// readings after they are final.
package telemetry

import (
	"sync"
	"time"
)

// Generator produces snapshots from its own random source. It is safe for
// concurrent use; calls are serialised on the source.
type Generator struct {
	mu         sync.Mutex
	src        *Source
	now        func() time.Time
	thresholds Thresholds
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the generator deterministic.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.src = NewSource(seed)
	}
}

// WithClock replaces the wall clock read once per generated snapshot.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithThresholds overrides the alert rule thresholds.
func WithThresholds(t Thresholds) Option {
	return func(g *Generator) {
		g.thresholds = t
	}
}

// New creates a generator. Without WithSeed it is seeded from the clock.
func New(opts ...Option) *Generator {
	g := &Generator{
		now:        func() time.Time { return time.Now().UTC() },
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.src == nil {
		g.src = NewSource(time.Now().UnixNano())
	}
	return g
}

// Thresholds returns the alert thresholds in use.
func (g *Generator) Thresholds() Thresholds {
	return g.thresholds
}

// Generate returns a new single-device snapshot.
func (g *Generator) Generate() *Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return generateDevice(g.src, g.now(), g.thresholds)
}

// GenerateHub returns a new hub snapshot.
func (g *Generator) GenerateHub() *HubSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return generateHub(g.src, g.now(), g.thresholds)
}

// Perturb returns the next live tick of s. s itself is not modified.
func (g *Generator) Perturb(s *Snapshot) *Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return perturbDevice(g.src, s, g.now(), g.thresholds)
}

// PerturbHub returns the next live tick of h. h itself is not modified.
func (g *Generator) PerturbHub(h *HubSnapshot) *HubSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return perturbHub(g.src, h, g.now(), g.thresholds)
}

var defaultGenerator = New()

// GenerateSnapshot returns a new single-device snapshot with default
// thresholds.
func GenerateSnapshot() *Snapshot {
	return defaultGenerator.Generate()
}

// GenerateHubSnapshot returns a new hub snapshot with default thresholds.
func GenerateHubSnapshot() *HubSnapshot {
	return defaultGenerator.GenerateHub()
}
