// Package simulator drives live telemetry: it holds the current device and
// hub snapshots, advances them on a fixed interval and hands every new frame
// to the registered sinks.
package simulator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/digital-egiz/sensorhub/internal/config"
	"github.com/digital-egiz/sensorhub/internal/telemetry"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"go.uber.org/zap"
)

// Frame reasons
const (
	ReasonInitial = "initial"
	ReasonTick    = "tick"
	ReasonRefresh = "refresh"
)

const (
	publishTimeout  = 5 * time.Second
	monitorInterval = time.Minute
)

var (
	// ErrAlreadyRunning is returned by Start on a running simulator
	ErrAlreadyRunning = errors.New("simulator is already running")
	// ErrNotRunning is returned by Stop on a stopped simulator
	ErrNotRunning = errors.New("simulator is not running")
)

// Frame is one published state of the simulator. Frames are shared between
// sinks and must be treated as read-only.
type Frame struct {
	Sequence uint64                 `json:"sequence"`
	Reason   string                 `json:"reason"`
	At       time.Time              `json:"at"`
	Device   *telemetry.Snapshot    `json:"device"`
	Hub      *telemetry.HubSnapshot `json:"hub"`
}

// Sink receives every published frame
type Sink interface {
	Name() string
	Publish(ctx context.Context, frame *Frame) error
}

// Stats counts published frames and sink failures since start-up
type Stats struct {
	Frames     uint64            `json:"frames"`
	SinkErrors map[string]uint64 `json:"sinkErrors"`
	Running    bool              `json:"running"`
	Interval   string            `json:"interval"`
}

// Simulator owns the live snapshots. Each tick replaces them wholesale; a
// frame handed out is never modified afterwards.
type Simulator struct {
	gen      *telemetry.Generator
	interval time.Duration
	logger   *utils.Logger

	// pubMu is held from building a frame until every sink has it, so
	// sinks see frames in sequence order
	pubMu sync.Mutex

	mu      sync.RWMutex
	current *Frame
	seq     uint64
	sinks   []Sink

	runMu   sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	frames     atomic.Uint64
	sinkErrMu  sync.Mutex
	sinkErrors map[string]uint64
	published  chan struct{}
}

// New creates a simulator and generates its initial frame
func New(gen *telemetry.Generator, cfg *config.SimulatorConfig, logger *utils.Logger) *Simulator {
	s := &Simulator{
		gen:        gen,
		interval:   cfg.TickInterval(),
		logger:     logger.Named("simulator"),
		sinkErrors: make(map[string]uint64),
		published:  make(chan struct{}, 100),
	}
	s.current = s.nextFrame(ReasonInitial, gen.Generate(), gen.GenerateHub())
	return s
}

// AddSink registers a sink for subsequent frames
func (s *Simulator) AddSink(sink Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, sink)
	s.logger.Info("Registered sink", zap.String("sink", sink.Name()))
}

// Current returns the latest frame
func (s *Simulator) Current() *Frame {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Interval returns the tick interval
func (s *Simulator) Interval() time.Duration {
	return s.interval
}

// IsRunning reports whether the tick loop is active
func (s *Simulator) IsRunning() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.running
}

// Start launches the tick loop. It runs until Stop is called or ctx ends.
func (s *Simulator) Start(ctx context.Context) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.wg.Add(2)
	go s.loop(runCtx)
	go s.monitor(runCtx)

	s.logger.Info("Simulator started", zap.Duration("interval", s.interval))
	return nil
}

// Stop cancels the tick loop and waits for it to exit
func (s *Simulator) Stop() error {
	s.runMu.Lock()
	if !s.running {
		s.runMu.Unlock()
		return ErrNotRunning
	}
	s.cancel()
	s.runMu.Unlock()

	s.wg.Wait()

	s.runMu.Lock()
	s.running = false
	s.runMu.Unlock()

	s.logger.Info("Simulator stopped")
	return nil
}

// Tick advances both snapshots by one live update and publishes the frame
func (s *Simulator) Tick(ctx context.Context) *Frame {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	prev := s.current
	frame := s.nextFrame(ReasonTick, s.gen.Perturb(prev.Device), s.gen.PerturbHub(prev.Hub))
	s.current = frame
	sinks := append([]Sink(nil), s.sinks...)
	s.mu.Unlock()

	s.publish(ctx, frame, sinks)
	return frame
}

// Refresh replaces both snapshots with freshly generated ones and publishes them
func (s *Simulator) Refresh(ctx context.Context) *Frame {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	frame := s.nextFrame(ReasonRefresh, s.gen.Generate(), s.gen.GenerateHub())
	s.current = frame
	sinks := append([]Sink(nil), s.sinks...)
	s.mu.Unlock()

	s.logger.Info("Snapshots refreshed", zap.Uint64("sequence", frame.Sequence))
	s.publish(ctx, frame, sinks)
	return frame
}

// Announce publishes the held frame again, so sinks registered after New
// see the initial state
func (s *Simulator) Announce(ctx context.Context) *Frame {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.RLock()
	frame := s.current
	sinks := append([]Sink(nil), s.sinks...)
	s.mu.RUnlock()

	s.publish(ctx, frame, sinks)
	return frame
}

// Stats returns counters since start-up
func (s *Simulator) Stats() Stats {
	s.sinkErrMu.Lock()
	errs := make(map[string]uint64, len(s.sinkErrors))
	for k, v := range s.sinkErrors {
		errs[k] = v
	}
	s.sinkErrMu.Unlock()

	return Stats{
		Frames:     s.frames.Load(),
		SinkErrors: errs,
		Running:    s.IsRunning(),
		Interval:   s.interval.String(),
	}
}

// nextFrame must be called with mu held
func (s *Simulator) nextFrame(reason string, device *telemetry.Snapshot, hub *telemetry.HubSnapshot) *Frame {
	s.seq++
	return &Frame{
		Sequence: s.seq,
		Reason:   reason,
		At:       device.GeneratedAt,
		Device:   device,
		Hub:      hub,
	}
}

func (s *Simulator) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// publish hands frame to every sink in registration order. A failing sink
// is logged and counted; the remaining sinks still receive the frame.
func (s *Simulator) publish(ctx context.Context, frame *Frame, sinks []Sink) {
	for _, sink := range sinks {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		err := sink.Publish(pubCtx, frame)
		cancel()

		if err != nil {
			s.sinkErrMu.Lock()
			s.sinkErrors[sink.Name()]++
			s.sinkErrMu.Unlock()

			s.logger.Warn("Sink failed to publish frame",
				zap.String("sink", sink.Name()),
				zap.Uint64("sequence", frame.Sequence),
				zap.Error(err))
		}
	}

	s.frames.Add(1)
	select {
	case s.published <- struct{}{}:
	default:
	}
}

// monitor logs publishing statistics once a minute
func (s *Simulator) monitor(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	frameCount := 0

	for {
		select {
		case <-ctx.Done():
			return

		case <-s.published:
			frameCount++

		case <-ticker.C:
			if frameCount > 0 {
				current := s.Current()
				s.logger.Info("Frame publishing statistics",
					zap.Int("published_frames", frameCount),
					zap.Uint64("sequence", current.Sequence),
					zap.Int("device_alerts", len(current.Device.Alerts)),
					zap.Int("hub_active_alerts", current.Hub.Executive.ActiveAlerts),
					zap.String("interval", "1m"))
				frameCount = 0
			}
		}
	}
}
