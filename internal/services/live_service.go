package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/digital-egiz/sensorhub/internal/cache"
	"github.com/digital-egiz/sensorhub/internal/kafka"
	"github.com/digital-egiz/sensorhub/internal/simulator"
	"github.com/digital-egiz/sensorhub/internal/utils"
	"go.uber.org/zap"
)

// LiveService controls the simulator and serves its recent frames. Both the
// HTTP operator routes and the Kafka command topic go through it.
type LiveService struct {
	logger *utils.Logger
	sim    *simulator.Simulator
	frames cache.FrameCache
	// runCtx outlives requests; the tick loop is bound to it
	runCtx context.Context
}

// NewLiveService creates a live service
func NewLiveService(ctx context.Context, logger *utils.Logger, sim *simulator.Simulator, frames cache.FrameCache) *LiveService {
	return &LiveService{
		logger: logger.Named("live_service"),
		sim:    sim,
		frames: frames,
		runCtx: ctx,
	}
}

// Current returns the newest frame, preferring the shared cache
func (s *LiveService) Current(ctx context.Context) *simulator.Frame {
	if s.frames != nil {
		frame, err := s.frames.Latest(ctx)
		if err == nil {
			return frame
		}
		if !errors.Is(err, cache.ErrEmpty) {
			s.logger.Warn("Frame cache unavailable, serving local frame", zap.Error(err))
		}
	}
	return s.sim.Current()
}

// Frames returns up to limit recent frames, newest first
func (s *LiveService) Frames(ctx context.Context, limit int) ([]*simulator.Frame, error) {
	if s.frames == nil {
		return []*simulator.Frame{s.sim.Current()}, nil
	}

	frames, err := s.frames.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", utils.ErrServiceUnavailable, err)
	}
	return frames, nil
}

// Start starts the tick loop
func (s *LiveService) Start() error {
	if err := s.sim.Start(s.runCtx); err != nil {
		if errors.Is(err, simulator.ErrAlreadyRunning) {
			return fmt.Errorf("%w: %v", utils.ErrConflict, err)
		}
		return err
	}
	return nil
}

// Stop stops the tick loop
func (s *LiveService) Stop() error {
	if err := s.sim.Stop(); err != nil {
		if errors.Is(err, simulator.ErrNotRunning) {
			return fmt.Errorf("%w: %v", utils.ErrConflict, err)
		}
		return err
	}
	return nil
}

// Refresh regenerates both snapshots and publishes them
func (s *LiveService) Refresh(ctx context.Context) *simulator.Frame {
	return s.sim.Refresh(ctx)
}

// Stats returns simulator counters
func (s *LiveService) Stats() simulator.Stats {
	return s.sim.Stats()
}

// HandleCommand executes a command received from Kafka. Starting a running
// simulator or stopping a stopped one is not an error here.
func (s *LiveService) HandleCommand(cmd *kafka.Command) error {
	var err error
	switch cmd.Action {
	case kafka.ActionRefresh:
		s.Refresh(s.runCtx)
	case kafka.ActionStart:
		err = s.Start()
	case kafka.ActionStop:
		err = s.Stop()
	default:
		return fmt.Errorf("%w: unknown action %q", utils.ErrBadRequest, cmd.Action)
	}

	if errors.Is(err, utils.ErrConflict) {
		s.logger.Info("Command had no effect", zap.String("action", cmd.Action), zap.Error(err))
		return nil
	}
	return err
}
