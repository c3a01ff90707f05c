// Package scheduler runs the four periodic ticks that drive the
// simulation forward even when no client request touches a village:
// build-queue completion, train-queue completion, army arrivals and the
// idle resource sweep (§4.7).
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/frontier-realms/world-server/internal/buildqueue"
	"github.com/frontier-realms/world-server/internal/movement"
	"github.com/frontier-realms/world-server/internal/resource"
	"github.com/frontier-realms/world-server/internal/trainqueue"
)

const (
	buildInterval    = 10 * time.Second
	trainInterval    = 10 * time.Second
	movementInterval = 5 * time.Second
	sweepInterval    = 5 * time.Minute
)

// Scheduler owns the background goroutines that drain each engine's due
// work on its own cadence.
type Scheduler struct {
	builds    *buildqueue.Engine
	trains    *trainqueue.Engine
	movements *movement.Engine
	resources *resource.Engine
	logger    *zap.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func New(builds *buildqueue.Engine, trains *trainqueue.Engine, movements *movement.Engine, resources *resource.Engine, logger *zap.Logger) *Scheduler {
	return &Scheduler{builds: builds, trains: trains, movements: movements, resources: resources, logger: logger}
}

// Start launches the four tick loops, each ticking independently until ctx
// is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.run(ctx, "build-queue", buildInterval, func(ctx context.Context) {
		n, err := s.builds.DrainDue(ctx)
		s.logTick("build-queue", n, err)
	})
	s.run(ctx, "train-queue", trainInterval, func(ctx context.Context) {
		n, err := s.trains.DrainDue(ctx)
		s.logTick("train-queue", n, err)
	})
	s.run(ctx, "movement", movementInterval, func(ctx context.Context) {
		n, err := s.movements.DrainDueArrivals(ctx)
		s.logTick("movement", n, err)
	})
	s.run(ctx, "resource-sweep", sweepInterval, func(ctx context.Context) {
		n, err := s.resources.SweepAll(ctx)
		s.logTick("resource-sweep", n, err)
	})
}

func (s *Scheduler) logTick(name string, n int, err error) {
	if err != nil {
		s.logger.Error("tick failed", zap.String("tick", name), zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Debug("tick drained", zap.String("tick", name), zap.Int("count", n))
	}
}

// run starts one ticker goroutine, invoking fn on every tick until ctx is
// cancelled.
func (s *Scheduler) run(ctx context.Context, name string, interval time.Duration, fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		tc := time.NewTicker(interval)
		defer tc.Stop()
		for {
			select {
			case <-tc.C:
				fn(ctx)
			case <-ctx.Done():
				s.logger.Info("tick loop stopped", zap.String("tick", name))
				return
			}
		}
	}()
}

// Stop cancels every tick loop and waits for them to exit.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
