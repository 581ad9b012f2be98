package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/weather-gateway/internal/locations"
)

const jobTimeout = 30 * time.Second

// Refresher fetches fresh weather for a place and caches it.
type Refresher interface {
	Refresh(ctx context.Context, lat, lon float64, locationName string) error
}

// Scheduler periodically pre-warms the weather cache for configured places.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	places    []locations.Place
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a new Scheduler.
func New(places []locations.Place, interval time.Duration, refresher Refresher, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		places:    places,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the warm job and starts the underlying scheduler.
// The first run happens immediately.
func (s *Scheduler) Start() error {
	if len(s.places) == 0 {
		s.logger.Info("scheduler: no cities configured; nothing to schedule")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(func() { s.RunOnce() })
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce refreshes every place concurrently and reports how many failed.
func (s *Scheduler) RunOnce() int {
	s.logger.Debug("scheduler: running cache warm job", zap.Int("cities", len(s.places)))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, place := range s.places {
		place := place
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
			defer cancel()

			if err := s.refresher.Refresh(ctx, place.Lat, place.Lon, place.Name); err != nil {
				s.logger.Warn("scheduler: warm failed", zap.String("city", place.Name), zap.Error(err))
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.logger.Info("scheduler: completed cache warm job",
		zap.Int("cities", len(s.places)),
		zap.Int("failed", failed))
	return failed
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
