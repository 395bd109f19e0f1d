package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripplanner/tripplanner/internal/itinerary"
)

// ItineraryService builds trip itineraries. Building an itinerary estimates
// every leg through the shared route cache. *itinerary.Service satisfies it.
type ItineraryService interface {
	ForTrip(ctx context.Context, tripID string) (*itinerary.TripItinerary, error)
}

// WarmJob pre-computes trip itineraries so the route cache is populated
// before a user asks for them.
type WarmJob struct {
	config  WarmConfig
	logger  zerolog.Logger
	service ItineraryService

	metrics *WarmMetrics
}

// WarmMetrics tracks warm job statistics across runs.
type WarmMetrics struct {
	mu sync.RWMutex

	TotalRuns     int64
	TripsWarmed   int64
	TripsFailed   int64
	LegsEstimated int64
	LegsSkipped   int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// WarmJobConfig holds configuration for creating a WarmJob.
type WarmJobConfig struct {
	Config  WarmConfig
	Logger  zerolog.Logger
	Service ItineraryService
}

// NewWarmJob creates a new cache warm job.
func NewWarmJob(cfg WarmJobConfig) *WarmJob {
	return &WarmJob{
		config:  cfg.Config.withDefaults(),
		logger:  cfg.Logger,
		service: cfg.Service,
		metrics: &WarmMetrics{},
	}
}

// WarmResult contains the result of a warm run.
type WarmResult struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Trips is the number of distinct trips processed.
	Trips int
	// Legs is the number of consecutive stop pairs across all warmed trips.
	Legs int
	// Estimated is the number of legs that ended up with an estimate.
	Estimated int
	// Skipped is the number of legs left without an estimate.
	Skipped int
	// Failed is the number of trips whose stops could not be loaded.
	Failed int

	Errors []WarmError
}

// WarmError records a trip that could not be warmed.
type WarmError struct {
	TripID string
	Error  string
}

type tripResult struct {
	tripID    string
	legs      int
	estimated int
	err       error
}

// Run warms the given trips with a bounded pool of workers. Duplicate trip
// ids are warmed once. Trips not yet started when ctx is cancelled are
// dropped.
func (j *WarmJob) Run(ctx context.Context, tripIDs []string) *WarmResult {
	startTime := time.Now()
	trips := dedupe(tripIDs)
	result := &WarmResult{StartTime: startTime}

	j.logger.Info().
		Int("trips", len(trips)).
		Int("concurrency", j.config.Concurrency).
		Msg("starting route cache warm job")

	tripsChan := make(chan string, len(trips))
	resultsChan := make(chan tripResult, len(trips))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.warmWorker(ctx, tripsChan, resultsChan)
		}()
	}

	for _, id := range trips {
		tripsChan <- id
	}
	close(tripsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for tr := range resultsChan {
		result.Trips++
		if tr.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, WarmError{TripID: tr.tripID, Error: tr.err.Error()})
			continue
		}
		result.Legs += tr.legs
		result.Estimated += tr.estimated
	}
	result.Skipped = result.Legs - result.Estimated

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("trips", result.Trips).
		Int("legs", result.Legs).
		Int("estimated", result.Estimated).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("route cache warm job completed")

	return result
}

func (j *WarmJob) warmWorker(ctx context.Context, trips <-chan string, results chan<- tripResult) {
	for tripID := range trips {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.warmTrip(ctx, tripID)
		}
	}
}

func (j *WarmJob) warmTrip(ctx context.Context, tripID string) tripResult {
	tripCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	it, err := j.service.ForTrip(tripCtx, tripID)
	if err != nil {
		j.logger.Warn().Err(err).Str("trip_id", tripID).Msg("failed to warm trip")
		return tripResult{tripID: tripID, err: err}
	}

	return tripResult{
		tripID:    tripID,
		legs:      it.LegCount(),
		estimated: it.EstimatedCount(),
	}
}

func (j *WarmJob) updateMetrics(result *WarmResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.TripsWarmed += int64(result.Trips - result.Failed)
	j.metrics.TripsFailed += int64(result.Failed)
	j.metrics.LegsEstimated += int64(result.Estimated)
	j.metrics.LegsSkipped += int64(result.Skipped)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *WarmJob) GetMetrics() WarmMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return WarmMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		TripsWarmed:     j.metrics.TripsWarmed,
		TripsFailed:     j.metrics.TripsFailed,
		LegsEstimated:   j.metrics.LegsEstimated,
		LegsSkipped:     j.metrics.LegsSkipped,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
