package ingest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"nordgrid/internal/models"
	"nordgrid/internal/store"
)

// GridFetcher pulls one normalized grid snapshot.
type GridFetcher interface {
	FetchSnapshot(ctx context.Context) ([]models.GridReading, error)
}

// PriceFetcher pulls hourly prices for one zone and day offset.
type PriceFetcher interface {
	FetchPrices(ctx context.Context, zone models.Zone, dayOffset int) ([]models.PriceReading, error)
}

// Summary reports what one ingestion tick did.
type Summary struct {
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	GridRows   int       `json:"grid_rows_written"`
	PriceRows  int       `json:"price_rows_written"`
	Failures   int       `json:"failures"`
	Pruned     int64     `json:"rows_pruned"`
	Errors     []string  `json:"errors,omitempty"`
}

// Job is the unit of work executed on each scheduler tick: fetch both
// upstreams, write what succeeded, prune beyond retention.
type Job struct {
	grid          GridFetcher
	prices        PriceFetcher
	gridRepo      *store.GridRepository
	priceRepo     *store.PriceRepository
	retentionDays int
	logger        *zap.Logger
}

// NewJob builds the ingestion job.
func NewJob(grid GridFetcher, prices PriceFetcher, gridRepo *store.GridRepository, priceRepo *store.PriceRepository, retentionDays int, logger *zap.Logger) *Job {
	return &Job{
		grid:          grid,
		prices:        prices,
		gridRepo:      gridRepo,
		priceRepo:     priceRepo,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// RunOnce executes one tick. The grid and price fetches run concurrently and
// fail independently; both settle before the prune step so prune never races a
// write from the same tick. Upserts are idempotent, so an interrupted run is
// recovered by the next one.
func (j *Job) RunOnce(ctx context.Context) Summary {
	started := time.Now()
	summary := Summary{StartedAt: started.UTC()}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		gridRows  int
		priceRows int
	)
	fail := func(err error) {
		mu.Lock()
		summary.Failures++
		summary.Errors = append(summary.Errors, err.Error())
		mu.Unlock()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		gridRows = j.ingestGrid(ctx, fail)
	}()
	go func() {
		defer wg.Done()
		priceRows = j.ingestPrices(ctx, fail)
	}()
	wg.Wait()

	summary.GridRows = gridRows
	summary.PriceRows = priceRows

	cutoff := time.Now().UTC().AddDate(0, 0, -j.retentionDays)
	for _, prune := range []func(context.Context, time.Time) (int64, error){j.gridRepo.Prune, j.priceRepo.Prune} {
		removed, err := prune(ctx, cutoff)
		if err != nil {
			j.logger.Error("prune failed", zap.Error(err))
			fail(err)
			continue
		}
		summary.Pruned += removed
	}

	summary.DurationMS = time.Since(started).Milliseconds()
	j.logger.Info("ingestion tick complete",
		zap.Int("grid_rows", summary.GridRows),
		zap.Int("price_rows", summary.PriceRows),
		zap.Int("failures", summary.Failures),
		zap.Int64("pruned", summary.Pruned),
		zap.Int64("duration_ms", summary.DurationMS),
	)
	return summary
}

func (j *Job) ingestGrid(ctx context.Context, fail func(error)) int {
	readings, err := j.grid.FetchSnapshot(ctx)
	if err != nil {
		j.logger.Warn("grid fetch failed", zap.Error(err))
		fail(err)
		return 0
	}
	written, rowErrs := j.gridRepo.UpsertBatch(ctx, readings)
	for _, rowErr := range rowErrs {
		j.logger.Warn("grid row rejected", zap.Error(rowErr))
		fail(rowErr)
	}
	return written
}

// ingestPrices fetches today and tomorrow for every known zone. Tomorrow is
// legitimately empty before the day-ahead auction publishes.
func (j *Job) ingestPrices(ctx context.Context, fail func(error)) int {
	var batch []models.PriceReading
	for _, zone := range models.AllZones() {
		for _, offset := range []int{0, 1} {
			readings, err := j.prices.FetchPrices(ctx, zone, offset)
			if err != nil {
				j.logger.Warn("price fetch failed",
					zap.String("zone", string(zone)), zap.Int("day_offset", offset), zap.Error(err))
				fail(err)
				continue
			}
			batch = append(batch, readings...)
		}
	}
	if len(batch) == 0 {
		return 0
	}
	written, rowErrs := j.priceRepo.UpsertBatch(ctx, batch)
	for _, rowErr := range rowErrs {
		j.logger.Warn("price row rejected", zap.Error(rowErr))
		fail(rowErr)
	}
	return written
}
