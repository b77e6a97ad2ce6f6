package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/UnknownOlympus/geobatch/internal/geocoding"
	"github.com/UnknownOlympus/geobatch/internal/metrics"
	"github.com/UnknownOlympus/geobatch/internal/models"
	"github.com/UnknownOlympus/geobatch/internal/parser"
	"github.com/UnknownOlympus/geobatch/internal/table"
)

// Errors returned by batch commands.
var (
	ErrRowNotFound     = errors.New("row not found")
	ErrBatchNotEmpty   = errors.New("batch already holds rows, restart it first")
	ErrBatchNotFound   = errors.New("batch not found")
	ErrUnsupportedType = errors.New("unsupported export format")
)

// Recorder persists settled row requests.
type Recorder interface {
	SaveResult(ctx context.Context, batchID string, rowNumber int, address string, result *models.GeocodeResult) error
	SaveFailure(ctx context.Context, batchID string, rowNumber int, address string, errMsg string) error
}

// Options tunes how a batch sends its requests.
type Options struct {
	Request      geocoding.Request // Request holds the parameters sent with every address.
	ProviderName string            // ProviderName labels request metrics.
	AdminAreas   bool              // AdminAreas enables the health service area lookup.
	MapEnv       string            // MapEnv is passed to the map viewer links.
	Concurrency  int               // Concurrency caps in-flight requests, 0 means unlimited.
	OnStatus     func(status string)
}

// Snapshot is a consistent copy of the batch state.
type Snapshot struct {
	ID        string            `json:"id"`
	Header    []string          `json:"header"`
	Rows      []table.Row       `json:"rows"`
	Progress  models.BatchState `json:"progress"`
	Status    string            `json:"status"`
	Delimiter string            `json:"delimiter"`
}

// Batch orchestrates the geocoding of one input table. Each row request runs in its own goroutine;
// completion handlers serialize on the batch mutex, so they never interleave.
type Batch struct {
	id       string
	log      *slog.Logger
	provider geocoding.Provider
	areas    geocoding.AdminAreaLookup
	recorder Recorder
	metrics  *metrics.Metrics
	opts     Options
	sem      chan struct{}
	inflight sync.WaitGroup

	baseCtx context.Context
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	table   *table.Table
	state   models.BatchState
	counted map[int]bool
	status  string
	delim   rune
}

// NewBatch creates an empty batch. Requests are bound to ctx; the lookup and recorder may be nil.
func NewBatch(
	ctx context.Context,
	id string,
	log *slog.Logger,
	provider geocoding.Provider,
	areas geocoding.AdminAreaLookup,
	recorder Recorder,
	metrics *metrics.Metrics,
	opts Options,
) *Batch {
	batch := &Batch{
		id:       id,
		log:      log.With("batch", id),
		provider: provider,
		areas:    areas,
		recorder: recorder,
		metrics:  metrics,
		opts:     opts,
		baseCtx:  ctx,
	}
	if opts.Concurrency > 0 {
		batch.sem = make(chan struct{}, opts.Concurrency)
	}
	if areas == nil {
		batch.opts.AdminAreas = false
	}
	batch.reset()

	return batch
}

// ID returns the batch identifier.
func (b *Batch) ID() string {
	return b.id
}

// Load parses the input and dispatches one request per row. Validation errors are returned
// before any request is sent.
func (b *Batch) Load(input string) error {
	parsed, err := parser.Parse(input)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.table.Len() > 0 {
		return ErrBatchNotEmpty
	}

	b.metrics.RowsParsed.Add(float64(len(parsed.Rows)))
	b.log.InfoContext(b.ctx, "Input parsed", "rows", len(parsed.Rows), "extra_columns", len(parsed.ExtraFields))

	b.delim = parsed.Delimiter
	b.table = table.New(table.Layout{
		ExtraFields: parsed.ExtraFields,
		AdminAreas:  b.opts.AdminAreas,
		MapEnv:      b.opts.MapEnv,
	})
	b.state = models.NewBatchState()
	b.counted = map[int]bool{}
	b.refreshStatus()

	for _, record := range parsed.Rows {
		b.table.Append(record)
		b.dispatchLocked(record.RowNumber, 0)
	}

	b.state = b.state.WithTotal(b.table.Len())
	b.refreshStatus()

	return nil
}

// GeocodeAll sends every current row again. Completions restart from zero, the error count is kept.
func (b *Batch) GeocodeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = b.state.Restart(b.table.Len())
	clear(b.counted)
	for _, rowNumber := range b.table.RowNumbers() {
		b.dispatchLocked(rowNumber, 0)
	}
}

// RegeocodeRow sends a single row again, optionally with an edited address.
// The completion the row counted before is taken back first.
func (b *Batch) RegeocodeRow(rowNumber int, address *string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	row, ok := b.table.Get(rowNumber)
	if !ok {
		return fmt.Errorf("%w: %d", ErrRowNotFound, rowNumber)
	}
	if address != nil {
		row.AddressString = *address
	}

	if b.counted[rowNumber] {
		delete(b.counted, rowNumber)
		b.state = b.state.Uncomplete()
	}
	b.refreshStatus()
	b.dispatchLocked(rowNumber, 0)

	return nil
}

// UpdateNotes replaces the notes of a row.
func (b *Batch) UpdateNotes(rowNumber int, notes string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	row, ok := b.table.Get(rowNumber)
	if !ok {
		return fmt.Errorf("%w: %d", ErrRowNotFound, rowNumber)
	}
	row.Notes = notes

	return nil
}

// DeleteRow removes a row. Removing the last row restarts the batch.
func (b *Batch) DeleteRow(rowNumber int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.table.Delete(rowNumber) {
		return fmt.Errorf("%w: %d", ErrRowNotFound, rowNumber)
	}

	if b.table.Len() == 0 {
		b.log.InfoContext(b.ctx, "Last row deleted, restarting batch")
		b.restartLocked()
	}

	return nil
}

// Restart drops every row and resets the progress counters. In-flight requests are cancelled.
func (b *Batch) Restart() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.restartLocked()
}

// Wait blocks until no request of the batch is in flight.
func (b *Batch) Wait() {
	b.inflight.Wait()
}

// Snapshot returns a copy of the current table and progress.
func (b *Batch) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Snapshot{
		ID:        b.id,
		Header:    b.table.Header(),
		Rows:      b.table.Rows(),
		Progress:  b.state,
		Status:    b.status,
		Delimiter: string(b.delim),
	}
}

// Progress returns the current progress counters.
func (b *Batch) Progress() models.BatchState {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.state
}

// Status returns the last refreshed status line.
func (b *Batch) Status() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.status
}

func (b *Batch) reset() {
	if b.cancel != nil {
		b.cancel()
	}
	b.ctx, b.cancel = context.WithCancel(b.baseCtx)
	b.table = table.New(table.Layout{AdminAreas: b.opts.AdminAreas, MapEnv: b.opts.MapEnv})
	b.state = models.NewBatchState()
	b.counted = map[int]bool{}
	b.status = ""
	b.delim = ','
}

func (b *Batch) restartLocked() {
	b.reset()
	b.log.InfoContext(b.ctx, "Batch restarted")
}

// dispatchLocked shows the loading indicator and starts the request of a row.
// The caller holds b.mu.
func (b *Batch) dispatchLocked(rowNumber, retryCount int) {
	row, ok := b.table.Get(rowNumber)
	if !ok {
		return
	}
	row.MarkPending()

	state := models.RequestState{RetryCount: retryCount, Status: models.StatusPending}
	b.inflight.Add(1)
	go b.geocodeRow(b.ctx, rowNumber, row.AddressString, state)
}

// geocodeRow sends one request and applies its outcome.
func (b *Batch) geocodeRow(ctx context.Context, rowNumber int, address string, state models.RequestState) {
	defer b.inflight.Done()

	if b.sem != nil {
		select {
		case b.sem <- struct{}{}:
		case <-ctx.Done():
			b.settle(ctx, rowNumber, address, state, nil, ctx.Err())
			return
		}
	}

	b.metrics.InFlight.Inc()
	startTime := time.Now()
	result, err := b.provider.Geocode(ctx, b.opts.Request.WithAddress(address))
	b.metrics.RequestSeconds.WithLabelValues(b.opts.ProviderName).Observe(time.Since(startTime).Seconds())
	b.metrics.InFlight.Dec()

	if b.sem != nil {
		<-b.sem
	}

	b.settle(ctx, rowNumber, address, state, result, err)
}

// settle runs the completion handler of a row request.
func (b *Batch) settle(
	ctx context.Context,
	rowNumber int,
	address string,
	state models.RequestState,
	result *models.GeocodeResult,
	geocodeErr error,
) {
	b.mu.Lock()

	if ctx != b.ctx {
		// The batch was restarted while the request was in flight.
		b.mu.Unlock()
		return
	}

	if geocodeErr == nil {
		b.applySuccessLocked(ctx, rowNumber, result)
		b.mu.Unlock()
		b.record(ctx, func() error {
			return b.recorder.SaveResult(ctx, b.id, rowNumber, address, result)
		})
		return
	}

	b.metrics.Requests.WithLabelValues("failure").Inc()
	b.log.WarnContext(ctx, "Failed to geocode row", "row", rowNumber, "retry", state.RetryCount, "error", geocodeErr)

	canRetry := b.state.CanRetry(state.RetryCount)
	b.state = b.state.Fail()

	if _, ok := b.table.Get(rowNumber); canRetry && ok {
		b.metrics.Retries.Inc()
		b.dispatchLocked(rowNumber, state.RetryCount+1)
		b.mu.Unlock()
		return
	}

	if row, ok := b.table.Get(rowNumber); ok {
		row.ApplyFailure()
	}
	b.completeLocked(rowNumber)
	b.refreshStatus()
	b.mu.Unlock()

	b.record(ctx, func() error {
		return b.recorder.SaveFailure(ctx, b.id, rowNumber, address, geocodeErr.Error())
	})
}

func (b *Batch) applySuccessLocked(ctx context.Context, rowNumber int, result *models.GeocodeResult) {
	b.metrics.Requests.WithLabelValues("success").Inc()

	if row, ok := b.table.Get(rowNumber); ok {
		row.ApplyResult(result, b.opts.MapEnv)
		b.log.DebugContext(ctx, "Row geocoded", "row", rowNumber, "score", result.Score, "low_score", row.LowScore)

		if b.opts.AdminAreas {
			b.inflight.Add(1)
			go b.lookupAdminArea(ctx, rowNumber, result.Coordinates)
		}
	}

	b.completeLocked(rowNumber)
	b.refreshStatus()
}

// completeLocked counts a row as completed once per dispatch round. A response that settles
// a row already counted only updates its cells. The caller holds b.mu.
func (b *Batch) completeLocked(rowNumber int) {
	if b.counted[rowNumber] {
		return
	}

	b.counted[rowNumber] = true
	b.state = b.state.Complete()
}

// lookupAdminArea fills the health service area of a geocoded row. Failures only get logged.
func (b *Batch) lookupAdminArea(ctx context.Context, rowNumber int, point models.Coordinates) {
	defer b.inflight.Done()

	area, err := b.areas.Lookup(ctx, point)
	if err != nil {
		b.log.WarnContext(ctx, "Failed to look up admin area", "row", rowNumber, "error", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if row, ok := b.table.Get(rowNumber); ok && ctx == b.ctx {
		row.ApplyAdminArea(area)
	}
}

func (b *Batch) record(ctx context.Context, save func() error) {
	if b.recorder == nil {
		return
	}

	if err := save(); err != nil {
		b.log.ErrorContext(ctx, "Failed to record row outcome", "error", err)
	}
}

// refreshStatus updates the status line on every tenth completion and on the last one.
// The caller holds b.mu.
func (b *Batch) refreshStatus() {
	if !b.state.ShouldRefresh() {
		return
	}

	b.status = b.state.StatusText()
	b.log.InfoContext(b.ctx, "Batch progress", "status", b.status,
		"completed", b.state.Completed, "total", b.state.Total, "errors", b.state.ErrorCount)

	if b.opts.OnStatus != nil {
		b.opts.OnStatus(b.status)
	}
}
