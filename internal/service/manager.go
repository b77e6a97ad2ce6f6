package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/UnknownOlympus/geobatch/internal/geocoding"
	"github.com/UnknownOlympus/geobatch/internal/metrics"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Manager keeps the batches served over the API, keyed by identifier.
type Manager struct {
	ctx      context.Context
	log      *slog.Logger
	provider geocoding.Provider
	areas    geocoding.AdminAreaLookup
	recorder Recorder
	metrics  *metrics.Metrics
	opts     Options

	mu      sync.RWMutex
	batches map[string]*Batch
}

// NewManager creates a batch registry. Every batch it creates is bound to ctx.
func NewManager(
	ctx context.Context,
	log *slog.Logger,
	provider geocoding.Provider,
	areas geocoding.AdminAreaLookup,
	recorder Recorder,
	metrics *metrics.Metrics,
	opts Options,
) *Manager {
	return &Manager{
		ctx:      ctx,
		log:      log,
		provider: provider,
		areas:    areas,
		recorder: recorder,
		metrics:  metrics,
		opts:     opts,
		batches:  map[string]*Batch{},
	}
}

// Create parses the input into a new batch and starts geocoding it.
// Nothing is registered when the input fails validation.
func (m *Manager) Create(input string) (*Batch, error) {
	batch := NewBatch(m.ctx, uuid.NewString(), m.log, m.provider, m.areas, m.recorder, m.metrics, m.opts)
	if err := batch.Load(input); err != nil {
		batch.Restart()
		return nil, err
	}

	m.mu.Lock()
	m.batches[batch.ID()] = batch
	m.mu.Unlock()

	m.metrics.ActiveBatches.Inc()

	return batch, nil
}

// Get returns a registered batch.
func (m *Manager) Get(id string) (*Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	batch, ok := m.batches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}

	return batch, nil
}

// Remove restarts a batch and forgets it.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	batch, ok := m.batches[id]
	delete(m.batches, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}

	batch.Restart()
	m.metrics.ActiveBatches.Dec()

	return nil
}

// Wait blocks until no batch has a request in flight, or until ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.RLock()
	batches := make([]*Batch, 0, len(m.batches))
	for _, batch := range m.batches {
		batches = append(batches, batch)
	}
	m.mu.RUnlock()

	group, groupCtx := errgroup.WithContext(ctx)
	for _, batch := range batches {
		group.Go(func() error {
			done := make(chan struct{})
			go func() {
				batch.Wait()
				close(done)
			}()

			select {
			case <-done:
				return nil
			case <-groupCtx.Done():
				return fmt.Errorf("failed to wait for batch %s: %w", batch.ID(), groupCtx.Err())
			}
		})
	}

	return group.Wait()
}
