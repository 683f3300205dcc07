// Package activation translates ephemeris longitudes into gate/line
// activations for a fixed set of bodies at a single instant.
package activation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nneibaue/human-design/internal/ephemeris"
	"github.com/nneibaue/human-design/internal/zodiac"
)

// Activation is one body's position on the wheel at the set's instant.
type Activation struct {
	Body      ephemeris.Body      `json:"body"`
	Longitude float64             `json:"longitude_deg"`
	Position  zodiac.LinePosition `json:"position"`
}

// Set holds the activations of every requested body at one instant, in
// request order. A Set is complete by construction — partial sets are never
// built — and is not mutated after Compute returns it.
type Set struct {
	Instant     time.Time    `json:"instant"`
	Activations []Activation `json:"activations"`
}

// Get returns the activation for a body, if present.
func (s *Set) Get(b ephemeris.Body) (Activation, bool) {
	for _, a := range s.Activations {
		if a.Body == b {
			return a, true
		}
	}
	return Activation{}, false
}

// ComputationError reports an ephemeris or lookup failure for one body.
// The whole activation set is abandoned when any body fails.
type ComputationError struct {
	Body    ephemeris.Body
	Instant time.Time
	Err     error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("activation: %s at %s: %v", e.Body, e.Instant.UTC().Format(time.RFC3339), e.Err)
}

func (e *ComputationError) Unwrap() error { return e.Err }

// Mapper computes activation sets from an ephemeris source and gate table.
type Mapper struct {
	src     ephemeris.Source
	table   *zodiac.Table
	workers int
	logger  *slog.Logger
}

// NewMapper creates a Mapper. workers bounds per-body parallelism; values
// below 1 mean sequential computation.
func NewMapper(src ephemeris.Source, table *zodiac.Table, workers int, logger *slog.Logger) *Mapper {
	if workers < 1 {
		workers = 1
	}
	return &Mapper{src: src, table: table, workers: workers, logger: logger}
}

// Compute queries the ephemeris once per body and maps each longitude
// through the gate table. Every requested body appears exactly once in the
// result, in request order. If any single body fails, Compute returns a
// *ComputationError naming it and no Set. No retries happen at this layer.
func (m *Mapper) Compute(ctx context.Context, instant time.Time, bodies []ephemeris.Body) (*Set, error) {
	if len(bodies) == 0 {
		return &Set{Instant: instant}, nil
	}

	// Per-body work is independent; fan it out across a bounded set of
	// workers, keyed by index so ordering survives.
	type job struct {
		idx  int
		body ephemeris.Body
	}
	jobs := make(chan job)
	results := make([]Activation, len(bodies))
	errs := make([]error, len(bodies))

	var wg sync.WaitGroup
	workers := m.workers
	if workers > len(bodies) {
		workers = len(bodies)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.idx], errs[j.idx] = m.computeOne(ctx, instant, j.body)
			}
		}()
	}

	for i, b := range bodies {
		jobs <- job{idx: i, body: b}
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			m.logger.Warn("activation computation failed",
				"body", bodies[i].String(),
				"instant", instant.UTC().Format(time.RFC3339),
				"error", err,
			)
			return nil, &ComputationError{Body: bodies[i], Instant: instant, Err: err}
		}
	}

	return &Set{Instant: instant, Activations: results}, nil
}

func (m *Mapper) computeOne(ctx context.Context, instant time.Time, body ephemeris.Body) (Activation, error) {
	lon, err := m.src.Longitude(ctx, body, instant)
	if err != nil {
		return Activation{}, err
	}

	pos, err := m.table.Lookup(zodiac.Norm360(lon))
	if err != nil {
		return Activation{}, fmt.Errorf("mapping longitude %.6f: %w", lon, err)
	}

	return Activation{Body: body, Longitude: lon, Position: pos}, nil
}
