// Package chart assembles raw bodygraphs: the personality activations at
// birth plus the design activations at the solved design instant.
package chart

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/nneibaue/human-design/internal/activation"
	"github.com/nneibaue/human-design/internal/design"
	"github.com/nneibaue/human-design/internal/ephemeris"
	"github.com/nneibaue/human-design/internal/metrics"
)

// RawBodyGraph is the two-sided raw result of a chart computation. Gates
// and lines are bare integers and bodies are enum tags; semantic naming is
// a presentation concern layered on elsewhere. The value is immutable once
// built and owned by the caller.
type RawBodyGraph struct {
	BirthInstant  time.Time       `json:"birth_instant"`
	DesignInstant time.Time       `json:"design_instant"`
	Personality   *activation.Set `json:"personality"`
	Design        *activation.Set `json:"design"`
}

// ActivatedGates returns the sorted union of gates activated on either
// side of the graph.
func (g *RawBodyGraph) ActivatedGates() []int {
	seen := make(map[int]bool)
	for _, a := range g.Personality.Activations {
		seen[a.Position.Gate] = true
	}
	for _, a := range g.Design.Activations {
		seen[a.Position.Gate] = true
	}
	gates := make([]int, 0, len(seen))
	for gate := range seen {
		gates = append(gates, gate)
	}
	sort.Ints(gates)
	return gates
}

// Builder orchestrates the mapper and solver into full bodygraphs.
type Builder struct {
	mapper *activation.Mapper
	solver *design.Solver
	bodies []ephemeris.Body
	logger *slog.Logger
}

// NewBuilder creates a Builder computing the full canonical body set.
func NewBuilder(mapper *activation.Mapper, solver *design.Solver, logger *slog.Logger) *Builder {
	return &Builder{
		mapper: mapper,
		solver: solver,
		bodies: ephemeris.Bodies(),
		logger: logger,
	}
}

// Build computes the bodygraph for a birth instant. Any failure — an
// ephemeris error for a single body, a solver that cannot bracket or
// converge — aborts the whole build; a partial graph is never returned.
func (b *Builder) Build(ctx context.Context, birth time.Time) (*RawBodyGraph, error) {
	start := time.Now()

	personality, err := b.mapper.Compute(ctx, birth, b.bodies)
	if err != nil {
		metrics.RecordChart(time.Since(start), false)
		return nil, fmt.Errorf("personality activations: %w", err)
	}

	solved, err := b.solver.Solve(ctx, birth)
	if err != nil {
		metrics.RecordChart(time.Since(start), false)
		return nil, fmt.Errorf("design instant: %w", err)
	}
	metrics.ObserveSolverIterations(solved.Iterations)

	designSet, err := b.mapper.Compute(ctx, solved.Instant, b.bodies)
	if err != nil {
		metrics.RecordChart(time.Since(start), false)
		return nil, fmt.Errorf("design activations: %w", err)
	}

	duration := time.Since(start)
	metrics.RecordChart(duration, true)

	b.logger.Debug("bodygraph built",
		"birth", birth.UTC().Format(time.RFC3339),
		"design", solved.Instant.UTC().Format(time.RFC3339),
		"solver_iterations", solved.Iterations,
		"duration_ms", duration.Milliseconds(),
	)

	return &RawBodyGraph{
		BirthInstant:  birth,
		DesignInstant: solved.Instant,
		Personality:   personality,
		Design:        designSet,
	}, nil
}
