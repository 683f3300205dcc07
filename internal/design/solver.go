// Package design locates the design instant: the moment before birth at
// which the Sun's ecliptic longitude is exactly 88° less than at birth.
//
// Apparent solar motion is non-uniform (orbital eccentricity), so the
// offset is close to, but never exactly, 88 days — it drifts by hours over
// the course of a year. The instant is found by bisection against the
// ephemeris rather than calendar arithmetic.
package design

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nneibaue/human-design/internal/ephemeris"
	"github.com/nneibaue/human-design/internal/zodiac"
)

// SolarArcDegrees is the fixed solar arc between design and birth.
const SolarArcDegrees = 88.0

const (
	// DefaultToleranceDeg is one arc-second of solar arc. At the Sun's
	// mean rate (~0.9856°/day) that bounds timing error to about one
	// second.
	DefaultToleranceDeg = 1.0 / 3600
	// DefaultMaxIterations caps bisection steps. The initial bracket is 8
	// days wide, so the interval shrinks below a nanosecond long before
	// the cap is reached; hitting it means the ephemeris is misbehaving.
	DefaultMaxIterations = 60
)

// The seed bracket [birth-92d, birth-84d] contains the root across the
// full range of orbital eccentricity while staying well short of a second
// solar revolution, so the root inside it is unique. If the ephemeris
// disagrees the bracket is widened once to [birth-96d, birth-80d].
const (
	bracketLo     = -92 * 24 * time.Hour
	bracketHi     = -84 * 24 * time.Hour
	bracketLoWide = -96 * 24 * time.Hour
	bracketHiWide = -80 * 24 * time.Hour
)

// Config holds solver tuning parameters.
type Config struct {
	ToleranceDeg  float64 // accepted |residual| in degrees (default: DefaultToleranceDeg)
	MaxIterations int     // bisection budget (default: DefaultMaxIterations)
}

// Result is a successful solve.
type Result struct {
	Instant     time.Time // design instant, always before birth
	TargetDeg   float64   // solar longitude the solver converged to
	ResidualDeg float64   // signed remaining error, |ResidualDeg| <= tolerance
	Iterations  int       // bisection steps taken
}

// NoBracketError reports that the search window, even after widening, does
// not straddle the target longitude.
type NoBracketError struct {
	Lo, Hi    time.Time
	FLo, FHi  float64
	TargetDeg float64
}

func (e *NoBracketError) Error() string {
	return fmt.Sprintf("design: no sign change in bracket [%s, %s] for target %.6f° (f(lo)=%.6f f(hi)=%.6f)",
		e.Lo.UTC().Format(time.RFC3339), e.Hi.UTC().Format(time.RFC3339), e.TargetDeg, e.FLo, e.FHi)
}

// DivergenceError reports that the iteration budget ran out before the
// residual met tolerance.
type DivergenceError struct {
	Lo, Hi       time.Time
	ResidualDeg  float64
	ToleranceDeg float64
	Iterations   int
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("design: no convergence after %d iterations: residual %.9f° > tolerance %.9f° (bracket [%s, %s])",
		e.Iterations, e.ResidualDeg, e.ToleranceDeg, e.Lo.UTC().Format(time.RFC3339), e.Hi.UTC().Format(time.RFC3339))
}

// Solver finds design instants against an ephemeris source.
type Solver struct {
	src    ephemeris.Source
	cfg    Config
	logger *slog.Logger
}

// NewSolver creates a solver. Zero config fields take defaults.
func NewSolver(src ephemeris.Source, cfg Config, logger *slog.Logger) *Solver {
	if cfg.ToleranceDeg <= 0 {
		cfg.ToleranceDeg = DefaultToleranceDeg
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return &Solver{src: src, cfg: cfg, logger: logger}
}

// Solve returns the instant before birth at which the Sun's longitude is
// SolarArcDegrees less than at birth, to the configured tolerance.
func (s *Solver) Solve(ctx context.Context, birth time.Time) (Result, error) {
	birthLon, err := s.src.Longitude(ctx, ephemeris.Sun, birth)
	if err != nil {
		return Result{}, fmt.Errorf("querying sun at birth: %w", err)
	}
	target := zodiac.Norm360(birthLon - SolarArcDegrees)

	// f is the signed circular distance from the Sun to the target,
	// continuous across the 0°/360° seam. Solar longitude increases with
	// time, so f crosses zero from below exactly once in the window.
	f := func(t time.Time) (float64, error) {
		lon, err := s.src.Longitude(ctx, ephemeris.Sun, t)
		if err != nil {
			return 0, fmt.Errorf("querying sun at %s: %w", t.UTC().Format(time.RFC3339), err)
		}
		return zodiac.SignedDelta(lon, target), nil
	}

	lo, hi := birth.Add(bracketLo), birth.Add(bracketHi)
	fLo, err := f(lo)
	if err != nil {
		return Result{}, err
	}
	fHi, err := f(hi)
	if err != nil {
		return Result{}, err
	}

	if sameSign(fLo, fHi) {
		// One symmetric widening before giving up.
		lo, hi = birth.Add(bracketLoWide), birth.Add(bracketHiWide)
		if fLo, err = f(lo); err != nil {
			return Result{}, err
		}
		if fHi, err = f(hi); err != nil {
			return Result{}, err
		}
		s.logger.Warn("design bracket widened",
			"birth", birth.UTC().Format(time.RFC3339),
			"target_deg", target,
			"f_lo", fLo,
			"f_hi", fHi,
		)
		if sameSign(fLo, fHi) {
			return Result{}, &NoBracketError{Lo: lo, Hi: hi, FLo: fLo, FHi: fHi, TargetDeg: target}
		}
	}

	var mid time.Time
	var fMid float64
	for i := 0; i < s.cfg.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		mid = lo.Add(hi.Sub(lo) / 2)
		if fMid, err = f(mid); err != nil {
			return Result{}, err
		}

		if abs(fMid) <= s.cfg.ToleranceDeg {
			s.logger.Debug("design instant solved",
				"birth", birth.UTC().Format(time.RFC3339),
				"design", mid.UTC().Format(time.RFC3339Nano),
				"target_deg", target,
				"residual_deg", fMid,
				"iterations", i+1,
			)
			return Result{Instant: mid, TargetDeg: target, ResidualDeg: fMid, Iterations: i + 1}, nil
		}

		if sameSign(fMid, fLo) {
			lo, fLo = mid, fMid
		} else {
			hi, fHi = mid, fMid
		}
	}

	return Result{}, &DivergenceError{
		Lo:           lo,
		Hi:           hi,
		ResidualDeg:  abs(fMid),
		ToleranceDeg: s.cfg.ToleranceDeg,
		Iterations:   s.cfg.MaxIterations,
	}
}

func sameSign(a, b float64) bool {
	return (a >= 0) == (b >= 0)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
