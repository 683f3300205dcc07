package activation

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/nneibaue/human-design/internal/ephemeris"
	"github.com/nneibaue/human-design/internal/zodiac"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testTable(t *testing.T) *zodiac.Table {
	t.Helper()
	table, err := zodiac.LoadWheel("")
	if err != nil {
		t.Fatalf("LoadWheel failed: %v", err)
	}
	return table
}

// fixedSource serves longitudes from a map and optionally fails for one
// body.
type fixedSource struct {
	lons     map[ephemeris.Body]float64
	failBody ephemeris.Body
	failErr  error
}

func (s fixedSource) Longitude(ctx context.Context, body ephemeris.Body, t time.Time) (float64, error) {
	if s.failErr != nil && body == s.failBody {
		return 0, s.failErr
	}
	return s.lons[body], nil
}

func testLongitudes() map[ephemeris.Body]float64 {
	lons := make(map[ephemeris.Body]float64)
	for i, b := range ephemeris.Bodies() {
		// Spread the bodies around the circle.
		lons[b] = float64(i) * 27.5
	}
	return lons
}

// TestComputeAllBodies verifies every requested body appears exactly once,
// in request order, with the table's position for its longitude.
func TestComputeAllBodies(t *testing.T) {
	table := testTable(t)
	src := fixedSource{lons: testLongitudes()}
	mapper := NewMapper(src, table, 4, testLogger())

	instant := time.Date(1990, 6, 15, 12, 30, 0, 0, time.UTC)
	bodies := ephemeris.Bodies()

	set, err := mapper.Compute(context.Background(), instant, bodies)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	if !set.Instant.Equal(instant) {
		t.Errorf("instant: got %v, want %v", set.Instant, instant)
	}
	if len(set.Activations) != len(bodies) {
		t.Fatalf("got %d activations, want %d", len(set.Activations), len(bodies))
	}

	for i, a := range set.Activations {
		if a.Body != bodies[i] {
			t.Errorf("activation %d: got body %s, want %s", i, a.Body, bodies[i])
		}
		wantPos, err := table.Lookup(zodiac.Norm360(a.Longitude))
		if err != nil {
			t.Fatalf("Lookup failed: %v", err)
		}
		if a.Position != wantPos {
			t.Errorf("%s: position %v, want %v", a.Body, a.Position, wantPos)
		}
	}
}

// TestComputeOrderStableAcrossWorkerCounts verifies result ordering does
// not depend on parallelism.
func TestComputeOrderStableAcrossWorkerCounts(t *testing.T) {
	table := testTable(t)
	src := fixedSource{lons: testLongitudes()}
	instant := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	bodies := ephemeris.Bodies()

	reference, err := NewMapper(src, table, 1, testLogger()).Compute(context.Background(), instant, bodies)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	for _, workers := range []int{0, 2, 8, 32} {
		set, err := NewMapper(src, table, workers, testLogger()).Compute(context.Background(), instant, bodies)
		if err != nil {
			t.Fatalf("Compute with %d workers failed: %v", workers, err)
		}
		for i := range reference.Activations {
			if set.Activations[i] != reference.Activations[i] {
				t.Errorf("workers=%d activation %d: got %+v, want %+v",
					workers, i, set.Activations[i], reference.Activations[i])
			}
		}
	}
}

// TestComputeSingleFailureAbortsSet verifies a one-body failure yields a
// *ComputationError naming the body and no partial set.
func TestComputeSingleFailureAbortsSet(t *testing.T) {
	table := testTable(t)
	srcErr := errors.New("ephemeris offline")
	src := fixedSource{lons: testLongitudes(), failBody: ephemeris.Mars, failErr: srcErr}
	mapper := NewMapper(src, table, 4, testLogger())

	set, err := mapper.Compute(context.Background(), time.Now(), ephemeris.Bodies())
	if set != nil {
		t.Fatal("expected nil set on failure")
	}

	var compErr *ComputationError
	if !errors.As(err, &compErr) {
		t.Fatalf("got %T (%v), want *ComputationError", err, err)
	}
	if compErr.Body != ephemeris.Mars {
		t.Errorf("error names %s, want Mars", compErr.Body)
	}
	if !errors.Is(err, srcErr) {
		t.Error("cause not preserved through Unwrap")
	}
}

// TestComputeNoBodies returns an empty set, not an error.
func TestComputeNoBodies(t *testing.T) {
	mapper := NewMapper(fixedSource{}, testTable(t), 4, testLogger())

	set, err := mapper.Compute(context.Background(), time.Now(), nil)
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}
	if len(set.Activations) != 0 {
		t.Errorf("got %d activations, want 0", len(set.Activations))
	}
}

// TestComputeNormalizesLongitude verifies out-of-range source output is
// normalized before lookup rather than rejected.
func TestComputeNormalizesLongitude(t *testing.T) {
	table := testTable(t)
	src := fixedSource{lons: map[ephemeris.Body]float64{ephemeris.Sun: -10}}
	mapper := NewMapper(src, table, 1, testLogger())

	set, err := mapper.Compute(context.Background(), time.Now(), []ephemeris.Body{ephemeris.Sun})
	if err != nil {
		t.Fatalf("Compute failed: %v", err)
	}

	wantPos, err := table.Lookup(350)
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got := set.Activations[0].Position; got != wantPos {
		t.Errorf("position: got %v, want %v", got, wantPos)
	}
}

func TestSetGet(t *testing.T) {
	set := &Set{Activations: []Activation{
		{Body: ephemeris.Sun, Position: zodiac.LinePosition{Gate: 1, Line: 1}},
		{Body: ephemeris.Moon, Position: zodiac.LinePosition{Gate: 2, Line: 3}},
	}}

	if a, ok := set.Get(ephemeris.Moon); !ok || a.Position.Gate != 2 {
		t.Errorf("Get(Moon) = %+v, %v", a, ok)
	}
	if _, ok := set.Get(ephemeris.Pluto); ok {
		t.Error("Get(Pluto) should miss")
	}
}
