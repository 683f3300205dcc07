package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/nneibaue/human-design/internal/cache"
	"github.com/nneibaue/human-design/internal/chart"
	"github.com/nneibaue/human-design/internal/geo"
	"github.com/nneibaue/human-design/internal/zodiac"
)

// localTimeLayout is wall-clock time without offset, interpreted in the
// birthplace's timezone.
const localTimeLayout = "2006-01-02T15:04:05"

// chartRequest is the POST /api/v1/chart body. Exactly one of BirthTime
// (explicit offset) or LocalTime+Place must be provided.
type chartRequest struct {
	BirthTime string `json:"birth_time,omitempty"` // RFC 3339 with offset
	LocalTime string `json:"local_time,omitempty"` // 2006-01-02T15:04:05, no offset
	Place     string `json:"place,omitempty"`
}

// chartResponse wraps the raw graph with the resolved location, when place
// resolution was used.
type chartResponse struct {
	*chart.RawBodyGraph
	Location       *geo.Location `json:"location,omitempty"`
	ActivatedGates []int         `json:"activated_gates"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func chartHandler(logger *slog.Logger, builder *chart.Builder, resolver *geo.Resolver, charts *cache.ChartCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		var birth time.Time
		var location *geo.Location

		switch {
		case req.BirthTime != "" && req.LocalTime != "":
			writeError(w, http.StatusBadRequest, "provide either birth_time or local_time+place, not both")
			return

		case req.BirthTime != "":
			t, err := time.Parse(time.RFC3339, req.BirthTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "birth_time must be RFC 3339 with an explicit UTC offset")
				return
			}
			birth = t.UTC()

		case req.LocalTime != "":
			if req.Place == "" {
				writeError(w, http.StatusBadRequest, "local_time requires place")
				return
			}
			if resolver == nil {
				writeError(w, http.StatusBadRequest, "place resolution is disabled; provide birth_time with an explicit offset")
				return
			}
			local, err := time.Parse(localTimeLayout, req.LocalTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "local_time must be formatted as "+localTimeLayout)
				return
			}
			resolved, loc, err := resolver.ResolveBirth(r.Context(), local, req.Place)
			if err != nil {
				logger.Warn("birthplace resolution failed", "place", req.Place, "error", err)
				writeError(w, http.StatusBadRequest, "could not resolve birthplace")
				return
			}
			birth = resolved
			location = &loc

		default:
			writeError(w, http.StatusBadRequest, "birth_time or local_time+place is required")
			return
		}

		graph := charts.Get(birth)
		if graph == nil {
			var err error
			graph, err = builder.Build(r.Context(), birth)
			if err != nil {
				// Never fabricate approximate gate values; surface a
				// uniform failure and keep the detail in the log.
				logger.Error("chart build failed",
					"birth", birth.Format(time.RFC3339),
					"error", err,
				)
				writeError(w, http.StatusInternalServerError, "unable to compute chart for the given birth data")
				return
			}
			charts.Put(graph)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chartResponse{
			RawBodyGraph:   graph,
			Location:       location,
			ActivatedGates: graph.ActivatedGates(),
		})
	}
}

// wheelHandler dumps the gate table rows for downstream overlay layers.
func wheelHandler(table *zodiac.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"gate_span_deg": zodiac.GateSpan,
			"line_span_deg": zodiac.LineSpan,
			"entries":       table.Entries(),
		})
	}
}
