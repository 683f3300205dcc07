package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/nneibaue/human-design/internal/activation"
	"github.com/nneibaue/human-design/internal/chart"
	"github.com/nneibaue/human-design/internal/design"
	"github.com/nneibaue/human-design/internal/ephemeris"
	"github.com/nneibaue/human-design/internal/zodiac"
)

func main() {
	birthFlag := flag.String("time", "", "birth instant, RFC 3339 with offset (e.g. 1990-06-15T14:30:00+02:00)")
	wheelFlag := flag.String("wheel", "", "path to a wheel YAML file (default: embedded)")
	flag.Parse()

	if *birthFlag == "" {
		fmt.Fprintln(os.Stderr, "usage: diag -time 1990-06-15T14:30:00+02:00 [-wheel path]")
		os.Exit(1)
	}

	birth, err := time.Parse(time.RFC3339, *birthFlag)
	if err != nil {
		fmt.Println("ERROR parsing -time:", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	table, err := zodiac.LoadWheel(*wheelFlag)
	if err != nil {
		fmt.Println("ERROR loading wheel:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded wheel with %d rows\n", len(table.Entries()))

	src := ephemeris.Analytic{}
	mapper := activation.NewMapper(src, table, runtime.NumCPU(), logger)
	solver := design.NewSolver(src, design.Config{}, logger)
	builder := chart.NewBuilder(mapper, solver, logger)

	graph, err := builder.Build(context.Background(), birth.UTC())
	if err != nil {
		fmt.Println("ERROR building chart:", err)
		os.Exit(1)
	}

	fmt.Printf("Birth instant:  %v\n", graph.BirthInstant.Format(time.RFC3339))
	fmt.Printf("Design instant: %v\n", graph.DesignInstant.Format(time.RFC3339))

	fmt.Println("\nPersonality:")
	for _, a := range graph.Personality.Activations {
		fmt.Printf("  %-9s %10.4f°  gate %2d line %d\n", a.Body, a.Longitude, a.Position.Gate, a.Position.Line)
	}

	fmt.Println("\nDesign:")
	for _, a := range graph.Design.Activations {
		fmt.Printf("  %-9s %10.4f°  gate %2d line %d\n", a.Body, a.Longitude, a.Position.Gate, a.Position.Line)
	}

	fmt.Printf("\nActivated gates: %v\n", graph.ActivatedGates())
}
