// Command planner is the CLI driver for the visit routing solver: it reads
// a JSON scenario, solves it, persists the result, and prints the
// PlannerResult as JSON. Grounded on cmd/server/main.go's env/flag
// configuration and logging conventions.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"visitrouter/internal/distance"
	"visitrouter/internal/store"
	"visitrouter/internal/vrp"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("[PLANNER] fatal: %v", err)
	}
}

func run() error {
	scenarioPath := flag.String("scenario", "", "path to a JSON scenario file (default: read from stdin)")
	flag.Parse()

	dbPath := getEnv("PLANNER_DB_PATH", "planner.db")
	osrmURL := getEnv("OSRM_BASE_URL", "")

	var in *os.File
	if *scenarioPath == "" {
		in = os.Stdin
	} else {
		f, err := os.Open(*scenarioPath)
		if err != nil {
			return fmt.Errorf("planner: open scenario: %w", err)
		}
		defer f.Close()
		in = f
	}

	s, err := parseScenario(in)
	if err != nil {
		return err
	}

	log.Printf("[PLANNER] opening store at %s", dbPath)
	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("planner: open store: %w", err)
	}
	defer db.Close()

	var matrixProvider vrp.DistanceMatrixProvider
	if osrmURL != "" {
		log.Printf("[PLANNER] using OSRM distance provider at %s", osrmURL)
		matrixProvider = distance.NewOSRMTableProvider(osrmURL, db)
	} else {
		log.Printf("[PLANNER] no OSRM_BASE_URL set, falling back to haversine distance estimates")
		matrixProvider = &distance.HaversineProvider{}
	}

	visitors := s.buildVisitors()
	for _, v := range visitors {
		if v.StartLocation == nil {
			log.Printf("[PLANNER] warning: visitor=%d has no start_location; its route starts at its first visit's location", v.ID)
		}
	}
	visits := s.buildVisits()
	serviceDate := vrp.Date(s.ServiceDate)

	for _, v := range visits {
		if v.CurrentVisitor != nil {
			continue
		}
		if prior, ok, err := db.CurrentVisitorFor(context.Background(), v.ID, serviceDate); err != nil {
			log.Printf("[PLANNER] prior-assignment lookup failed for visit=%d: %v", v.ID, err)
		} else if ok {
			v.CurrentVisitor = &prior
		}
	}

	result, err := vrp.Solve(context.Background(), serviceDate, visits, visitors, db, matrixProvider, s.buildOptions())
	if err != nil {
		return fmt.Errorf("planner: solve: %w", err)
	}

	if err := db.RecordAssignments(context.Background(), serviceDate, result.Routes); err != nil {
		log.Printf("[PLANNER] failed to persist assignment snapshot: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("planner: encode result: %w", err)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
