package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"visitrouter/internal/vrp"
	"visitrouter/internal/viewerweb"
)

// App struct holds the Wails application state, grounded on the teacher's
// App: an internal HTTP server started before the window opens, with the
// webview navigated to it on startup.
type App struct {
	ctx    context.Context
	server *viewerweb.Server
	url    string

	mu     sync.RWMutex
	result vrp.PlannerResult
}

// NewApp creates a new App, solving the bundled demo scenario and starting
// the internal HTTP server that renders it.
func NewApp() *App {
	app := &App{}

	serviceDate, visits, visitors, availability, matrixProvider, opts := buildDemoScenario()
	result, err := vrp.Solve(context.Background(), serviceDate, visits, visitors, availability, matrixProvider, opts)
	if err != nil {
		log.Fatalf("Failed to solve demo scenario: %v", err)
	}
	app.result = result

	srv, err := viewerweb.New(viewerweb.Config{Addr: "127.0.0.1:0"}, app.latestResult)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	addr, err := srv.Start()
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	app.server = srv
	app.url = fmt.Sprintf("http://%s", addr)
	log.Printf("Internal HTTP server running at %s", app.url)

	return app
}

// latestResult satisfies viewerweb.ResultProvider.
func (a *App) latestResult() vrp.PlannerResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.result
}

// Resolve is bound to the frontend so it can re-run the demo solve and
// fetch a fresh result without restarting the app.
func (a *App) Resolve() vrp.PlannerResult {
	serviceDate, visits, visitors, availability, matrixProvider, opts := buildDemoScenario()
	result, err := vrp.Solve(a.ctx, serviceDate, visits, visitors, availability, matrixProvider, opts)
	if err != nil {
		log.Printf("Resolve: solve failed: %v", err)
		return a.latestResult()
	}

	a.mu.Lock()
	a.result = result
	a.mu.Unlock()
	return result
}

// startup is called when the app starts.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	go func() {
		runtime.WindowExecJS(ctx, fmt.Sprintf(`window.location.href = "%s"`, a.url))
	}()
}

// shutdown is called when the app closes.
func (a *App) shutdown(ctx context.Context) {
	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down server: %v", err)
		}
	}
}
