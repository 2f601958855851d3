package runner

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Worker defines something that runs and returns an error.
type Worker interface {
	Start(ctx context.Context) error
}

// HTTPServer defines HTTP server interface.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// Runner coordinates running workers and HTTP servers as one group:
// the first failure cancels everything else.
type Runner struct {
	mu      sync.Mutex
	workers []Worker
	servers []HTTPServer
}

// NewRunner creates a new Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// AddWorker adds a Worker to be run later.
func (r *Runner) AddWorker(worker Worker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workers = append(r.workers, worker)
}

// AddHTTPServer adds an HTTPServer to be run later.
func (r *Runner) AddHTTPServer(srv HTTPServer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers = append(r.servers, srv)
}

// Run starts everything added so far and blocks until all of it has
// stopped. Cancelling ctx triggers a graceful shutdown and is not an
// error; any other failure is returned.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	workers := append([]Worker(nil), r.workers...)
	servers := append([]HTTPServer(nil), r.servers...)
	r.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)

	for _, worker := range workers {
		worker := worker
		g.Go(func() error {
			if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			return serveHTTP(ctx, srv)
		})
	}

	return g.Wait()
}

// serveHTTP runs one HTTP server and shuts it down gracefully when ctx
// is cancelled.
func serveHTTP(ctx context.Context, srv HTTPServer) error {
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
