// Package supervisor coordinates graceful shutdown across the HTTP server
// and the background sync/APY loops.
package supervisor

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

// ShutdownGrace bounds how long in-flight HTTP requests are given to finish
// before Run gives up and returns. Background loops are told to stop but are
// not waited for.
const ShutdownGrace = 10 * time.Second

// stoppable is satisfied by both syncengine.Engine and apyengine.Engine.
type stoppable interface {
	Stop()
}

// Supervisor owns the process's signal handling and coordinated shutdown.
type Supervisor struct {
	httpServer *http.Server
	loops      []stoppable
}

// New builds a Supervisor for the given HTTP server and background loops.
func New(httpServer *http.Server, loops ...stoppable) *Supervisor {
	return &Supervisor{httpServer: httpServer, loops: loops}
}

// Run blocks until SIGINT or SIGTERM, then stops every background loop,
// shuts the HTTP server down within ShutdownGrace, and returns.
func (s *Supervisor) Run(ctx context.Context, cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logrus.WithField("signal", sig.String()).Info("received shutdown signal")
	case <-ctx.Done():
	}

	cancel()

	var wg sync.WaitGroup
	for _, loop := range s.loops {
		loop.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownGrace)
	defer shutdownCancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("http server shutdown did not complete cleanly")
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logrus.Info("graceful shutdown complete")
	case <-shutdownCtx.Done():
		logrus.Warn("graceful shutdown grace period exceeded, forcing exit")
	}
}
