package stopsignal

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

func NewSignalHandler(shutdownDelay time.Duration, logger log.Logger) *SignalHandler {
	return &SignalHandler{
		quit:          make(chan struct{}),
		shutdownDelay: shutdownDelay,
		logger:        logger,
	}
}

// SignalHandler is a run.Group actor that returns once one of the given
// signals is received. It reports itself not ready as soon as the signal
// arrives, and waits shutdownDelay before returning so that load balancers
// polling the readiness endpoint can drain traffic.
type SignalHandler struct {
	quit          chan struct{}
	stopOnce      sync.Once
	ready         atomic.Bool
	shutdownDelay time.Duration
	logger        log.Logger
}

// Handler provides the actor function and the stop functions to be used with run.Group.Add()
func (sh *SignalHandler) Handler(signals ...os.Signal) (run func() error, stop func(error)) {
	sh.ready.Store(true)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, signals...)

	return func() error {
			defer signal.Stop(sigs)

			level.Info(sh.logger).Log("msg", "Waiting for stop signal...")
			select {
			case <-sh.quit:
				return nil

			case s := <-sigs:
				level.Info(sh.logger).Log("msg", "Received stop signal", "signal", s, "sleep", sh.shutdownDelay)

				// Not ready anymore.
				sh.ready.Store(false)
				if sh.shutdownDelay > 0 {
					select {
					case <-time.After(sh.shutdownDelay):
					case <-sh.quit:
					}
				}

				level.Info(sh.logger).Log("msg", "shutting down")
				return nil
			}
		},
		func(_ error) {
			sh.Stop()
		}
}

func (sh *SignalHandler) Stop() {
	sh.stopOnce.Do(func() { close(sh.quit) })
}

// Ready implements internalserver.ReadinessProvider.
func (sh *SignalHandler) Ready() bool {
	return sh.ready.Load()
}
