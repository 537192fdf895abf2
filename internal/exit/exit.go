// Package exit provides the process wide "exit requested" signal.
package exit

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"github.com/PizzaHomicide/kodicast/internal/log"
)

// Exit is a one way flag.  Once signalled it stays signalled and every waiter, current or future, is released.
// The zero value is not usable, use New.
type Exit struct {
	once sync.Once
	done chan struct{}
}

func New() *Exit {
	return &Exit{done: make(chan struct{})}
}

// Signal marks exit as requested.  Safe to call from any goroutine any number of times.
func (e *Exit) Signal() {
	e.once.Do(func() {
		log.Debug("Exit requested")
		close(e.done)
	})
}

// Done is closed once exit has been requested
func (e *Exit) Done() <-chan struct{} {
	return e.done
}

// Signalled reports whether exit has been requested
func (e *Exit) Signalled() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Wait blocks until exit is requested or ctx ends
func (e *Exit) Wait(ctx context.Context) error {
	select {
	case <-e.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnInterrupt signals exit when the process receives one of the termination signals.  The returned func stops
// listening.
func (e *Exit) OnInterrupt() (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, terminationSignals()...)
	quit := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case sig := <-sigs:
			log.Info("Received signal, exiting", "signal", sig.String())
			e.Signal()
		case <-e.done:
		case <-quit:
		}
	}()

	var stopOnce sync.Once
	return func() {
		stopOnce.Do(func() {
			signal.Stop(sigs)
			close(quit)
			wg.Wait()
		})
	}
}
