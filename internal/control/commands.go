package control

import (
	"context"
	"errors"
	"sync"

	"github.com/PizzaHomicide/kodicast/internal/kodi"
)

// DefaultQueueDepth is the number of requests that can wait for the controller before submitters are refused
const DefaultQueueDepth = 64

var (
	// ErrQueueFull is returned when the controller is too far behind to accept another request
	ErrQueueFull = errors.New("control queue is full")
	// ErrStopped is returned when the controller is no longer running
	ErrStopped = errors.New("controller stopped")
	// ErrNoPlayer is returned for requests that need a player before Kodi has started one
	ErrNoPlayer = errors.New("no active player yet")
)

// request is the closed set of operations the controller understands.  Each variant carries its own reply channel.
type request interface {
	isRequest()
}

type outcome[T any] struct {
	value T
	err   error
}

type seekRequest struct {
	seek  kodi.Seek
	reply chan<- outcome[kodi.SeekResult]
}

type playPauseRequest struct {
	play  kodi.Toggle
	reply chan<- outcome[int]
}

type goToRequest struct {
	to    kodi.GoTo
	reply chan<- outcome[struct{}]
}

type propertiesRequest struct {
	reply chan<- outcome[kodi.PlayerProperties]
}

type listenRequest struct {
	listener chan<- Status
}

func (seekRequest) isRequest()       {}
func (playPauseRequest) isRequest()  {}
func (goToRequest) isRequest()       {}
func (propertiesRequest) isRequest() {}
func (listenRequest) isRequest()     {}

// Commands is the way for other goroutines (the UI mostly) to operate the player while the controller owns the
// session.  Requests are queued and processed one at a time by the controller loop.
type Commands struct {
	queue    chan request
	stopped  chan struct{}
	stopOnce sync.Once
}

// NewCommands creates a command channel holding at most depth waiting requests
func NewCommands(depth int) *Commands {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	return &Commands{
		queue:   make(chan request, depth),
		stopped: make(chan struct{}),
	}
}

// Seek moves the playback position
func (c *Commands) Seek(ctx context.Context, seek kodi.Seek) (kodi.SeekResult, error) {
	return submitSync(ctx, c, func(reply chan<- outcome[kodi.SeekResult]) request {
		return seekRequest{seek: seek, reply: reply}
	})
}

// PlayPause toggles, forces or releases pause.  It returns the resulting speed.
func (c *Commands) PlayPause(ctx context.Context, play kodi.Toggle) (int, error) {
	return submitSync(ctx, c, func(reply chan<- outcome[int]) request {
		return playPauseRequest{play: play, reply: reply}
	})
}

// Next moves to the next playlist entry
func (c *Commands) Next(ctx context.Context) error {
	return c.GoTo(ctx, kodi.GoToNext)
}

// Previous moves to the previous playlist entry
func (c *Commands) Previous(ctx context.Context) error {
	return c.GoTo(ctx, kodi.GoToPrevious)
}

// GoTo moves to another playlist entry
func (c *Commands) GoTo(ctx context.Context, to kodi.GoTo) error {
	_, err := submitSync(ctx, c, func(reply chan<- outcome[struct{}]) request {
		return goToRequest{to: to, reply: reply}
	})
	return err
}

// Properties fetches the player properties that make up the playback status
func (c *Commands) Properties(ctx context.Context) (kodi.PlayerProperties, error) {
	return submitSync(ctx, c, func(reply chan<- outcome[kodi.PlayerProperties]) request {
		return propertiesRequest{reply: reply}
	})
}

// Listen registers a channel that receives a Status every time it changes.  Delivery never blocks the controller,
// updates are dropped for a listener whose buffer is full.  Listen does not wait for the controller.
func (c *Commands) Listen(listener chan<- Status) error {
	return c.submit(listenRequest{listener: listener})
}

func (c *Commands) submit(r request) error {
	select {
	case <-c.stopped:
		return ErrStopped
	default:
	}

	select {
	case c.queue <- r:
		return nil
	default:
		return ErrQueueFull
	}
}

// stop refuses any further requests and releases everyone waiting for a reply
func (c *Commands) stop() {
	c.stopOnce.Do(func() {
		close(c.stopped)
	})
}

func submitSync[T any](ctx context.Context, c *Commands, build func(chan<- outcome[T]) request) (T, error) {
	var zero T
	reply := make(chan outcome[T], 1)
	if err := c.submit(build(reply)); err != nil {
		return zero, err
	}

	select {
	case o := <-reply:
		return o.value, o.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-c.stopped:
		// The reply may have been posted just before the controller finished
		select {
		case o := <-reply:
			return o.value, o.err
		default:
			return zero, ErrStopped
		}
	}
}
