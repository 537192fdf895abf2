// Package control drives a playback session on Kodi.  The Controller owns the session for its whole lifetime and
// merges notifications, queued commands, the exit signal and its own timer into a single loop.
package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PizzaHomicide/kodicast/internal/exit"
	"github.com/PizzaHomicide/kodicast/internal/kodi"
	"github.com/PizzaHomicide/kodicast/internal/log"
)

const (
	DefaultEndTimeout      = 5 * time.Second
	DefaultTeardownTimeout = 10 * time.Second
)

// ErrConnectionLost is returned when the notification stream ends while the session is still running
var ErrConnectionLost = errors.New("connection to kodi lost")

// Player is the part of the Kodi session the controller drives.  *kodi.Session implements it.
type Player interface {
	Subscribe() (<-chan kodi.Notification, error)
	PlayerOpenItem(ctx context.Context, file string) error
	PlayerOpenPlaylist(ctx context.Context, id kodi.PlaylistID, pos kodi.PlaylistPosition) error
	PlayerStop(ctx context.Context, pid kodi.PlayerID) error
	PlayerSeek(ctx context.Context, pid kodi.PlayerID, seek kodi.Seek) (kodi.SeekResult, error)
	PlayerPlayPause(ctx context.Context, pid kodi.PlayerID, play kodi.Toggle) (int, error)
	PlayerGoTo(ctx context.Context, pid kodi.PlayerID, to kodi.GoTo) error
	PlayerGetProperties(ctx context.Context, pid kodi.PlayerID, names ...kodi.PropertyName) (kodi.PlayerProperties, error)
	PlayerGetActivePlayers(ctx context.Context) ([]kodi.ActivePlayer, error)
	PlaylistAdd(ctx context.Context, id kodi.PlaylistID, files ...string) error
	PlaylistClear(ctx context.Context, id kodi.PlaylistID) error
	GUIActivateWindow(ctx context.Context, window kodi.Window) error
}

// Config describes one playback session
type Config struct {
	// Items are the URLs to play, in order.  More than one item plays through Kodi's playlist.
	Items []string
	// StartSeconds, when positive, is seeked to once the first item has started
	StartSeconds int
	// EndTimeout is how long to wait for the next item after a stop that does not look like the end
	EndTimeout time.Duration
	// TeardownTimeout bounds the whole teardown sequence
	TeardownTimeout time.Duration
	PlaylistID      kodi.PlaylistID
	// StopServer is called when the session is cancelled so the file server can stop serving
	StopServer func()
}

// EndReason tells why a session finished
type EndReason int

const (
	// EndPlayback means Kodi reported it had nothing left to play
	EndPlayback EndReason = iota
	// EndTimeout means a stop was not followed by the start of another item
	EndTimeout
	// EndCancelled means exit was requested
	EndCancelled
	// EndConnectionLost means the notification stream ended
	EndConnectionLost
	// EndFailed means playback could not be started
	EndFailed
)

func (r EndReason) String() string {
	switch r {
	case EndPlayback:
		return "playback finished"
	case EndTimeout:
		return "no further item started"
	case EndCancelled:
		return "cancelled"
	case EndConnectionLost:
		return "connection lost"
	case EndFailed:
		return "failed to start"
	default:
		return "unknown"
	}
}

type state int

const (
	waitingStart state = iota
	waitingLast
	waitingTimeout
)

func (s state) String() string {
	switch s {
	case waitingStart:
		return "waiting_start"
	case waitingLast:
		return "waiting_last"
	case waitingTimeout:
		return "waiting_timeout"
	default:
		return "unknown"
	}
}

// Controller runs a single playback session
type Controller struct {
	player   Player
	commands *Commands
	exit     *exit.Exit
	cfg      Config

	state        state
	playerID     kodi.PlayerID
	havePlayer   bool
	startPending bool
	usePlaylist  bool
	timer        *time.Timer

	status    Status
	listeners []chan<- Status
}

// New creates a controller.  commands is consumed by the controller and refuses further requests once Run returns.
func New(player Player, commands *Commands, ex *exit.Exit, cfg Config) *Controller {
	if cfg.EndTimeout <= 0 {
		cfg.EndTimeout = DefaultEndTimeout
	}
	if cfg.TeardownTimeout <= 0 {
		cfg.TeardownTimeout = DefaultTeardownTimeout
	}
	if cfg.PlaylistID == 0 {
		cfg.PlaylistID = kodi.VideoPlaylist
	}
	return &Controller{
		player:       player,
		commands:     commands,
		exit:         ex,
		cfg:          cfg,
		startPending: true,
		usePlaylist:  len(cfg.Items) > 1,
		status:       Status{Position: kodi.NoPosition},
	}
}

// Run starts playback and blocks until the session is over.  Errors during bring-up are returned without teardown,
// unless exit or ctx interrupted it: Kodi may already have been told to play, so teardown runs then.
// Once the loop is running, only a lost connection produces an error.  Teardown always runs after the loop.
func (c *Controller) Run(ctx context.Context) (EndReason, error) {
	defer c.commands.stop()
	defer c.stopTimer()

	if len(c.cfg.Items) == 0 {
		return EndFailed, errors.New("nothing to play")
	}

	notifications, err := c.player.Subscribe()
	if err != nil {
		return EndFailed, fmt.Errorf("subscribing to notifications: %w", err)
	}

	if err := c.interruptibleBringUp(ctx); err != nil {
		if c.exit.Signalled() || ctx.Err() != nil {
			log.Info("Exit requested while starting playback", "error", err)
			c.cancel()
			c.teardown(ctx)
			return EndCancelled, nil
		}
		return EndFailed, fmt.Errorf("starting playback: %w", err)
	}

	reason := c.loop(ctx, notifications)
	log.Info("Playback session ending", "reason", reason.String())
	c.teardown(ctx)

	if reason == EndConnectionLost {
		return reason, ErrConnectionLost
	}
	return reason, nil
}

// interruptibleBringUp runs bringUp on a context that an exit request also cancels
func (c *Controller) interruptibleBringUp(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.exit.Done():
			cancel()
		case <-ctx.Done():
		}
	}()
	return c.bringUp(ctx)
}

func (c *Controller) bringUp(ctx context.Context) error {
	log.Info("Starting playback", "items", len(c.cfg.Items), "playlist", c.usePlaylist)

	if !c.usePlaylist {
		if err := c.player.PlayerOpenItem(ctx, c.cfg.Items[0]); err != nil {
			return err
		}
	} else {
		if err := c.player.PlaylistClear(ctx, c.cfg.PlaylistID); err != nil {
			return err
		}
		if err := c.player.PlaylistAdd(ctx, c.cfg.PlaylistID, c.cfg.Items...); err != nil {
			return err
		}
		if err := c.player.PlayerOpenPlaylist(ctx, c.cfg.PlaylistID, 0); err != nil {
			return err
		}
		c.status.PlaylistLength = len(c.cfg.Items)
	}

	return c.player.GUIActivateWindow(ctx, kodi.WindowFullscreenVideo)
}

func (c *Controller) loop(ctx context.Context, notifications <-chan kodi.Notification) EndReason {
	for {
		// Only a pending stop has a deadline, a nil channel never fires
		var deadline <-chan time.Time
		if c.state == waitingTimeout && c.timer != nil {
			deadline = c.timer.C
		}

		select {
		case n, ok := <-notifications:
			if !ok {
				log.Error("Notification stream ended unexpectedly")
				return EndConnectionLost
			}
			if done, reason := c.handleNotification(ctx, n); done {
				return reason
			}
		case req := <-c.commands.queue:
			c.handleRequest(ctx, req)
		case <-c.exit.Done():
			c.cancel()
			return EndCancelled
		case <-ctx.Done():
			c.cancel()
			return EndCancelled
		case <-deadline:
			log.Info("No further item started after stop", "timeout", c.cfg.EndTimeout)
			c.timer = nil
			return EndTimeout
		}
	}
}

func (c *Controller) cancel() {
	log.Info("Exit requested, stopping playback")
	c.exit.Signal()
	if c.cfg.StopServer != nil {
		c.cfg.StopServer()
	}
}

func (c *Controller) handleNotification(ctx context.Context, n kodi.Notification) (bool, EndReason) {
	log.Debug("Handling notification", "kind", n.Kind, "state", c.state.String())

	switch n.Kind {
	case kodi.NotifyAVStart:
		c.onStart(ctx, n)
	case kodi.NotifyStop:
		return c.onStop(ctx, n)
	case kodi.NotifyPlay, kodi.NotifyResume:
		c.status.Title = n.Item.Describe()
		c.status.Paused = false
		c.publish()
	case kodi.NotifyPause:
		c.status.Paused = true
		c.publish()
	case kodi.NotifyAVChange:
		c.status.Title = n.Item.Describe()
		c.publish()
	}
	return false, EndPlayback
}

func (c *Controller) onStart(ctx context.Context, n kodi.Notification) {
	if !c.havePlayer {
		c.playerID = n.Player.ID
		c.havePlayer = true
		log.Info("Playback started", "player_id", c.playerID)
	}
	c.stopTimer()
	c.state = waitingLast

	c.status.Started = true
	c.status.Waiting = false
	c.status.Title = n.Item.Describe()
	c.refreshStatus(ctx)

	if c.startPending {
		c.startPending = false
		if c.cfg.StartSeconds > 0 {
			log.Info("Seeking to start position", "seconds", c.cfg.StartSeconds)
			res, err := c.player.PlayerSeek(ctx, c.playerID, kodi.SeekBy(c.cfg.StartSeconds))
			if err != nil {
				log.Warn("Failed to seek to start position", "error", err)
			} else {
				c.status.applySeek(res)
			}
		}
	}

	c.publish()
}

// onStop decides whether a stop is the real end.  Kodi stops between playlist entries too, but then it still
// reports a current video stream.
func (c *Controller) onStop(ctx context.Context, n kodi.Notification) (bool, EndReason) {
	if !c.havePlayer {
		log.Info("Playback stopped before it started")
		return true, EndPlayback
	}

	props, err := c.player.PlayerGetProperties(ctx, c.playerID, kodi.PropCurrentVideoStream, kodi.PropPosition)
	if err != nil {
		log.Warn("Failed to fetch properties after stop, waiting for the next item", "error", err)
	} else if !props.HasVideoStream() {
		log.Info("Playback finished", "end", n.End)
		return true, EndPlayback
	}

	log.Debug("Stop looks like a playlist advance, waiting for next start", "timeout", c.cfg.EndTimeout)
	c.stopTimer()
	c.timer = time.NewTimer(c.cfg.EndTimeout)
	c.state = waitingTimeout
	c.status.Waiting = true
	c.publish()
	return false, EndPlayback
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) handleRequest(ctx context.Context, req request) {
	switch r := req.(type) {
	case seekRequest:
		if !c.havePlayer {
			r.reply <- outcome[kodi.SeekResult]{err: ErrNoPlayer}
			return
		}
		res, err := c.player.PlayerSeek(ctx, c.playerID, r.seek)
		if err != nil {
			log.Warn("Seek failed", "seek", r.seek.String(), "error", err, "kind", errorKind(err))
		} else {
			c.status.applySeek(res)
			c.publish()
		}
		r.reply <- outcome[kodi.SeekResult]{value: res, err: err}

	case playPauseRequest:
		if !c.havePlayer {
			r.reply <- outcome[int]{err: ErrNoPlayer}
			return
		}
		speed, err := c.player.PlayerPlayPause(ctx, c.playerID, r.play)
		if err != nil {
			log.Warn("Play/pause failed", "error", err, "kind", errorKind(err))
		} else {
			c.status.Paused = speed == 0
			c.publish()
		}
		r.reply <- outcome[int]{value: speed, err: err}

	case goToRequest:
		if !c.havePlayer {
			r.reply <- outcome[struct{}]{err: ErrNoPlayer}
			return
		}
		err := c.player.PlayerGoTo(ctx, c.playerID, r.to)
		if err != nil {
			log.Warn("Playlist move failed", "to", r.to.String(), "error", err, "kind", errorKind(err))
		}
		r.reply <- outcome[struct{}]{err: err}

	case propertiesRequest:
		if !c.havePlayer {
			r.reply <- outcome[kodi.PlayerProperties]{err: ErrNoPlayer}
			return
		}
		props, err := c.player.PlayerGetProperties(ctx, c.playerID, statusProperties...)
		if err != nil {
			log.Debug("Property poll failed", "error", err)
		} else {
			c.status.applyProperties(props, c.usePlaylist)
			c.publish()
		}
		r.reply <- outcome[kodi.PlayerProperties]{value: props, err: err}

	case listenRequest:
		c.listeners = append(c.listeners, r.listener)
		c.send(r.listener)

	default:
		log.Error("Unhandled control request", "type", fmt.Sprintf("%T", req))
	}
}

func (c *Controller) refreshStatus(ctx context.Context) {
	props, err := c.player.PlayerGetProperties(ctx, c.playerID, statusProperties...)
	if err != nil {
		log.Warn("Failed to fetch player properties", "error", err, "kind", errorKind(err))
		return
	}
	log.Debug("Player properties", "position", props.Position, "video_stream", props.HasVideoStream())
	c.status.applyProperties(props, c.usePlaylist)
}

func (c *Controller) publish() {
	for _, l := range c.listeners {
		c.send(l)
	}
}

func (c *Controller) send(l chan<- Status) {
	select {
	case l <- c.status:
	default:
		log.Trace("Status listener busy, dropping update")
	}
}

// teardown stops playback and returns Kodi to its home screen.  Every step is attempted regardless of the others.
func (c *Controller) teardown(parent context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.cfg.TeardownTimeout)
	defer cancel()

	if c.havePlayer {
		if err := c.player.PlayerStop(ctx, c.playerID); err != nil {
			log.Warn("Teardown: failed to stop player", "player_id", c.playerID, "error", err)
		}
	} else {
		c.stopActivePlayers(ctx)
	}

	if c.usePlaylist {
		if err := c.player.PlaylistClear(ctx, c.cfg.PlaylistID); err != nil {
			log.Warn("Teardown: failed to clear playlist", "playlist_id", c.cfg.PlaylistID, "error", err)
		}
	}

	if err := c.player.GUIActivateWindow(ctx, kodi.WindowHome); err != nil {
		log.Warn("Teardown: failed to return to home screen", "error", err)
	}

	log.Info("Teardown complete")
}

// stopActivePlayers covers a session that ends before Kodi reported the player it opened
func (c *Controller) stopActivePlayers(ctx context.Context) {
	players, err := c.player.PlayerGetActivePlayers(ctx)
	if err != nil {
		log.Warn("Teardown: failed to list active players", "error", err)
		return
	}
	for _, p := range players {
		if p.Type != "video" {
			continue
		}
		if err := c.player.PlayerStop(ctx, p.PlayerID); err != nil {
			log.Warn("Teardown: failed to stop player", "player_id", p.PlayerID, "error", err)
		}
	}
}

// errorKind classifies a failed call for the logs
func errorKind(err error) string {
	switch {
	case kodi.IsRemote(err):
		return "remote"
	case kodi.IsDecode(err):
		return "decode"
	default:
		return "transport"
	}
}
