// Package app wires a cast together: it resolves Kodi, serves the files, opens the session and runs the controller
// next to the user interface until playback is over.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/PizzaHomicide/kodicast/internal/config"
	"github.com/PizzaHomicide/kodicast/internal/control"
	"github.com/PizzaHomicide/kodicast/internal/discovery"
	"github.com/PizzaHomicide/kodicast/internal/exit"
	"github.com/PizzaHomicide/kodicast/internal/kodi"
	"github.com/PizzaHomicide/kodicast/internal/log"
	"github.com/PizzaHomicide/kodicast/internal/media"
	"golang.org/x/sync/errgroup"
)

const serverShutdownTimeout = 2 * time.Second

// Options are the per invocation settings, mostly from the command line
type Options struct {
	Sources []string
	// HostKey names a configured host or is a hostname, empty for the default host
	HostKey      string
	StartSeconds int
	// ListenPort overrides the configured file server port when not nil
	ListenPort *int
	Username   string
	Password   string
	// Discover forces an mDNS lookup before DNS
	Discover bool
}

// Session is what the user interface gets to work with
type Session struct {
	Commands *control.Commands
	Exit     *exit.Exit
	// Names are the exposed names of the items, in playlist order
	Names        []string
	Host         string
	PollInterval time.Duration
}

// UIFunc runs the user interface until the session exit is signalled or ctx ends
type UIFunc func(ctx context.Context, s Session) error

// Run casts the sources and returns when playback is over.  A nil ui runs headless.
func Run(ctx context.Context, cfg *config.Config, opts Options, ui UIFunc) error {
	if len(opts.Sources) == 0 {
		return errors.New("no sources given")
	}
	if err := checkSources(opts.Sources); err != nil {
		return err
	}

	host, err := ResolveHost(cfg, opts)
	if err != nil {
		return err
	}

	if l := log.DefaultLogger(); l != nil {
		log.SetDefaultLogger(l.With("kodi", host.Hostname))
		defer log.SetDefaultLogger(l)
	}

	ep, err := Endpoint(ctx, host, opts.Discover)
	if err != nil {
		return err
	}

	probe, err := kodi.Probe(ctx, ep)
	if err != nil {
		return fmt.Errorf("kodi is not reachable: %w", err)
	}
	log.Info("Kodi reachable", "local_addr", probe.LocalAddr.String())

	entries := media.ExposeNames(opts.Sources)
	srv := media.NewServer(entries)
	if _, err := srv.Start(net.JoinHostPort(probe.LocalAddr.String(), strconv.Itoa(host.ListenPort))); err != nil {
		return fmt.Errorf("starting file server: %w", err)
	}
	defer shutdownServer(srv)

	session, err := kodi.Connect(ctx, ep)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Debug("Closing kodi session failed", "error", err)
		}
	}()

	ex := exit.New()
	stopSignals := ex.OnInterrupt()
	defer stopSignals()

	commands := control.NewCommands(control.DefaultQueueDepth)
	ctrl := control.New(session, commands, ex, control.Config{
		Items:           srv.URLs(),
		StartSeconds:    opts.StartSeconds,
		EndTimeout:      cfg.Playback.EndTimeout,
		TeardownTimeout: cfg.Playback.TeardownTimeout,
		PlaylistID:      kodi.PlaylistID(cfg.Playback.PlaylistID),
		StopServer:      srv.Stop,
	})

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The UI and the server follow the controller out
		defer ex.Signal()
		defer shutdownServer(srv)

		// Sibling failures reach the controller through exit so it still tears down
		reason, err := ctrl.Run(ctx)
		if err != nil {
			log.Error("Playback session failed", "reason", reason.String(), "error", err)
			return err
		}
		log.Info("Playback session finished", "reason", reason.String())
		return nil
	})
	g.Go(func() error {
		if err := srv.Wait(context.Background()); err != nil {
			ex.Signal()
			return fmt.Errorf("file server: %w", err)
		}
		return nil
	})
	if ui != nil {
		g.Go(func() error {
			err := ui(gctx, Session{
				Commands:     commands,
				Exit:         ex,
				Names:        names,
				Host:         host.Hostname,
				PollInterval: cfg.Playback.PollInterval,
			})
			ex.Signal()
			if err != nil {
				return fmt.Errorf("user interface: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

// ResolveHost picks the configured host and applies the command line overrides
func ResolveHost(cfg *config.Config, opts Options) (config.Host, error) {
	host, err := cfg.HostFor(opts.HostKey)
	if err != nil {
		return config.Host{}, err
	}
	if opts.Username != "" {
		host.Username = opts.Username
	}
	if opts.Password != "" {
		host.Password = opts.Password
	}
	if opts.ListenPort != nil {
		host.ListenPort = *opts.ListenPort
	}
	if err := host.ResolvePassword(); err != nil {
		// Kodi may not need the password at all
		log.Warn("Could not read password from keyring", "error", err)
	}
	log.Debug("Using host", "key", host.Key, "hostname", host.Hostname, "discovery", host.Discovery)
	return host, nil
}

// Endpoint resolves the host's address and describes both Kodi endpoints
func Endpoint(ctx context.Context, host config.Host, discover bool) (kodi.Endpoint, error) {
	ip, err := discovery.Resolve(ctx, host.Hostname, host.Discovery || discover)
	if err != nil {
		return kodi.Endpoint{}, err
	}
	return kodi.Endpoint{
		Host:     ip.String(),
		HTTPPort: host.Port,
		WSPort:   host.WSPort,
		Username: host.Username,
		Password: host.Password,
	}, nil
}

func checkSources(sources []string) error {
	for _, s := range sources {
		st, err := os.Stat(s)
		if err != nil {
			return fmt.Errorf("source %s: %w", s, err)
		}
		if st.IsDir() {
			return fmt.Errorf("source %s is a directory", s)
		}
	}
	return nil
}

func shutdownServer(srv *media.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, media.ErrNotStarted) {
		log.Debug("Graceful file server shutdown failed, closing", "error", err)
		srv.Stop()
	}
}
