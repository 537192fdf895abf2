package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/PizzaHomicide/kodicast/internal/config"
	"github.com/PizzaHomicide/kodicast/internal/kodi"
	"github.com/PizzaHomicide/kodicast/internal/log"
)

// Diagnostics is a snapshot of what Kodi reports about its players
type Diagnostics struct {
	Endpoint      kodi.Endpoint
	LocalAddr     string
	Players       []kodi.PlayerInfo
	ActivePlayers []kodi.ActivePlayer
	// Schema is only filled when requested, it is large
	Schema json.RawMessage
}

// Diagnose connects to the selected host and collects player information without changing anything on Kodi
func Diagnose(ctx context.Context, cfg *config.Config, opts Options, withSchema bool) (Diagnostics, error) {
	host, err := ResolveHost(cfg, opts)
	if err != nil {
		return Diagnostics{}, err
	}
	ep, err := Endpoint(ctx, host, opts.Discover)
	if err != nil {
		return Diagnostics{}, err
	}

	probe, err := kodi.Probe(ctx, ep)
	if err != nil {
		return Diagnostics{}, fmt.Errorf("kodi is not reachable: %w", err)
	}

	session, err := kodi.Connect(ctx, ep)
	if err != nil {
		return Diagnostics{}, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Debug("Closing kodi session failed", "error", err)
		}
	}()

	d := Diagnostics{Endpoint: ep, LocalAddr: probe.LocalAddr.String()}
	if d.Players, err = session.PlayerGetPlayers(ctx); err != nil {
		return d, fmt.Errorf("listing players: %w", err)
	}
	if d.ActivePlayers, err = session.PlayerGetActivePlayers(ctx); err != nil {
		return d, fmt.Errorf("listing active players: %w", err)
	}
	if withSchema {
		if d.Schema, err = session.Introspect(ctx); err != nil {
			return d, fmt.Errorf("introspecting: %w", err)
		}
	}
	return d, nil
}
