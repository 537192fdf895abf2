package kodi

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/PizzaHomicide/kodicast/internal/log"
)

// maxProbeBody bounds how much of the (schema sized) probe reply is kept
const maxProbeBody = 8 << 20

// ProbeResult is the outcome of a successful probe
type ProbeResult struct {
	// LocalAddr is the address of this machine on the route towards Kodi.  It is the address Kodi can reach back to.
	LocalAddr net.IP
	Body      []byte
}

// Probe performs one GET against Kodi's HTTP JSON-RPC endpoint.  Besides checking that Kodi is reachable it
// learns which local address was used for the connection.
func Probe(ctx context.Context, ep Endpoint) (ProbeResult, error) {
	url := ep.HTTPURL()

	var (
		mu    sync.Mutex
		local net.Addr
	)
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	client := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				conn, err := dialer.DialContext(ctx, network, addr)
				if err != nil {
					return nil, err
				}
				mu.Lock()
				local = conn.LocalAddr()
				mu.Unlock()
				return conn, nil
			},
			DisableKeepAlives: true,
		},
	}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("building probe request: %w", err)
	}
	req.Header = ep.header()
	req.Header.Set("Accept", "application/json")

	log.Debug("Probing kodi", "url", url)
	resp, err := client.Do(req)
	if err != nil {
		return ProbeResult{}, &ConnectError{Endpoint: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ProbeResult{}, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return ProbeResult{}, fmt.Errorf("reading probe reply: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	tcp, ok := local.(*net.TCPAddr)
	if !ok {
		return ProbeResult{}, fmt.Errorf("cannot determine local address used towards %s", url)
	}

	log.Info("Kodi probe succeeded", "url", url, "local_addr", tcp.IP.String())
	return ProbeResult{LocalAddr: tcp.IP, Body: body}, nil
}
