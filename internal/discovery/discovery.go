// Package discovery finds Kodi instances on the local network through mDNS and resolves host names to addresses.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/PizzaHomicide/kodicast/internal/log"
	"github.com/hashicorp/mdns"
)

const (
	// Service is the mDNS service Kodi announces for its HTTP JSON-RPC endpoint
	Service = "_xbmc-jsonrpc-h._tcp"
	Domain  = "local"

	DefaultTimeout = 5 * time.Second
)

// ErrNotFound is returned when no announcement matched within the timeout
var ErrNotFound = errors.New("kodi host not found")

// queryContext is replaced in tests
var queryContext = mdns.QueryContext

// Host is one Kodi instance seen on the network
type Host struct {
	// Instance is the announced service instance name, usually the Kodi device name
	Instance string
	// Hostname is the announced host, without the trailing dot
	Hostname string
	Addr     net.IP
	// Port of the HTTP JSON-RPC endpoint
	Port int
}

func (h Host) String() string {
	return fmt.Sprintf("%s (%s) %s", h.Instance, h.Hostname, net.JoinHostPort(h.Addr.String(), fmt.Sprint(h.Port)))
}

// Browse lists every Kodi instance that answers within timeout
func Browse(ctx context.Context, timeout time.Duration) ([]Host, error) {
	seen := map[string]Host{}
	err := query(ctx, timeout, func(h Host) bool {
		if _, ok := seen[h.Instance]; !ok {
			log.Info("Discovered Kodi", "instance", h.Instance, "host", h.Hostname, "addr", h.Addr.String())
			seen[h.Instance] = h
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	hosts := make([]Host, 0, len(seen))
	for _, h := range seen {
		hosts = append(hosts, h)
	}
	sort.Slice(hosts, func(i, j int) bool { return hosts[i].Instance < hosts[j].Instance })
	return hosts, nil
}

// Lookup returns the first announcement whose host or instance name matches name.  ".local" and a trailing dot are
// ignored on both sides.
func Lookup(ctx context.Context, name string, timeout time.Duration) (Host, error) {
	log.Info("Looking up Kodi through mDNS", "name", name)
	want := normalize(name)

	var found *Host
	err := query(ctx, timeout, func(h Host) bool {
		if normalize(h.Hostname) == want || normalize(h.Instance) == want {
			found = &h
			return true
		}
		return false
	})
	if err != nil {
		return Host{}, err
	}
	if found == nil {
		log.Info("No mDNS announcement matched", "name", name)
		return Host{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	log.Info("Found Kodi through mDNS", "name", name, "addr", found.Addr.String())
	return *found, nil
}

// Resolve turns a host name into an address.  IP literals are returned as is.  With useMDNS the local network is
// asked first and DNS is the fallback.
func Resolve(ctx context.Context, name string, useMDNS bool) (net.IP, error) {
	if ip := net.ParseIP(name); ip != nil {
		return ip, nil
	}

	if useMDNS {
		h, err := Lookup(ctx, name, DefaultTimeout)
		if err == nil {
			return h.Addr, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("mDNS lookup failed, falling back to DNS", "name", name, "error", err)
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", name, err)
	}
	ip := preferIPv4(addrs)
	if ip == nil {
		return nil, fmt.Errorf("resolving %s: no addresses", name)
	}
	return ip, nil
}

// query runs one mDNS query, handing every usable answer to fn until fn returns true
func query(parent context.Context, timeout time.Duration, fn func(Host) bool) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	entries := make(chan *mdns.ServiceEntry, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		stopped := false
		for e := range entries {
			if stopped {
				continue
			}
			h, ok := hostFromEntry(e)
			if !ok {
				continue
			}
			if fn(h) {
				stopped = true
				cancel()
			}
		}
	}()

	params := mdns.DefaultParams(Service)
	params.Domain = Domain
	params.Timeout = timeout
	params.Entries = entries
	params.DisableIPv6 = true
	err := queryContext(ctx, params)
	close(entries)
	<-done

	if parent.Err() != nil {
		return parent.Err()
	}
	// Reaching the timeout or stopping early is the normal end of a query
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("mdns query: %w", err)
	}
	return nil
}

func hostFromEntry(e *mdns.ServiceEntry) (Host, bool) {
	if e == nil {
		return Host{}, false
	}
	addr := e.AddrV4
	if addr == nil {
		addr = e.AddrV6
	}
	if addr == nil {
		return Host{}, false
	}
	return Host{
		Instance: instanceName(e.Name),
		Hostname: strings.TrimSuffix(e.Host, "."),
		Addr:     addr,
		Port:     e.Port,
	}, true
}

// instanceName strips the service and domain from a full service instance name
func instanceName(full string) string {
	full = strings.TrimSuffix(full, ".")
	name := strings.TrimSuffix(full, "."+Service+"."+Domain)
	return strings.ReplaceAll(name, `\ `, " ")
}

func normalize(name string) string {
	name = strings.ToLower(strings.TrimSuffix(name, "."))
	return strings.TrimSuffix(name, "."+Domain)
}

func preferIPv4(addrs []net.IPAddr) net.IP {
	for _, a := range addrs {
		if v4 := a.IP.To4(); v4 != nil {
			return v4
		}
	}
	if len(addrs) == 0 {
		return nil
	}
	return addrs[0].IP
}
