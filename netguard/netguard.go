// Package netguard keeps readstyle from being pointed at the network it runs
// on: page URLs handed to the renderer must be public http(s) targets, and
// request bodies are read with a cap.
package netguard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"net/url"
	"strings"
)

// MaxBody caps request bodies read by the HTTP surface (HTML uploads,
// settings imports).
const MaxBody int64 = 4 << 20

var (
	ErrScheme   = errors.New("netguard: only http and https URLs are allowed")
	ErrNoHost   = errors.New("netguard: URL has no host")
	ErrPrivate  = errors.New("netguard: URL targets a private, loopback or link-local address")
	ErrTooLarge = errors.New("netguard: body too large")
)

// Resolver looks up host addresses. *net.Resolver satisfies it.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// CheckURL rejects non-http(s) URLs and URLs whose host is, or resolves to,
// a non-public address. Lookup failures pass: the fetch itself will fail.
func CheckURL(ctx context.Context, r Resolver, rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("netguard: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return ErrScheme
	}
	host := u.Hostname()
	if host == "" {
		return ErrNoHost
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		if !Public(addr) {
			return ErrPrivate
		}
		return nil
	}
	if r == nil {
		r = net.DefaultResolver
	}
	addrs, err := r.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil
	}
	for _, a := range addrs {
		if !Public(a) {
			return fmt.Errorf("%w: %s -> %s", ErrPrivate, host, a)
		}
	}
	return nil
}

// Public reports whether addr is a globally routable unicast address.
func Public(addr netip.Addr) bool {
	addr = addr.Unmap()
	switch {
	case !addr.IsValid(),
		addr.IsUnspecified(),
		addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast():
		return false
	}
	return true
}

// ReadAll reads r up to max bytes and fails with ErrTooLarge past that.
func ReadAll(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrTooLarge, max)
	}
	return data, nil
}
