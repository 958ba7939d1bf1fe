// Package rdns resolves display hostnames for incoming connections.
package rdns

import (
	"context"
	"net"
	"time"

	"github.com/rs/zerolog"
)

const lookupTimeout = 4 * time.Second

// Resolve finds the display hostname for a peer address by reverse
// lookup with forward confirmation: a PTR name is only trusted when one
// of its own addresses maps back to the peer IP. Resolution is best
// effort and falls back to the literal IP, it never fails.
func Resolve(ctx context.Context, logger *zerolog.Logger, remote net.Addr) string {
	ip := peerIP(remote)
	if ip == nil {
		return remote.String()
	}
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	names, err := net.DefaultResolver.LookupAddr(ctx, ip.String())
	if err != nil || len(names) == 0 {
		return ip.String()
	}
	name := trimDot(names[0])
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, name)
	if err != nil {
		logger.Debug().Str("host", name).Err(err).Msg("rdns forward confirmation failed")
		return ip.String()
	}
	for _, a := range addrs {
		if a.IP.Equal(ip) {
			return name
		}
	}
	logger.Debug().Str("host", name).Str("ip", ip.String()).Msg("rdns forward mismatch")
	return ip.String()
}

func peerIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return a.IP
	case *net.IPAddr:
		return a.IP
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil
	}
	return net.ParseIP(host)
}

func trimDot(name string) string {
	if len(name) > 0 && name[len(name)-1] == '.' {
		return name[:len(name)-1]
	}
	return name
}
