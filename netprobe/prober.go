// Package netprobe finds the IPv4 address this host uses on the LAN.
package netprobe

import (
	"net"
	"net/netip"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const (
	// ProbeTarget is never contacted: connecting a UDP socket only selects a route.
	ProbeTarget = "10.255.255.255:1"

	probeTimeout = time.Second
)

// Loopback is returned whenever the probe fails.
var Loopback = netip.AddrFrom4([4]byte{127, 0, 0, 1})

// DialFunc opens a connectionless socket to address.
type DialFunc func(network, address string) (net.Conn, error)

// Prober implements interfaces.AddressProber with a UDP probe socket.
type Prober struct {
	dial   DialFunc
	target string
	logger log.Logger
}

// NewProber creates a Prober. A nil dial uses net.DialTimeout.
func NewProber(dial DialFunc, logger log.Logger) *Prober {
	if dial == nil {
		dial = func(network, address string) (net.Conn, error) {
			return net.DialTimeout(network, address, probeTimeout)
		}
	}
	return &Prober{
		dial:   dial,
		target: ProbeTarget,
		logger: log.WithPrefix(logger, "component", "Prober"),
	}
}

// DiscoverLocalAddress opens a UDP socket towards ProbeTarget, reads back the
// source address the kernel picked and closes the socket. No packets are sent.
func (p *Prober) DiscoverLocalAddress() netip.Addr {
	conn, err := p.dial("udp4", p.target)
	if err != nil {
		level.Debug(p.logger).Log("msg", "probe dial failed, using loopback", "err", err)
		return Loopback
	}
	defer conn.Close()

	addr, ok := localIPv4(conn.LocalAddr())
	if !ok {
		level.Debug(p.logger).Log("msg", "probe returned no IPv4 address, using loopback", "local_addr", conn.LocalAddr())
		return Loopback
	}
	return addr
}

func localIPv4(a net.Addr) (netip.Addr, bool) {
	if a == nil {
		return netip.Addr{}, false
	}
	var ip net.IP
	switch v := a.(type) {
	case *net.UDPAddr:
		ip = v.IP
	case *net.TCPAddr:
		ip = v.IP
	default:
		ap, err := netip.ParseAddrPort(a.String())
		if err != nil {
			return netip.Addr{}, false
		}
		ip = net.IP(ap.Addr().AsSlice())
	}

	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return netip.Addr{}, false
	}
	addr = addr.Unmap()
	if !addr.Is4() || addr.IsUnspecified() {
		return netip.Addr{}, false
	}
	return addr, true
}
