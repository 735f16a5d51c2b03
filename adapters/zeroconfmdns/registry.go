// Package zeroconfmdns publishes DNS-SD records with github.com/grandcat/zeroconf.
package zeroconfmdns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"sihayifrontend/domain"
	"sihayifrontend/interfaces"
	"sihayifrontend/service"

	"github.com/grandcat/zeroconf"
	"github.com/miekg/dns"
	"golang.org/x/net/ipv4"
)

// mdnsGroup is the IPv4 mDNS multicast group.
var mdnsGroup = &net.UDPAddr{IP: net.IPv4(224, 0, 0, 251), Port: 5353}

// maxMessageSize bounds one mDNS response (jumbo frame payload).
const maxMessageSize = 9000

type registry struct {
	ifaces []net.Interface
	group  *net.UDPAddr
}

// NewRegistry creates the zeroconf implementation of interfaces.ServiceRegistry.
// Nil ifaces means every multicast-capable interface.
func NewRegistry(ifaces []net.Interface) interfaces.ServiceRegistry {
	return &registry{ifaces: ifaces, group: mdnsGroup}
}

// registerDomain is the domain without dots. zeroconf compares the host name
// suffix against the domain as given, so "local." would make it append the
// domain a second time ("sihayi.local.local.").
func registerDomain(record domain.ServiceRecord) string {
	return strings.Trim(record.Domain, ".")
}

// InstanceExists browses for record's exact instance name until ctx expires.
func (r *registry) InstanceExists(ctx context.Context, record domain.ServiceRecord) (bool, error) {
	resolver, err := zeroconf.NewResolver(zeroconf.SelectIfaces(r.ifaces))
	if err != nil {
		return false, service.NewInternalServerError("mDNS resolver error", fmt.Errorf("can't create resolver, err: %w", err))
	}

	lookupCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 4)
	if err := resolver.Lookup(lookupCtx, record.InstanceName, record.ServiceType, registerDomain(record), entries); err != nil {
		return false, service.NewInternalServerError("mDNS lookup error", fmt.Errorf("can't look up %q, err: %w", record.FQDN(), err))
	}

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return false, nil
			}
			if entry != nil && entry.Instance == record.InstanceName {
				return true, nil
			}
		case <-lookupCtx.Done():
			return false, nil
		}
	}
}

// HostExists sends one A query for record's host alias and waits for an answer until ctx expires.
func (r *registry) HostExists(ctx context.Context, record domain.ServiceRecord) (bool, error) {
	host := dns.Fqdn(record.HostAlias)
	query, err := hostQuery(host).Pack()
	if err != nil {
		return false, service.NewBadParameterError("invalid host alias", fmt.Errorf("can't pack query for %q, err: %w", host, err))
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	if err != nil {
		return false, service.NewInternalServerError("mDNS query error", fmt.Errorf("can't open query socket, err: %w", err))
	}
	defer conn.Close()

	if err := r.send(conn, query); err != nil {
		return false, service.NewInternalServerError("mDNS query error", fmt.Errorf("can't send query for %q, err: %w", host, err))
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetReadDeadline(time.Now()) })
	defer stop()

	buf := make([]byte, maxMessageSize)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, os.ErrDeadlineExceeded) {
				return false, nil
			}
			return false, service.NewInternalServerError("mDNS query error", fmt.Errorf("can't read answer for %q, err: %w", host, err))
		}
		var msg dns.Msg
		if err := msg.Unpack(buf[:n]); err != nil {
			continue
		}
		if answersHost(&msg, host) {
			return true, nil
		}
	}
}

// send writes query to the group once per configured interface, or on the default route.
func (r *registry) send(conn *net.UDPConn, query []byte) error {
	if len(r.ifaces) == 0 {
		_, err := conn.WriteToUDP(query, r.group)
		return err
	}

	pc := ipv4.NewPacketConn(conn)
	var errs []error
	sent := false
	for i := range r.ifaces {
		if err := pc.SetMulticastInterface(&r.ifaces[i]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.ifaces[i].Name, err))
			continue
		}
		if _, err := conn.WriteToUDP(query, r.group); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.ifaces[i].Name, err))
			continue
		}
		sent = true
	}
	if sent {
		return nil
	}
	return errors.Join(errs...)
}

// hostQuery asks for host's A record with the unicast-response bit set,
// so responders answer the ephemeral port directly.
func hostQuery(host string) *dns.Msg {
	m := new(dns.Msg)
	m.SetQuestion(host, dns.TypeA)
	m.RecursionDesired = false
	m.Question[0].Qclass |= 1 << 15
	return m
}

func answersHost(msg *dns.Msg, host string) bool {
	if !msg.Response {
		return false
	}
	for _, section := range [][]dns.RR{msg.Answer, msg.Extra} {
		for _, rr := range section {
			if a, ok := rr.(*dns.A); ok && strings.EqualFold(a.Hdr.Name, host) {
				return true
			}
		}
	}
	return false
}

// Publish registers record as a proxy for its host alias and IPv4 address.
func (r *registry) Publish(record domain.ServiceRecord) (interfaces.Publication, error) {
	server, err := zeroconf.RegisterProxy(
		record.InstanceName,
		record.ServiceType,
		registerDomain(record),
		record.Port,
		record.HostAlias,
		[]string{record.Address.String()},
		record.TXT(),
		r.ifaces,
	)
	if err != nil {
		return nil, service.NewInternalServerError("mDNS register error", fmt.Errorf("can't register %q, err: %w", record.FQDN(), err))
	}
	return server, nil
}
