package domain

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sort"
	"strconv"
	"strings"
)

// Defaults advertised by the LAN variant.
const (
	DefaultServiceType  = "_http._tcp"
	DefaultDomain       = "local."
	DefaultInstanceName = "SihayiExpress Frontend"
	DefaultHostAlias    = "sihayi.local."

	// BindAllAddress is the address the static listener binds to.
	BindAllAddress = "0.0.0.0"
)

// ServiceRecord is the DNS-SD record published for the frontend.
// Fields match the advertisement: service type, instance name, domain, host alias, IPv4, port, TXT properties.
type ServiceRecord struct {
	ServiceType  string
	InstanceName string
	Domain       string
	HostAlias    string
	Address      netip.Addr // IPv4 address
	Port         int
	Properties   map[string]string
}

// NewServiceRecord returns the default frontend record for address and port.
func NewServiceRecord(address netip.Addr, port int) ServiceRecord {
	return ServiceRecord{
		ServiceType:  DefaultServiceType,
		InstanceName: DefaultInstanceName,
		Domain:       DefaultDomain,
		HostAlias:    DefaultHostAlias,
		Address:      address,
		Port:         port,
		Properties:   map[string]string{"path": "/"},
	}
}

// Validate checks that the record can be published.
func (r ServiceRecord) Validate() error {
	var errs []error
	if strings.TrimSpace(r.ServiceType) == "" {
		errs = append(errs, errors.New("service type is required"))
	}
	if strings.TrimSpace(r.InstanceName) == "" {
		errs = append(errs, errors.New("instance name is required"))
	}
	if strings.TrimSpace(r.Domain) == "" {
		errs = append(errs, errors.New("domain is required"))
	}
	if strings.TrimSpace(r.HostAlias) == "" {
		errs = append(errs, errors.New("host alias is required"))
	}
	if !r.Address.IsValid() || !r.Address.Is4() {
		errs = append(errs, fmt.Errorf("address %q is not IPv4", r.Address))
	}
	if r.Port <= 0 || r.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be 1-65535, got %d", r.Port))
	}
	return errors.Join(errs...)
}

// TXT renders Properties as sorted key=value strings.
func (r ServiceRecord) TXT() []string {
	keys := make([]string, 0, len(r.Properties))
	for k := range r.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	txt := make([]string, 0, len(keys))
	for _, k := range keys {
		txt = append(txt, k+"="+r.Properties[k])
	}
	return txt
}

// FQDN returns the full DNS-SD instance name, e.g. "SihayiExpress Frontend._http._tcp.local.".
func (r ServiceRecord) FQDN() string {
	return fmt.Sprintf("%s.%s.%s.", r.InstanceName, trimDot(r.ServiceType), trimDot(r.Domain))
}

// WithConflictSuffix returns a copy renamed for the n-th registration attempt.
// Attempt 1 keeps the original names; attempt n>1 yields "<name> (n)" and "<host>-n.<domain>.".
func (r ServiceRecord) WithConflictSuffix(attempt int) ServiceRecord {
	if attempt <= 1 {
		return r
	}
	out := r
	out.InstanceName = fmt.Sprintf("%s (%d)", r.InstanceName, attempt)

	host := trimDot(r.HostAlias)
	suffix := "." + trimDot(r.Domain)
	host = strings.TrimSuffix(host, suffix)
	out.HostAlias = host + "-" + strconv.Itoa(attempt) + suffix + "."
	return out
}

// URL returns the http URL clients can use to reach the record's host alias.
func (r ServiceRecord) URL() string {
	host := trimDot(r.HostAlias)
	if r.Port != 80 {
		host = net.JoinHostPort(host, strconv.Itoa(r.Port))
	}
	return "http://" + host + "/"
}

// ListenerState is the immutable description of the static listener.
type ListenerState struct {
	BoundAddress  string
	Port          int
	RootDirectory string // absolute path, directory of the running executable
}

// NewListenerState binds to all interfaces.
func NewListenerState(port int, root string) ListenerState {
	return ListenerState{
		BoundAddress:  BindAllAddress,
		Port:          port,
		RootDirectory: root,
	}
}

// Addr returns host:port suitable for net.Listen.
func (l ListenerState) Addr() string {
	return net.JoinHostPort(l.BoundAddress, strconv.Itoa(l.Port))
}

func trimDot(s string) string {
	return strings.Trim(s, ".")
}
