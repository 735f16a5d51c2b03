package interfaces

import "net/netip"

// AddressProber finds the address this host uses to reach the LAN.
//
//go:generate moq -stub -out mock/prober.go -pkg mock . AddressProber
type AddressProber interface {
	// DiscoverLocalAddress never fails; it falls back to 127.0.0.1.
	DiscoverLocalAddress() netip.Addr
}
