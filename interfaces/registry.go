package interfaces

import (
	"context"

	"sihayifrontend/domain"
)

// ServiceRegistry publishes DNS-SD records on the local network.
//
//go:generate moq -stub -out mock/registry.go -pkg mock . ServiceRegistry Publication
type ServiceRegistry interface {
	// InstanceExists reports whether another host already answers for record's instance name.
	// Returns:
	// 1) (true, nil) when a matching instance responded before ctx expired;
	// 2) (false, nil) when nothing answered;
	// 3) (false, err) when the probe could not be sent.
	InstanceExists(ctx context.Context, record domain.ServiceRecord) (bool, error)

	// HostExists reports whether another host already answers an A query for record's host alias.
	// Same result contract as InstanceExists.
	HostExists(ctx context.Context, record domain.ServiceRecord) (bool, error)

	// Publish starts answering for record until the returned Publication is shut down.
	Publish(record domain.ServiceRecord) (Publication, error)
}

// Publication is a live advertisement.
type Publication interface {
	// Shutdown retracts the advertisement (goodbye packets) and releases its sockets.
	Shutdown()
}
