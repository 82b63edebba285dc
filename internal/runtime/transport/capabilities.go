// Package transport adapts the transport registry to the runtime config.
// Implementations live in github.com/drblury/hostbridge/transport/*.
package transport

import (
	newtransport "github.com/drblury/hostbridge/transport"
)

// Capabilities is an alias for the modular transport Capabilities.
type Capabilities = newtransport.Capabilities

// ChannelCapabilities describes the in-process transport.
var ChannelCapabilities = newtransport.ChannelCapabilities

// GetCapabilities returns the capabilities for a transport by name.
func GetCapabilities(transportName string) Capabilities {
	return newtransport.GetCapabilities(transportName)
}
