package transport

// Capabilities describes what a transport guarantees to the bridge.
type Capabilities struct {
	// Name is the registry name of the transport.
	Name string

	// SupportsOrdering indicates messages on one topic arrive in publish order.
	SupportsOrdering bool

	// SupportsAck indicates the transport supports explicit acknowledgment.
	SupportsAck bool

	// SupportsNack indicates a nacked message is redelivered.
	SupportsNack bool

	// CrossProcess is true when both ends may live in different processes.
	CrossProcess bool

	// MaxMessageSize is the maximum message size in bytes (0 = unlimited).
	MaxMessageSize int64
}

// SupportsReliableDelivery reports at-least-once semantics (ack + nack).
func (c Capabilities) SupportsReliableDelivery() bool {
	return c.SupportsAck && c.SupportsNack
}

// ChannelCapabilities describes the in-process Go channel transport.
var ChannelCapabilities = Capabilities{
	Name:             "channel",
	SupportsOrdering: true,
	SupportsAck:      true,
	SupportsNack:     true,
}

// GetCapabilities returns the capabilities registered for transportName, or a
// zero value carrying only the name when it is unknown.
func GetCapabilities(transportName string) Capabilities {
	return DefaultRegistry.GetCapabilities(transportName)
}
