package metadata

// Reserved header keys carried on bridge messages.
const (
	// KeyChannel names the inbound channel a host push belongs to.
	KeyChannel = "bridge_channel"

	// KeyCommand names the outbound command carried by a message.
	KeyCommand = "bridge_command"

	// KeyCorrelationID tracks the pending request a message relates to.
	KeyCorrelationID = "correlation_id"
)

// Metadata represents the headers carried alongside a bridge message.
type Metadata map[string]string

func (m Metadata) cloneWithExtra(extra int) Metadata {
	size := len(m) + extra
	if size <= 0 {
		return Metadata{}
	}

	cloned := make(Metadata, size)
	for k, v := range m {
		cloned[k] = v
	}
	return cloned
}

// Clone returns a shallow copy of the metadata map.
func (m Metadata) Clone() Metadata {
	return m.cloneWithExtra(0)
}

// With returns a cloned metadata map containing the provided key/value pair.
func (m Metadata) With(key, value string) Metadata {
	cloned := m.cloneWithExtra(1)
	cloned[key] = value
	return cloned
}

// WithAll returns a cloned metadata map containing the supplied entries.
func (m Metadata) WithAll(entries Metadata) Metadata {
	cloned := m.cloneWithExtra(len(entries))
	for k, v := range entries {
		cloned[k] = v
	}
	return cloned
}

func (m Metadata) Channel() string       { return m[KeyChannel] }
func (m Metadata) Command() string       { return m[KeyCommand] }
func (m Metadata) CorrelationID() string { return m[KeyCorrelationID] }

// New constructs a Metadata map from alternating key/value pairs.
func New(pairs ...string) Metadata {
	md := make(Metadata, len(pairs)/2)
	for i := 0; i < len(pairs)-1; i += 2 {
		md[pairs[i]] = pairs[i+1]
	}
	return md
}
