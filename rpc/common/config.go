package common

import (
	"fmt"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Default Limits
// --------------------------------------------------------------------------

const (
	// DefaultConnectTimeout is deliberately short: an unreachable endpoint
	// should fail fast so the failover policy can act.
	DefaultConnectTimeout = 1 * time.Second

	// DefaultIOTimeout bounds the write and the read phase independently.
	DefaultIOTimeout = 5 * time.Second

	// DefaultMaxFrameSize caps the declared length of an incoming frame
	// before any buffer is allocated for it.
	DefaultMaxFrameSize = 16 * 1024 * 1024

	// DefaultMaxSectionEntries caps the declared entry count of a head or
	// data section before any allocation.
	DefaultMaxSectionEntries = 65536
)

// --------------------------------------------------------------------------
// Socket Tuning
// --------------------------------------------------------------------------

// SocketConf holds socket buffer settings shared by all stream transports.
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP-specific connection settings.
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// --------------------------------------------------------------------------
// Client Configuration
// --------------------------------------------------------------------------

// ClientConfig holds all configuration parameters for outbound calls.
type ClientConfig struct {
	// ConnectTimeout bounds the connect phase only.
	ConnectTimeout time.Duration
	// IOTimeout bounds the write phase and the read phase, each
	// independently.
	IOTimeout time.Duration

	// Frame limits enforced before allocating for an incoming message.
	MaxFrameSize      int
	MaxSectionEntries int

	// Socket tuning applied to every new connection.
	Socket SocketConf
	TCP    TCPConf
}

// DefaultClientConfig returns a configuration with all defaults applied.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		ConnectTimeout:    DefaultConnectTimeout,
		IOTimeout:         DefaultIOTimeout,
		MaxFrameSize:      DefaultMaxFrameSize,
		MaxSectionEntries: DefaultMaxSectionEntries,
		TCP:               TCPConf{TCPNoDelay: true},
	}
}

// WithDefaults returns a copy of the config with zero fields replaced by
// their defaults.
func (c ClientConfig) WithDefaults() ClientConfig {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.IOTimeout <= 0 {
		c.IOTimeout = DefaultIOTimeout
	}
	if c.MaxFrameSize <= 0 {
		c.MaxFrameSize = DefaultMaxFrameSize
	}
	if c.MaxSectionEntries <= 0 {
		c.MaxSectionEntries = DefaultMaxSectionEntries
	}
	return c
}

// String returns a formatted string representation of the configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Timeouts")
	addField("Connect Timeout", c.ConnectTimeout.String())
	addField("I/O Timeout", c.IOTimeout.String())

	addSection("Frame Limits")
	addField("Max Frame Size", fmt.Sprintf("%d bytes", c.MaxFrameSize))
	addField("Max Section Entries", fmt.Sprintf("%d", c.MaxSectionEntries))

	addSection("Socket")
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Socket.WriteBufferSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Socket.ReadBufferSize))
	addField("TCP NoDelay", fmt.Sprintf("%t", c.TCP.TCPNoDelay))
	addField("TCP KeepAlive", fmt.Sprintf("%d sec", c.TCP.TCPKeepAliveSec))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.TCP.TCPLingerSec))

	return sb.String()
}
