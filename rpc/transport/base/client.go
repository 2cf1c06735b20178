package base

import (
	"net"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/openpeers/wirecall/rpc/common"
	"github.com/openpeers/wirecall/rpc/transport"
)

var Logger = logger.GetLogger("rpc/transport")

var (
	metricExchanges     = metrics.GetOrCreateCounter(`wirecall_transport_exchanges_total`)
	metricConnectErrors = metrics.GetOrCreateCounter(`wirecall_transport_connect_errors_total`)
	metricBytesSent     = metrics.GetOrCreateCounter(`wirecall_transport_bytes_sent_total`)
	metricBytesReceived = metrics.GetOrCreateCounter(`wirecall_transport_bytes_received_total`)
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint, giving up
	// after the timeout elapses
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Exchange Transport
// -----------------------------------------------------------

// exchangeTransport implements the one-shot exchange sequencing
// independent of the specific transport medium (unix, tcp, etc.).
//
// Every Exchange call runs the phase machine
//
//	Connecting -> Writing -> Reading -> Done
//
// and is terminal on the first failure. Each phase has its own deadline:
// the connect timeout is intentionally short and separate from the I/O
// timeout, so an unreachable endpoint fails fast while a slow-but-alive
// peer gets the full I/O budget for the data itself.
type exchangeTransport struct {
	connector IClientConnector
	config    common.ClientConfig
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseExchangeTransport creates an exchange transport with the specified connector
func NewBaseExchangeTransport(connector IClientConnector, config common.ClientConfig) transport.IExchangeTransport {
	return &exchangeTransport{
		connector: connector,
		config:    config.WithDefaults(),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IExchangeTransport)
// --------------------------------------------------------------------------

func (t *exchangeTransport) Exchange(endpoint string, body []byte) ([]byte, error) {
	start := time.Now()
	metricExchanges.Inc()

	// Connecting: the connector owns the dial, bounded by ConnectTimeout.
	conn, err := t.connector.Connect(endpoint, t.config.ConnectTimeout)
	if err != nil {
		metricConnectErrors.Inc()
		return nil, common.WrapError(common.ErrConnect, err,
			"could not connect to %s within %s", endpoint, t.config.ConnectTimeout)
	}
	// Closing the connection from outside is the only cancellation
	// mechanism; every blocked phase observes it as an immediate failure.
	defer conn.Close()

	if err := t.connector.UpgradeConnection(conn, t.config); err != nil {
		metricConnectErrors.Inc()
		return nil, common.WrapError(common.ErrConnect, err, "could not upgrade connection to %s", endpoint)
	}

	// Writing: its own deadline, independent of the connect phase.
	if err := conn.SetWriteDeadline(time.Now().Add(t.config.IOTimeout)); err != nil {
		return nil, common.WrapError(common.ErrIOTimeout, err, "could not arm write deadline")
	}
	if err := writeFrame(conn, body); err != nil {
		return nil, classifyIOError(err, "write", endpoint)
	}
	metricBytesSent.Add(frameHeaderSize + len(body))

	// Reading: a fresh deadline for the response.
	if err := conn.SetReadDeadline(time.Now().Add(t.config.IOTimeout)); err != nil {
		return nil, common.WrapError(common.ErrIOTimeout, err, "could not arm read deadline")
	}
	resp, err := readFrame(conn, t.config.MaxFrameSize)
	if err != nil {
		return nil, err
	}
	metricBytesReceived.Add(frameHeaderSize + len(resp))

	Logger.Debugf("exchange with %s via %s done: %d bytes out, %d bytes in, took %s",
		endpoint, t.connector.GetName(), frameHeaderSize+len(body), frameHeaderSize+len(resp), time.Since(start))

	return resp, nil
}
