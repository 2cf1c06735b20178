package tcp

import (
	"net"
	"time"

	"github.com/openpeers/wirecall/rpc/common"
	"github.com/openpeers/wirecall/rpc/transport"
	"github.com/openpeers/wirecall/rpc/transport/base"
)

// clientConnector implements the IClientConnector interface for TCP sockets
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "tcp"
}

func (c *clientConnector) Connect(endpoint string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", endpoint, timeout)
}

// UpgradeConnection applies performance settings to a TCP connection
// using configuration values from TCPConf and SocketConf
func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to upgrade
	}

	// Disable Nagle's algorithm (TCPNoDelay) if configured
	if err := tcpConn.SetNoDelay(config.TCP.TCPNoDelay); err != nil {
		return err
	}

	// Set socket write buffer size if configured
	if config.Socket.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(config.Socket.WriteBufferSize); err != nil {
			return err
		}
	}

	// Set socket read buffer size if configured
	if config.Socket.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(config.Socket.ReadBufferSize); err != nil {
			return err
		}
	}

	// Enable TCP keep-alive if configured
	if config.TCP.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(time.Duration(config.TCP.TCPKeepAliveSec) * time.Second); err != nil {
			return err
		}
	}

	// Set linger time if configured
	if config.TCP.TCPLingerSec > 0 {
		if err := tcpConn.SetLinger(config.TCP.TCPLingerSec); err != nil {
			return err
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// NewTCPExchangeTransport creates a new one-shot TCP exchange transport
func NewTCPExchangeTransport(config common.ClientConfig) transport.IExchangeTransport {
	return base.NewBaseExchangeTransport(&clientConnector{}, config)
}
