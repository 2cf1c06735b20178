package unix

import (
	"net"
	"time"

	"github.com/openpeers/wirecall/rpc/common"
	"github.com/openpeers/wirecall/rpc/transport"
	"github.com/openpeers/wirecall/rpc/transport/base"
)

// clientConnector implements the IClientConnector interface for Unix domain sockets
type clientConnector struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "unix"
}

func (c *clientConnector) Connect(endpoint string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", endpoint, timeout)
}

// UpgradeConnection applies socket buffer settings to a Unix socket connection
func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return nil // Not a Unix socket, nothing to upgrade
	}

	if config.Socket.WriteBufferSize > 0 {
		if err := unixConn.SetWriteBuffer(config.Socket.WriteBufferSize); err != nil {
			return err
		}
	}

	if config.Socket.ReadBufferSize > 0 {
		if err := unixConn.SetReadBuffer(config.Socket.ReadBufferSize); err != nil {
			return err
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// NewUnixExchangeTransport creates a new one-shot Unix socket exchange transport
func NewUnixExchangeTransport(config common.ClientConfig) transport.IExchangeTransport {
	return base.NewBaseExchangeTransport(&clientConnector{}, config)
}
