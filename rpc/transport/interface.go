package transport

// IExchangeTransport is the interface for the one-shot client transport.
// One call is exactly one connection carrying exactly one request/response
// exchange; the connection is closed when Exchange returns.
type IExchangeTransport interface {
	// Exchange connects to the endpoint, writes the request body as one
	// length-prefixed frame, reads exactly one response frame and returns
	// its body. Failures are classified common.Error values: connect-phase
	// failures, I/O timeouts and protocol errors are distinct kinds.
	Exchange(endpoint string, body []byte) (resp []byte, err error)
}
