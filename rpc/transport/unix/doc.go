// Package unix implements the Unix domain socket connector for the
// one-shot exchange transport. It is useful when client and peer run on
// the same host and the TCP stack is unnecessary overhead.
//
// The connector inherits all phase deadlines, framing and error
// classification from the base package; only the dial target differs (the
// endpoint is a filesystem path instead of host:port).
package unix
