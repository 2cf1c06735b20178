package common

import (
	"net"
	"os"
	"path/filepath"
	"sync"
)

// --------------------------------------------------------------------------
// Process Identity
// --------------------------------------------------------------------------

// Identity describes the local process. Its fields are stamped into the
// envelope head at client construction and are never interpreted by the
// transport.
type Identity struct {
	Name     string
	PID      int
	IP       string
	Hostname string
}

// IIdentityProvider supplies the identity stamped into outgoing envelopes.
type IIdentityProvider interface {
	Identity() Identity
}

// --------------------------------------------------------------------------
// Default Provider
// --------------------------------------------------------------------------

var (
	localIdentityOnce sync.Once
	localIdentity     Identity
)

// LocalIdentity returns the identity of the current process, computed once
// and cached.
func LocalIdentity() Identity {
	localIdentityOnce.Do(func() {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		localIdentity = Identity{
			Name:     filepath.Base(os.Args[0]),
			PID:      os.Getpid(),
			IP:       localIP(),
			Hostname: hostname,
		}
	})
	return localIdentity
}

// localIdentityProvider implements IIdentityProvider for the current process.
type localIdentityProvider struct{}

func (localIdentityProvider) Identity() Identity { return LocalIdentity() }

// NewLocalIdentityProvider returns a provider backed by LocalIdentity.
func NewLocalIdentityProvider() IIdentityProvider {
	return localIdentityProvider{}
}

// localIP returns the first non-loopback IPv4 address of the host, or the
// loopback address if none is assigned.
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "127.0.0.1"
}
