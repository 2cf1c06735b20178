package resolver

import (
	"net"
	"strconv"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/openpeers/wirecall/rpc/common"
)

var Logger = logger.GetLogger("rpc/resolver")

// --------------------------------------------------------------------------
// Endpoint
// --------------------------------------------------------------------------

// EndpointOrigin records how an endpoint was obtained. Only load-balanced
// endpoints participate in failover.
type EndpointOrigin uint8

const (
	OriginDirect EndpointOrigin = iota
	OriginLoadBalanced
)

// String returns the string representation of an EndpointOrigin.
func (o EndpointOrigin) String() string {
	switch o {
	case OriginDirect:
		return "direct"
	case OriginLoadBalanced:
		return "load-balanced"
	default:
		return "unknown"
	}
}

// Endpoint is a resolved connection target.
type Endpoint struct {
	Host   string
	Port   int
	Origin EndpointOrigin
}

// Addr returns the endpoint as a dialable "host:port" string.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// String renders the endpoint for diagnostics.
func (e Endpoint) String() string {
	return e.Addr() + " (" + e.Origin.String() + ")"
}

// --------------------------------------------------------------------------
// Registry Contract
// --------------------------------------------------------------------------

// IRegistry is the externally-owned load-balancer registry this library
// consumes. Implementations must be safe for concurrent use by multiple
// clients; this library never touches their internal state directly.
type IRegistry interface {
	// Resolve returns the best enabled "host:port" endpoint for the
	// logical server name, excluding endpoints currently marked broken.
	// ok is false if no enabled endpoint exists.
	Resolve(serverName string) (endpoint string, ok bool)

	// MarkBroken reports that endpoint failed to accept a connection and
	// should be excluded from future resolution until reinstated.
	MarkBroken(serverName, endpoint string)
}

// --------------------------------------------------------------------------
// Resolvers
// --------------------------------------------------------------------------

// IResolver yields the target endpoint for one call attempt.
type IResolver interface {
	// Resolve returns the endpoint to connect to. Resolution failures are
	// validation-class errors: no network attempt has been made yet.
	Resolve() (Endpoint, error)

	// MarkBroken reports a connect-phase failure on ep to the registry.
	// It is a no-op for directly addressed targets.
	MarkBroken(ep Endpoint)
}

// NewDirectResolver resolves to the explicitly given host and port on
// every call. There is no failover for direct targets.
func NewDirectResolver(host string, port int) IResolver {
	return &directResolver{host: host, port: port}
}

type directResolver struct {
	host string
	port int
}

func (r *directResolver) Resolve() (Endpoint, error) {
	if r.host == "" {
		return Endpoint{}, common.Errorf(common.ErrValidation, "host must not be empty")
	}
	if r.port <= 0 || r.port > 65535 {
		return Endpoint{}, common.Errorf(common.ErrValidation, "port %d out of range", r.port)
	}
	return Endpoint{Host: r.host, Port: r.port, Origin: OriginDirect}, nil
}

func (r *directResolver) MarkBroken(Endpoint) {}

// NewLBResolver resolves the logical server name through the registry on
// every call, so a retry after MarkBroken yields a different endpoint.
func NewLBResolver(registry IRegistry, serverName string) IResolver {
	return &lbResolver{registry: registry, serverName: serverName}
}

type lbResolver struct {
	registry   IRegistry
	serverName string
}

func (r *lbResolver) Resolve() (Endpoint, error) {
	if r.registry == nil {
		return Endpoint{}, common.Errorf(common.ErrValidation, "no load-balancer registry configured")
	}
	if r.serverName == "" {
		return Endpoint{}, common.Errorf(common.ErrValidation, "server name must not be empty")
	}

	addr, ok := r.registry.Resolve(r.serverName)
	if !ok {
		return Endpoint{}, common.Errorf(common.ErrValidation,
			"no enabled endpoint registered for server %q", r.serverName)
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return Endpoint{}, common.WrapError(common.ErrValidation, err,
			"registry returned malformed endpoint %q for server %q", addr, r.serverName)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return Endpoint{}, common.Errorf(common.ErrValidation,
			"registry returned invalid port in endpoint %q for server %q", addr, r.serverName)
	}

	return Endpoint{Host: host, Port: port, Origin: OriginLoadBalanced}, nil
}

func (r *lbResolver) MarkBroken(ep Endpoint) {
	Logger.Warningf("marking endpoint %s broken for server %q", ep.Addr(), r.serverName)
	r.registry.MarkBroken(r.serverName, ep.Addr())
}
