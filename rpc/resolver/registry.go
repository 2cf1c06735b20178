package resolver

import (
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Default Registry
// --------------------------------------------------------------------------

// StaticRegistry is an in-process IRegistry for deployments without an
// external load-balancer service. Endpoint lists are fixed at registration;
// resolution round-robins over the enabled ones. All methods are safe for
// concurrent use.
type StaticRegistry struct {
	groups *xsync.MapOf[string, *serverGroup]
	// brokenFor > 0 reinstates broken endpoints automatically after the
	// duration elapses; 0 means broken until Reinstate is called.
	brokenFor time.Duration
}

// serverGroup holds the endpoints of one logical server name
type serverGroup struct {
	endpoints []string // immutable after registration
	next      uint64   // atomic counter for round robin
	broken    *xsync.MapOf[string, time.Time]
}

// NewStaticRegistry creates a registry whose broken endpoints stay excluded
// until explicitly reinstated.
func NewStaticRegistry() *StaticRegistry {
	return NewStaticRegistryTTL(0)
}

// NewStaticRegistryTTL creates a registry that reinstates broken endpoints
// automatically after brokenFor.
func NewStaticRegistryTTL(brokenFor time.Duration) *StaticRegistry {
	return &StaticRegistry{
		groups:    xsync.NewMapOf[string, *serverGroup](),
		brokenFor: brokenFor,
	}
}

// Register sets the endpoint list for a logical server name, replacing any
// previous registration and clearing its broken set.
func (r *StaticRegistry) Register(serverName string, endpoints ...string) {
	eps := make([]string, len(endpoints))
	copy(eps, endpoints)

	r.groups.Store(serverName, &serverGroup{
		endpoints: eps,
		broken:    xsync.NewMapOf[string, time.Time](),
	})
}

// --------------------------------------------------------------------------
// Interface Methods (docu see resolver.IRegistry)
// --------------------------------------------------------------------------

func (r *StaticRegistry) Resolve(serverName string) (string, bool) {
	group, ok := r.groups.Load(serverName)
	if !ok || len(group.endpoints) == 0 {
		return "", false
	}

	// Round robin over the list, skipping broken endpoints. After one full
	// lap everything is broken and resolution fails.
	start := atomic.AddUint64(&group.next, 1)
	for i := 0; i < len(group.endpoints); i++ {
		ep := group.endpoints[(start+uint64(i))%uint64(len(group.endpoints))]
		if r.isBroken(group, ep) {
			continue
		}
		return ep, true
	}
	return "", false
}

func (r *StaticRegistry) MarkBroken(serverName, endpoint string) {
	if group, ok := r.groups.Load(serverName); ok {
		group.broken.Store(endpoint, time.Now())
	}
}

// --------------------------------------------------------------------------
// Management Methods
// --------------------------------------------------------------------------

// Reinstate clears the broken mark of an endpoint.
func (r *StaticRegistry) Reinstate(serverName, endpoint string) {
	if group, ok := r.groups.Load(serverName); ok {
		group.broken.Delete(endpoint)
	}
}

// BrokenEndpoints returns the endpoints of a server currently excluded from
// resolution.
func (r *StaticRegistry) BrokenEndpoints(serverName string) []string {
	group, ok := r.groups.Load(serverName)
	if !ok {
		return nil
	}

	var broken []string
	for _, ep := range group.endpoints {
		if r.isBroken(group, ep) {
			broken = append(broken, ep)
		}
	}
	return broken
}

// isBroken checks the broken set, honoring the auto-reinstate TTL.
func (r *StaticRegistry) isBroken(group *serverGroup, endpoint string) bool {
	markedAt, ok := group.broken.Load(endpoint)
	if !ok {
		return false
	}
	if r.brokenFor > 0 && time.Since(markedAt) >= r.brokenFor {
		group.broken.Delete(endpoint)
		return false
	}
	return true
}
