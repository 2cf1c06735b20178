package client

import (
	"sort"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/openpeers/wirecall/rpc/common"
	"github.com/openpeers/wirecall/rpc/resolver"
	"github.com/openpeers/wirecall/rpc/serializer"
	"github.com/openpeers/wirecall/rpc/transport"
	"github.com/openpeers/wirecall/rpc/transport/tcp"
)

var Logger = logger.GetLogger("rpc/client")

var (
	metricCalls     = metrics.GetOrCreateCounter(`wirecall_client_calls_total`)
	metricFailures  = metrics.GetOrCreateCounter(`wirecall_client_failures_total`)
	metricFailovers = metrics.GetOrCreateCounter(`wirecall_client_failovers_total`)
)

// encodeBufPool holds reusable scratch buffers for request encoding. Each
// buffer is truncated before reuse, no state crosses calls.
var encodeBufPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, 4096)
		return &b
	},
}

// --------------------------------------------------------------------------
// Client
// --------------------------------------------------------------------------

// Client builds one envelope and exchanges it with a peer. Head and Data
// mutate the pending envelope without network effect; Connect and ConnectLB
// run the call and return the reply envelope. Ordinary network and protocol
// failures never surface as errors: the returned envelope's head carries
// result, message and time instead.
//
// A Client is intended for a single caller; concurrent calls should each
// use their own Client.
type Client struct {
	source string
	target string

	env        *common.Envelope
	config     common.ClientConfig
	registry   resolver.IRegistry
	serializer serializer.IEnvelopeSerializer
	transport  transport.IExchangeTransport

	// first Head/Data conversion failure, reported when the call runs
	deferred error
}

// Option customizes a Client at construction.
type Option func(*Client)

// WithConfig sets timeouts, frame limits and socket tuning.
func WithConfig(cfg common.ClientConfig) Option {
	return func(c *Client) { c.config = cfg.WithDefaults() }
}

// WithRegistry sets the load-balancer registry consulted by ConnectLB.
func WithRegistry(reg resolver.IRegistry) Option {
	return func(c *Client) { c.registry = reg }
}

// WithSerializer overrides the wire serializer.
func WithSerializer(s serializer.IEnvelopeSerializer) Option {
	return func(c *Client) { c.serializer = s }
}

// WithTransport overrides the exchange transport. Without it every call
// uses a fresh one-shot TCP transport.
func WithTransport(t transport.IExchangeTransport) Option {
	return func(c *Client) { c.transport = t }
}

// WithIdentity overrides the identity stamped into the envelope head.
func WithIdentity(p common.IIdentityProvider) Option {
	return func(c *Client) { c.stampIdentity(p.Identity()) }
}

// New creates a Client for one logical source/target pair and stamps the
// local process identity and the routing fields into the envelope head.
func New(source, target string, opts ...Option) *Client {
	c := &Client{
		source: source,
		target: target,
		env:    common.NewEnvelope(),
		config: common.DefaultClientConfig(),
	}

	c.stampIdentity(common.LocalIdentity())
	c.env.Head.Set(common.HeadSource, common.String(source))
	c.env.Head.Set(common.HeadTarget, common.String(target))

	for _, opt := range opts {
		opt(c)
	}

	if c.serializer == nil {
		c.serializer = serializer.NewBinarySerializerLimits(c.config.MaxSectionEntries)
	}

	return c
}

func (c *Client) stampIdentity(id common.Identity) {
	c.env.Head.Set(common.HeadName, common.String(id.Name))
	c.env.Head.Set(common.HeadPID, common.Int(int64(id.PID)))
	c.env.Head.Set(common.HeadIP, common.String(id.IP))
	c.env.Head.Set(common.HeadHostname, common.String(id.Hostname))
}

// --------------------------------------------------------------------------
// Envelope Builders
// --------------------------------------------------------------------------

// Head sets a metadata entry on the pending envelope. Conversion failures
// are remembered and reported when the call runs.
func (c *Client) Head(key string, value interface{}) *Client {
	c.set(c.env.Head, key, value)
	return c
}

// HeadAll sets multiple metadata entries. Keys are applied in sorted order
// so the envelope layout stays deterministic.
func (c *Client) HeadAll(entries map[string]interface{}) *Client {
	c.setAll(c.env.Head, entries)
	return c
}

// Data sets a payload entry on the pending envelope.
func (c *Client) Data(key string, value interface{}) *Client {
	c.set(c.env.Data, key, value)
	return c
}

// DataAll sets multiple payload entries in sorted key order.
func (c *Client) DataAll(entries map[string]interface{}) *Client {
	c.setAll(c.env.Data, entries)
	return c
}

// Envelope returns the pending envelope. After a call it is the reply.
func (c *Client) Envelope() *common.Envelope {
	return c.env
}

func (c *Client) set(m *common.Map, key string, value interface{}) {
	v, err := common.FromAny(value)
	if err != nil {
		if c.deferred == nil {
			c.deferred = common.WrapError(common.ErrSerialization, err, "entry %q not serializable", key)
		}
		return
	}
	m.Set(key, v)
}

func (c *Client) setAll(m *common.Map, entries map[string]interface{}) {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.set(m, k, entries[k])
	}
}

// --------------------------------------------------------------------------
// Calls
// --------------------------------------------------------------------------

// Connect exchanges the pending envelope with an explicitly addressed peer.
// An optional timeout overrides the configured I/O timeout for this call.
func (c *Client) Connect(host string, port int, timeout ...time.Duration) *common.Envelope {
	return c.call(resolver.NewDirectResolver(host, port), timeout...)
}

// ConnectLB exchanges the pending envelope with a peer resolved through the
// load-balancer registry by logical server name. A connect-phase failure
// marks the endpoint broken and retries exactly once on a fresh endpoint.
func (c *Client) ConnectLB(serverName string, timeout ...time.Duration) *common.Envelope {
	return c.call(resolver.NewLBResolver(c.registry, serverName), timeout...)
}

func (c *Client) call(res resolver.IResolver, timeout ...time.Duration) *common.Envelope {
	start := time.Now()
	metricCalls.Inc()

	cfg := c.config.WithDefaults()
	if len(timeout) > 0 && timeout[0] > 0 {
		cfg.IOTimeout = timeout[0]
	}

	reply, err := c.exchange(cfg, res)
	elapsed := time.Since(start)

	if err != nil {
		metricFailures.Inc()
		Logger.Warningf("call %s -> %s failed after %s: %v", c.source, c.target, elapsed, err)

		// Errors are data: the failure lands in the request envelope's
		// head, the caller never sees an error value for it.
		c.env.Head.Set(common.HeadResult, common.Bool(false))
		c.env.Head.Set(common.HeadMessage, common.String(err.Error()))
		c.env.Head.Set(common.HeadTime, common.Int(elapsed.Nanoseconds()))
		return c.env
	}

	Logger.Debugf("call %s -> %s done in %s", c.source, c.target, elapsed)

	reply.Head.Set(common.HeadResult, common.Bool(true))
	reply.Head.Set(common.HeadMessage, common.String("ok"))
	reply.Head.Set(common.HeadTime, common.Int(elapsed.Nanoseconds()))

	// The reply replaces the pending envelope.
	c.env = reply
	return reply
}

// exchange runs validation, resolution, encoding, the wire exchange with
// its failover policy, and decoding. Every failure is a classified error.
func (c *Client) exchange(cfg common.ClientConfig, res resolver.IResolver) (*common.Envelope, error) {
	if c.deferred != nil {
		return nil, c.deferred
	}
	if c.env.Data.Len() == 0 {
		return nil, common.Errorf(common.ErrValidation, "data payload must not be empty")
	}

	ep, err := res.Resolve()
	if err != nil {
		return nil, err
	}

	// Encode once; a failover retry reuses the same bytes.
	bufPtr := encodeBufPool.Get().(*[]byte)
	buf, err := c.serializer.SerializeAppend((*bufPtr)[:0], c.env)
	if err != nil {
		encodeBufPool.Put(bufPtr)
		return nil, err
	}
	defer func() {
		*bufPtr = buf[:0]
		encodeBufPool.Put(bufPtr)
	}()

	tr := c.transport
	if tr == nil {
		tr = tcp.NewTCPExchangeTransport(cfg)
	}

	respBody, err := tr.Exchange(ep.Addr(), buf)
	if err != nil && common.KindOf(err) == common.ErrConnect && ep.Origin == resolver.OriginLoadBalanced {
		// Only a connect-phase failure is evidence the endpoint itself is
		// down. Mark it broken, resolve a fresh one, retry exactly once.
		metricFailovers.Inc()
		res.MarkBroken(ep)

		retryEp, rerr := res.Resolve()
		if rerr != nil {
			return nil, rerr
		}
		Logger.Infof("failing over from %s to %s", ep.Addr(), retryEp.Addr())
		respBody, err = tr.Exchange(retryEp.Addr(), buf)
	}
	if err != nil {
		return nil, err
	}

	reply := common.NewEnvelope()
	if err := c.serializer.Deserialize(respBody, reply); err != nil {
		return nil, err
	}
	return reply, nil
}
