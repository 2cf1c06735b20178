package client

import (
	"encoding/binary"
	"io"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openpeers/wirecall/rpc/common"
	"github.com/openpeers/wirecall/rpc/resolver"
	"github.com/openpeers/wirecall/rpc/serializer"
	"github.com/openpeers/wirecall/rpc/transport"
	"github.com/openpeers/wirecall/rpc/transport/tcp"
)

// --------------------------------------------------------------------------
// Test Helpers
// --------------------------------------------------------------------------

// testConfig returns a config with short deadlines
func testConfig() common.ClientConfig {
	cfg := common.DefaultClientConfig()
	cfg.ConnectTimeout = 500 * time.Millisecond
	cfg.IOTimeout = 500 * time.Millisecond
	return cfg
}

// countingTransport counts exchange attempts, optionally delegating to a
// real transport
type countingTransport struct {
	inner transport.IExchangeTransport
	calls int32
}

func (t *countingTransport) Exchange(endpoint string, body []byte) ([]byte, error) {
	atomic.AddInt32(&t.calls, 1)
	if t.inner == nil {
		return nil, common.Errorf(common.ErrIOTimeout, "counting transport has no delegate")
	}
	return t.inner.Exchange(endpoint, body)
}

// scriptedRegistry hands out endpoints in a fixed order and records
// MarkBroken calls
type scriptedRegistry struct {
	endpoints []string
	idx       int
	broken    []string
}

func (r *scriptedRegistry) Resolve(serverName string) (string, bool) {
	if r.idx >= len(r.endpoints) {
		return "", false
	}
	ep := r.endpoints[r.idx]
	r.idx++
	return ep, true
}

func (r *scriptedRegistry) MarkBroken(serverName, endpoint string) {
	r.broken = append(r.broken, endpoint)
}

// startServer runs handler for every accepted connection
func startServer(t *testing.T, handler func(conn net.Conn)) (host string, port int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				handler(c)
			}(conn)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

// readRequestFrame reads one framed body from the connection
func readRequestFrame(conn net.Conn) ([]byte, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(conn, header); err != nil {
		return nil, err
	}
	body := make([]byte, binary.BigEndian.Uint32(header))
	if _, err := io.ReadFull(conn, body); err != nil {
		return nil, err
	}
	return body, nil
}

// writeResponseFrame writes one framed body to the connection
func writeResponseFrame(conn net.Conn, body []byte) {
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(body)))
	conn.Write(header)
	conn.Write(body)
}

// echoHandler reads one frame and echoes the body back verbatim
func echoHandler(conn net.Conn) {
	body, err := readRequestFrame(conn)
	if err != nil {
		return
	}
	writeResponseFrame(conn, body)
}

// deadEndpoint returns an address nothing listens on
func deadEndpoint(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

// TestConnectEcho runs one full call against an echoing peer
func TestConnectEcho(t *testing.T) {
	host, port := startServer(t, echoHandler)

	reply := New("svcA", "svcB", WithConfig(testConfig())).
		Data("echo", "hi").
		Connect(host, port, 2*time.Second)

	if !reply.Result() {
		t.Fatalf("Expected success, got result=false message=%q", reply.Message())
	}
	if got := reply.Data.GetString("echo"); got != "hi" {
		t.Errorf("Expected data echo %q, got %q", "hi", got)
	}
	if got := reply.Head.GetString(common.HeadSource); got != "svcA" {
		t.Errorf("Expected source svcA in echoed head, got %q", got)
	}
	if got := reply.Head.GetString(common.HeadTarget); got != "svcB" {
		t.Errorf("Expected target svcB in echoed head, got %q", got)
	}
	if reply.Head.GetInt(common.HeadTime) <= 0 {
		t.Error("Expected positive elapsed time in head")
	}
	if reply.Message() != "ok" {
		t.Errorf("Expected message ok, got %q", reply.Message())
	}
}

// TestIdentityStamping tests that New stamps the process identity
func TestIdentityStamping(t *testing.T) {
	c := New("svcA", "svcB")
	head := c.Envelope().Head

	for _, key := range []string{common.HeadName, common.HeadIP, common.HeadHostname} {
		if head.GetString(key) == "" {
			t.Errorf("Expected head entry %q to be stamped", key)
		}
	}
	if head.GetInt(common.HeadPID) <= 0 {
		t.Error("Expected positive pid in head")
	}
}

// TestEmptyDataShortCircuit tests that a call without payload never touches
// the transport
func TestEmptyDataShortCircuit(t *testing.T) {
	tr := &countingTransport{}

	reply := New("svcA", "svcB", WithTransport(tr)).
		Connect("127.0.0.1", 9000)

	if reply.Result() {
		t.Error("Expected result=false for empty payload")
	}
	if got := atomic.LoadInt32(&tr.calls); got != 0 {
		t.Errorf("Expected 0 connection attempts, transport saw %d", got)
	}
	if !strings.Contains(reply.Message(), "empty") {
		t.Errorf("Expected message to mention the empty payload, got %q", reply.Message())
	}
}

// TestDirectValidationShortCircuit tests missing host/port validation
func TestDirectValidationShortCircuit(t *testing.T) {
	tr := &countingTransport{}

	reply := New("svcA", "svcB", WithTransport(tr)).
		Data("k", "v").
		Connect("", 0)

	if reply.Result() {
		t.Error("Expected result=false for missing host")
	}
	if got := atomic.LoadInt32(&tr.calls); got != 0 {
		t.Errorf("Expected 0 connection attempts, transport saw %d", got)
	}
}

// TestUnsupportedValueShortCircuit tests that an unserializable entry fails
// the call before any network I/O
func TestUnsupportedValueShortCircuit(t *testing.T) {
	type opaque struct{ X int }
	tr := &countingTransport{}

	reply := New("svcA", "svcB", WithTransport(tr)).
		Data("bad", opaque{X: 1}).
		Data("good", "v").
		Connect("127.0.0.1", 9000)

	if reply.Result() {
		t.Error("Expected result=false for unserializable entry")
	}
	if got := atomic.LoadInt32(&tr.calls); got != 0 {
		t.Errorf("Expected 0 connection attempts, transport saw %d", got)
	}
	if !strings.Contains(reply.Message(), "bad") {
		t.Errorf("Expected message to name the offending entry, got %q", reply.Message())
	}
}

// TestConnectRefusedErrorsAsData tests that a dead direct target comes back
// as result=false instead of an error value
func TestConnectRefusedErrorsAsData(t *testing.T) {
	addr := deadEndpoint(t)
	host, portStr, _ := net.SplitHostPort(addr)
	port, _ := strconv.Atoi(portStr)

	reply := New("svcA", "svcB", WithConfig(testConfig())).
		Data("k", "v").
		Connect(host, port)

	if reply.Result() {
		t.Error("Expected result=false for refused connection")
	}
	if reply.Message() == "" {
		t.Error("Expected a failure message in head")
	}
	if reply.Head.GetInt(common.HeadTime) <= 0 {
		t.Error("Expected elapsed time in head even on failure")
	}
}

// TestConnectLBFailover tests the failover policy: first endpoint dead,
// second reachable, exactly one broken mark and two attempts in total
func TestConnectLBFailover(t *testing.T) {
	dead := deadEndpoint(t)
	host, port := startServer(t, echoHandler)
	live := net.JoinHostPort(host, strconv.Itoa(port))

	reg := &scriptedRegistry{endpoints: []string{dead, live}}
	tr := &countingTransport{inner: tcp.NewTCPExchangeTransport(testConfig())}

	reply := New("svcA", "svcB", WithConfig(testConfig()), WithRegistry(reg), WithTransport(tr)).
		Data("echo", "hi").
		ConnectLB("billing")

	if !reply.Result() {
		t.Fatalf("Expected failover to succeed, got message=%q", reply.Message())
	}
	if got := atomic.LoadInt32(&tr.calls); got != 2 {
		t.Errorf("Expected exactly 2 connection attempts, got %d", got)
	}
	if len(reg.broken) != 1 || reg.broken[0] != dead {
		t.Errorf("Expected exactly one MarkBroken for %s, got %v", dead, reg.broken)
	}
}

// TestConnectLBNoFailoverOnIOTimeout tests that a peer that accepts but
// never answers does not trigger failover
func TestConnectLBNoFailoverOnIOTimeout(t *testing.T) {
	host, port := startServer(t, func(conn net.Conn) {
		io.Copy(io.Discard, conn) // accept, swallow, never answer
	})
	silent := net.JoinHostPort(host, strconv.Itoa(port))

	reg := &scriptedRegistry{endpoints: []string{silent, silent}}

	cfg := testConfig()
	cfg.IOTimeout = 200 * time.Millisecond
	tr := &countingTransport{inner: tcp.NewTCPExchangeTransport(cfg)}

	reply := New("svcA", "svcB", WithConfig(cfg), WithRegistry(reg), WithTransport(tr)).
		Data("k", "v").
		ConnectLB("billing")

	if reply.Result() {
		t.Error("Expected result=false for silent peer")
	}
	if got := atomic.LoadInt32(&tr.calls); got != 1 {
		t.Errorf("Expected exactly 1 connection attempt (no retry), got %d", got)
	}
	if len(reg.broken) != 0 {
		t.Errorf("Expected no MarkBroken for an I/O timeout, got %v", reg.broken)
	}
}

// TestConnectLBNoEndpoint tests the fail-fast path for an unresolvable
// server name
func TestConnectLBNoEndpoint(t *testing.T) {
	tr := &countingTransport{}

	reply := New("svcA", "svcB", WithRegistry(&scriptedRegistry{}), WithTransport(tr)).
		Data("k", "v").
		ConnectLB("billing")

	if reply.Result() {
		t.Error("Expected result=false for unresolvable server name")
	}
	if got := atomic.LoadInt32(&tr.calls); got != 0 {
		t.Errorf("Expected 0 connection attempts, transport saw %d", got)
	}
}

// TestConnectLBWithStaticRegistry tests the façade against the in-repo
// registry implementation end to end
func TestConnectLBWithStaticRegistry(t *testing.T) {
	dead := deadEndpoint(t)
	host, port := startServer(t, echoHandler)
	live := net.JoinHostPort(host, strconv.Itoa(port))

	reg := resolver.NewStaticRegistry()
	reg.Register("billing", dead, live)

	// Run enough calls that both round-robin positions are hit; after the
	// first connect failure the dead endpoint stays excluded.
	for i := 0; i < 3; i++ {
		reply := New("svcA", "svcB", WithConfig(testConfig()), WithRegistry(reg)).
			Data("echo", "hi").
			ConnectLB("billing")
		if !reply.Result() {
			t.Fatalf("Call %d failed: %s", i, reply.Message())
		}
	}

	if broken := reg.BrokenEndpoints("billing"); len(broken) != 1 || broken[0] != dead {
		t.Errorf("Expected %s marked broken, got %v", dead, broken)
	}
}

// TestReplyReplacesEnvelope tests that the peer's reply replaces the
// request envelope entirely
func TestReplyReplacesEnvelope(t *testing.T) {
	s := serializer.NewBinarySerializer()

	host, port := startServer(t, func(conn net.Conn) {
		if _, err := readRequestFrame(conn); err != nil {
			return
		}
		resp := common.NewEnvelope()
		resp.Head.Set("server", common.String("billing-01"))
		resp.Data.Set("status", common.String("done"))
		body, err := s.Serialize(resp)
		if err != nil {
			return
		}
		writeResponseFrame(conn, body)
	})

	c := New("svcA", "svcB", WithConfig(testConfig()))
	reply := c.Data("orderId", "ord-1").Connect(host, port)

	if !reply.Result() {
		t.Fatalf("Expected success, got message=%q", reply.Message())
	}
	if got := reply.Data.GetString("status"); got != "done" {
		t.Errorf("Expected server data, got status=%q", got)
	}
	if reply.Data.Has("orderId") {
		t.Error("Expected request payload to be replaced by the reply")
	}
	if got := reply.Head.GetString("server"); got != "billing-01" {
		t.Errorf("Expected server head entry, got %q", got)
	}
	if c.Envelope() != reply {
		t.Error("Expected the client to hold the reply envelope after the call")
	}
}

// TestMalformedReplyIsProtocolFailure tests that a garbage reply surfaces
// as result=false, never a partial decode
func TestMalformedReplyIsProtocolFailure(t *testing.T) {
	host, port := startServer(t, func(conn net.Conn) {
		if _, err := readRequestFrame(conn); err != nil {
			return
		}
		writeResponseFrame(conn, []byte{0xDE, 0xAD, 0xBE, 0xEF, 0xDE, 0xAD})
	})

	reply := New("svcA", "svcB", WithConfig(testConfig())).
		Data("k", "v").
		Connect(host, port)

	if reply.Result() {
		t.Error("Expected result=false for malformed reply")
	}
	if reply.Message() == "" {
		t.Error("Expected a failure message in head")
	}
}
