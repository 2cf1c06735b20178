package resolver

import (
	"testing"

	"github.com/openpeers/wirecall/rpc/common"
)

// fakeRegistry is a scripted IRegistry for resolver tests
type fakeRegistry struct {
	endpoints  []string
	pos        int
	brokenArgs []string
}

func (f *fakeRegistry) Resolve(serverName string) (string, bool) {
	if f.pos >= len(f.endpoints) {
		return "", false
	}
	ep := f.endpoints[f.pos]
	f.pos++
	return ep, true
}

func (f *fakeRegistry) MarkBroken(serverName, endpoint string) {
	f.brokenArgs = append(f.brokenArgs, serverName+"|"+endpoint)
}

// TestDirectResolver tests explicit host/port resolution and its validation
func TestDirectResolver(t *testing.T) {
	testCases := []struct {
		name      string
		host      string
		port      int
		expectErr bool
	}{
		{"Valid", "10.0.0.1", 9000, false},
		{"EmptyHost", "", 9000, true},
		{"ZeroPort", "10.0.0.1", 0, true},
		{"NegativePort", "10.0.0.1", -1, true},
		{"PortTooLarge", "10.0.0.1", 70000, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ep, err := NewDirectResolver(tc.host, tc.port).Resolve()

			if tc.expectErr {
				if err == nil {
					t.Fatal("Expected error but got none")
				}
				if kind := common.KindOf(err); kind != common.ErrValidation {
					t.Errorf("Expected validation error kind, got %s", kind)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if ep.Origin != OriginDirect {
				t.Errorf("Expected direct origin, got %s", ep.Origin)
			}
			if ep.Addr() != "10.0.0.1:9000" {
				t.Errorf("Unexpected address %s", ep.Addr())
			}
		})
	}
}

// TestLBResolver tests registry-backed resolution
func TestLBResolver(t *testing.T) {
	reg := &fakeRegistry{endpoints: []string{"10.0.0.1:9000", "10.0.0.2:9000"}}
	r := NewLBResolver(reg, "billing")

	ep, err := r.Resolve()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ep.Origin != OriginLoadBalanced {
		t.Errorf("Expected load-balanced origin, got %s", ep.Origin)
	}
	if ep.Addr() != "10.0.0.1:9000" {
		t.Errorf("Unexpected address %s", ep.Addr())
	}

	// a second resolution asks the registry again
	ep, err = r.Resolve()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ep.Addr() != "10.0.0.2:9000" {
		t.Errorf("Expected second endpoint, got %s", ep.Addr())
	}

	// marking broken reaches the registry with the right arguments
	r.MarkBroken(ep)
	if len(reg.brokenArgs) != 1 || reg.brokenArgs[0] != "billing|10.0.0.2:9000" {
		t.Errorf("Unexpected MarkBroken calls: %v", reg.brokenArgs)
	}
}

// TestLBResolverFailsFast tests configuration-class failures
func TestLBResolverFailsFast(t *testing.T) {
	testCases := []struct {
		name     string
		resolver IResolver
	}{
		{"NoRegistry", NewLBResolver(nil, "billing")},
		{"EmptyServerName", NewLBResolver(&fakeRegistry{}, "")},
		{"NoEndpoint", NewLBResolver(&fakeRegistry{}, "billing")},
		{"MalformedEndpoint", NewLBResolver(&fakeRegistry{endpoints: []string{"no-port"}}, "billing")},
		{"InvalidPort", NewLBResolver(&fakeRegistry{endpoints: []string{"host:notaport"}}, "billing")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.resolver.Resolve()
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if kind := common.KindOf(err); kind != common.ErrValidation {
				t.Errorf("Expected validation error kind, got %s (%v)", kind, err)
			}
		})
	}
}
