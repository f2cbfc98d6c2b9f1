// ABOUTME: Tests for mDNS discovery
// ABOUTME: Tests manager creation and service entry conversion
package discovery

import (
	"net"
	"testing"

	"github.com/hashicorp/mdns"
)

func TestNewManager(t *testing.T) {
	config := Config{
		ServiceName: "Practice Room",
		Port:        8928,
		Path:        "/metrodrone",
	}

	mgr := NewManager(config)
	if mgr == nil {
		t.Fatal("expected manager to be created")
	}
	mgr.Stop()
}

func TestToServerInfo(t *testing.T) {
	entry := &mdns.ServiceEntry{
		Name:       "Practice Room._metrodrone._tcp.local.",
		AddrV4:     net.IPv4(192, 168, 1, 20),
		Port:       8928,
		InfoFields: []string{"path=/metrodrone"},
	}

	info := toServerInfo(entry)
	if info == nil {
		t.Fatal("expected server info")
	}
	if info.Name != "Practice Room" {
		t.Errorf("expected name Practice Room, got %q", info.Name)
	}
	if info.Addr() != "192.168.1.20:8928" {
		t.Errorf("unexpected address %s", info.Addr())
	}
	if info.Path != "/metrodrone" {
		t.Errorf("unexpected path %q", info.Path)
	}

	if toServerInfo(&mdns.ServiceEntry{Name: "v6 only"}) != nil {
		t.Error("entries without an IPv4 address should be skipped")
	}
}
