package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/buzzroom/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(msgID uint16, data []byte) error { return nil }
func (m *MockConnection) Close() error                         { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestSession_Bind(t *testing.T) {
	sess := NewSession("s1", &MockConnection{})

	if !sess.Bind(RolePlayer, "ROOM01", "Ann") {
		t.Fatal("first bind should succeed")
	}
	if sess.Bind(RoleHost, "ROOM02", "") {
		t.Error("a bound session must reject a second bind")
	}

	role, code := sess.Binding()
	if role != RolePlayer || code != "ROOM01" {
		t.Errorf("unexpected binding: %v %s", role, code)
	}

	sess.Unbind()
	role, code = sess.Binding()
	if role != RoleNone || code != "" {
		t.Errorf("unbind should clear the binding, got %v %s", role, code)
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sess := NewSession("test_session_1", &MockConnection{})

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("expected session count 1, got %d", manager.Count())
	}

	retrieved, exists := manager.Get("test_session_1")
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrieved != sess {
		t.Fatal("Get should return the same session instance")
	}

	if !manager.Remove("test_session_1") {
		t.Fatal("first Remove should report the session was present")
	}
	if manager.Remove("test_session_1") {
		t.Error("second Remove must be a no-op so disconnect runs at most once")
	}
	if _, exists := manager.Get("test_session_1"); exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_GetByRoom(t *testing.T) {
	manager := NewManager()

	host := NewSession("host", &MockConnection{})
	host.Bind(RoleHost, "ROOM01", "")

	player := NewSession("p1", &MockConnection{})
	player.Bind(RolePlayer, "ROOM01", "Ann")

	elsewhere := NewSession("p2", &MockConnection{})
	elsewhere.Bind(RolePlayer, "ROOM02", "Bob")

	unbound := NewSession("p3", &MockConnection{})

	manager.Add(host)
	manager.Add(player)
	manager.Add(elsewhere)
	manager.Add(unbound)

	bound := manager.GetByRoom("ROOM01")
	if len(bound) != 2 {
		t.Fatalf("expected 2 sessions bound to ROOM01, got %d", len(bound))
	}
	for _, s := range bound {
		if s.GetID() == "p2" || s.GetID() == "p3" {
			t.Errorf("session %s should not be bound to ROOM01", s.GetID())
		}
	}
}
