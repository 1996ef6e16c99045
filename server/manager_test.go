package server

import (
	"errors"
	"testing"
	"time"
)

func newTestManager(t *testing.T) (*RoomManager, *manualClock) {
	t.Helper()
	clock := &manualClock{}
	m := NewRoomManager(testRoomConfig(clock))
	t.Cleanup(m.StopAll)
	return m, clock
}

func TestCreateRoomIsRetrievable(t *testing.T) {
	m, _ := newTestManager(t)
	a, b := m.CreateRoom(), m.CreateRoom()
	if a == b {
		t.Fatalf("room ids must be unique")
	}
	if _, ok := m.GetRoom(a); !ok {
		t.Fatalf("created room not retrievable")
	}
	if _, ok := m.GetRoom("missing"); ok {
		t.Fatalf("unknown id should not resolve")
	}
	if got := len(m.ListRooms()); got != 2 {
		t.Fatalf("ListRooms = %d entries, want 2", got)
	}
}

func TestGetOrCreateRoomIsIdempotent(t *testing.T) {
	m, _ := newTestManager(t)
	r1 := m.GetOrCreateRoom("lobby")
	r2 := m.GetOrCreateRoom("lobby")
	if r1 != r2 {
		t.Fatalf("expected the same room instance")
	}
}

func TestEmptyRoomExpires(t *testing.T) {
	m, clock := newTestManager(t)
	id := m.CreateRoom()
	r, _ := m.GetRoom(id)
	if _, err := m.JoinRoom(id, "p1", &fakeConn{}); err != nil {
		t.Fatalf("join: %v", err)
	}
	r.Leave("p1")

	clock.Advance(29 * time.Second)
	if _, ok := m.GetRoom(id); !ok {
		t.Fatalf("room expired too early")
	}
	clock.Advance(time.Second)
	if _, ok := m.GetRoom(id); ok {
		t.Fatalf("room should be gone after the idle window")
	}
	if !r.Closed() {
		t.Fatalf("expired room should be closed")
	}
	if _, err := m.JoinRoom(id, "p2", &fakeConn{}); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("join expired room: err = %v, want ErrRoomNotFound", err)
	}
}

func TestUnjoinedRoomExpires(t *testing.T) {
	m, clock := newTestManager(t)
	id := m.CreateRoom()
	clock.Advance(30 * time.Second)
	if _, ok := m.GetRoom(id); ok {
		t.Fatalf("a room nobody joined should expire")
	}
}

func TestJoinCancelsExpiry(t *testing.T) {
	m, clock := newTestManager(t)
	id := m.CreateRoom()
	r, _ := m.GetRoom(id)
	_, _ = m.JoinRoom(id, "p1", &fakeConn{})
	r.Leave("p1")

	clock.Advance(20 * time.Second)
	if _, err := m.JoinRoom(id, "p2", &fakeConn{}); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	clock.Advance(time.Minute)
	if _, ok := m.GetRoom(id); !ok {
		t.Fatalf("occupied room must not expire")
	}

	// 淘汰后的观战连接同样让房间保持存活
	r.mu.Lock()
	r.state.RemovePlayer("p2")
	r.mu.Unlock()
	clock.Advance(time.Minute)
	if _, ok := m.GetRoom(id); !ok {
		t.Fatalf("room with a spectating member must not expire")
	}
}

func TestPersistentRoomSurvivesIdle(t *testing.T) {
	m, clock := newTestManager(t)
	r := m.GetOrCreatePersistentRoom("lobby")

	clock.Advance(31 * time.Second)
	if _, ok := m.GetRoom("lobby"); !ok {
		t.Fatalf("persistent room expired before anyone joined")
	}

	_, _ = m.JoinRoom("lobby", "p1", &fakeConn{})
	r.Leave("p1")
	clock.Advance(time.Minute)
	if got, ok := m.GetRoom("lobby"); !ok || got != r || r.Closed() {
		t.Fatalf("persistent room expired after its last member left")
	}

	// 取消常驻后恢复正常的空闲过期
	r.SetPersistent(false)
	clock.Advance(30 * time.Second)
	if _, ok := m.GetRoom("lobby"); ok {
		t.Fatalf("room should expire once no longer persistent")
	}
}

func TestSetIdleExpiryRearmsPendingTimer(t *testing.T) {
	m, clock := newTestManager(t)
	id := m.CreateRoom()
	r, _ := m.GetRoom(id)

	r.SetIdleExpiry(5 * time.Second)
	clock.Advance(5 * time.Second)
	if _, ok := m.GetRoom(id); ok {
		t.Fatalf("room should expire after the shortened idle window")
	}
}

func TestJoinExpiredRoomSendsNothing(t *testing.T) {
	m, clock := newTestManager(t)
	id := m.CreateRoom()
	r, _ := m.GetRoom(id)
	clock.Advance(30 * time.Second)

	c := &fakeConn{}
	if err := r.Join("late", c); !errors.Is(err, ErrRoomClosed) {
		t.Fatalf("err = %v, want ErrRoomClosed", err)
	}
	if len(c.types(t)) != 0 {
		t.Fatalf("a failed join must not send welcome or setup, got %v", c.types(t))
	}
}

func TestRemoveIgnoresReplacedInstance(t *testing.T) {
	m, _ := newTestManager(t)
	old := m.GetOrCreateRoom("x")
	old.Close()
	m.mu.Lock()
	delete(m.rooms, "x")
	m.mu.Unlock()
	cur := m.GetOrCreateRoom("x")

	m.remove("x", old)
	if got, ok := m.GetRoom("x"); !ok || got != cur {
		t.Fatalf("remove must not delete a newer room under the same id")
	}
}

func TestManagerSetTickInterval(t *testing.T) {
	m, _ := newTestManager(t)
	r := m.GetOrCreateRoom("a")
	m.SetTickInterval(50 * time.Millisecond)
	if r.Config().TickInterval != 50*time.Millisecond {
		t.Fatalf("existing room not updated")
	}
	if m.GetOrCreateRoom("b").Config().TickInterval != 50*time.Millisecond {
		t.Fatalf("new rooms should use the updated interval")
	}
}

func TestListRoomsCounts(t *testing.T) {
	m, _ := newTestManager(t)
	m.GetOrCreateRoom("b")
	m.GetOrCreateRoom("a")
	_, _ = m.JoinRoom("a", "p1", &fakeConn{})

	rooms := m.ListRooms()
	if len(rooms) != 2 || rooms[0].ID != "a" || rooms[1].ID != "b" {
		t.Fatalf("rooms = %+v, want sorted a, b", rooms)
	}
	if rooms[0].Players != 1 || rooms[0].Members != 1 {
		t.Fatalf("room a counts = %+v", rooms[0])
	}
}

func TestStopAllClosesConnections(t *testing.T) {
	m, _ := newTestManager(t)
	id := m.CreateRoom()
	c := &fakeConn{}
	_, _ = m.JoinRoom(id, "p1", c)

	m.StopAll()
	if !c.isClosed() {
		t.Fatalf("connection should be closed on shutdown")
	}
	if len(m.ListRooms()) != 0 {
		t.Fatalf("rooms should be cleared")
	}
}
