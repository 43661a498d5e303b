package chat

import (
	"sync"
	"testing"
)

// newTestConn 构造不带真实 WebSocket 的连接对象
// 在线登记表只用到 ID/UserID 和出站通道
func newTestConn(id string, userID int64) *UserConn {
	return &UserConn{
		ID:     id,
		UserID: userID,
		send:   make(chan []byte, 8),
		quit:   make(chan struct{}),
	}
}

type recordObserver struct {
	mu      sync.Mutex
	online  []int64
	offline []int64
}

func (o *recordObserver) UserOnline(userID int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.online = append(o.online, userID)
}

func (o *recordObserver) UserOffline(userID int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.offline = append(o.offline, userID)
}

func TestPresenceMultipleConnections(t *testing.T) {
	p := NewPresenceRegistry()

	c1 := newTestConn("conn-1", 7)
	c2 := newTestConn("conn-2", 7)

	if first := p.Join(c1); !first {
		t.Fatal("first connection should report first=true")
	}
	if first := p.Join(c2); first {
		t.Fatal("second connection of same user should report first=false")
	}
	if !p.IsOnline(7) {
		t.Fatal("user with two connections should be online")
	}
	if got := len(p.ConnsOf(7)); got != 2 {
		t.Fatalf("ConnsOf = %d, want 2", got)
	}

	if last := p.Leave(c1); last {
		t.Fatal("leaving one of two connections should report last=false")
	}
	if !p.IsOnline(7) {
		t.Fatal("user should stay online while one connection remains")
	}
	if last := p.Leave(c2); !last {
		t.Fatal("leaving the final connection should report last=true")
	}
	if p.IsOnline(7) {
		t.Fatal("user should be offline after final leave")
	}
	if got := p.OnlineCount(); got != 0 {
		t.Fatalf("OnlineCount = %d, want 0", got)
	}
}

func TestPresenceObserverFiresOnTransitionsOnly(t *testing.T) {
	p := NewPresenceRegistry()
	obs := &recordObserver{}
	p.SetObserver(obs)

	c1 := newTestConn("conn-1", 3)
	c2 := newTestConn("conn-2", 3)

	p.Join(c1)
	p.Join(c2)
	p.Leave(c1)
	p.Leave(c2)

	if len(obs.online) != 1 || obs.online[0] != 3 {
		t.Fatalf("online callbacks = %v, want exactly one for user 3", obs.online)
	}
	if len(obs.offline) != 1 || obs.offline[0] != 3 {
		t.Fatalf("offline callbacks = %v, want exactly one for user 3", obs.offline)
	}
}

func TestPresenceLeaveUnknownConnIsNoop(t *testing.T) {
	p := NewPresenceRegistry()
	obs := &recordObserver{}
	p.SetObserver(obs)

	c := newTestConn("conn-x", 9)
	if last := p.Leave(c); last {
		t.Fatal("leave of never-joined connection should report last=false")
	}
	// 重复离开同样无害
	p.Join(c)
	p.Leave(c)
	if last := p.Leave(c); last {
		t.Fatal("double leave should report last=false")
	}
	if len(obs.offline) != 1 {
		t.Fatalf("offline callbacks = %v, want exactly one", obs.offline)
	}
}

func TestPresenceIsolatesUsers(t *testing.T) {
	p := NewPresenceRegistry()

	a := newTestConn("conn-a", 1)
	b := newTestConn("conn-b", 2)
	p.Join(a)
	p.Join(b)

	p.Leave(a)
	if p.IsOnline(1) {
		t.Fatal("user 1 should be offline")
	}
	if !p.IsOnline(2) {
		t.Fatal("user 2 should be unaffected by user 1 leaving")
	}
}
