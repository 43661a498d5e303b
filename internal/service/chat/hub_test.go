package chat

import (
	"encoding/json"
	"testing"
	"time"

	"social_connect_server/internal/dto/request"
	"social_connect_server/pkg/errorx"
)

type deliveredMessage struct {
	senderID int64
	payload  request.WsSendMessagePayload
}

// stubDeliverer 记录投递调用，可配置返回错误
type stubDeliverer struct {
	messages chan deliveredMessage
	typing   chan request.TypingPayload
	err      error
}

func newStubDeliverer() *stubDeliverer {
	return &stubDeliverer{
		messages: make(chan deliveredMessage, 8),
		typing:   make(chan request.TypingPayload, 8),
	}
}

func (d *stubDeliverer) DeliverMessage(senderID int64, payload request.WsSendMessagePayload) error {
	if d.err != nil {
		return d.err
	}
	d.messages <- deliveredMessage{senderID: senderID, payload: payload}
	return nil
}

func (d *stubDeliverer) RelayTyping(senderID int64, payload request.TypingPayload) error {
	d.typing <- payload
	return nil
}

func newTestHub(d Deliverer) *Hub {
	return NewHub(HubConfig{
		Mode:      "channel",
		Presence:  NewPresenceRegistry(),
		Deliverer: d,
	})
}

func makeEnvelope(t *testing.T, event string, payload any) request.WsEnvelope {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return request.WsEnvelope{Event: event, Data: data}
}

// readEvent 从连接的出站通道取一条下行事件
func readEvent(t *testing.T, c *UserConn) (string, json.RawMessage) {
	t.Helper()
	select {
	case raw := <-c.send:
		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode outbound event: %v", err)
		}
		return env.Event, env.Data
	case <-time.After(time.Second):
		t.Fatal("no outbound event within timeout")
		return "", nil
	}
}

func TestJoinBindsPresence(t *testing.T) {
	hub := newTestHub(newStubDeliverer())
	c := newTestConn("conn-1", 5)
	c.hub = hub

	hub.HandleEvent(c, makeEnvelope(t, request.EventJoin, request.JoinPayload{UserID: 5}))

	if !hub.Presence().IsOnline(5) {
		t.Fatal("user should be online after join")
	}
	// 重复 join 幂等
	hub.HandleEvent(c, makeEnvelope(t, request.EventJoin, request.JoinPayload{UserID: 5}))
	if got := len(hub.Presence().ConnsOf(5)); got != 1 {
		t.Fatalf("ConnsOf = %d, want 1 after duplicate join", got)
	}
}

func TestJoinRejectsMismatchedIdentity(t *testing.T) {
	hub := newTestHub(newStubDeliverer())
	c := newTestConn("conn-1", 5)
	c.hub = hub

	hub.HandleEvent(c, makeEnvelope(t, request.EventJoin, request.JoinPayload{UserID: 6}))

	event, _ := readEvent(t, c)
	if event != request.EventError {
		t.Fatalf("event = %q, want error", event)
	}
	if hub.Presence().IsOnline(6) || hub.Presence().IsOnline(5) {
		t.Fatal("mismatched join must not bind presence")
	}
}

func TestEventsRequireJoin(t *testing.T) {
	hub := newTestHub(newStubDeliverer())
	c := newTestConn("conn-1", 5)
	c.hub = hub

	hub.HandleEvent(c, makeEnvelope(t, request.EventSendMessage, request.WsSendMessagePayload{
		ReceiverID: 6, Content: "hi",
	}))

	event, _ := readEvent(t, c)
	if event != request.EventError {
		t.Fatalf("event = %q, want error before join", event)
	}
}

func TestUnknownEventReturnsError(t *testing.T) {
	hub := newTestHub(newStubDeliverer())
	c := newTestConn("conn-1", 5)
	c.hub = hub

	hub.HandleEvent(c, makeEnvelope(t, "no_such_event", struct{}{}))

	event, _ := readEvent(t, c)
	if event != request.EventError {
		t.Fatalf("event = %q, want error for unknown event", event)
	}
}

func TestSendMessageFlowsThroughBroker(t *testing.T) {
	deliverer := newStubDeliverer()
	hub := newTestHub(deliverer)
	go hub.Start()
	defer hub.Close()

	c := newTestConn("conn-1", 5)
	c.hub = hub
	hub.HandleEvent(c, makeEnvelope(t, request.EventJoin, request.JoinPayload{UserID: 5}))
	hub.HandleEvent(c, makeEnvelope(t, request.EventSendMessage, request.WsSendMessagePayload{
		ReceiverID:  6,
		Content:     "hello there",
		MessageType: "text",
	}))

	select {
	case got := <-deliverer.messages:
		if got.senderID != 5 {
			t.Fatalf("senderID = %d, want 5 (from authenticated identity)", got.senderID)
		}
		if got.payload.ReceiverID != 6 || got.payload.Content != "hello there" {
			t.Fatalf("payload = %+v", got.payload)
		}
	case <-time.After(time.Second):
		t.Fatal("message did not reach deliverer")
	}
}

func TestTypingFlowsThroughBroker(t *testing.T) {
	deliverer := newStubDeliverer()
	hub := newTestHub(deliverer)
	go hub.Start()
	defer hub.Close()

	c := newTestConn("conn-1", 5)
	c.hub = hub
	hub.HandleEvent(c, makeEnvelope(t, request.EventJoin, request.JoinPayload{UserID: 5}))
	hub.HandleEvent(c, makeEnvelope(t, request.EventTyping, request.TypingPayload{ReceiverID: 6, IsTyping: true}))

	select {
	case got := <-deliverer.typing:
		if got.ReceiverID != 6 || !got.IsTyping {
			t.Fatalf("typing payload = %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("typing did not reach deliverer")
	}
}

func TestDispatchDeliverErrorReturnsToSender(t *testing.T) {
	deliverer := newStubDeliverer()
	deliverer.err = errorx.New(errorx.CodeNotFound, "Receiver not found")
	hub := newTestHub(deliverer)

	c := newTestConn("conn-1", 5)
	c.hub = hub
	hub.HandleEvent(c, makeEnvelope(t, request.EventJoin, request.JoinPayload{UserID: 5}))

	env := makeEnvelope(t, request.EventSendMessage, request.WsSendMessagePayload{ReceiverID: 999, Content: "hi"})
	hub.Dispatch(request.WireMessage{SenderID: 5, Envelope: env})

	event, data := readEvent(t, c)
	if event != request.EventError {
		t.Fatalf("event = %q, want error", event)
	}
	var errData struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &errData); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if errData.Code != errorx.CodeNotFound {
		t.Fatalf("code = %d, want %d", errData.Code, errorx.CodeNotFound)
	}
}

func TestJoinAfterTeardownDoesNotRegister(t *testing.T) {
	// Write 协程可能先触发 teardown，而 Read 协程还在处理一帧已读到的 join
	hub := newTestHub(newStubDeliverer())
	c := newTestConn("conn-1", 5)
	c.hub = hub

	c.teardown()
	hub.HandleEvent(c, makeEnvelope(t, request.EventJoin, request.JoinPayload{UserID: 5}))

	if hub.Presence().IsOnline(5) {
		t.Fatal("join after teardown must not register presence")
	}
	if got := len(hub.Presence().ConnsOf(5)); got != 0 {
		t.Fatalf("ConnsOf = %d, want 0 dead connections registered", got)
	}
	// 再次 teardown 幂等，依然不在线
	c.teardown()
	if hub.Presence().IsOnline(5) {
		t.Fatal("user must stay offline after repeated teardown")
	}
}

func TestTeardownAfterJoinClearsPresence(t *testing.T) {
	hub := newTestHub(newStubDeliverer())
	c := newTestConn("conn-1", 5)
	c.hub = hub

	hub.HandleEvent(c, makeEnvelope(t, request.EventJoin, request.JoinPayload{UserID: 5}))
	if !hub.Presence().IsOnline(5) {
		t.Fatal("user should be online after join")
	}

	c.teardown()
	if hub.Presence().IsOnline(5) {
		t.Fatal("teardown must remove the connection from presence")
	}

	// teardown 之后同一连接的 join 不得复活在线状态
	hub.HandleEvent(c, makeEnvelope(t, request.EventJoin, request.JoinPayload{UserID: 5}))
	if hub.Presence().IsOnline(5) {
		t.Fatal("closed connection must not re-register presence")
	}
}

func TestSendToUserOffline(t *testing.T) {
	hub := newTestHub(newStubDeliverer())
	if hub.SendToUser(42, []byte("{}")) {
		t.Fatal("SendToUser to offline user should report false")
	}
}

func TestEnqueueDropsWhenBufferFull(t *testing.T) {
	// 零缓冲且无人消费，模拟一条卡死的慢连接
	c := &UserConn{
		ID:     "conn-slow",
		UserID: 1,
		send:   make(chan []byte),
		quit:   make(chan struct{}),
	}
	if c.Enqueue([]byte("x")) {
		t.Fatal("enqueue into stuck connection should drop and report false")
	}
}
