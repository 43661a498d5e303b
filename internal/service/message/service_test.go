package message

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"social_connect_server/internal/dao/mysql/repository"
	"social_connect_server/internal/dto/request"
	"social_connect_server/internal/dto/respond"
	"social_connect_server/internal/model"
	"social_connect_server/pkg/errorx"
)

// ==================== 测试替身 ====================

type stubUserRepo struct {
	existing map[int64]bool
}

func (r *stubUserRepo) FindByID(id int64) (*model.User, error) {
	if !r.existing[id] {
		return nil, errorx.New(errorx.CodeNotFound, "user not found")
	}
	return &model.User{ID: id, Username: "user", FullName: "User"}, nil
}

func (r *stubUserRepo) Exists(id int64) (bool, error) {
	return r.existing[id], nil
}

func (r *stubUserRepo) UpdateOnlineStatus(id int64, online bool, lastSeen time.Time) error {
	return nil
}

func (r *stubUserRepo) Create(user *model.User) error { return nil }

type stubMessageRepo struct {
	created          []*model.Message
	conversation     []model.Message
	markReadIDs      [][]int64
	markReadAffected int64
	markConvAffected int64
	unreadCount      int64
	deleteAffected   int64
}

func (r *stubMessageRepo) Create(message *model.Message) error {
	copied := *message
	r.created = append(r.created, &copied)
	return nil
}

func (r *stubMessageRepo) FindByID(id int64) (*model.Message, error) {
	return nil, errorx.New(errorx.CodeNotFound, "message not found")
}

func (r *stubMessageRepo) FindConversation(userID, peerID int64, limit, offset int) ([]model.Message, error) {
	return r.conversation, nil
}

func (r *stubMessageRepo) MarkReadByIDs(ids []int64, senderID, receiverID int64) (int64, error) {
	r.markReadIDs = append(r.markReadIDs, ids)
	return r.markReadAffected, nil
}

func (r *stubMessageRepo) MarkConversationRead(senderID, receiverID int64) (int64, error) {
	return r.markConvAffected, nil
}

func (r *stubMessageRepo) CountUnread(receiverID int64) (int64, error) {
	return r.unreadCount, nil
}

func (r *stubMessageRepo) ListConversations(userID int64, limit, offset int) ([]repository.ConversationRow, error) {
	return nil, nil
}

func (r *stubMessageRepo) Search(userID, peerID int64, keyword string, limit, offset int) ([]model.Message, error) {
	return r.conversation, nil
}

func (r *stubMessageRepo) DeleteByIDAndSender(id, senderID int64) (int64, error) {
	return r.deleteAffected, nil
}

type stubSnippets struct{}

func (stubSnippets) GetProfileSnippet(userID int64) (*respond.UserSnippet, error) {
	return &respond.UserSnippet{ID: userID, Username: "bob", FullName: "Bob B", ProfilePicture: "/p.png"}, nil
}

// stubPusher 记录推送，online 控制 SendToUser 的返回值
type stubPusher struct {
	online bool
	pushes map[int64][][]byte
}

func newStubPusher(online bool) *stubPusher {
	return &stubPusher{online: online, pushes: make(map[int64][][]byte)}
}

func (p *stubPusher) SendToUser(userID int64, payload []byte) bool {
	p.pushes[userID] = append(p.pushes[userID], payload)
	return p.online
}

func newTestService(userRepo *stubUserRepo, msgRepo *stubMessageRepo, pusher *stubPusher) *messageService {
	svc := NewMessageService(&repository.Repositories{User: userRepo, Message: msgRepo}, stubSnippets{})
	if pusher != nil {
		svc.SetLivePusher(pusher)
	}
	return svc
}

// ==================== 发送 ====================

func TestSendMessagePersistsUnreadWhenReceiverOffline(t *testing.T) {
	msgRepo := &stubMessageRepo{}
	pusher := newStubPusher(false) // 接收者不在线
	svc := newTestService(&stubUserRepo{existing: map[int64]bool{2: true}}, msgRepo, pusher)

	rsp, err := svc.SendMessage(1, request.SendMessageRequest{ReceiverID: 2, Content: "hello"})
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	if len(msgRepo.created) != 1 {
		t.Fatalf("created = %d rows, want 1", len(msgRepo.created))
	}
	stored := msgRepo.created[0]
	if stored.IsRead {
		t.Fatal("message must be stored unread")
	}
	if stored.ID == 0 {
		t.Fatal("message must get a generated id")
	}
	if stored.MessageType != model.MessageTypeText {
		t.Fatalf("messageType = %q, want default text", stored.MessageType)
	}
	if rsp.SenderUsername != "bob" {
		t.Fatalf("sender snippet not attached: %+v", rsp)
	}
}

func TestSendMessagePushesToOnlineReceiver(t *testing.T) {
	msgRepo := &stubMessageRepo{}
	pusher := newStubPusher(true)
	svc := newTestService(&stubUserRepo{existing: map[int64]bool{2: true}}, msgRepo, pusher)

	if _, err := svc.SendMessage(1, request.SendMessageRequest{ReceiverID: 2, Content: "hello"}); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	payloads := pusher.pushes[2]
	if len(payloads) != 1 {
		t.Fatalf("pushes to receiver = %d, want 1", len(payloads))
	}
	var event struct {
		Event string                 `json:"event"`
		Data  respond.MessageRespond `json:"data"`
	}
	if err := json.Unmarshal(payloads[0], &event); err != nil {
		t.Fatalf("decode push: %v", err)
	}
	if event.Event != request.EventReceiveMessage {
		t.Fatalf("event = %q, want receive_message", event.Event)
	}
	if event.Data.Content != "hello" || event.Data.SenderID != 1 {
		t.Fatalf("pushed message = %+v", event.Data)
	}
}

func TestSendMessageReceiverMissing(t *testing.T) {
	msgRepo := &stubMessageRepo{}
	svc := newTestService(&stubUserRepo{existing: map[int64]bool{}}, msgRepo, newStubPusher(true))

	_, err := svc.SendMessage(1, request.SendMessageRequest{ReceiverID: 99, Content: "hi"})
	if errorx.GetCode(err) != errorx.CodeNotFound {
		t.Fatalf("code = %d, want CodeNotFound", errorx.GetCode(err))
	}
	if len(msgRepo.created) != 0 {
		t.Fatal("nothing should be persisted for a missing receiver")
	}
}

func TestSendMessageToSelfRejected(t *testing.T) {
	svc := newTestService(&stubUserRepo{existing: map[int64]bool{1: true}}, &stubMessageRepo{}, nil)
	_, err := svc.SendMessage(1, request.SendMessageRequest{ReceiverID: 1, Content: "hi"})
	if errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("code = %d, want CodeInvalidParam", errorx.GetCode(err))
	}
}

func TestDeliverMessageValidation(t *testing.T) {
	msgRepo := &stubMessageRepo{}
	svc := newTestService(&stubUserRepo{existing: map[int64]bool{2: true}}, msgRepo, nil)

	long := make([]byte, 2001)
	for i := range long {
		long[i] = 'a'
	}

	cases := []struct {
		name    string
		payload request.WsSendMessagePayload
	}{
		{"missing receiver", request.WsSendMessagePayload{Content: "hi"}},
		{"empty content", request.WsSendMessagePayload{ReceiverID: 2}},
		{"content too long", request.WsSendMessagePayload{ReceiverID: 2, Content: string(long)}},
		{"bad type", request.WsSendMessagePayload{ReceiverID: 2, Content: "hi", MessageType: "video"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.DeliverMessage(1, tc.payload)
			if errorx.GetCode(err) != errorx.CodeInvalidParam {
				t.Fatalf("code = %d, want CodeInvalidParam", errorx.GetCode(err))
			}
		})
	}
	if len(msgRepo.created) != 0 {
		t.Fatal("invalid payloads must not be persisted")
	}
}

func TestDeliverMessageEchoesToSender(t *testing.T) {
	msgRepo := &stubMessageRepo{}
	pusher := newStubPusher(true)
	svc := newTestService(&stubUserRepo{existing: map[int64]bool{2: true}}, msgRepo, pusher)

	if err := svc.DeliverMessage(1, request.WsSendMessagePayload{ReceiverID: 2, Content: "hi"}); err != nil {
		t.Fatalf("DeliverMessage: %v", err)
	}
	if len(pusher.pushes[2]) != 1 {
		t.Fatalf("pushes to receiver = %d, want 1", len(pusher.pushes[2]))
	}
	if len(pusher.pushes[1]) != 1 {
		t.Fatalf("echo pushes to sender = %d, want 1", len(pusher.pushes[1]))
	}
}

func TestDeliverMessageCountsRunesNotBytes(t *testing.T) {
	msgRepo := &stubMessageRepo{}
	svc := newTestService(&stubUserRepo{existing: map[int64]bool{2: true}}, msgRepo, nil)

	// 2000 个多字节字符：字节数远超上限，但字符数恰好合法
	content := strings.Repeat("界", 2000)
	if err := svc.DeliverMessage(1, request.WsSendMessagePayload{ReceiverID: 2, Content: content}); err != nil {
		t.Fatalf("2000-rune multibyte content must be accepted: %v", err)
	}
	if len(msgRepo.created) != 1 {
		t.Fatalf("created = %d rows, want 1", len(msgRepo.created))
	}

	over := strings.Repeat("界", 2001)
	err := svc.DeliverMessage(1, request.WsSendMessagePayload{ReceiverID: 2, Content: over})
	if errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("code = %d, want CodeInvalidParam for 2001 runes", errorx.GetCode(err))
	}
}

// ==================== 会话历史 ====================

func TestGetConversationReversesAndMarksWindowRead(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	// 仓储返回倒序页：最新在前
	msgRepo := &stubMessageRepo{
		conversation: []model.Message{
			{ID: 30, SenderID: 2, ReceiverID: 1, Content: "newest", IsRead: false, CreatedAt: base.Add(2 * time.Minute)},
			{ID: 20, SenderID: 1, ReceiverID: 2, Content: "mine", IsRead: false, CreatedAt: base.Add(time.Minute)},
			{ID: 10, SenderID: 2, ReceiverID: 1, Content: "oldest", IsRead: true, CreatedAt: base},
		},
		markReadAffected: 1,
	}
	svc := newTestService(&stubUserRepo{existing: map[int64]bool{2: true}}, msgRepo, nil)

	out, err := svc.GetConversation(1, 2, request.ConversationQuery{})
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}

	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	// 返回必须是时间升序
	if out[0].ID != 10 || out[1].ID != 20 || out[2].ID != 30 {
		t.Fatalf("order = [%d %d %d], want [10 20 30]", out[0].ID, out[1].ID, out[2].ID)
	}
	// 只有窗口内对方发来的未读消息进入置读
	if len(msgRepo.markReadIDs) != 1 {
		t.Fatalf("markRead calls = %d, want 1", len(msgRepo.markReadIDs))
	}
	if ids := msgRepo.markReadIDs[0]; len(ids) != 1 || ids[0] != 30 {
		t.Fatalf("markRead ids = %v, want [30]", ids)
	}
	// 响应中对方消息一律已读，自己发的不受影响
	if !out[2].IsRead {
		t.Fatal("peer message in window should be reported read")
	}
	if out[1].IsRead {
		t.Fatal("own unread message must not be flipped")
	}
}

func TestGetConversationNoUnreadSkipsMarking(t *testing.T) {
	msgRepo := &stubMessageRepo{
		conversation: []model.Message{
			{ID: 10, SenderID: 1, ReceiverID: 2, Content: "mine", CreatedAt: time.Now()},
		},
	}
	svc := newTestService(&stubUserRepo{existing: map[int64]bool{2: true}}, msgRepo, nil)

	if _, err := svc.GetConversation(1, 2, request.ConversationQuery{}); err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if len(msgRepo.markReadIDs) != 0 {
		t.Fatal("no unread peer messages, MarkReadByIDs must not be called")
	}
}

// ==================== 已读 / 未读计数 ====================

func TestMarkConversationReadReportsAffected(t *testing.T) {
	msgRepo := &stubMessageRepo{markConvAffected: 3}
	svc := newTestService(&stubUserRepo{existing: map[int64]bool{2: true}}, msgRepo, nil)

	rsp, err := svc.MarkConversationRead(1, 2)
	if err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}
	if rsp.MarkedCount != 3 {
		t.Fatalf("markedCount = %d, want 3", rsp.MarkedCount)
	}

	// 第二次没有可翻转的行，幂等返回 0
	msgRepo.markConvAffected = 0
	rsp, err = svc.MarkConversationRead(1, 2)
	if err != nil {
		t.Fatalf("MarkConversationRead (repeat): %v", err)
	}
	if rsp.MarkedCount != 0 {
		t.Fatalf("repeat markedCount = %d, want 0", rsp.MarkedCount)
	}
}

func TestUnreadCount(t *testing.T) {
	msgRepo := &stubMessageRepo{unreadCount: 7}
	svc := newTestService(&stubUserRepo{}, msgRepo, nil)

	rsp, err := svc.UnreadCount(1)
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if rsp.UnreadCount != 7 {
		t.Fatalf("unreadCount = %d, want 7", rsp.UnreadCount)
	}
}

// ==================== 搜索 ====================

func TestSearchKeywordTooShort(t *testing.T) {
	svc := newTestService(&stubUserRepo{}, &stubMessageRepo{}, nil)

	_, err := svc.SearchMessages(1, request.SearchMessageQuery{Keyword: "h"})
	if errorx.GetCode(err) != errorx.CodeInvalidParam {
		t.Fatalf("code = %d, want CodeInvalidParam for one-character keyword", errorx.GetCode(err))
	}

	// 多字节关键字按字符数计
	if _, err := svc.SearchMessages(1, request.SearchMessageQuery{Keyword: "你好"}); err != nil {
		t.Fatalf("two-rune keyword must pass: %v", err)
	}
}

// ==================== 删除 / 输入状态 ====================

func TestDeleteMessageNotOwnerOrMissing(t *testing.T) {
	msgRepo := &stubMessageRepo{deleteAffected: 0}
	svc := newTestService(&stubUserRepo{}, msgRepo, nil)

	err := svc.DeleteMessage(1, 42)
	if errorx.GetCode(err) != errorx.CodeNotFound {
		t.Fatalf("code = %d, want CodeNotFound", errorx.GetCode(err))
	}

	msgRepo.deleteAffected = 1
	if err := svc.DeleteMessage(1, 42); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
}

func TestRelayTypingDoesNotPersist(t *testing.T) {
	msgRepo := &stubMessageRepo{}
	pusher := newStubPusher(true)
	svc := newTestService(&stubUserRepo{}, msgRepo, pusher)

	if err := svc.RelayTyping(1, request.TypingPayload{ReceiverID: 2, IsTyping: true}); err != nil {
		t.Fatalf("RelayTyping: %v", err)
	}
	if len(msgRepo.created) != 0 {
		t.Fatal("typing must not write message rows")
	}

	payloads := pusher.pushes[2]
	if len(payloads) != 1 {
		t.Fatalf("pushes = %d, want 1", len(payloads))
	}
	var event struct {
		Event string                `json:"event"`
		Data  respond.TypingRespond `json:"data"`
	}
	if err := json.Unmarshal(payloads[0], &event); err != nil {
		t.Fatalf("decode push: %v", err)
	}
	if event.Event != request.EventUserTyping || event.Data.SenderID != 1 || !event.Data.IsTyping {
		t.Fatalf("typing event = %+v", event)
	}
}
