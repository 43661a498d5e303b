// Package message 实现私聊消息的投递与查询业务
// 核心职责：
// 1. 消息投递：校验、落库（初始未读）、按在线状态尽力推送
// 2. 会话历史：倒序分页 + 窗口内置已读
// 3. 会话列表聚合与未读计数（每次现算，保证与消息表一致）
// 4. 输入状态转发（不落库的瞬时事件）
package message

import (
	"encoding/json"
	"time"
	"unicode/utf8"

	"social_connect_server/internal/dao/mysql/repository"
	"social_connect_server/internal/dto/request"
	"social_connect_server/internal/dto/respond"
	"social_connect_server/internal/model"
	"social_connect_server/pkg/constants"
	"social_connect_server/pkg/errorx"
	"social_connect_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

// timeLayout 消息时间的对外格式
const timeLayout = "2006-01-02 15:04:05"

// LivePusher 定义下行推送接口，由 chat.Hub 实现
// 推送永远是尽力而为：返回 false 表示没有任何连接收下消息
type LivePusher interface {
	SendToUser(userID int64, payload []byte) bool
}

// SnippetProvider 提供用户资料片段，由 user service 实现（带缓存）
type SnippetProvider interface {
	GetProfileSnippet(userID int64) (*respond.UserSnippet, error)
}

type messageService struct {
	repos    *repository.Repositories
	snippets SnippetProvider
	pusher   LivePusher
}

// NewMessageService 创建消息 Service
// pusher 依赖与 chat.Hub 互相引用，启动时通过 SetLivePusher 注入
func NewMessageService(repos *repository.Repositories, snippets SnippetProvider) *messageService {
	return &messageService{
		repos:    repos,
		snippets: snippets,
	}
}

// SetLivePusher 注入下行推送实现
func (s *messageService) SetLivePusher(pusher LivePusher) {
	s.pusher = pusher
}

// SendMessage 发送一条私聊消息（HTTP 入口）
// 校验已由 binding 完成，这里只做接收者存在性检查
func (s *messageService) SendMessage(senderID int64, req request.SendMessageRequest) (*respond.MessageRespond, error) {
	messageType := req.MessageType
	if messageType == "" {
		messageType = model.MessageTypeText
	}
	return s.deliver(senderID, req.ReceiverID, req.Content, messageType)
}

// DeliverMessage 发送一条私聊消息（WebSocket 入口，实现 chat.Deliverer）
// WS 载荷不经过 binding，校验在这里补齐
func (s *messageService) DeliverMessage(senderID int64, payload request.WsSendMessagePayload) error {
	if payload.ReceiverID <= 0 {
		return errorx.New(errorx.CodeInvalidParam, "receiverId is required")
	}
	// 按字符数（rune）计长，与 HTTP 入口 binding 的 max=2000 口径一致
	if n := utf8.RuneCountInString(payload.Content); n == 0 || n > constants.MAX_CONTENT_LENGTH {
		return errorx.New(errorx.CodeInvalidParam, "content must be between 1 and 2000 characters")
	}
	messageType := payload.MessageType
	if messageType == "" {
		messageType = model.MessageTypeText
	}
	switch messageType {
	case model.MessageTypeText, model.MessageTypeImage, model.MessageTypeFile:
	default:
		return errorx.New(errorx.CodeInvalidParam, "invalid message type")
	}

	rsp, err := s.deliver(senderID, payload.ReceiverID, payload.Content, messageType)
	if err != nil {
		return err
	}
	// WS 入口没有 HTTP 响应，把消息回显给发送者的全部连接（多设备同步）
	s.push(senderID, request.EventReceiveMessage, rsp)
	return nil
}

// deliver 投递主流程：接收者检查 -> 雪花 ID -> 落库（未读）-> 组装响应 -> 尽力推送
// 无论接收者是否在线，消息都先以未读状态落库；推送失败只记日志不回滚
func (s *messageService) deliver(senderID, receiverID int64, content, messageType string) (*respond.MessageRespond, error) {
	if senderID == receiverID {
		return nil, errorx.New(errorx.CodeInvalidParam, "cannot send message to yourself")
	}
	exists, err := s.repos.User.Exists(receiverID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errorx.New(errorx.CodeNotFound, "Receiver not found")
	}

	message := model.Message{
		ID:          snowflake.GenerateID(),
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Content:     content,
		MessageType: messageType,
		IsRead:      false,
		CreatedAt:   time.Now(),
	}
	if err := s.repos.Message.Create(&message); err != nil {
		return nil, err
	}

	rsp := s.toRespond(&message)
	if pushed := s.push(receiverID, request.EventReceiveMessage, rsp); !pushed {
		// 接收者不在线或连接过慢，消息已落库，上线后靠未读计数补齐
		zap.L().Debug("receiver not reachable, message stored unread",
			zap.Int64("receiver_id", receiverID),
			zap.Int64("message_id", message.ID))
	}
	return rsp, nil
}

// RelayTyping 转发输入状态（实现 chat.Deliverer）
// 瞬时事件：不落库，接收者不在线就丢弃
func (s *messageService) RelayTyping(senderID int64, payload request.TypingPayload) error {
	if payload.ReceiverID <= 0 {
		return errorx.New(errorx.CodeInvalidParam, "receiverId is required")
	}
	s.push(payload.ReceiverID, request.EventUserTyping, respond.TypingRespond{
		SenderID: senderID,
		IsTyping: payload.IsTyping,
	})
	return nil
}

// GetConversation 获取与指定用户的会话历史
// 倒序取页保证 offset 语义，再反转为时间升序返回；
// 返回窗口内对方发来的未读消息顺手置为已读
func (s *messageService) GetConversation(userID, peerID int64, query request.ConversationQuery) ([]respond.MessageRespond, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = constants.DEFAULT_MESSAGE_LIMIT
	}

	messages, err := s.repos.Message.FindConversation(userID, peerID, limit, query.Offset)
	if err != nil {
		return nil, err
	}

	// 收集窗口内对方发来的未读消息
	var unreadIDs []int64
	for i := range messages {
		if messages[i].SenderID == peerID && !messages[i].IsRead {
			unreadIDs = append(unreadIDs, messages[i].ID)
		}
	}
	if len(unreadIDs) > 0 {
		if _, err := s.repos.Message.MarkReadByIDs(unreadIDs, peerID, userID); err != nil {
			return nil, err
		}
	}

	// 反转为时间升序，已置读的消息在响应中直接体现
	out := make([]respond.MessageRespond, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		m := &messages[i]
		if m.SenderID == peerID {
			m.IsRead = true
		}
		out = append(out, *s.toRespond(m))
	}
	return out, nil
}

// ListConversations 获取会话列表
// 每个对端一条，按最新消息时间倒序，附带未读计数
func (s *messageService) ListConversations(userID int64, query request.ConversationListQuery) ([]respond.ConversationRespond, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = constants.DEFAULT_CONVERSATION_LIMIT
	}

	rows, err := s.repos.Message.ListConversations(userID, limit, query.Offset)
	if err != nil {
		return nil, err
	}

	out := make([]respond.ConversationRespond, 0, len(rows))
	for _, row := range rows {
		conv := respond.ConversationRespond{
			UserID:         row.UserID,
			Username:       row.Username,
			FullName:       row.FullName,
			ProfilePicture: row.ProfilePicture,
			IsOnline:       row.IsOnline,
			LastMessage: respond.LastMessageRespond{
				ID:          row.LastMessageID,
				Content:     row.LastMessage,
				MessageType: row.LastMessageType,
				IsRead:      row.LastMessageRead,
				SenderID:    row.LastMessageSenderID,
				CreatedAt:   row.LastMessageTime.Format(timeLayout),
			},
			UnreadCount: row.UnreadCount,
		}
		if row.LastSeen.Valid {
			conv.LastSeen = row.LastSeen.Time.Format(timeLayout)
		}
		out = append(out, conv)
	}
	return out, nil
}

// MarkConversationRead 将指定用户发来的全部未读消息置为已读
// 幂等：重复调用返回 markedCount 0
func (s *messageService) MarkConversationRead(userID, peerID int64) (*respond.MarkReadRespond, error) {
	affected, err := s.repos.Message.MarkConversationRead(peerID, userID)
	if err != nil {
		return nil, err
	}
	return &respond.MarkReadRespond{MarkedCount: affected}, nil
}

// UnreadCount 获取全局未读消息总数
func (s *messageService) UnreadCount(userID int64) (*respond.UnreadCountRespond, error) {
	count, err := s.repos.Message.CountUnread(userID)
	if err != nil {
		return nil, err
	}
	return &respond.UnreadCountRespond{UnreadCount: count}, nil
}

// SearchMessages 按内容子串搜索消息
// 关键字长度下限在这里统一校验，HTTP binding 只做 required
func (s *messageService) SearchMessages(userID int64, query request.SearchMessageQuery) ([]respond.MessageRespond, error) {
	if utf8.RuneCountInString(query.Keyword) < constants.MIN_SEARCH_QUERY_LENGTH {
		return nil, errorx.Newf(errorx.CodeInvalidParam,
			"search query must be at least %d characters", constants.MIN_SEARCH_QUERY_LENGTH)
	}
	limit := query.Limit
	if limit <= 0 {
		limit = constants.DEFAULT_SEARCH_LIMIT
	}

	messages, err := s.repos.Message.Search(userID, query.PeerID, query.Keyword, limit, query.Offset)
	if err != nil {
		return nil, err
	}

	out := make([]respond.MessageRespond, 0, len(messages))
	for i := range messages {
		out = append(out, *s.toRespond(&messages[i]))
	}
	return out, nil
}

// DeleteMessage 删除消息，仅发送者本人可删（物理删除）
// 条件删除影响 0 行时不区分"不存在"和"不是本人"，统一返回未找到
func (s *messageService) DeleteMessage(userID, messageID int64) error {
	affected, err := s.repos.Message.DeleteByIDAndSender(messageID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return errorx.New(errorx.CodeNotFound, "Message not found")
	}
	return nil
}

// toRespond 组装消息响应，附带发送者资料片段
// 片段查询失败不阻断主流程，消息本体字段照常返回
func (s *messageService) toRespond(m *model.Message) *respond.MessageRespond {
	rsp := &respond.MessageRespond{
		ID:          m.ID,
		SenderID:    m.SenderID,
		ReceiverID:  m.ReceiverID,
		Content:     m.Content,
		MessageType: m.MessageType,
		IsRead:      m.IsRead,
		CreatedAt:   m.CreatedAt.Format(timeLayout),
	}
	if s.snippets != nil {
		if snippet, err := s.snippets.GetProfileSnippet(m.SenderID); err == nil {
			rsp.SenderUsername = snippet.Username
			rsp.SenderFullName = snippet.FullName
			rsp.SenderProfilePicture = snippet.ProfilePicture
		} else {
			zap.L().Warn("load sender snippet failed",
				zap.Int64("sender_id", m.SenderID),
				zap.Error(err))
		}
	}
	return rsp
}

// push 序列化下行事件并投递给用户的全部连接
func (s *messageService) push(userID int64, event string, data interface{}) bool {
	if s.pusher == nil {
		return false
	}
	payload, err := json.Marshal(respond.WsEventRespond{Event: event, Data: data})
	if err != nil {
		zap.L().Error("marshal ws event failed", zap.Error(err))
		return false
	}
	return s.pusher.SendToUser(userID, payload)
}
