package request

import "encoding/json"

// WebSocket 事件名，上行与下行共用一套信封格式
const (
	EventJoin           = "join"            // 上行：绑定连接身份
	EventSendMessage    = "send_message"    // 上行：发送私聊消息
	EventTyping         = "typing"          // 上行：输入状态
	EventReceiveMessage = "receive_message" // 下行：新消息推送
	EventUserTyping     = "user_typing"     // 下行：对方输入状态
	EventError          = "error"           // 下行：事件处理失败
)

// WsEnvelope WebSocket 事件信封
// 所有客户端上行消息统一为 {event, data} 结构，data 延迟解析
type WsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// JoinPayload join 事件载荷，客户端连接后声明身份
type JoinPayload struct {
	UserID int64 `json:"userId"`
}

// WsSendMessagePayload send_message 事件载荷
type WsSendMessagePayload struct {
	ReceiverID  int64  `json:"receiverId"`
	Content     string `json:"content"`
	MessageType string `json:"messageType"`
}

// TypingPayload typing 事件载荷
// IsTyping 标识开始/停止输入，原样转发给接收方
type TypingPayload struct {
	ReceiverID int64 `json:"receiverId"`
	IsTyping   bool  `json:"isTyping"`
}

// WireMessage 带发送者身份的内部事件
// Read 协程解出信封后附上鉴权用户 ID，经 Broker 流转后交给分发器
// Kafka 模式下该结构会序列化进消息队列
type WireMessage struct {
	SenderID int64      `json:"senderId"`
	Envelope WsEnvelope `json:"envelope"`
}
