// hub.go
// 核心职责：实时通道的聚合结构和事件分发
// 1. 聚合 PresenceRegistry 与 MessageBroker，统一生命周期管理
// 2. 上行事件按事件名路由：join 本地处理，业务事件经 Broker 流转后分发给 Deliverer
// 3. 下行推送按用户扇出到其全部连接，单条慢连接丢弃不阻塞
package chat

import (
	"context"
	"encoding/json"

	"social_connect_server/internal/dto/request"
	"social_connect_server/internal/dto/respond"
	"social_connect_server/pkg/errorx"

	"go.uber.org/zap"
)

// MessageBroker 定义上行事件的流转通道
// 支持多种实现：KafkaBroker (分布式), ChannelBroker (单机)
type MessageBroker interface {
	// Publish 发布序列化后的 WireMessage
	Publish(ctx context.Context, msg []byte) error
	// Start 启动消费循环（阻塞，调用方负责放入协程）
	Start()
	// Close 关闭代理资源
	Close()
}

// Deliverer 定义业务事件的投递接口
// 由 message service 实现：落库、组装下行事件、按在线状态推送
type Deliverer interface {
	// DeliverMessage 处理一条私聊消息：校验、持久化、推送
	DeliverMessage(senderID int64, payload request.WsSendMessagePayload) error
	// RelayTyping 转发输入状态，不落库
	RelayTyping(senderID int64, payload request.TypingPayload) error
}

// Hub 实时通道聚合结构
type Hub struct {
	presence  *PresenceRegistry
	broker    MessageBroker
	deliverer Deliverer
	mode      string
}

// HubConfig 实时通道配置
type HubConfig struct {
	Mode      string // "channel" 或 "kafka"
	Presence  *PresenceRegistry
	Deliverer Deliverer
	// Kafka 模式参数，Channel 模式忽略
	KafkaClient *KafkaClient
}

// NewHub 创建实时通道
// 根据配置选择 ChannelBroker 或 KafkaBroker
func NewHub(cfg HubConfig) *Hub {
	h := &Hub{
		presence:  cfg.Presence,
		deliverer: cfg.Deliverer,
		mode:      cfg.Mode,
	}
	if cfg.Mode == "kafka" {
		h.broker = NewKafkaBroker(cfg.KafkaClient, h.Dispatch)
	} else {
		h.broker = NewChannelBroker(h.Dispatch)
	}
	return h
}

// Presence 获取在线状态登记表
func (h *Hub) Presence() *PresenceRegistry {
	return h.presence
}

// SetDeliverer 注入业务投递实现
// Hub 与 message service 互相依赖，启动时先建 Hub 再通过 setter 闭环
func (h *Hub) SetDeliverer(d Deliverer) {
	h.deliverer = d
}

// Start 启动 Broker 消费循环（阻塞）
func (h *Hub) Start() {
	h.broker.Start()
}

// Close 关闭实时通道
func (h *Hub) Close() {
	h.broker.Close()
}

// HandleEvent 处理一条上行事件（在连接的 Read 协程内调用）
// join 直接绑定在线状态；业务事件附上鉴权身份后进 Broker
func (h *Hub) HandleEvent(c *UserConn, envelope request.WsEnvelope) {
	switch envelope.Event {
	case request.EventJoin:
		h.handleJoin(c, envelope)
	case request.EventSendMessage, request.EventTyping:
		if !c.hasJoined() {
			h.sendErrorTo(c, "join required before sending events")
			return
		}
		h.publish(c, envelope)
	default:
		h.sendErrorTo(c, "unknown event: "+envelope.Event)
	}
}

// handleJoin 绑定连接的在线状态
// 载荷中的 userId 必须与握手时的鉴权身份一致，防止冒充他人上线
func (h *Hub) handleJoin(c *UserConn, envelope request.WsEnvelope) {
	var payload request.JoinPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		h.sendErrorTo(c, "malformed join payload")
		return
	}
	if payload.UserID != c.UserID {
		h.sendErrorTo(c, "join user does not match authenticated user")
		return
	}
	// 重复 join 幂等；已进入关闭流程的连接拒绝登记
	c.joinPresence()
}

// publish 将事件包装为 WireMessage 发布到 Broker
func (h *Hub) publish(c *UserConn, envelope request.WsEnvelope) {
	wire := request.WireMessage{
		SenderID: c.UserID,
		Envelope: envelope,
	}
	data, err := json.Marshal(wire)
	if err != nil {
		zap.L().Error("marshal wire message failed", zap.Error(err))
		return
	}
	if err := h.broker.Publish(ctx, data); err != nil {
		zap.L().Error("publish event failed", zap.Error(err))
		h.sendErrorTo(c, "server busy, please retry later")
	}
}

// Dispatch 消费一条 WireMessage 并路由给 Deliverer
// Channel/Kafka 两种 Broker 的消费循环都汇聚到这里
func (h *Hub) Dispatch(wire request.WireMessage) {
	switch wire.Envelope.Event {
	case request.EventSendMessage:
		var payload request.WsSendMessagePayload
		if err := json.Unmarshal(wire.Envelope.Data, &payload); err != nil {
			h.sendErrorToUser(wire.SenderID, errorx.CodeInvalidParam, "malformed send_message payload")
			return
		}
		if err := h.deliverer.DeliverMessage(wire.SenderID, payload); err != nil {
			zap.L().Error("deliver message failed",
				zap.Int64("sender_id", wire.SenderID),
				zap.Error(err))
			h.sendErrorToUser(wire.SenderID, errorx.GetCode(err), errorx.GetMsg(err))
		}
	case request.EventTyping:
		var payload request.TypingPayload
		if err := json.Unmarshal(wire.Envelope.Data, &payload); err != nil {
			h.sendErrorToUser(wire.SenderID, errorx.CodeInvalidParam, "malformed typing payload")
			return
		}
		if err := h.deliverer.RelayTyping(wire.SenderID, payload); err != nil {
			zap.L().Error("relay typing failed",
				zap.Int64("sender_id", wire.SenderID),
				zap.Error(err))
		}
	default:
		zap.L().Warn("unknown wire event", zap.String("event", wire.Envelope.Event))
	}
}

// SendToUser 将下行事件扇出给用户的全部连接
// 任意一条连接投递成功即返回 true；用户不在线返回 false
func (h *Hub) SendToUser(userID int64, payload []byte) bool {
	delivered := false
	for _, c := range h.presence.ConnsOf(userID) {
		if c.Enqueue(payload) {
			delivered = true
		}
	}
	return delivered
}

// sendErrorTo 给指定连接回 error 事件
func (h *Hub) sendErrorTo(c *UserConn, message string) {
	payload, err := json.Marshal(respond.WsEventRespond{
		Event: request.EventError,
		Data: respond.ErrorRespond{
			Code:    errorx.CodeInvalidParam,
			Message: message,
		},
	})
	if err != nil {
		zap.L().Error("marshal error event failed", zap.Error(err))
		return
	}
	c.Enqueue(payload)
}

// sendErrorToUser 给用户全部连接回 error 事件（异步分发场景用）
func (h *Hub) sendErrorToUser(userID int64, code int, message string) {
	payload, err := json.Marshal(respond.WsEventRespond{
		Event: request.EventError,
		Data: respond.ErrorRespond{
			Code:    code,
			Message: message,
		},
	})
	if err != nil {
		zap.L().Error("marshal error event failed", zap.Error(err))
		return
	}
	h.SendToUser(userID, payload)
}
