// channel_broker.go
// 核心职责：单机模式下的事件流转实现
// 1. 事件进程内通道直连分发器，不依赖外部消息队列
// 2. 通道满时立即报错而不是阻塞读协程，由调用方回错误事件
// 3. 适合单实例部署或开发环境
package chat

import (
	"context"
	"encoding/json"

	"social_connect_server/internal/dto/request"
	"social_connect_server/pkg/constants"
	"social_connect_server/pkg/errorx"

	"go.uber.org/zap"
)

// ChannelBroker 进程内通道实现的 MessageBroker
type ChannelBroker struct {
	// Transmit 事件流转通道
	Transmit chan []byte
	// dispatch 消费回调，指向 Hub.Dispatch
	dispatch func(request.WireMessage)

	done chan struct{}
}

// NewChannelBroker 创建单机 Broker
func NewChannelBroker(dispatch func(request.WireMessage)) *ChannelBroker {
	return &ChannelBroker{
		Transmit: make(chan []byte, constants.CHANNEL_SIZE),
		dispatch: dispatch,
		done:     make(chan struct{}),
	}
}

// Publish 实现 MessageBroker 接口：发布事件到通道
// 通道满时不阻塞，直接返回服务繁忙
func (b *ChannelBroker) Publish(ctx context.Context, msg []byte) error {
	select {
	case b.Transmit <- msg:
		return nil
	default:
		return errorx.ErrServerBusy
	}
}

// Start 消费循环：从通道取事件、反序列化、交给分发器
// 单协程消费保证同一实例内事件按到达顺序处理
func (b *ChannelBroker) Start() {
	for {
		select {
		case data := <-b.Transmit:
			var wire request.WireMessage
			if err := json.Unmarshal(data, &wire); err != nil {
				zap.L().Error("unmarshal wire message failed", zap.Error(err))
				continue
			}
			b.dispatch(wire)
		case <-b.done:
			return
		}
	}
}

// Close 关闭消费循环
func (b *ChannelBroker) Close() {
	close(b.done)
}
