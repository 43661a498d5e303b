// kafka_broker.go
// 核心职责：分布式模式下的事件流转实现
// 1. 上行事件写入 Kafka，以发送者 ID 为 key 保证同一用户事件有序
// 2. 消费协程从 Kafka 读取全量事件，交给本机分发器处理
// 3. 多实例部署时每台机器只向本机持有的连接推送
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"social_connect_server/internal/dto/request"

	"go.uber.org/zap"
)

// KafkaBroker 基于 Kafka 的 MessageBroker 实现
type KafkaBroker struct {
	client   *KafkaClient
	dispatch func(request.WireMessage)

	done chan struct{}
}

// NewKafkaBroker 创建分布式 Broker
func NewKafkaBroker(client *KafkaClient, dispatch func(request.WireMessage)) *KafkaBroker {
	return &KafkaBroker{
		client:   client,
		dispatch: dispatch,
		done:     make(chan struct{}),
	}
}

// Publish 实现 MessageBroker 接口：发布事件到 Kafka
// 先解出发送者 ID 作为分区 key，同一发送者的事件严格有序
func (b *KafkaBroker) Publish(ctx context.Context, msg []byte) error {
	var wire request.WireMessage
	key := []byte("0")
	if err := json.Unmarshal(msg, &wire); err == nil {
		key = []byte(strconv.FormatInt(wire.SenderID, 10))
	}
	return b.client.SendMessage(ctx, key, msg)
}

// Start 启动 Kafka 消费循环
func (b *KafkaBroker) Start() {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error(fmt.Sprintf("kafka broker panic: %v", r))
		}
	}()

	for {
		select {
		case <-b.done:
			return
		default:
		}

		kafkaMessage, err := b.client.Consumer.ReadMessage(ctx)
		if err != nil {
			zap.L().Error(err.Error())
			continue // 读取失败，重试
		}
		zap.L().Debug("kafka message received",
			zap.String("topic", kafkaMessage.Topic),
			zap.Int("partition", kafkaMessage.Partition),
			zap.Int64("offset", kafkaMessage.Offset))

		var wire request.WireMessage
		if err := json.Unmarshal(kafkaMessage.Value, &wire); err != nil {
			zap.L().Error(err.Error())
			continue // 反序列化失败，直接跳过
		}
		b.dispatch(wire)
	}
}

// Close 关闭消费循环
func (b *KafkaBroker) Close() {
	close(b.done)
}
