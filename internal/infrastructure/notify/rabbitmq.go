package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xiebiao/library/internal/application/notification"
)

// Publisher 消息发布接口（*mq.Publisher实现）
type Publisher interface {
	Publish(ctx context.Context, routingKey string, msg interface{}) error
}

// RoutingKeyPrefix 通知消息routing_key前缀，完整形式为 notification.<kind>
const RoutingKeyPrefix = "notification."

// RabbitMQSink 把通知发布到交换机，由bot进程消费后发送
// 发布成功即视为本次投递完成
type RabbitMQSink struct {
	publisher Publisher
}

// NewRabbitMQSink 创建RabbitMQ通道
func NewRabbitMQSink(publisher Publisher) *RabbitMQSink {
	return &RabbitMQSink{publisher: publisher}
}

func (s *RabbitMQSink) Name() string { return "rabbitmq" }

func (s *RabbitMQSink) Send(ctx context.Context, msg notification.Message) error {
	return s.publisher.Publish(ctx, RoutingKeyPrefix+string(msg.Kind), msg)
}

// Relay 返回消费者回调：解码队列中的通知并交给sink投递
// 解码或投递失败返回error，由消费者丢弃该消息
func Relay(sink notification.Sink) func([]byte) error {
	return func(body []byte) error {
		var msg notification.Message
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("解码通知失败: %w", err)
		}
		return sink.Send(context.Background(), msg)
	}
}
