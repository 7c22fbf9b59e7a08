// Package events 提供了向 Kafka 上报聊天审计事件的功能。
package events

import (
	"context"
	"encoding/json"
	"time"

	"genai-chat-go/internal/config"
	"genai-chat-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

// ChatExchange 描述一次完成的问答交互，用于审计与离线分析。
type ChatExchange struct {
	UserID             uint      `json:"userId"`
	ConversationID     uint      `json:"conversationId"`
	UserMessageID      uint      `json:"userMessageId"`
	AssistantMessageID uint      `json:"assistantMessageId"`
	Degraded           bool      `json:"degraded"`
	At                 time.Time `json:"at"`
}

// Producer 把聊天事件写入 Kafka。零值（nil）Producer 表示事件上报未启用，
// Publish 会静默跳过，核心聊天链路不依赖 Kafka 的可用性。
type Producer struct {
	writer *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。Brokers 为空时返回 nil，表示不启用。
func NewProducer(cfg config.KafkaConfig) *Producer {
	if cfg.Brokers == "" {
		log.Info("Kafka 未配置，聊天事件上报已禁用")
		return nil
	}
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{writer: writer}
}

// Publish 异步上报一次聊天交互。失败只记录日志，绝不影响调用方。
func (p *Producer) Publish(event ChatExchange) {
	if p == nil {
		return
	}
	go func() {
		payload, err := json.Marshal(event)
		if err != nil {
			log.Errorf("无法序列化聊天事件: %v", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.writer.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
			log.Errorf("上报聊天事件失败: %v", err)
		}
	}()
}

// Close 关闭底层的 Kafka writer。
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
