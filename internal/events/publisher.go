package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "questify.events"

	TaskCompleted     = "task.completed"
	TaskRevoked       = "task.revoked"
	QuestCompleted    = "quest.completed"
	RewardClaimed     = "reward.claimed"
	RolloverCompleted = "rollover.completed"
	ShopPurchased     = "shop.purchased"
)

// Publisher 发布领域事件，发布失败不影响主流程
type Publisher interface {
	Publish(routingKey string, payload any) error
}

// Nop 在未配置消息队列时使用
type Nop struct{}

func (Nop) Publish(string, any) error { return nil }

// AMQPPublisher 将事件以 JSON 写入 topic exchange
type AMQPPublisher struct {
	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

// NewAMQPPublisher 连接 RabbitMQ 并声明事件 exchange
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, channel: ch}, nil
}

// Publish 发布事件；amqp channel 非并发安全，需加锁
func (p *AMQPPublisher) Publish(routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.IsConnected() {
		return errors.New("amqp connection closed")
	}
	return p.channel.Publish(
		ExchangeName,
		routingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
		},
	)
}

// IsConnected checks if the publisher connection is still alive
func (p *AMQPPublisher) IsConnected() bool {
	if p.conn == nil || p.channel == nil {
		return false
	}
	return !p.conn.IsClosed()
}

func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// Event 是 Recorder 保存的一条事件
type Event struct {
	RoutingKey string
	Payload    any
}

// Recorder 在内存中记录事件，供测试断言
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(routingKey string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{RoutingKey: routingKey, Payload: payload})
	return nil
}

// Events 返回事件快照
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count 返回指定 routing key 的事件数
func (r *Recorder) Count(routingKey string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.RoutingKey == routingKey {
			n++
		}
	}
	return n
}
