package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultMaxAttempts 每封邮件最多尝试发送的次数
const DefaultMaxAttempts = 5

// Connect 建立连接并声明持久化队列
func Connect(url, queue string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp connect: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("amqp declare %s: %w", queue, err)
	}
	return conn, ch, nil
}

// QueuePublisher 把邮件以 JSON 形式投递到队列，实现 Sender
type QueuePublisher struct {
	ch    *amqp.Channel
	queue string
	mu    sync.Mutex // amqp.Channel 不支持并发发布
}

func NewQueuePublisher(ch *amqp.Channel, queue string) *QueuePublisher {
	return &QueuePublisher{ch: ch, queue: queue}
}

// Send 投递一封邮件
func (p *QueuePublisher) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	body, err := Encode(msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// Encode 邮件序列化为队列消息体
func Encode(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// Decode 解析队列消息体
func Decode(body []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return Message{}, fmt.Errorf("decode mail message: %w", err)
	}
	return msg, msg.Validate()
}

// Consumer 消费邮件队列并交给 Sender 发送，失败按指数退避重试
type Consumer struct {
	sender      Sender
	log         *zap.Logger
	maxAttempts uint64
	newBackOff  func() backoff.BackOff
}

func NewConsumer(sender Sender, log *zap.Logger) *Consumer {
	return &Consumer{
		sender:      sender,
		log:         log,
		maxAttempts: DefaultMaxAttempts,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxElapsedTime = 2 * time.Minute
			return b
		},
	}
}

// Deliver 解析并发送一条消息；消息格式错误不重试
func (c *Consumer) Deliver(ctx context.Context, body []byte) error {
	msg, err := Decode(body)
	if err != nil {
		return err
	}

	attempt := 0
	operation := func() error {
		attempt++
		err := c.sender.Send(ctx, msg)
		if err != nil {
			c.log.Warn("send mail failed",
				zap.Int("attempt", attempt),
				zap.String("subject", msg.Subject),
				zap.Error(err))
		}
		return err
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), c.maxAttempts-1), ctx)
	return backoff.Retry(operation, b)
}

// Run 阻塞消费 queue，直到 ctx 取消或通道关闭
func (c *Consumer) Run(ctx context.Context, ch *amqp.Channel, queue string) error {
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("amqp qos: %w", err)
	}
	deliveries, err := ch.Consume(queue, "mailer", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("amqp delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

// handle 发送成功 ack；停机打断的消息放回队列，其余失败直接丢弃
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	err := c.Deliver(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case ctx.Err() != nil:
		c.log.Info("requeue mail message on shutdown", zap.Uint64("delivery_tag", d.DeliveryTag))
		_ = d.Nack(false, true)
	default:
		c.log.Error("drop mail message", zap.Uint64("delivery_tag", d.DeliveryTag), zap.Error(err))
		_ = d.Nack(false, false)
	}
}
