package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sanosuguru/go-ticket-inventory/internal/config"
	"github.com/sanosuguru/go-ticket-inventory/internal/domain/notification"
)

// Publisher は昇格通知をRabbitMQに発行する
// コミット後のベストエフォート配信であり、失敗しても台帳の通知行が正となる
type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

// notificationMessage はキューに流す通知のワイヤ表現
type notificationMessage struct {
	NotificationID int64     `json:"notification_id"`
	UserID         int64     `json:"user_id"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewPublisher はRabbitMQに接続し、耐久キューを宣言する
func NewPublisher(cfg *config.RabbitMQConfig) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("RabbitMQ接続に失敗しました: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("チャネル作成に失敗しました: %w", err)
	}

	// キュー宣言は冪等。ブローカー再起動に耐えるよう durable にする
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("キュー宣言に失敗しました: %w", err)
	}

	return &Publisher{conn: conn, ch: ch, queue: cfg.Queue}, nil
}

// PublishNotification は通知をキューに発行する
func (p *Publisher) PublishNotification(ctx context.Context, n *notification.Notification) error {
	body, err := json.Marshal(notificationMessage{
		NotificationID: n.ID,
		UserID:         n.UserID,
		Message:        n.Message,
		CreatedAt:      n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("通知のエンコードに失敗: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		return fmt.Errorf("通知の発行に失敗: %w", err)
	}
	return nil
}

// Close は接続を閉じる
func (p *Publisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
