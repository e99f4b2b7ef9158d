// Package service holds the glue between handlers and infrastructure:
// the RabbitMQ event publisher and the Redis access-token denylist.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/game-social-network/internal/model"
	q "github.com/iliyamo/game-social-network/internal/queue"
)

// QueuePublisher publishes domain events to RabbitMQ. Publishing is
// best-effort: every error is logged and swallowed so the request that
// triggered the event never fails because the broker is down.
type QueuePublisher struct {
	URL string
}

func NewQueuePublisher() *QueuePublisher {
	return &QueuePublisher{URL: q.BrokerURL()}
}

// FriendshipAccepted emits a FriendshipAcceptedEvent.
func (p *QueuePublisher) FriendshipAccepted(ctx context.Context, fs model.Friendship, requestID uint64) {
	ev := q.FriendshipAcceptedEvent{
		FriendshipID: fs.ID,
		RequestID:    requestID,
		UserLoID:     fs.UserLoID,
		UserHiID:     fs.UserHiID,
		AcceptedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	p.publish(ctx, q.FriendshipAcceptedQueue, ev)
}

// TokenReuseDetected emits a TokenReuseEvent.
func (p *QueuePublisher) TokenReuseDetected(ctx context.Context, userID uint64, chainID string) {
	ev := q.TokenReuseEvent{
		UserID:     userID,
		ChainID:    chainID,
		DetectedAt: time.Now().UTC().Format(time.RFC3339),
	}
	p.publish(ctx, q.TokenReuseQueue, ev)
}

// publish declares the durable queue (idempotent) and publishes a
// persistent JSON message to it via the default exchange.
func (p *QueuePublisher) publish(ctx context.Context, queueName string, event any) {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
	}
}
