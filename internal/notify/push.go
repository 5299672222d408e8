package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"

	"github.com/pepemlv/partysavingrental/internal/logger"
)

// MessageSender is satisfied by *messaging.Client.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// TopicPusher sends FCM notifications to every device subscribed to one topic.
// The admin dashboard subscribes to it.
type TopicPusher struct {
	sender MessageSender
	topic  string
}

func NewTopicPusher(sender MessageSender, topic string) *TopicPusher {
	return &TopicPusher{sender: sender, topic: topic}
}

func NewFirebasePusher(ctx context.Context, app *firebase.App, topic string) (*TopicPusher, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return NewTopicPusher(client, topic), nil
}

func (p *TopicPusher) Push(ctx context.Context, title, body string, data map[string]string) error {
	msg := &messaging.Message{
		Topic:        p.topic,
		Data:         data,
		Notification: &messaging.Notification{Title: title, Body: body},
		Android:      &messaging.AndroidConfig{Priority: "high"},
	}
	logger.ExternalServiceCall("fcm", "send", "topic", p.topic)
	id, err := p.sender.Send(ctx, msg)
	logger.ExternalServiceResult("fcm", "send", err, "topic", p.topic, "message_id", id)
	if err != nil {
		return fmt.Errorf("fcm send to topic %s: %w", p.topic, err)
	}
	return nil
}
