package domain

import "time"

type MessageID string

type MessageSender string

const (
	SenderUser MessageSender = "user"
	SenderAI   MessageSender = "ai"
)

// MessageDelivery tracks the lifecycle of a locally-appended message.
// Server-loaded messages are always delivered.
type MessageDelivery string

const (
	DeliveryPending   MessageDelivery = "pending"
	DeliveryDelivered MessageDelivery = "delivered"
	DeliveryFailed    MessageDelivery = "failed"
)

type Message struct {
	ID          MessageID
	Content     string
	Sender      MessageSender
	Attachments []string
	Timestamp   time.Time
	Delivery    MessageDelivery
}
