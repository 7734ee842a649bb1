package domain

import (
	"time"

	"github.com/google/uuid"
)

type DeliveryChannel string

const (
	ChannelInApp DeliveryChannel = "in_app"
	ChannelEmail DeliveryChannel = "email"
	ChannelSMS   DeliveryChannel = "sms"
	ChannelPush  DeliveryChannel = "push"
)

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliverySent      DeliveryStatus = "sent"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

// Delivery is a satellite record of one channel attempt for a notification.
// Only in_app is wired today; it is written as delivered at creation time.
type Delivery struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	NotificationID uuid.UUID       `json:"notification_id" db:"notification_id"`
	Channel        DeliveryChannel `json:"channel" db:"channel"`
	Status         DeliveryStatus  `json:"status" db:"status"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
