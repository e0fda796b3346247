package model

import (
	"fmt"
	"time"
)

// ParticipantID identifies a user on the messaging platform.
type ParticipantID string

// ConversationID identifies a group conversation on the messaging platform.
type ConversationID string

// MessageAck is the messaging platform's acknowledgement of a delivered message.
type MessageAck struct {
	ConversationID ConversationID
	MessageID      string
}

// DeliveryKey identifies one notifiable (interview, start time) pair.
// Each distinct start time of an interview is notified at most once.
type DeliveryKey struct {
	InterviewID InterviewID
	StartTime   time.Time
}

// String renders the key as "<id>:<unix seconds>".
func (k DeliveryKey) String() string {
	return fmt.Sprintf("%s:%d", k.InterviewID, k.StartTime.UTC().Unix())
}

// DeliveryRecord documents a reminder that was acknowledged by the messaging platform.
type DeliveryRecord struct {
	Key            DeliveryKey
	ConversationID ConversationID
	MessageID      string
	Recipients     int
	DeliveredAt    time.Time
}
