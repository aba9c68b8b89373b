package models

import "time"

type SOSStatus string

const (
	SOSActive SOSStatus = "active"
	SOSEnded  SOSStatus = "ended"
)

// SOSAck records one friend acknowledging an SOS.
type SOSAck struct {
	FriendID   string    `json:"friendId"`
	FriendName string    `json:"friendName"`
	AckedAt    time.Time `json:"ackedAt"`
}

// SOSEvent is an ephemeral distress broadcast. It lives only in the in-memory
// cache and is evicted when the originating user ends it.
type SOSEvent struct {
	SOSID     string    `json:"sosId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Message   string    `json:"message,omitempty"`
	Status    SOSStatus `json:"status"`
	Acks      []SOSAck  `json:"acks"`
	StartedAt time.Time `json:"startedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
