// Package platform defines the contract against the remote messaging
// platform: data models, the error taxonomy, and the Gateway interface,
// plus the HTTP implementation of that contract.
package platform

import "time"

// Thread is one conversation between a creator and a fan, as reported
// by the platform. Threads are replaced wholesale on each roster poll
// and never partially mutated.
type Thread struct {
	// FanID is the platform's stable identifier for the fan.
	FanID string

	// Handle is the fan's public handle.
	Handle string

	// DisplayName is the fan's display name.
	DisplayName string

	// Nickname is an optional operator-assigned nickname.
	Nickname string

	// AvatarURL is an optional avatar reference.
	AvatarURL string

	// LTV is the fan's lifetime spend in integer minor units.
	LTV int64

	// UnreadCount is the number of unread fan messages.
	UnreadCount int

	// LastMessage summarizes the most recent message in the thread.
	LastMessage LastMessageSummary

	// Muted reports whether the thread is muted.
	Muted bool

	// RegisteredAt is when the fan registered on the platform.
	RegisteredAt time.Time
}

// LastMessageSummary is the roster-level preview of a thread's latest
// message.
type LastMessageSummary struct {
	Text        string
	HasMedia    bool
	Timestamp   time.Time
	FromCreator bool
}

// MessageStatus is the local delivery status of a message.
type MessageStatus string

const (
	// StatusConfirmed means the platform has acknowledged the message.
	StatusConfirmed MessageStatus = "confirmed"

	// StatusPending means the message was sent optimistically and is
	// awaiting platform acknowledgement.
	StatusPending MessageStatus = "pending"

	// StatusFailed means dispatch failed; the message stays visible
	// until the operator retries or discards it.
	StatusFailed MessageStatus = "failed"
)

// Message is a single direct message. Confirmed messages carry a
// ServerID; pending and failed messages carry a TempID with no relation
// to any ServerID until reconciled.
type Message struct {
	// ServerID is the platform's stable identifier, set once confirmed.
	ServerID string

	// TempID is the locally minted identifier for optimistic sends.
	TempID string

	// Timestamp orders the message. Pending messages carry the local
	// send time for display only; they sort after all confirmed
	// messages regardless.
	Timestamp time.Time

	// Text is the optional message body.
	Text string

	// MediaRefs are opaque vault attachment identifiers.
	MediaRefs []string

	// Price is the optional pay-per-view price in minor units.
	Price int64

	// FromCreator is true for creator-authored messages.
	FromCreator bool

	// Status is the local delivery status.
	Status MessageStatus

	// FailureKind carries the gateway error kind for failed sends.
	FailureKind ErrorKind
}

// SendPayload is the normalized content of an outgoing message.
type SendPayload struct {
	Text      string
	MediaRefs []string
	Price     int64
}

// Empty reports whether the payload carries no content at all.
func (p SendPayload) Empty() bool {
	return p.Text == "" && len(p.MediaRefs) == 0
}

// Clone returns a deep copy so retries cannot observe later mutation.
func (p SendPayload) Clone() SendPayload {
	out := p
	if len(p.MediaRefs) > 0 {
		out.MediaRefs = append([]string(nil), p.MediaRefs...)
	}
	return out
}

// MessagePage is one page of a conversation's history.
type MessagePage struct {
	Messages []Message

	// NextPageToken requests the next-older page; empty when the
	// history is exhausted.
	NextPageToken string
}

// SendReceipt is the platform's acknowledgement of a send.
type SendReceipt struct {
	ServerID  string
	Timestamp time.Time
}

// CloneMessage returns a deep copy of a message.
func CloneMessage(m Message) Message {
	out := m
	if len(m.MediaRefs) > 0 {
		out.MediaRefs = append([]string(nil), m.MediaRefs...)
	}
	return out
}

// CloneMessages returns a deep copy of a message slice.
func CloneMessages(msgs []Message) []Message {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]Message, len(msgs))
	for i := range msgs {
		out[i] = CloneMessage(msgs[i])
	}
	return out
}
