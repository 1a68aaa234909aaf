// Package models defines the data types shared across the agent runtime:
// messages, sessions, tool results, cron jobs, and sandbox operations.
package models

// MediaAttachment describes a piece of media carried by a message.
// Data is only ever populated on the most recent inbound user record and
// is never persisted to the session store.
type MediaAttachment struct {
	Type     string `json:"type"`
	MimeType string `json:"mimeType"`
	Data     string `json:"data,omitempty"`
	URL      string `json:"url,omitempty"`
}

// InboundMessage is created by a Channel on arrival and consumed exactly
// once by the agent. It is never mutated after creation.
type InboundMessage struct {
	Channel         string            `json:"channel"`
	ChatID          string            `json:"chatId"`
	SenderID        string            `json:"senderId"`
	Content         string            `json:"content"`
	MediaAttachments []MediaAttachment `json:"mediaAttachments,omitempty"`
	ReceivedAtMs    int64             `json:"receivedAtMs"`
}

// OwnerKey returns the isolation unit for sessions, cron jobs, and turn locks.
func (m InboundMessage) OwnerKey() string {
	return m.Channel + ":" + m.ChatID
}

// IsBackground reports whether this message should drive a background/cron
// turn rather than a user-facing one (spec.md §4.9).
func (m InboundMessage) IsBackground() bool {
	return m.Channel == "system" && len(m.SenderID) >= 5 && m.SenderID[:5] == "cron:"
}

// OutboundMessage is created by the agent or a tool and consumed by the
// target channel.
type OutboundMessage struct {
	Channel          string            `json:"channel"`
	ChatID           string            `json:"chatId"`
	Content          string            `json:"content"`
	MediaAttachments []MediaAttachment `json:"mediaAttachments,omitempty"`
	ReplyTo          string            `json:"replyTo,omitempty"`
}
