package entity

import "time"

// ImagePlaceholder is shown as the last-message preview for image-only messages.
const ImagePlaceholder = "Image"

// Message represents a message in a thread
type Message struct {
	Id             string    `json:"id"`
	ConversationId string    `json:"conversation_id"`
	SenderId       string    `json:"sender_id"`
	Text           string    `json:"text,omitempty"`
	Image          string    `json:"image,omitempty"`
	Seen           bool      `json:"seen"`
	CreatedAt      time.Time `json:"created_at"`
}

// IsEmpty reports whether the message carries neither text nor image
func (m *Message) IsEmpty() bool {
	return m.Text == "" && m.Image == ""
}

// Preview returns the text to show in a conversation list row
func (m *Message) Preview() string {
	if m.Text != "" {
		return m.Text
	}
	if m.Image != "" {
		return ImagePlaceholder
	}
	return ""
}
