package domain

import "time"

const MaxBodySize = 5000

// Kind describes the payload of a message. It is derived at creation from
// which payload was supplied; image takes precedence over file.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindFile  Kind = "file"
)

// Media holds the resolved attachment of a non-text message. URLs are final
// (already resolved through the object-storage collaborator).
type Media struct {
	Kind     Kind
	URL      string
	FileName string
	MimeType string
}

// Message Invariants:
// 1. A message belongs to exactly one ordered (from, to) pair; both fields
//    are immutable and never empty after creation.
// 2. Delivered and Seen are monotonic false->true; Seen implies Delivered.
// 3. CreatedAt is the sort key for conversation history.
type Message struct {
	ID         string    `json:"id"`
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	Body       string    `json:"text,omitempty"`
	Kind       Kind      `json:"message_type"`
	MediaURL   string    `json:"media_url,omitempty"`
	FileName   string    `json:"file_name,omitempty"`
	MimeType   string    `json:"mime_type,omitempty"`
	Delivered  bool      `json:"delivered"`
	Seen       bool      `json:"seen"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewMessage builds a message ready for persistence. delivered reflects
// whether the recipient's channel was observed live at creation time.
func NewMessage(id, from, to, body string, media *Media, delivered bool, now time.Time) (*Message, error) {
	if id == "" || from == "" || to == "" {
		return nil, ErrInvalidInput
	}
	if body == "" && media == nil {
		return nil, ErrEmptyMessage
	}
	if len(body) > MaxBodySize {
		return nil, ErrMessageTooLarge
	}

	m := &Message{
		ID:         id,
		FromUserID: from,
		ToUserID:   to,
		Body:       body,
		Kind:       KindText,
		Delivered:  delivered,
		CreatedAt:  now,
	}
	if media != nil {
		m.Kind = media.Kind
		m.MediaURL = media.URL
		m.FileName = media.FileName
		m.MimeType = media.MimeType
	}
	return m, nil
}
