package domain

// EventType tags every pushed payload so clients never have to infer the
// event from which fields happen to be present.
type EventType string

const (
	EventConnected EventType = "connected"
	EventMessage   EventType = "message"
	EventDelivered EventType = "delivered"
	EventSeen      EventType = "seen"
)

// Event is the envelope pushed over a live channel. Exactly one payload
// group is populated per type:
//
//	connected: UserID
//	message:   Message
//	delivered: MessageIDs + ToUserID (whose channel confirmed delivery)
//	seen:      MessageIDs + By (the viewer)
type Event struct {
	Type       EventType `json:"type"`
	UserID     string    `json:"user_id,omitempty"`
	Message    *Message  `json:"message,omitempty"`
	MessageIDs []string  `json:"message_ids,omitempty"`
	ToUserID   string    `json:"to_user_id,omitempty"`
	By         string    `json:"by,omitempty"`
}

func ConnectedEvent(userID string) Event {
	return Event{Type: EventConnected, UserID: userID}
}

func MessageEvent(m *Message) Event {
	return Event{Type: EventMessage, Message: m}
}

func DeliveredEvent(ids []string, toUserID string) Event {
	return Event{Type: EventDelivered, MessageIDs: ids, ToUserID: toUserID}
}

func SeenEvent(ids []string, by string) Event {
	return Event{Type: EventSeen, MessageIDs: ids, By: by}
}
