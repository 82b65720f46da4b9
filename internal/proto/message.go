package proto

// Wire types for the managed backend's HTTP and subscription surfaces.

const (
	EventMutateMessage = "mutate_message"
	EventError         = "error"
)

// Message is a message record as it travels on the wire.
type Message struct {
	ID            string `json:"id"`
	Body          string `json:"body"`
	From          string `json:"from"`
	RoomID        string `json:"roomId,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
	Version       int64  `json:"_version,omitempty"`
	LastChangedAt int64  `json:"_lastChangedAt,omitempty"`
}

// ListMessagesResponse is the body of a snapshot query. Only the first page
// is ever requested.
type ListMessagesResponse struct {
	Items []Message `json:"items"`
}

// CreateMessageInput is the body of a create mutation.
type CreateMessageInput struct {
	Body   string `json:"body"`
	From   string `json:"from"`
	RoomID string `json:"roomId"`
}

// SubscriptionEvent is the envelope pushed on the live feed, one per
// backend-side mutation.
type SubscriptionEvent struct {
	Event string   `json:"event"`
	Data  *Message `json:"data,omitempty"`
	Error *Error   `json:"error,omitempty"`
}

// Error describes a protocol-level error pushed on the feed.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// TokenRequest asks the push gateway for a device token.
type TokenRequest struct {
	InstallID string `json:"installId"`
	Platform  string `json:"platform"`
}

// TokenResponse carries the issued push token.
type TokenResponse struct {
	Token string `json:"token"`
}

// ChannelConfig describes a notification delivery channel. Only the Android
// platform family consumes it.
type ChannelConfig struct {
	Name             string  `json:"name"`
	Importance       string  `json:"importance"`
	VibrationPattern []int64 `json:"vibrationPattern,omitempty"`
	LightColor       string  `json:"lightColor,omitempty"`
}

// EndpointUpdate registers a delivery address with the analytics collector.
type EndpointUpdate struct {
	Address     string `json:"address"`
	ChannelType string `json:"channelType"`
	OptOut      string `json:"optOut"`
}

// EventRecord is a named analytics event.
type EventRecord struct {
	Name string `json:"name"`
}
