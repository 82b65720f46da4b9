package core

// Message is the domain model for a chat message.
//
// Timestamps stay in the backend's string encoding (RFC 3339). Ordering
// compares them lexicographically, which for RFC 3339 matches chronological
// order and gives a record without a CreatedAt a deterministic place before
// every record that has one.
type Message struct {
	ID     string
	Body   string
	From   string
	RoomID string

	CreatedAt string
	UpdatedAt string

	// Backend conflict bookkeeping, carried opaquely.
	Version       int64
	LastChangedAt int64
}
