package bot

// EventKind discriminates inbound events by payload.
type EventKind int

const (
	// EventText is a plain text message (menu labels included).
	EventText EventKind = iota
	// EventPhoto is a photo attachment, carried by its file reference.
	EventPhoto
	// EventCallback is an inline button press.
	EventCallback
	// EventCommand is a slash command (start, cancel).
	EventCommand
)

// Token is a parsed callback: the routing key plus an opaque payload.
type Token struct {
	Key     string
	Payload string
}

// Event is one inbound update tagged with the user identity. Exactly one of
// Text, PhotoRef, Callback is meaningful depending on Kind.
type Event struct {
	UserID   int64
	Sender   string // display name, used when escalating to support
	Kind     EventKind
	Text     string
	PhotoRef string
	Callback Token
}
