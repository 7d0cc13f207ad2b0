package websocket

type Action string

const (
	ActionPing Action = "ping"
	ActionSync Action = "sync"
)

// RequestPayload is a client message on the session clock stream. Sync asks
// for the authoritative remaining time; ping is a keepalive.
type RequestPayload struct {
	Action Action `json:"action"`
}

type Event string

const (
	EventClock   Event = "clock"
	EventExpired Event = "expired"
	EventError   Event = "error"
	EventPong    Event = "pong"
)

// ClockResponse carries the server-side remaining seconds for the caller's
// active session.
type ClockResponse struct {
	Event         Event `json:"event"`
	TimeRemaining int   `json:"time_remaining"`
}

// ExpiredResponse signals that the session's deadline has passed and its
// answers were auto-submitted. The connection closes after this message.
type ExpiredResponse struct {
	Event   Event  `json:"event"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
