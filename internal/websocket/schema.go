package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState  Event = "state"
	EventClosed Event = "closed"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// StateEvent is pushed whenever the composition session changes: wizard
// step, lecture context, pool and pick counters.
type StateEvent struct {
	Event       Event  `json:"event"`
	SessionID   string `json:"session_id"`
	State       string `json:"state"`
	LectureID   *int64 `json:"lecture_id"`
	PreviewExam *int64 `json:"preview_exam_id"`
	PoolSize    int    `json:"pool_size"`
	PickedCount int    `json:"picked_count"`
}

// ClosedEvent is the final frame before the server closes the stream.
type ClosedEvent struct {
	Event     Event  `json:"event"`
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"` // submitted, expired, closed
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
