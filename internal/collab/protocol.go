package collab

import "encoding/json"

type Message struct {
	Type     string          `json:"type"`
	SceneID  string          `json:"sceneId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

// CursorPos is in scene coordinates.
type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync = "doc.sync"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// Operation types
const (
	OpElementMove       = "element.move"
	OpElementTransform  = "element.transform"
	OpElementVisibility = "element.visibility"
	OpElementRemove     = "element.remove"
	OpElementCreate     = "element.create"
)

// Operation represents a scene mutation
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ClientSeq int64  `json:"clientSeq"`
	ElementID string `json:"elementId,omitempty"`

	// For element.move, in scene coordinates
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`

	// For element.transform: [a, b, c, d, e, f] applied to ElementIDs
	ElementIDs []string  `json:"elementIds,omitempty"`
	Matrix     []float64 `json:"matrix,omitempty"`

	// For element.visibility
	Visible *bool `json:"visible,omitempty"`

	// For element.create; the server writes back generated ids
	Element json.RawMessage `json:"element,omitempty"`
}

// OperationResult reports what applying an operation changed beyond the
// operation itself.
type OperationResult struct {
	CreatedID string   `json:"createdId,omitempty"`
	Removed   []string `json:"removed,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages
type OperationAckPayload struct {
	OperationID     string          `json:"operationId"`
	ServerSeq       int64           `json:"serverSeq"`
	ServerTimestamp int64           `json:"serverTimestamp"`
	Result          OperationResult `json:"result"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages
type OperationBroadcastPayload struct {
	Operation Operation       `json:"operation"`
	UserID    string          `json:"userId"`
	ServerSeq int64           `json:"serverSeq"`
	Result    OperationResult `json:"result"`
}

// WelcomePayload is sent to a client right after it joins a room.
type WelcomePayload struct {
	ClientID  string `json:"clientId"`
	UserID    string `json:"userId"`
	SceneID   string `json:"sceneId"`
	ServerSeq int64  `json:"serverSeq"`
}

// DocSyncPayload carries the full current document.
type DocSyncPayload struct {
	Document  json.RawMessage `json:"document"`
	ServerSeq int64           `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
