package types

// MessageSource identifies the originator of an envelope.
type MessageSource string

const (
	SourceUI     MessageSource = "ui"
	SourceAgent  MessageSource = "agent"
	SourceTool   MessageSource = "tool"
	SourceSystem MessageSource = "system"
)

// MessageType is the closed set of recognised envelope types.
type MessageType string

const (
	MsgTaskRequest        MessageType = "task.request"
	MsgTaskStop           MessageType = "task.stop"
	MsgTaskPlan           MessageType = "task.plan"
	MsgTaskStep           MessageType = "task.step"
	MsgTaskPermission     MessageType = "task.permission"
	MsgPermissionRequest  MessageType = "permission.request"
	MsgPermissionResponse MessageType = "permission.response"
	MsgLLMHealthCheck     MessageType = "llm.healthCheck"
	MsgProfileList        MessageType = "profile.list"
	MsgProfileCreate      MessageType = "profile.create"
	MsgProfileDelete      MessageType = "profile.delete"
	MsgProfileSwitch      MessageType = "profile.switch"
	MsgProfileActive      MessageType = "profile.active"
	MsgProfileGet         MessageType = "profile.get"
	MsgProfileUpdate      MessageType = "profile.update"
	MsgTaskResult         MessageType = "task.result"
	MsgTaskError          MessageType = "task.error"
	MsgChatRequest        MessageType = "chat.request"
	MsgChatResponse       MessageType = "chat.response"
	MsgChatError          MessageType = "chat.error"
	MsgMemoryRead         MessageType = "memory.read"
	MsgMemoryWrite        MessageType = "memory.write"
	MsgTrustPrompt        MessageType = "trust.prompt"
	MsgSystemEvent        MessageType = "system.event"
)

// KnownMessageTypes is the closed set used by envelope validation.
var KnownMessageTypes = map[MessageType]bool{
	MsgTaskRequest: true, MsgTaskStop: true, MsgTaskPlan: true, MsgTaskStep: true,
	MsgTaskPermission: true, MsgPermissionRequest: true, MsgPermissionResponse: true,
	MsgLLMHealthCheck: true, MsgProfileList: true, MsgProfileCreate: true,
	MsgProfileDelete: true, MsgProfileSwitch: true, MsgProfileActive: true,
	MsgProfileGet: true, MsgProfileUpdate: true, MsgTaskResult: true,
	MsgTaskError: true, MsgChatRequest: true, MsgChatResponse: true,
	MsgChatError: true, MsgMemoryRead: true, MsgMemoryWrite: true,
	MsgTrustPrompt: true, MsgSystemEvent: true,
}

// ActaMessage is the bidirectional IPC envelope.
type ActaMessage struct {
	ID            string        `json:"id"`
	Type          MessageType   `json:"type"`
	Source        MessageSource `json:"source"`
	Timestamp     int64         `json:"timestamp"`
	Payload       any           `json:"payload"`
	ProfileID     string        `json:"profileId,omitempty"`
	CorrelationID string        `json:"correlationId,omitempty"`
	ReplyTo       string        `json:"replyTo,omitempty"`
}
