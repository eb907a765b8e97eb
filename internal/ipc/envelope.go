// Package ipc implements the IPC envelope shape check and per-message-type
// payload schema validation over the ACTA envelope's
// id/type/source/timestamp/payload fields, with a closed type set.
package ipc

import (
	"fmt"
	"unicode/utf8"

	"github.com/acta-run/acta-core/internal/acterr"
	"github.com/acta-run/acta-core/pkg/types"
)

const (
	maxTaskInputLen  = 20000
	maxContextFiles  = 50
	maxContextFileLen = 500
)

// ValidateEnvelope checks the envelope shape invariants: a string
// id, a type drawn from the closed set, a source drawn from the closed set,
// a numeric timestamp, and a present (possibly nil-valued, but present)
// payload. Callers are expected to have already decoded msg from JSON, so
// "payload not present" is represented by hasPayload.
func ValidateEnvelope(msg types.ActaMessage, hasPayload bool) error {
	if msg.ID == "" {
		return acterr.New(acterr.CodeIPCInvalidPayload, "envelope: id must be non-empty")
	}
	if !types.KnownMessageTypes[msg.Type] {
		return acterr.New(acterr.CodeIPCInvalidPayload, fmt.Sprintf("envelope: unknown type %q", msg.Type))
	}
	switch msg.Source {
	case types.SourceUI, types.SourceAgent, types.SourceTool, types.SourceSystem:
	default:
		return acterr.New(acterr.CodeIPCInvalidPayload, fmt.Sprintf("envelope: unknown source %q", msg.Source))
	}
	if msg.Timestamp == 0 {
		return acterr.New(acterr.CodeIPCInvalidPayload, "envelope: timestamp must be set")
	}
	if !hasPayload {
		return acterr.New(acterr.CodeIPCInvalidPayload, "envelope: payload must be present")
	}
	return nil
}

// ValidatePayload dispatches to the per-type payload schema check of
// the message type. Unknown types never get here (ValidateEnvelope above
// already rejects them); known types with no schema below are permissive
// ("ok: true").
func ValidatePayload(msgType types.MessageType, payload map[string]any) error {
	switch msgType {
	case types.MsgTaskRequest:
		return validateTaskRequest(payload)
	case types.MsgTaskStop:
		return validateTaskStop(payload)
	case types.MsgTaskError:
		return validateTaskError(payload)
	case types.MsgPermissionRequest:
		return validatePermissionRequest(payload)
	case types.MsgPermissionResponse:
		return validatePermissionResponse(payload)
	case types.MsgChatRequest:
		return validateChatRequest(payload)
	case types.MsgChatResponse:
		return validateChatResponse(payload)
	case types.MsgChatError:
		return validateChatError(payload)
	case types.MsgLLMHealthCheck:
		return nil // dual-use, both request and response shapes are permissive
	default:
		return nil
	}
}

func validateTaskRequest(p map[string]any) error {
	input, ok := p["input"].(string)
	if !ok || input == "" {
		return acterr.New(acterr.CodeTaskInvalidInput, "task.request: input must be a non-empty string")
	}
	if utf8.RuneCountInString(input) > maxTaskInputLen {
		return acterr.New(acterr.CodeTaskInputTooLong, fmt.Sprintf("task.request: input exceeds %d characters", maxTaskInputLen))
	}
	if ctxRaw, ok := p["context"]; ok {
		ctxMap, ok := ctxRaw.(map[string]any)
		if !ok {
			return acterr.New(acterr.CodeTaskInvalidInput, "task.request: context must be an object")
		}
		if err := validateTaskContext(ctxMap); err != nil {
			return err
		}
	}
	if tl, ok := p["trustLevel"]; ok {
		s, ok := tl.(string)
		if !ok || (s != "low" && s != "medium" && s != "high") {
			return acterr.New(acterr.CodeTaskInvalidInput, "task.request: trustLevel must be one of low, medium, high")
		}
	}
	return nil
}

func validateTaskContext(ctxMap map[string]any) error {
	if filesRaw, ok := ctxMap["files"]; ok {
		files, ok := filesRaw.([]any)
		if !ok {
			return acterr.New(acterr.CodeTaskInvalidInput, "task.request: context.files must be an array")
		}
		if len(files) > maxContextFiles {
			return acterr.New(acterr.CodeTaskInvalidInput, fmt.Sprintf("task.request: context.files exceeds %d entries", maxContextFiles))
		}
		for _, f := range files {
			s, ok := f.(string)
			if !ok || s == "" || utf8.RuneCountInString(s) > maxContextFileLen {
				return acterr.New(acterr.CodeTaskInvalidInput, "task.request: context.files entries must be non-empty strings up to 500 chars")
			}
		}
	}
	for _, key := range []string{"screen", "clipboard"} {
		if v, ok := ctxMap[key]; ok {
			if _, ok := v.(bool); !ok {
				return acterr.New(acterr.CodeTaskInvalidInput, fmt.Sprintf("task.request: context.%s must be boolean", key))
			}
		}
	}
	return nil
}

func validateTaskStop(p map[string]any) error {
	if v, ok := p["correlationId"]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return acterr.New(acterr.CodeIPCInvalidPayload, "task.stop: correlationId must be a non-empty string")
		}
	}
	return nil
}

func validateTaskError(p map[string]any) error {
	if err := requireNonEmptyString(p, "taskId"); err != nil {
		return err
	}
	if err := requireNonEmptyString(p, "code"); err != nil {
		return err
	}
	if err := requireNonEmptyString(p, "message"); err != nil {
		return err
	}
	if v, ok := p["stepId"]; ok {
		s, ok := v.(string)
		if !ok || s == "" {
			return acterr.New(acterr.CodeIPCInvalidPayload, "task.error: stepId must be a non-empty string when present")
		}
	}
	if v, ok := p["details"]; ok {
		if _, ok := v.(string); !ok {
			return acterr.New(acterr.CodeIPCInvalidPayload, "task.error: details must be a string when present")
		}
	}
	return nil
}

func validatePermissionRequest(p map[string]any) error {
	if v, ok := p["reversible"]; ok {
		if _, ok := v.(bool); !ok {
			return acterr.New(acterr.CodeIPCInvalidPayload, "permission.request: reversible must be boolean")
		}
	}
	if cloudRaw, ok := p["cloud"]; ok {
		cloud, ok := cloudRaw.(map[string]any)
		if !ok {
			return acterr.New(acterr.CodeIPCInvalidPayload, "permission.request: cloud must be an object")
		}
		if err := requireNonEmptyString(cloud, "provider"); err != nil {
			return acterr.New(acterr.CodeIPCInvalidPayload, "permission.request: cloud.provider is required")
		}
	}
	return nil
}

func validatePermissionResponse(p map[string]any) error {
	if err := requireNonEmptyString(p, "requestId"); err != nil {
		return err
	}
	decision, ok := p["decision"].(string)
	if !ok || (decision != string(types.DecisionAllow) && decision != string(types.DecisionDeny)) {
		return acterr.New(acterr.CodeIPCInvalidPayload, "permission.response: decision must be allow or deny")
	}
	if v, ok := p["remember"]; ok {
		if _, ok := v.(bool); !ok {
			return acterr.New(acterr.CodeIPCInvalidPayload, "permission.response: remember must be boolean")
		}
	}
	return nil
}

func validateChatRequest(p map[string]any) error {
	input, ok := p["input"].(string)
	if !ok || input == "" {
		return acterr.New(acterr.CodeChatInvalidInput, "chat.request: input must be a non-empty string")
	}
	return nil
}

func validateChatResponse(p map[string]any) error {
	if _, ok := p["text"].(string); !ok {
		return acterr.New(acterr.CodeChatInvalidPayload, "chat.response: text must be a string")
	}
	return nil
}

func validateChatError(p map[string]any) error {
	if err := requireNonEmptyString(p, "message"); err != nil {
		return acterr.New(acterr.CodeChatInvalidPayload, err.Error())
	}
	return nil
}

func requireNonEmptyString(p map[string]any, key string) error {
	v, ok := p[key]
	if !ok {
		return acterr.New(acterr.CodeIPCInvalidPayload, fmt.Sprintf("%s must be present", key))
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return acterr.New(acterr.CodeIPCInvalidPayload, fmt.Sprintf("%s must be a non-empty string", key))
	}
	return nil
}
