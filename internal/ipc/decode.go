package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/acta-run/acta-core/internal/acterr"
	"github.com/acta-run/acta-core/pkg/types"
)

// rawEnvelope mirrors types.ActaMessage but keeps Payload as json.RawMessage
// so callers can tell "absent" from "present but null" before unmarshalling
// it into the per-type payload shape.
type rawEnvelope struct {
	ID            string              `json:"id"`
	Type          types.MessageType   `json:"type"`
	Source        types.MessageSource `json:"source"`
	Timestamp     int64               `json:"timestamp"`
	Payload       json.RawMessage     `json:"payload"`
	ProfileID     string              `json:"profileId,omitempty"`
	CorrelationID string              `json:"correlationId,omitempty"`
	ReplyTo       string              `json:"replyTo,omitempty"`
}

// Decode parses data into an ActaMessage and validates both its envelope
// shape and its per-type payload schema. The returned
// payload map is nil for message types with no object payload (a payload
// that is a JSON array or primitive still passes envelope validation — it
// simply has no object fields for ValidatePayload to inspect, and most
// per-type validators above will report a missing required field).
func Decode(data []byte) (types.ActaMessage, map[string]any, error) {
	var raw rawEnvelope
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.ActaMessage{}, nil, acterr.Wrap(acterr.CodeIPCInvalidPayload, err)
	}

	msg := types.ActaMessage{
		ID:            raw.ID,
		Type:          raw.Type,
		Source:        raw.Source,
		Timestamp:     raw.Timestamp,
		ProfileID:     raw.ProfileID,
		CorrelationID: raw.CorrelationID,
		ReplyTo:       raw.ReplyTo,
	}

	hasPayload := len(raw.Payload) > 0 && string(raw.Payload) != "null"
	if err := ValidateEnvelope(msg, hasPayload); err != nil {
		return types.ActaMessage{}, nil, err
	}

	var payload map[string]any
	if hasPayload {
		if err := json.Unmarshal(raw.Payload, &payload); err != nil {
			// Payload isn't an object (array/primitive) — leave payload nil
			// and let ValidatePayload's required-field checks fail below for
			// schemas that need an object.
			payload = nil
		}
		msg.Payload = payload
	}

	if err := ValidatePayload(msg.Type, payload); err != nil {
		return types.ActaMessage{}, nil, err
	}

	return msg, payload, nil
}

// Encode serializes msg back to wire JSON.
func Encode(msg types.ActaMessage) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("ipc: encode envelope: %w", err)
	}
	return data, nil
}
