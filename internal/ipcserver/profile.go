package ipcserver

import (
	"encoding/json"

	"github.com/oklog/ulid/v2"

	"github.com/acta-run/acta-core/internal/acterr"
	"github.com/acta-run/acta-core/pkg/types"
)

func (s *Server) handleProfileList(msg types.ActaMessage) {
	profiles, err := s.Profiles.List()
	if err != nil {
		s.writeProfileError(msg, err)
		return
	}
	s.writeEnvelope(types.ActaMessage{
		ID:        ulid.Make().String(),
		Type:      types.MsgProfileList,
		Source:    types.SourceSystem,
		Timestamp: nowMillis(),
		ReplyTo:   msg.ID,
		Payload:   map[string]any{"profiles": profiles},
	})
}

func (s *Server) handleProfileGet(msg types.ActaMessage, payload map[string]any) {
	id, _ := payload["id"].(string)
	if id == "" {
		id = msg.ProfileID
	}
	prof, err := s.Profiles.Get(id)
	if err != nil {
		s.writeProfileError(msg, err)
		return
	}
	s.writeEnvelope(types.ActaMessage{
		ID:        ulid.Make().String(),
		Type:      types.MsgProfileGet,
		Source:    types.SourceSystem,
		Timestamp: nowMillis(),
		ReplyTo:   msg.ID,
		Payload:   map[string]any{"profile": prof},
	})
}

func (s *Server) handleProfileCreate(msg types.ActaMessage, payload map[string]any) {
	var draft types.Profile
	if err := remarshal(payload, &draft); err != nil {
		s.writeProfileError(msg, err)
		return
	}
	prof, err := s.Profiles.Create(draft)
	if err != nil {
		s.writeProfileError(msg, err)
		return
	}
	s.writeEnvelope(types.ActaMessage{
		ID:        ulid.Make().String(),
		Type:      types.MsgProfileCreate,
		Source:    types.SourceSystem,
		Timestamp: nowMillis(),
		ReplyTo:   msg.ID,
		Payload:   map[string]any{"profile": prof},
	})
}

func (s *Server) handleProfileUpdate(msg types.ActaMessage, payload map[string]any) {
	id, _ := payload["id"].(string)
	if id == "" {
		id = msg.ProfileID
	}
	patchRaw, _ := payload["patch"].(map[string]any)

	prof, err := s.Profiles.Update(id, func(p *types.Profile) {
		applyProfilePatch(p, patchRaw)
	})
	if err != nil {
		s.writeProfileError(msg, err)
		return
	}
	s.writeEnvelope(types.ActaMessage{
		ID:        ulid.Make().String(),
		Type:      types.MsgProfileUpdate,
		Source:    types.SourceSystem,
		Timestamp: nowMillis(),
		ReplyTo:   msg.ID,
		Payload:   map[string]any{"profile": prof},
	})
}

func (s *Server) handleProfileDelete(msg types.ActaMessage, payload map[string]any) {
	id, _ := payload["id"].(string)
	archive, _ := payload["archive"].(bool)
	if id == "" {
		s.writeProfileError(msg, acterr.New(acterr.CodeIPCInvalidPayload, "profile.delete: id must be non-empty"))
		return
	}
	if err := s.Profiles.Delete(id, archive); err != nil {
		s.writeProfileError(msg, err)
		return
	}
	s.writeEnvelope(types.ActaMessage{
		ID:        ulid.Make().String(),
		Type:      types.MsgProfileDelete,
		Source:    types.SourceSystem,
		Timestamp: nowMillis(),
		ReplyTo:   msg.ID,
		Payload:   map[string]any{"id": id},
	})
}

func (s *Server) handleProfileSwitch(msg types.ActaMessage, payload map[string]any) {
	id, _ := payload["id"].(string)
	if err := s.Profiles.Switch(id); err != nil {
		s.writeProfileError(msg, err)
		return
	}
	s.writeEnvelope(types.ActaMessage{
		ID:        ulid.Make().String(),
		Type:      types.MsgProfileSwitch,
		Source:    types.SourceSystem,
		Timestamp: nowMillis(),
		ReplyTo:   msg.ID,
		Payload:   map[string]any{"id": id},
	})
}

func (s *Server) handleProfileActive(msg types.ActaMessage) {
	prof, err := s.Profiles.Active()
	if err != nil {
		s.writeProfileError(msg, err)
		return
	}
	s.writeEnvelope(types.ActaMessage{
		ID:        ulid.Make().String(),
		Type:      types.MsgProfileActive,
		Source:    types.SourceSystem,
		Timestamp: nowMillis(),
		ReplyTo:   msg.ID,
		Payload:   map[string]any{"profile": prof},
	})
}

func (s *Server) writeProfileError(msg types.ActaMessage, err error) {
	code, ok := acterr.CodeOf(err)
	if !ok {
		code = acterr.CodeIPCInvalidPayload
	}
	s.writeEnvelope(types.ActaMessage{
		ID:        ulid.Make().String(),
		Type:      types.MsgTaskError,
		Source:    types.SourceSystem,
		Timestamp: nowMillis(),
		ReplyTo:   msg.ID,
		Payload: map[string]any{
			"taskId":  "",
			"code":    string(code),
			"message": err.Error(),
		},
	})
}

// remarshal round-trips a decoded payload map through JSON into dst, since
// profile.create's payload is a bag of Profile fields rather than a typed
// envelope.
func remarshal(payload map[string]any, dst any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return acterr.Wrap(acterr.CodeIPCInvalidPayload, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return acterr.Wrap(acterr.CodeIPCInvalidPayload, err)
	}
	return nil
}

// applyProfilePatch overlays a partial JSON patch onto an existing profile,
// reusing Profile's own JSON tags so the wire shape of profile.update's
// patch matches profile.create's full document.
func applyProfilePatch(p *types.Profile, patch map[string]any) {
	if patch == nil {
		return
	}
	data, err := json.Marshal(patch)
	if err != nil {
		return
	}
	json.Unmarshal(data, p)
}
