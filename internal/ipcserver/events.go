package ipcserver

import (
	"github.com/oklog/ulid/v2"

	"github.com/acta-run/acta-core/internal/event"
	"github.com/acta-run/acta-core/pkg/types"
)

// forwardEvent translates an internal event.Event into the outbound wire
// envelope it backs, writing it to stdout. Event types with no
// dedicated wire message ride along as system.event so a client watching
// the full stream still observes them.
func (s *Server) forwardEvent(ev event.Event) {
	msg := types.ActaMessage{
		ID:        ulid.Make().String(),
		Source:    types.SourceSystem,
		Timestamp: nowMillis(),
	}

	switch data := ev.Data.(type) {
	case event.TaskPlanReadyData:
		msg.Type = types.MsgTaskPlan
		msg.Payload = map[string]any{"taskId": data.TaskID, "plan": data.Plan}
	case event.TaskStepData:
		msg.Type = types.MsgTaskStep
		status := "in-progress"
		if ev.Type == event.TaskStepCompleted {
			status = "completed"
			if data.Error != "" {
				status = "failed"
			}
		}
		payload := map[string]any{"taskId": data.TaskID, "step": data.Step, "status": status}
		if data.Error != "" {
			payload["error"] = data.Error
		}
		msg.Payload = payload
	case event.TaskCompletedData:
		msg.Type = types.MsgTaskResult
		msg.Payload = map[string]any{"taskId": data.TaskID, "report": data.Report}
	case event.TaskFailedData:
		msg.Type = types.MsgTaskError
		msg.Payload = map[string]any{"taskId": data.TaskID, "code": data.Code, "message": data.Error}
	case event.PermissionRequiredData:
		// The envelope id IS the coordinator's msgId: the UI's replyTo on
		// its permission.response points straight at the pending slot.
		msg.ID = data.MsgID
		msg.Type = types.MsgPermissionRequest
		msg.Source = types.SourceAgent
		msg.CorrelationID = data.CorrelationID
		msg.ProfileID = data.ProfileID
		msg.Payload = map[string]any{"request": data.Request}
	case event.ProfileSwitchedData:
		msg.Type = types.MsgProfileActive
		msg.Payload = map[string]any{"id": data.ProfileID}
	default:
		msg.Type = types.MsgSystemEvent
		msg.Payload = map[string]any{"event": string(ev.Type), "data": ev.Data}
	}

	s.writeEnvelope(msg)
}
