package ipcserver

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/acta-run/acta-core/internal/acterr"
	"github.com/acta-run/acta-core/internal/event"
	"github.com/acta-run/acta-core/internal/orchestrator"
	"github.com/acta-run/acta-core/internal/planner"
	"github.com/acta-run/acta-core/internal/safety"
	"github.com/acta-run/acta-core/internal/trust"
	"github.com/acta-run/acta-core/internal/trustdefaults"
	"github.com/acta-run/acta-core/pkg/types"
)

// dispatch routes one decoded envelope to its handler. Every handler is
// responsible for writing its own reply/error envelope; dispatch itself
// never replies.
func (s *Server) dispatch(ctx context.Context, msg types.ActaMessage, payload map[string]any) {
	switch msg.Type {
	case types.MsgTaskRequest:
		s.handleTaskRequest(ctx, msg, payload)
	case types.MsgTaskStop:
		s.handleTaskStop(msg, payload)
	case types.MsgPermissionResponse:
		s.handlePermissionResponse(ctx, msg, payload)
	case types.MsgLLMHealthCheck:
		s.handleHealthCheck(ctx, msg, payload)
	case types.MsgProfileList:
		s.handleProfileList(msg)
	case types.MsgProfileGet:
		s.handleProfileGet(msg, payload)
	case types.MsgProfileCreate:
		s.handleProfileCreate(msg, payload)
	case types.MsgProfileUpdate:
		s.handleProfileUpdate(msg, payload)
	case types.MsgProfileDelete:
		s.handleProfileDelete(msg, payload)
	case types.MsgProfileSwitch:
		s.handleProfileSwitch(msg, payload)
	case types.MsgProfileActive:
		s.handleProfileActive(msg)
	case types.MsgChatRequest:
		s.handleChatRequest(ctx, msg, payload)
	default:
		// memory.{read,write}, trust.prompt, system.event, and the
		// server-to-client-only types (task.plan/step/result/error,
		// permission.request, chat.response/error) carry no inbound
		// handler: the first group is reserved for a future memory store,
		// and the second group only ever originates from this server.
		s.Log.Warn().Str("type", string(msg.Type)).Msg("ipcserver: no handler for inbound message type")
	}
}

func (s *Server) handleTaskStop(msg types.ActaMessage, payload map[string]any) {
	correlationID, _ := payload["correlationId"].(string)
	s.Tasks.RequestStop(correlationID)
}

func (s *Server) handlePermissionResponse(ctx context.Context, msg types.ActaMessage, payload map[string]any) {
	requestID, _ := payload["requestId"].(string)
	decisionStr, _ := payload["decision"].(string)
	remember, _ := payload["remember"].(bool)
	s.Coordinator.Resolve(ctx, msg.ReplyTo, msg.CorrelationID, requestID, types.Decision(decisionStr), remember)
}

func (s *Server) handleHealthCheck(ctx context.Context, msg types.ActaMessage, payload map[string]any) {
	profileID, _ := payload["profileId"].(string)
	prof, err := s.resolveProfile(profileID)
	if err != nil {
		s.replyHealthCheck(msg, false, nil, err)
		return
	}
	endpoint := prof.LLM.BaseURL
	if endpoint == "" {
		endpoint = prof.LLM.Endpoint
	}
	if endpoint == "" {
		s.replyHealthCheck(msg, false, nil, fmt.Errorf("profile %q has no configured LLM endpoint", prof.ID))
		return
	}
	if _, err := llmPing(ctx, s.LLMClient, endpoint); err != nil {
		s.replyHealthCheck(msg, false, nil, err)
		return
	}
	s.replyHealthCheck(msg, true, nil, nil)
}

func (s *Server) replyHealthCheck(msg types.ActaMessage, ok bool, models []string, err error) {
	payload := map[string]any{"ok": ok}
	if len(models) > 0 {
		payload["models"] = models
	}
	if err != nil {
		code, _ := acterr.CodeOf(err)
		payload["error"] = map[string]any{"message": err.Error(), "code": string(code)}
	}
	s.writeEnvelope(types.ActaMessage{
		ID:        ulid.Make().String(),
		Type:      types.MsgLLMHealthCheck,
		Source:    types.SourceSystem,
		Timestamp: nowMillis(),
		ReplyTo:   msg.ID,
		Payload:   payload,
	})
}

func (s *Server) resolveProfile(profileID string) (types.Profile, error) {
	if profileID != "" {
		return s.Profiles.Get(profileID)
	}
	return s.Profiles.Active()
}

func (s *Server) handleTaskRequest(ctx context.Context, msg types.ActaMessage, payload map[string]any) {
	input, _ := payload["input"].(string)
	taskID := msg.ID

	prof, err := s.resolveProfile(msg.ProfileID)
	if err != nil {
		s.writeTaskError(taskID, err)
		return
	}

	var attachments []string
	if ctxMap, ok := payload["context"].(map[string]any); ok {
		if filesRaw, ok := ctxMap["files"].([]any); ok {
			for _, f := range filesRaw {
				if str, ok := f.(string); ok {
					attachments = append(attachments, str)
				}
			}
		}
	}

	task := types.RuntimeTask{
		TaskID:        taskID,
		CorrelationID: msg.CorrelationID,
		ProfileID:     prof.ID,
		Input:         input,
		Attachments:   attachments,
	}

	go func() {
		_, err := s.Tasks.Start(ctx, task, func(runCtx context.Context, task types.RuntimeTask, cancelled func() bool) (any, error) {
			return s.runTask(runCtx, task, prof, cancelled)
		})
		if err != nil {
			s.writeTaskError(taskID, err)
		}
	}()
}

func (s *Server) runTask(ctx context.Context, task types.RuntimeTask, prof types.Profile, cancelled func() bool) (any, error) {
	ruleStore := s.Profiles.RuleStore(prof)
	prof.Trust = trustdefaults.Apply(prof.Trust)
	engine := trust.NewEngine(ruleStore, s.HardBlock, s.Log)

	tools := s.Registry.List()
	planReq := planner.Request{
		UserInput:     task.Input,
		Tools:         toolInfos(tools),
		BlockedTools:  append([]string{}, s.HardBlock.BlockedTools...),
		BlockedScopes: append([]string{}, s.HardBlock.BlockedScopePrefixes...),
		Endpoint:      llmEndpoint(prof),
		Headers:       llmHeaders(prof),
	}

	plan, err := planner.Plan(ctx, s.LLMClient, planReq)
	if err != nil {
		return nil, err
	}

	policy := safety.Policy{
		BlockedTools:  planReq.BlockedTools,
		BlockedScopes: planReq.BlockedScopes,
	}
	if err := safety.Validate(plan, policy); err != nil {
		return nil, acterr.New(acterr.CodeTaskSafetyViolation, err.Error())
	}

	orch := &orchestrator.Orchestrator{
		Registry:  s.Registry,
		Evaluator: engine,
		Waiter:    s.Coordinator,
		Emitter:   event.BusEmitter{Bus: s.Bus},
		Cancelled:     cancelled,
		TaskID:        task.TaskID,
		CorrelationID: task.CorrelationID,
		Profile:       prof,
		WorkDir:       s.WorkDir,
	}
	report, err := orch.Run(ctx, plan, orchestrator.Hooks{})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func toolInfos(summaries []orchestrator.ToolSummary) []planner.ToolInfo {
	infos := make([]planner.ToolInfo, 0, len(summaries))
	for _, t := range summaries {
		infos = append(infos, planner.ToolInfo{ID: t.ID, Description: t.Description})
	}
	return infos
}

func llmEndpoint(prof types.Profile) string {
	if prof.LLM.Endpoint != "" {
		return prof.LLM.Endpoint
	}
	return prof.LLM.BaseURL
}

func llmHeaders(prof types.Profile) map[string]string {
	headers := make(map[string]string, len(prof.LLM.Headers)+1)
	for k, v := range prof.LLM.Headers {
		headers[k] = v
	}
	if prof.LLM.APIKey != "" {
		headers["Authorization"] = "Bearer " + prof.LLM.APIKey
	}
	return headers
}

func (s *Server) writeTaskError(taskID string, err error) {
	code, ok := acterr.CodeOf(err)
	if !ok {
		code = acterr.CodeLLMUnknown
	}
	s.writeEnvelope(types.ActaMessage{
		ID:        ulid.Make().String(),
		Type:      types.MsgTaskError,
		Source:    types.SourceSystem,
		Timestamp: nowMillis(),
		Payload: map[string]any{
			"taskId":  taskID,
			"code":    string(code),
			"message": err.Error(),
		},
	})
}

func (s *Server) handleChatRequest(ctx context.Context, msg types.ActaMessage, payload map[string]any) {
	input, _ := payload["input"].(string)
	prof, err := s.resolveProfile(msg.ProfileID)
	if err != nil {
		s.writeChatError(msg, err)
		return
	}

	text, err := chatComplete(ctx, s.LLMClient, llmEndpoint(prof), llmHeaders(prof), input)
	if err != nil {
		s.writeChatError(msg, err)
		return
	}
	s.writeEnvelope(types.ActaMessage{
		ID:        ulid.Make().String(),
		Type:      types.MsgChatResponse,
		Source:    types.SourceSystem,
		Timestamp: nowMillis(),
		ReplyTo:   msg.ID,
		Payload:   map[string]any{"text": text},
	})
}

func (s *Server) writeChatError(msg types.ActaMessage, err error) {
	s.writeEnvelope(types.ActaMessage{
		ID:        ulid.Make().String(),
		Type:      types.MsgChatError,
		Source:    types.SourceSystem,
		Timestamp: nowMillis(),
		ReplyTo:   msg.ID,
		Payload:   map[string]any{"message": err.Error()},
	})
}

