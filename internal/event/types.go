package event

import "github.com/acta-run/acta-core/pkg/types"

// TaskStartedData is published when an agent task begins execution.
type TaskStartedData struct {
	TaskID    string `json:"taskId"`
	ProfileID string `json:"profileId"`
}

// TaskPlanReadyData carries the validated plan for a task.
type TaskPlanReadyData struct {
	TaskID string          `json:"taskId"`
	Plan   types.AgentPlan `json:"plan"`
}

// TaskStepData is published as each plan step starts or completes.
type TaskStepData struct {
	TaskID string          `json:"taskId"`
	Step   types.AgentStep `json:"step"`
	Error  string          `json:"error,omitempty"`
}

// TaskCompletedData carries the final report of a finished task.
type TaskCompletedData struct {
	TaskID string `json:"taskId"`
	Report any    `json:"report"`
}

// TaskFailedData is published when a task ends in error.
type TaskFailedData struct {
	TaskID string `json:"taskId"`
	Code   string `json:"code"`
	Error  string `json:"error"`
}

// TaskStoppedData is published when a task is cancelled by request.
type TaskStoppedData struct {
	TaskID string `json:"taskId"`
}

// PermissionRequiredData mirrors a pending permission prompt. MsgID is the
// coordinator's internal correlation id and becomes the outbound envelope's
// id, so a permission.response's replyTo resolves back to the pending slot.
type PermissionRequiredData struct {
	MsgID         string                  `json:"msgId"`
	CorrelationID string                  `json:"correlationId,omitempty"`
	ProfileID     string                  `json:"profileId,omitempty"`
	Request       types.PermissionRequest `json:"request"`
}

// PermissionResolvedData carries the outcome of a permission prompt.
type PermissionResolvedData struct {
	Decision types.PermissionDecision `json:"decision"`
}

// ProfileSwitchedData is published when the active profile changes.
type ProfileSwitchedData struct {
	ProfileID string `json:"profileId"`
}

// ProfileUpdatedData is published when a profile's settings are saved.
type ProfileUpdatedData struct {
	ProfileID string `json:"profileId"`
}

// TrustRuleAddedData is published when a remembered rule is persisted.
type TrustRuleAddedData struct {
	ProfileID string         `json:"profileId"`
	Rule      types.TrustRule `json:"rule"`
}
