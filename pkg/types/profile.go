// Package types holds the data model shared across the ACTA core: profiles,
// trust rules, permission requests/decisions, agent plans, and the IPC
// envelope. These are plain structs with JSON tags; no package-specific
// behavior lives here beyond small validation and lookup helpers.
package types

import "regexp"

// ProfileIDPattern is the validation pattern for profile identifiers.
var ProfileIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-_]{2,63}$`)

// TrustLevel is an integer 0-4; higher values allow more without prompting.
type TrustLevel int

const (
	TrustLevelNone     TrustLevel = 0
	TrustLevelLow      TrustLevel = 1
	TrustLevelDefault  TrustLevel = 2
	TrustLevelElevated TrustLevel = 3
	TrustLevelFull     TrustLevel = 4
)

// LLMMode selects where the model runs.
type LLMMode string

const (
	LLMModeLocal LLMMode = "local"
	LLMModeCloud LLMMode = "cloud"
)

// AdapterID identifies a model provider adapter. The wire dialect for each
// is out of scope for this module; the core only routes by this id.
type AdapterID string

const (
	AdapterOllama   AdapterID = "ollama"
	AdapterLMStudio AdapterID = "lmstudio"
	AdapterOpenAI   AdapterID = "openai"
	AdapterAnthropic AdapterID = "anthropic"
	AdapterGemini   AdapterID = "gemini"
)

// cloudAdapters is the set of adapters that imply LLMModeCloud.
var cloudAdapters = map[AdapterID]bool{
	AdapterOpenAI:    true,
	AdapterAnthropic: true,
	AdapterGemini:    true,
}

// IsCloudAdapter reports whether adapter id implies a cloud-mode LLM config.
func IsCloudAdapter(id AdapterID) bool {
	return cloudAdapters[id]
}

// LLMDefaults holds optional generation defaults for an LLM configuration.
type LLMDefaults struct {
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"maxTokens,omitempty"`
}

// LLMConfig describes how the profile talks to a language model.
type LLMConfig struct {
	Mode                   LLMMode           `json:"mode"`
	AdapterID              AdapterID         `json:"adapterId"`
	Model                  string            `json:"model"`
	BaseURL                string            `json:"baseUrl,omitempty"`
	Endpoint               string            `json:"endpoint,omitempty"`
	APIKey                 string            `json:"apiKey,omitempty"`
	Headers                map[string]string `json:"headers,omitempty"`
	CloudWarnBeforeSending *bool             `json:"cloudWarnBeforeSending,omitempty"`
	Defaults               *LLMDefaults      `json:"defaults,omitempty"`
}

// TrustConfig carries the profile's default trust level plus any per-tool
// or per-domain overrides. Posture optionally names a built-in trust
// posture (internal/trustdefaults) whose tool/domain table seeds Tools and
// Domains wherever this profile leaves them unset; explicit entries here
// always take precedence over the named posture.
type TrustConfig struct {
	DefaultTrustLevel TrustLevel            `json:"defaultTrustLevel"`
	Posture           string                `json:"posture,omitempty"`
	Tools             map[string]TrustLevel `json:"tools,omitempty"`
	Domains           map[string]TrustLevel `json:"domains,omitempty"`
}

// Paths holds the profile's safe-relative sub-paths for logs, memory, and
// trust data, resolved against the profile's directory.
type Paths struct {
	Logs   string `json:"logs"`
	Memory string `json:"memory"`
	Trust  string `json:"trust"`
}

// Profile is the per-tenant identity, trust settings, LLM config, and
// directory layout.
type Profile struct {
	ID             string      `json:"id"`
	CreatedAt      int64       `json:"createdAt"`
	UpdatedAt      int64       `json:"updatedAt"`
	SchemaVersion  int         `json:"schemaVersion"`
	Name           string      `json:"name,omitempty"`
	SetupComplete  bool        `json:"setupComplete"`
	Trust          TrustConfig `json:"trust"`
	LLM            LLMConfig   `json:"llm"`
	Paths          Paths       `json:"paths"`
}

// ActiveProfilePointer is the on-disk marker for the currently active
// profile.
type ActiveProfilePointer struct {
	ProfileID string `json:"profileId"`
}
