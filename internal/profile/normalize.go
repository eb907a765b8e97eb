package profile

import "github.com/acta-run/acta-core/pkg/types"

// defaultOllamaBaseURL is substituted for an ollama adapter missing BaseURL.
const defaultOllamaBaseURL = "http://localhost:11434"

// normalize fills in fields a profile document may be missing because it
// was written by an older schema version, so the rest of the package never
// has to special-case a zero value that really means "unset". It mutates
// and returns prof.
func normalize(prof types.Profile) types.Profile {
	if prof.SchemaVersion == 0 {
		prof.SchemaVersion = schemaVersion
	}

	if prof.LLM.AdapterID == "" {
		prof.LLM.AdapterID = types.AdapterOllama
	}
	if prof.LLM.Mode == "" {
		if types.IsCloudAdapter(prof.LLM.AdapterID) {
			prof.LLM.Mode = types.LLMModeCloud
		} else {
			prof.LLM.Mode = types.LLMModeLocal
		}
	}
	if prof.LLM.Model == "" {
		prof.LLM.Model = "llama3:8b"
	}

	if prof.LLM.BaseURL == "" && prof.LLM.Endpoint != "" {
		prof.LLM.BaseURL = prof.LLM.Endpoint
	}
	if prof.LLM.Endpoint == "" && prof.LLM.BaseURL != "" {
		prof.LLM.Endpoint = prof.LLM.BaseURL
	}
	if prof.LLM.AdapterID == types.AdapterOllama && prof.LLM.BaseURL == "" {
		prof.LLM.BaseURL = defaultOllamaBaseURL
		prof.LLM.Endpoint = defaultOllamaBaseURL
	}
	if prof.LLM.CloudWarnBeforeSending == nil {
		warn := true
		prof.LLM.CloudWarnBeforeSending = &warn
	}

	if prof.Paths.Logs == "" {
		prof.Paths.Logs = "logs"
	}
	if prof.Paths.Memory == "" {
		prof.Paths.Memory = "memory"
	}
	if prof.Paths.Trust == "" {
		prof.Paths.Trust = "trust"
	}

	return prof
}

// defaultPaths returns the standard safe-relative layout for a newly
// created profile.
func defaultPaths() types.Paths {
	return types.Paths{Logs: "logs", Memory: "memory", Trust: "trust"}
}
