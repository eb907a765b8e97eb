package ipcserver

import (
	"context"

	"github.com/acta-run/acta-core/internal/config"
	"github.com/acta-run/acta-core/internal/llmclient"
)

type pingResponse struct {
	Models []string `json:"models,omitempty"`
}

// llmPing performs a minimal GET against endpoint to confirm reachability,
// used by llm.healthCheck; the response body shape is adapter-specific and
// deliberately not interpreted beyond "did it decode as JSON at all".
func llmPing(ctx context.Context, client *llmclient.Client, endpoint string) (pingResponse, error) {
	return llmclient.RequestJSON[pingResponse](ctx, client, endpoint, llmclient.Options{
		Method:  "GET",
		Retries: config.DefaultHTTPRetries(),
	})
}

type completionResponse struct {
	Content string `json:"content"`
}

// chatComplete issues a single completion request outside the planner's
// structured-plan contract, for the chat.request/response pair.
func chatComplete(ctx context.Context, client *llmclient.Client, endpoint string, headers map[string]string, input string) (string, error) {
	resp, err := llmclient.RequestJSON[completionResponse](ctx, client, endpoint, llmclient.Options{
		Method:  "POST",
		Headers: headers,
		Retries: config.DefaultHTTPRetries(),
		Body:    map[string]any{"prompt": input, "maxTokens": 1000},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
