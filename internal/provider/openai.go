package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/af-corp/amrs/internal/types"
)

// OpenAIAdapter talks to any OpenAI-compatible chat completions endpoint.
type OpenAIAdapter struct {
	model   types.ModelDescriptor
	apiKey  string
	headers map[string]string
	client  *http.Client
}

func NewOpenAIAdapter(model types.ModelDescriptor, apiKey string, headers map[string]string, client *http.Client) *OpenAIAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	return &OpenAIAdapter{model: model, apiKey: apiKey, headers: headers, client: client}
}

func (a *OpenAIAdapter) Name() string { return "openai" }

func (a *OpenAIAdapter) Complete(ctx context.Context, req *types.Request) (*types.Response, error) {
	httpReq, err := a.TransformRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	httpResp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send %s request: %w", a.model.Provider, err)
	}
	return a.TransformResponse(httpResp)
}

// TransformRequest builds the HTTP request for req using the bound model's
// parameters.
func (a *OpenAIAdapter) TransformRequest(ctx context.Context, req *types.Request) (*http.Request, error) {
	temperature := a.model.Temperature
	maxTokens := a.model.MaxTokens
	body := openAIRequestBody{
		Model:       a.model.ID,
		Messages:    req.Messages,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		TopP:        req.TopP,
		Stop:        req.Stop,
		User:        req.User,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal openai request: %w", err)
	}

	url := a.model.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create http request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+a.apiKey)
	for k, v := range a.headers {
		if v != "" {
			httpReq.Header.Set(k, v)
		}
	}

	return httpReq, nil
}

func (a *OpenAIAdapter) TransformResponse(resp *http.Response) (*types.Response, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openai response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Provider: a.model.Provider, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var oaiResp openAIResponseBody
	if err := json.Unmarshal(body, &oaiResp); err != nil {
		return nil, fmt.Errorf("unmarshal openai response: %w", err)
	}

	out := &types.Response{
		ID:       oaiResp.ID,
		Object:   oaiResp.Object,
		Created:  oaiResp.Created,
		Model:    a.model.ID,
		Provider: a.model.Provider,
		Usage: types.Usage{
			PromptTokens:     oaiResp.Usage.PromptTokens,
			CompletionTokens: oaiResp.Usage.CompletionTokens,
			TotalTokens:      oaiResp.Usage.TotalTokens,
		},
	}

	for _, c := range oaiResp.Choices {
		out.Choices = append(out.Choices, types.Choice{
			Index: c.Index,
			Message: types.Message{
				Role:    c.Message.Role,
				Content: c.Message.Content,
			},
			FinishReason: c.FinishReason,
		})
	}

	return out, nil
}

// StatusError is a non-200 reply from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

type openAIRequestBody struct {
	Model       string          `json:"model"`
	Messages    []types.Message `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	TopP        *float64        `json:"top_p,omitempty"`
	Stop        []string        `json:"stop,omitempty"`
	User        string          `json:"user,omitempty"`
}

type openAIResponseBody struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int           `json:"index"`
		Message      types.Message `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
