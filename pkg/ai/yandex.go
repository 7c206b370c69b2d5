package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultYandexCompletionURL = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"

// YandexProvider talks to the Yandex Cloud foundation-model API using
// Api-Key auth and a folder-scoped model URI.
type YandexProvider struct {
	apiKey        string
	folderID      string
	model         string
	completionURL string
	maxTokens     int
	client        *http.Client
}

func NewYandexProvider(apiKey, folderID, model, completionURL string) *YandexProvider {
	if model == "" {
		model = "yandexgpt-lite"
	}
	if completionURL == "" {
		completionURL = defaultYandexCompletionURL
	}
	return &YandexProvider{
		apiKey:        strings.TrimSpace(apiKey),
		folderID:      strings.TrimSpace(folderID),
		model:         model,
		completionURL: strings.TrimRight(completionURL, "/"),
		maxTokens:     1024,
		client:        &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *YandexProvider) Name() string { return "yandex" }

func (p *YandexProvider) Complete(ctx context.Context, messages []Message, temperature float32) (string, error) {
	if p.apiKey == "" {
		return "", fmt.Errorf("yandex gpt api key is not configured")
	}
	if p.folderID == "" {
		return "", fmt.Errorf("yandex gpt folder id is not configured")
	}

	// Yandex uses "text" instead of "content" in message objects.
	type wireMessage struct {
		Role string `json:"role"`
		Text string `json:"text"`
	}
	wire := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		wire = append(wire, wireMessage{Role: m.Role, Text: m.Content})
	}

	payload, err := json.Marshal(map[string]interface{}{
		"modelUri": fmt.Sprintf("gpt://%s/%s", p.folderID, p.model),
		"completionOptions": map[string]interface{}{
			"stream":      false,
			"temperature": temperature,
			"maxTokens":   p.maxTokens,
		},
		"messages": wire,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.completionURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Api-Key "+p.apiKey)
	req.Header.Set("X-Folder-Id", p.folderID)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("yandex completion: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("yandex request failed (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	var data struct {
		Result struct {
			Alternatives []struct {
				Message struct {
					Text string `json:"text"`
				} `json:"message"`
			} `json:"alternatives"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("yandex response: %w", err)
	}
	if len(data.Result.Alternatives) == 0 {
		return "", fmt.Errorf("yandex returned no alternatives")
	}
	return data.Result.Alternatives[0].Message.Text, nil
}
