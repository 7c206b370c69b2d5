package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GigaChatProvider talks to the Sber GigaChat API. Tokens are obtained
// through the client-credentials OAuth flow, cached until shortly
// before expiry, and refreshed at most once when a completion comes
// back 401/403.
type GigaChatProvider struct {
	authKey      string
	clientID     string
	clientSecret string
	baseURL      string
	authURL      string
	scope        string

	authClient       *http.Client
	completionClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

type GigaChatConfig struct {
	AuthKey      string
	ClientID     string
	ClientSecret string
	BaseURL      string
	AuthURL      string
	Scope        string
}

func NewGigaChatProvider(cfg GigaChatConfig) *GigaChatProvider {
	scope := cfg.Scope
	if scope == "" {
		scope = "GIGACHAT_API_PERS"
	}
	return &GigaChatProvider{
		authKey:          strings.TrimSpace(cfg.AuthKey),
		clientID:         strings.TrimSpace(cfg.ClientID),
		clientSecret:     strings.TrimSpace(cfg.ClientSecret),
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		authURL:          strings.TrimRight(cfg.AuthURL, "/"),
		scope:            scope,
		authClient:       &http.Client{Timeout: 30 * time.Second},
		completionClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *GigaChatProvider) Name() string { return "gigachat" }

// basicHeader accepts either a pre-encoded auth key or raw id:secret
// credentials.
func (p *GigaChatProvider) basicHeader() (string, error) {
	source := p.authKey
	if source == "" && p.clientID != "" && p.clientSecret != "" {
		source = p.clientID + ":" + p.clientSecret
	}
	if source == "" {
		return "", fmt.Errorf("gigachat credentials are not configured")
	}
	if strings.HasPrefix(strings.ToLower(source), "basic ") {
		return source, nil
	}
	if strings.Contains(source, ":") {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(source)), nil
	}
	if _, err := base64.StdEncoding.DecodeString(source); err == nil {
		return "Basic " + source, nil
	}
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(source)), nil
}

func (p *GigaChatProvider) tokenURL() string {
	base := p.authURL
	if base == "" {
		base = p.baseURL
	}
	if !strings.HasSuffix(base, "/oauth") {
		base += "/oauth"
	}
	if strings.HasSuffix(base, "/api/v1/oauth") {
		base += "/token"
	}
	return base
}

// ensureToken fetches a bearer token unless the cached one is still
// valid. Guarded by the mutex so concurrent requests refresh once.
func (p *GigaChatProvider) ensureToken(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token != "" && time.Now().Before(p.tokenExpiry) {
		return nil
	}

	basic, err := p.basicHeader()
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("scope", p.scope)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.NewString())
	if p.clientID != "" {
		req.Header.Set("X-Client-ID", p.clientID)
	}

	resp, err := p.authClient.Do(req)
	if err != nil {
		return fmt.Errorf("gigachat auth: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gigachat auth failed (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	var data struct {
		AccessToken string  `json:"access_token"`
		ExpiresIn   float64 `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Errorf("gigachat auth response: %w", err)
	}

	ttl := 600 * time.Second
	if data.ExpiresIn > 0 {
		secs := int(data.ExpiresIn) - 30
		if secs < 60 {
			secs = 60
		}
		ttl = time.Duration(secs) * time.Second
	}
	p.token = data.AccessToken
	p.tokenExpiry = time.Now().Add(ttl)
	return nil
}

func (p *GigaChatProvider) invalidateToken() {
	p.mu.Lock()
	p.token = ""
	p.tokenExpiry = time.Time{}
	p.mu.Unlock()
}

func (p *GigaChatProvider) currentToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.token
}

// Complete calls the chat completion endpoint, retrying exactly once
// after refreshing an expired bearer token.
func (p *GigaChatProvider) Complete(ctx context.Context, messages []Message, temperature float32) (string, error) {
	if err := p.ensureToken(ctx); err != nil {
		return "", err
	}

	type wireMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	wire := make([]wireMessage, 0, len(messages))
	for _, m := range messages {
		wire = append(wire, wireMessage{Role: m.Role, Content: m.Content})
	}
	payload, err := json.Marshal(map[string]interface{}{
		"model":       "GigaChat",
		"messages":    wire,
		"temperature": temperature,
		"max_tokens":  1024,
	})
	if err != nil {
		return "", err
	}

	for attempt := 1; attempt <= 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", strings.NewReader(string(payload)))
		if err != nil {
			return "", err
		}
		req.Header.Set("Authorization", "Bearer "+p.currentToken())
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("RqUID", uuid.NewString())
		if p.clientID != "" {
			req.Header.Set("X-Client-ID", p.clientID)
		}

		resp, err := p.completionClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("gigachat completion: %w", err)
		}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			if attempt == 1 {
				p.invalidateToken()
				if err := p.ensureToken(ctx); err != nil {
					return "", err
				}
				continue
			}
			return "", fmt.Errorf("gigachat request failed (status %d): %s", resp.StatusCode, truncate(string(body), 200))
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("gigachat request failed (status %d): %s", resp.StatusCode, truncate(string(body), 200))
		}

		var data struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(body, &data); err != nil {
			return "", fmt.Errorf("gigachat response: %w", err)
		}
		if len(data.Choices) == 0 {
			return "", fmt.Errorf("gigachat returned no choices")
		}
		return data.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("gigachat request failed after retry")
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[:n]
	}
	return s
}
