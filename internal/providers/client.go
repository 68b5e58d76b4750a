package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

const (
	ClientName     = "openai-compat"
	DefaultBaseURL = "https://openrouter.ai/api/v1"
)

// Config holds configuration for the chat client.
type Config struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	// Rate limiting / retry
	RPM        int           // Requests per minute (default: 60)
	MaxRetries int           // Max attempts per request (default: 3)
	RetryDelay time.Duration // Base delay between retries (default: 1s)
}

// Client implements LLMClient against any OpenAI-compatible chat API.
type Client struct {
	apiKey       string
	baseURL      string
	defaultModel string
	client       *http.Client
	limiter      *RateLimiter
	maxRetries   int
	retryDelay   time.Duration
}

// NewClient creates a new chat client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	// Non-positive values fall back to defaults; MaxRetries in particular
	// must never reach retry.Attempts negative, where the uint conversion
	// would retry without bound.
	if cfg.RPM <= 0 {
		cfg.RPM = 60
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}

	return &Client{
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		defaultModel: cfg.DefaultModel,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter:    NewRateLimiter(cfg.RPM),
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// Name returns the client identifier.
func (c *Client) Name() string {
	return ClientName
}

// SetRPM adjusts the rate limit. Safe to call while requests are in flight.
func (c *Client) SetRPM(rpm int) {
	c.limiter.SetRate(rpm)
}

// Chat sends a chat completion request.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	apiReq := apiRequest{
		Model:       model,
		Messages:    make([]apiMessage, 0, len(req.Messages)),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	for _, m := range req.Messages {
		apiReq.Messages = append(apiReq.Messages, convertMessage(m))
	}

	if req.ResponseFormat != nil {
		apiReq.ResponseFormat = &apiResponseFormat{
			Type:       req.ResponseFormat.Type,
			JSONSchema: req.ResponseFormat.JSONSchema,
		}
	}

	result := &ChatResult{
		RequestID: requestID,
		Provider:  ClientName,
		Attempts:  1,
	}

	apiResp, attempts, err := c.doRequest(ctx, "/chat/completions", &apiReq)
	result.Attempts = attempts
	if err != nil {
		result.Success = false
		result.ErrorType = "http_error"
		result.ErrorMessage = err.Error()
		result.ExecutionTime = time.Since(start)
		return result, err
	}

	if len(apiResp.Choices) == 0 {
		result.Success = false
		result.ErrorType = "empty_response"
		result.ErrorMessage = "no choices in response"
		result.ExecutionTime = time.Since(start)
		return result, fmt.Errorf("no choices in response")
	}

	result.Success = true
	result.Content = apiResp.Choices[0].Message.Content
	result.ModelUsed = apiResp.Model
	result.PromptTokens = apiResp.Usage.PromptTokens
	result.CompletionTokens = apiResp.Usage.CompletionTokens
	result.TotalTokens = apiResp.Usage.TotalTokens
	result.ExecutionTime = time.Since(start)

	// Structured output: parse and validate against the canonical schema
	// before promoting the response to ParsedJSON.
	if req.ResponseFormat != nil {
		parsed, err := parseStructuredJSON(result.Content)
		if err != nil {
			result.Success = false
			result.ErrorType = "json_parse"
			result.ErrorMessage = err.Error()
			return result, fmt.Errorf("structured output for request %s: %w", requestID, err)
		}
		if err := validateStructuredJSON(req.ResponseFormat.JSONSchema, parsed); err != nil {
			result.Success = false
			result.ErrorType = "schema_validation"
			result.ErrorMessage = err.Error()
			return result, fmt.Errorf("structured output for request %s: %w", requestID, err)
		}
		result.ParsedJSON = parsed
	}

	return result, nil
}

func convertMessage(m Message) apiMessage {
	if len(m.ImageURLs) == 0 {
		return apiMessage{Role: m.Role, Content: m.Content}
	}

	parts := make([]apiContent, 0, len(m.ImageURLs)+1)
	if m.Content != "" {
		parts = append(parts, apiContent{Type: "text", Text: m.Content})
	}
	for _, url := range m.ImageURLs {
		parts = append(parts, apiContent{
			Type:     "image_url",
			ImageURL: &apiImageURL{URL: url},
		})
	}
	return apiMessage{Role: m.Role, Content: parts}
}

// doRequest posts to the API, retrying retryable statuses with exponential
// backoff and jitter. Returns the parsed response and the attempt count.
func (c *Client) doRequest(ctx context.Context, path string, body *apiRequest) (*apiResponse, int, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	attempts := 0
	var apiResp *apiResponse

	err = retry.Do(
		func() error {
			attempts++

			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}

			req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(bodyBytes))
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to create request: %w", err))
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+c.apiKey)

			resp, err := c.client.Do(req)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}
			respBody, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			if resp.StatusCode == http.StatusTooManyRequests {
				c.limiter.Record429()
			}
			if resp.StatusCode != http.StatusOK {
				statusErr := fmt.Errorf("model API error (status %d): %s", resp.StatusCode, string(respBody))
				if !shouldRetry(resp.StatusCode) {
					return retry.Unrecoverable(statusErr)
				}
				return statusErr
			}

			var parsed apiResponse
			if err := json.Unmarshal(respBody, &parsed); err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to unmarshal response: %w", err))
			}
			apiResp = &parsed
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(10*time.Second),
		retry.MaxJitter(c.retryDelay/2),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, attempts, err
	}
	return apiResp, attempts, nil
}

// shouldRetry returns true for status codes worth another attempt.
func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusRequestTimeout:
		return true
	default:
		return statusCode >= 500
	}
}

// OpenAI-compatible API types

type apiRequest struct {
	Model          string             `json:"model"`
	Messages       []apiMessage       `json:"messages"`
	Temperature    *float64           `json:"temperature,omitempty"`
	MaxTokens      int                `json:"max_tokens,omitempty"`
	ResponseFormat *apiResponseFormat `json:"response_format,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []apiContent
}

type apiContent struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL *apiImageURL `json:"image_url,omitempty"`
}

type apiImageURL struct {
	URL string `json:"url"`
}

type apiResponseFormat struct {
	Type       string          `json:"type"`
	JSONSchema json.RawMessage `json:"json_schema,omitempty"`
}

type apiResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Verify interface
var _ LLMClient = (*Client)(nil)
