package recognition

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/smartcart/backend/internal/domain"
	"golang.org/x/time/rate"
)

const (
	messagesPath     = "/v1/messages"
	apiVersion       = "2023-06-01"
	maxResponseBytes = 1 << 20

	identifyPrompt = "Identify this grocery item. Only respond with a single line in JSON format with keys " +
		"'productName' (specific name of the product), 'confidence' (number between 0 and 1), and " +
		"'isGroceryItem' (boolean). The isGroceryItem should be true if this is something typically sold " +
		"in grocery stores (including beverages like soda/Coca-Cola, snacks, packaged foods, etc) and false " +
		"otherwise. If you're not sure what it is, return a lower confidence score. Focus on common grocery store items."
)

// Config holds recognition client settings
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	MaxTokens         int
	Timeout           time.Duration
	RequestsPerMinute int
	Burst             int
}

// Client calls the vision model's Messages API to label product images.
// Each Identify issues exactly one request; failures are not retried.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new recognition client.
// It fails with domain.ErrMissingCredential when no API key is configured.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, domain.ErrMissingCredential
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 200
	}
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiKey:      cfg.APIKey,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		model:       cfg.Model,
		maxTokens:   maxTokens,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
	}, nil
}

// SetDebug enables or disables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *Client) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[RECOGNITION] "+format, args...)
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type messagesResponse struct {
	Type    string         `json:"type"`
	Content []contentBlock `json:"content"`
	Error   *apiError      `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Identify sends one frame to the vision model and parses its answer
func (c *Client) Identify(ctx context.Context, frame *domain.Frame) (*domain.RecognitionResult, error) {
	if frame == nil || len(frame.Data) == 0 {
		return nil, domain.ErrInvalidImage
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrRecognitionUnavailable, err)
	}

	mediaType := frame.MediaType
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	payload, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []message{{
			Role: "user",
			Content: []contentBlock{
				{Type: "text", Text: identifyPrompt},
				{Type: "image", Source: &imageSource{
					Type:      "base64",
					MediaType: mediaType,
					Data:      base64.StdEncoding.EncodeToString(frame.Data),
				}},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	c.debugLog("Identify: %d byte %s frame (%dx%d)", len(frame.Data), mediaType, frame.Width, frame.Height)

	resp, err := c.doRequest(ctx, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readLimitedBody(resp.Body, maxResponseBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrRecognitionUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[RECOGNITION] API error - Status: %d, Body: %s", resp.StatusCode, truncate(string(body), 300))
		return nil, fmt.Errorf("%w: status %d%s", domain.ErrRecognitionUnavailable, resp.StatusCode, describeAPIError(body))
	}

	var msg messagesResponse
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrRecognitionUnavailable, err)
	}
	if msg.Type == "error" || msg.Error != nil {
		return nil, fmt.Errorf("%w%s", domain.ErrRecognitionUnavailable, describeAPIError(body))
	}

	text := firstText(msg.Content)
	if text == "" {
		return nil, fmt.Errorf("%w: no text in response", domain.ErrRecognitionUnavailable)
	}

	c.debugLog("Model answered: %s", truncate(text, 300))

	return ParseRecognition(text)
}

// doRequest executes the POST with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+messagesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", domain.ErrRecognitionUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "SmartCart/1.0")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRecognitionUnavailable, err)
	}

	return resp, nil
}

func firstText(blocks []contentBlock) string {
	for _, block := range blocks {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return block.Text
		}
	}
	return ""
}

func describeAPIError(body []byte) string {
	var msg messagesResponse
	if err := json.Unmarshal(body, &msg); err != nil || msg.Error == nil {
		return ""
	}
	return fmt.Sprintf(": %s: %s", msg.Error.Type, msg.Error.Message)
}

// readLimitedBody reads at most limit bytes of r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Unavailable is the RecognitionClient used when no real client can be built
type Unavailable struct {
	Reason error
}

// Identify always fails with domain.ErrRecognitionUnavailable
func (u Unavailable) Identify(ctx context.Context, frame *domain.Frame) (*domain.RecognitionResult, error) {
	reason := u.Reason
	if reason == nil {
		reason = errors.New("recognition client not configured")
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrRecognitionUnavailable, reason)
}
