// Package httprequest implements the HTTP_REQUEST action.
package httprequest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukex/ruleflow/pkg/actions"
	"github.com/dukex/ruleflow/pkg/models"
	"github.com/dukex/ruleflow/pkg/template"
)

const (
	TypeKey = "HTTP_REQUEST"

	defaultTimeoutSeconds = 30
	maxResponseBytes      = 1 << 20
)

var ErrHTTPStatus = errors.New("unexpected HTTP status")

type config struct {
	URL            string            `json:"url"`
	Method         string            `json:"method"`
	Headers        map[string]string `json:"headers"`
	Body           any               `json:"body"`
	TimeoutSeconds int               `json:"timeout_seconds"`
}

// Handler sends one HTTP request per attempt. Retries are left to the engine.
type Handler struct {
	client *http.Client
}

// NewHandler creates a handler using client, or http.DefaultClient when nil.
func NewHandler(client *http.Client) *Handler {
	if client == nil {
		client = http.DefaultClient
	}

	return &Handler{client: client}
}

func (*Handler) ActionTypeKey() string {
	return TypeKey
}

func (*Handler) Name() string {
	return "HTTP Request"
}

func (*Handler) Description() string {
	return "Performs an HTTP request with optional headers and body. Non-2xx responses fail the action."
}

func (*Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"title":       "URL",
				"type":        "string",
				"minLength":   1,
				"description": "The URL to send the request to. Supports templating.",
				"examples": []string{
					"https://api.example.com/orders",
					"https://api.example.com/orders/{{ .record_id }}",
				},
			},
			"method": map[string]any{
				"type":        "string",
				"description": "HTTP method to use",
				"default":     "GET",
				"enum":        []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "HTTP headers to include in the request. Values support templating.",
				"additionalProperties": map[string]any{
					"type": "string",
				},
			},
			"body": map[string]any{
				"description": "Request body. Strings support templating; objects are sent as JSON.",
				"type":        []string{"string", "object", "array"},
			},
			"timeout_seconds": map[string]any{
				"type":        "integer",
				"description": "Request timeout in seconds",
				"default":     defaultTimeoutSeconds,
				"minimum":     1,
				"maximum":     300,
			},
		},
		"required": []string{"url"},
	}
}

func (h *Handler) Validate(configJSON string) error {
	cfg, err := h.decode(configJSON)
	if err != nil {
		return err
	}

	err = template.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("invalid url template: %w", err)
	}

	for key, value := range cfg.Headers {
		err = template.Parse(value)
		if err != nil {
			return fmt.Errorf("invalid header '%s' template: %w", key, err)
		}
	}

	if body, ok := cfg.Body.(string); ok {
		err = template.Parse(body)
		if err != nil {
			return fmt.Errorf("invalid body template: %w", err)
		}
	}

	return nil
}

func (h *Handler) decode(configJSON string) (*config, error) {
	var cfg config

	err := actions.DecodeConfig(configJSON, h.Schema(), &cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}

	cfg.Method = strings.ToUpper(cfg.Method)

	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = defaultTimeoutSeconds
	}

	return &cfg, nil
}

func (h *Handler) Execute(ctx context.Context, actionCtx models.ActionContext, logger *slog.Logger) (*models.ActionResult, error) {
	logger = logger.With("module", "http_request_action")

	cfg, err := h.decode(actionCtx.ActionConfig)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second)
	defer cancel()

	req, err := h.buildRequest(ctx, cfg, actionCtx)
	if err != nil {
		return models.Failure(err.Error()), nil
	}

	logger.DebugContext(ctx, "Sending HTTP request", "method", req.Method, "url", req.URL.String())

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	logger.InfoContext(ctx, "HTTP request completed", "status_code", resp.StatusCode, "body_length", len(bodyBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.Failure(fmt.Sprintf("%s: %s %s returned %d", ErrHTTPStatus, req.Method, req.URL.Redacted(), resp.StatusCode)), nil
	}

	var body any

	err = json.Unmarshal(bodyBytes, &body)
	if err != nil {
		body = string(bodyBytes)
	}

	return models.SuccessWithOutput(map[string]any{
		"status_code": resp.StatusCode,
		"body":        body,
	}), nil
}

func (h *Handler) buildRequest(ctx context.Context, cfg *config, actionCtx models.ActionContext) (*http.Request, error) {
	url, err := renderString(cfg.URL, actionCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to render url template: %w", err)
	}

	bodyReader, contentType, err := buildBody(cfg.Body, actionCtx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, cfg.Method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	for key, value := range cfg.Headers {
		rendered, err := renderString(value, actionCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to render header '%s' template: %w", key, err)
		}

		req.Header.Set(key, rendered)
	}

	return req, nil
}

func buildBody(body any, actionCtx models.ActionContext) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return http.NoBody, "", nil
	case string:
		rendered, err := renderString(b, actionCtx)
		if err != nil {
			return nil, "", fmt.Errorf("failed to render body template: %w", err)
		}

		return strings.NewReader(rendered), "", nil
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal body: %w", err)
		}

		return strings.NewReader(string(raw)), "application/json", nil
	}
}

// renderString renders a template and keeps the raw text output, so JSON bodies
// and numeric strings are sent exactly as rendered.
func renderString(input string, actionCtx models.ActionContext) (string, error) {
	if !template.NeedsTemplating(input) {
		return input, nil
	}

	return template.RenderStringWithRecord(input, actionCtx)
}
