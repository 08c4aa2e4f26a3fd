package actions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/omnibot/internal/logging"
	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds every ERP call.
const DefaultTimeout = 10 * time.Second

// Error codes carried in domain.ERPResponse.Error.
const (
	CodeNotConfigured     = "ERP_NOT_CONFIGURED"
	CodeConnectionRefused = "CONNECTION_REFUSED"
	CodeTimeout           = "TIMEOUT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeNotFound          = "NOT_FOUND"
	CodeExternal          = "EXTERNAL_API_ERROR"
)

// Config holds the ERP connection settings.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Debug   bool
}

// Client implements ports.ActionClient over HTTP.
// It never retries: write actions are not assumed idempotent.
type Client struct {
	cfg        Config
	http       *resty.Client
	formatters map[string]Formatter
	exprs      exprCache
	logger     *slog.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithFormatter registers a formatter for responses of the named action.
func WithFormatter(action string, f Formatter) Option {
	return func(c *Client) {
		c.formatters[action] = f
	}
}

// WithHTTPClient swaps the underlying transport client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = resty.NewWithClient(hc)
	}
}

// New creates an action client for the given ERP.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := &Client{
		cfg:        cfg,
		http:       resty.New(),
		formatters: DefaultFormatters(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.http.
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetDebug(cfg.Debug)
	if cfg.Token != "" {
		c.http.SetAuthToken(cfg.Token)
	}
	return c
}

// Invoke renders the action endpoint and body with variables and performs the call.
// An empty body template sends the variables as a JSON object.
func (c *Client) Invoke(ctx context.Context, action domain.WriteAction, variables map[string]string) (*domain.ERPResponse, error) {
	name := action.Name
	if name == "" {
		name = action.ID
	}

	if c.cfg.BaseURL == "" {
		return c.fail(name, 0, CodeNotConfigured, "Integração com sistema externo não configurada", nil)
	}

	endpoint, err := Render(action.Endpoint, variables)
	if err != nil {
		return nil, err
	}

	req := c.http.R().SetContext(ctx)
	method := action.Method()
	if method != http.MethodGet {
		body, err := c.body(action, variables)
		if err != nil {
			return nil, err
		}
		req.SetBody(body)
	}

	start := time.Now()
	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return c.transportFailure(name, err)
	}

	c.logger.Debug("action returned",
		"action", name,
		"method", method,
		"status", resp.StatusCode(),
		"duration", time.Since(start),
	)

	data := decodeBody(resp.Body())

	if resp.IsError() {
		code, msg := classifyStatus(resp.StatusCode())
		return c.fail(name, resp.StatusCode(), code, msg, nil)
	}

	out := &domain.ERPResponse{
		Success:    true,
		StatusCode: resp.StatusCode(),
		Data:       data,
	}
	out.Message = c.message(name, action.ResponseExpr, data)
	return out, nil
}

// message picks the customer text: the payload's own message, then the
// action's response expression, then a registered formatter.
func (c *Client) message(name, responseExpr string, data map[string]any) string {
	if msg, ok := data["message"].(string); ok && msg != "" {
		return msg
	}
	if strings.TrimSpace(responseExpr) != "" {
		msg, err := c.exprs.eval(responseExpr, data)
		if err == nil {
			return msg
		}
		c.logger.Warn("response expression failed", "action", name, "err", err)
	}
	if f, ok := c.formatters[name]; ok {
		return f(data)
	}
	return ""
}

func (c *Client) body(action domain.WriteAction, variables map[string]string) (string, error) {
	if strings.TrimSpace(action.RequestBodyTemplate) == "" {
		b, err := json.Marshal(variables)
		if err != nil {
			return "", fmt.Errorf("failed to encode variables: %w", err)
		}
		return string(b), nil
	}
	return RenderBody(action.RequestBodyTemplate, variables)
}

func (c *Client) transportFailure(name string, err error) (*domain.ERPResponse, error) {
	var netErr net.Error
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return c.fail(name, 0, CodeConnectionRefused, "Sistema externo indisponível no momento", err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return c.fail(name, 0, CodeTimeout, "Sistema externo não respondeu a tempo", err)
	default:
		return c.fail(name, 0, CodeExternal, "Erro ao consultar sistema externo", err)
	}
}

func (c *Client) fail(name string, status int, code, msg string, cause error) (*domain.ERPResponse, error) {
	c.logger.Warn("action failed", "action", name, "status", status, "code", code, "err", cause)
	resp := &domain.ERPResponse{Success: false, StatusCode: status, Message: msg, Error: code}
	return resp, &domain.ActionError{Action: name, Status: status, Message: msg, Err: cause}
}

func classifyStatus(status int) (code, msg string) {
	switch status {
	case http.StatusUnauthorized:
		return CodeUnauthorized, "Erro de autenticação com sistema externo"
	case http.StatusNotFound:
		return CodeNotFound, "Informação não encontrada no sistema"
	default:
		return CodeExternal, "Erro ao consultar sistema externo"
	}
}

func decodeBody(raw []byte) map[string]any {
	data := make(map[string]any)
	if len(raw) == 0 {
		return data
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		var other any
		if json.Unmarshal(raw, &other) == nil {
			return map[string]any{"result": other}
		}
		return map[string]any{"raw": string(raw)}
	}
	return data
}
