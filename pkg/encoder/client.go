package encoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/paygmeter-backend/pkg/config"
	"github.com/angelmondragon/paygmeter-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/paygmeter-backend/pkg/errors"
	"github.com/angelmondragon/paygmeter-backend/pkg/logger"
)

const generatePath = "/token/generate"

var errBaseURLRequired = errors.New("encoder base url is required")

// GenerateRequest carries the device secret material and the mint parameters.
type GenerateRequest struct {
	TokenType    enums.TokenType `json:"token_type"`
	TokenValue   decimal.Decimal `json:"token_value"`
	MaxCount     int             `json:"max_count"`
	StartingCode string          `json:"starting_code"`
	SecretKey    string          `json:"secret_key"`
}

// GenerateResponse is the minted token plus the parameters echoed back.
type GenerateResponse struct {
	Token      string          `json:"token"`
	TokenType  enums.TokenType `json:"token_type"`
	TokenValue decimal.Decimal `json:"token_value"`
	MaxCount   int             `json:"max_count"`
}

// Gateway mints device unlock tokens.
type Gateway interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client talks to the token encoder service over HTTP with bounded retries.
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries uint64
	retryBase  time.Duration
	http       httpDoer
	logger     *logger.Logger
}

// NewClient validates the encoder settings and builds the HTTP client.
func NewClient(cfg config.EncoderConfig, logg *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retryBase := cfg.RetryBase
	if retryBase <= 0 {
		retryBase = 250 * time.Millisecond
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		maxRetries: uint64(cfg.MaxRetries),
		retryBase:  retryBase,
		http:       &http.Client{Timeout: timeout},
		logger:     logg,
	}, nil
}

// Generate asks the encoder to mint a token. Timeouts and 5xx answers are
// retried with exponential backoff; 4xx answers fail immediately.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode token request")
	}

	c.log(ctx, "request", map[string]any{
		"token_type":  req.TokenType.String(),
		"token_value": req.TokenValue.String(),
		"max_count":   req.MaxCount,
	})

	var out GenerateResponse
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return c.post(ctx, payload, &out)
	})
	if err != nil {
		c.log(ctx, "error", map[string]any{"error": err.Error()})
		if appErr := pkgerrors.As(err); appErr != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "encoder unavailable")
	}

	if strings.TrimSpace(out.Token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "encoder returned empty token")
	}

	c.log(ctx, "response", map[string]any{
		"token_type": out.TokenType.String(),
		"max_count":  out.MaxCount,
	})
	return &out, nil
}

func (c *Client) post(ctx context.Context, payload []byte, out *GenerateResponse) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build encoder request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return retry.RetryableError(fmt.Errorf("call encoder: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return retry.RetryableError(fmt.Errorf("read encoder response: %w", err))
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return retry.RetryableError(fmt.Errorf("encoder returned status %d", resp.StatusCode))
	case resp.StatusCode >= http.StatusBadRequest:
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("encoder rejected request with status %d", resp.StatusCode))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode encoder response")
	}
	return nil
}

func (c *Client) log(ctx context.Context, stage string, fields map[string]any) {
	if c.logger == nil {
		return
	}
	c.logger.Debug(c.logger.WithFields(ctx, fields), "encoder gateway "+stage)
}
