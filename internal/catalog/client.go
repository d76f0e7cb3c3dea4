// Package catalog is the gateway to the remote commerce catalog. Events
// are products, tickets are variants, and domain data lives in typed
// metafields. Every operation classifies its failures into an *Error.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/iliyamo/event-ticketing-admin/internal/metrics"
)

const (
	// DefaultTimeout bounds every remote call. Callers cannot extend it.
	DefaultTimeout = 30 * time.Second
	// MaxListItems caps ListAllProducts.
	MaxListItems = 500

	maxPageSize      = 250
	maxResponseBytes = 8 << 20
)

// Config points the client at one store's admin GraphQL endpoint.
type Config struct {
	Endpoint    string
	AccessToken string
	// LocationID is the inventory location; looked up once when empty.
	LocationID string
	Timeout    time.Duration
}

// Client talks to the remote admin GraphQL API. It is safe for
// concurrent use.
type Client struct {
	endpoint string
	token    string
	timeout  time.Duration
	http     *http.Client
	log      *zap.Logger

	locMu      sync.RWMutex
	locGroup   singleflight.Group
	locationID string
}

func New(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		token:      cfg.AccessToken,
		timeout:    timeout,
		http:       &http.Client{},
		log:        log,
		locationID: cfg.LocationID,
	}
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type gqlError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// do executes one GraphQL operation and decodes data into out.
func (c *Client) do(ctx context.Context, op, query string, vars map[string]any, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = KindOf(err).String()
		}
		metrics.CatalogCallsTotal.WithLabelValues(op, outcome).Inc()
		metrics.CatalogLatencySeconds.WithLabelValues(op).Observe(time.Since(start).Seconds())
		if KindOf(err) == KindProtocol {
			c.log.Error("catalog protocol error", zap.String("op", op), zap.Any("variables", vars), zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(gqlRequest{Query: query, Variables: vars})
	if err != nil {
		return &Error{Kind: KindProtocol, Op: op, Message: "encode request", Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return &Error{Kind: KindProtocol, Op: op, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportError(op, err)
	}
	if err := statusError(op, resp.StatusCode, raw); err != nil {
		return err
	}

	var env gqlResponse
	if err := json.Unmarshal(raw, &env); err != nil {
		return &Error{Kind: KindProtocol, Op: op, Status: resp.StatusCode, Message: "malformed response body", Err: err}
	}
	if len(env.Errors) > 0 {
		return graphQLError(op, env.Errors)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return newError(KindProtocol, op, "response carries no data")
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &Error{Kind: KindProtocol, Op: op, Message: "unexpected response shape", Err: err}
		}
	}
	return nil
}

func transportError(op string, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &Error{Kind: KindTransient, Op: op, Message: "request timed out", Err: err}
	}
	return &Error{Kind: KindTransient, Op: op, Message: "request failed", Err: err}
}

func statusError(op string, status int, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	e := &Error{Op: op, Status: status, Message: fmt.Sprintf("status %d: %s", status, snippet)}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		e.Kind = KindAuth
		e.Message = fmt.Sprintf("access token rejected (status %d)", status)
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.Message = "rate limited"
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
	case status >= 500:
		e.Kind = KindTransient
	default:
		e.Kind = KindProtocol
	}
	return e
}

func graphQLError(op string, errs []gqlError) error {
	msgs := make([]string, 0, len(errs))
	kind := KindProtocol
	for _, ge := range errs {
		msgs = append(msgs, ge.Message)
		switch ge.Extensions.Code {
		case "THROTTLED":
			kind = KindRateLimited
		case "ACCESS_DENIED", "UNAUTHENTICATED", "FORBIDDEN":
			if kind != KindRateLimited {
				kind = KindAuth
			}
		case "NOT_FOUND":
			if kind == KindProtocol {
				kind = KindNotFound
			}
		case "INTERNAL_SERVER_ERROR", "SERVICE_UNAVAILABLE":
			if kind == KindProtocol {
				kind = KindTransient
			}
		}
	}
	return &Error{Kind: kind, Op: op, Message: strings.Join(msgs, "; ")}
}
