// Package crm submits captured leads to the sales CRM.
package crm

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
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultLeadsPath      = "/api/v1/leads"
	DefaultMaxAttempts    = 3
	DefaultAttemptTimeout = 10 * time.Second
)

// Failure texts carried in Result.Error.
const (
	ErrTextUnavailable  = "CRM service temporarily unavailable"
	ErrTextTimeout      = "CRM service timeout"
	ErrTextConnect      = "Failed to connect to CRM service"
	ErrTextAuth         = "Authentication failed"
	ErrTextBadRequest   = "Invalid request"
	ErrTextUnconfigured = "CRM not configured"
)

type Lead struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Result is the outcome of one CreateLead call, retries included.
type Result struct {
	Success  bool
	LeadID   string
	Error    string
	Attempts int
}

type LeadCreator interface {
	// CreateLead never returns an error; failures are described by Result.
	CreateLead(ctx context.Context, lead Lead) Result
}

type Client struct {
	baseURL string
	path    string
	apiKey  string

	http           *http.Client
	maxAttempts    int
	attemptTimeout time.Duration
	sleep          func(ctx context.Context, d time.Duration) error
	log            *logrus.Logger
}

var _ LeadCreator = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option { return func(cl *Client) { cl.http = c } }

func WithLeadsPath(p string) Option { return func(cl *Client) { cl.path = p } }

func WithMaxAttempts(n int) Option { return func(cl *Client) { cl.maxAttempts = n } }

func WithAttemptTimeout(d time.Duration) Option { return func(cl *Client) { cl.attemptTimeout = d } }

// WithSleep replaces the backoff sleep. Tests use it to record delays.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(cl *Client) { cl.sleep = fn }
}

func WithLogger(l *logrus.Logger) Option { return func(cl *Client) { cl.log = l } }

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		path:           DefaultLeadsPath,
		apiKey:         apiKey,
		http:           &http.Client{},
		maxAttempts:    DefaultMaxAttempts,
		attemptTimeout: DefaultAttemptTimeout,
		sleep:          sleepCtx,
	}
	for _, o := range opts {
		o(c)
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 1
	}
	if c.log == nil {
		c.log = logrus.New()
		c.log.SetOutput(io.Discard)
	}
	return c
}

type outcome int

const (
	done outcome = iota
	retry
)

// CreateLead posts the lead. 5xx responses and timeouts are retried with
// 1s, 2s, 4s... between attempts; 4xx and connection failures are not.
func (c *Client) CreateLead(ctx context.Context, lead Lead) Result {
	var res Result
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		var out outcome
		res, out = c.attempt(ctx, lead, attempt)
		res.Attempts = attempt
		if out == done {
			return res
		}

		if attempt < c.maxAttempts {
			delay := time.Duration(1<<(attempt-1)) * time.Second
			if err := c.sleep(ctx, delay); err != nil {
				res.Error = ErrTextTimeout
				return res
			}
		}
	}
	return res
}

func (c *Client) attempt(ctx context.Context, lead Lead, attempt int) (Result, outcome) {
	fields := logrus.Fields{"attempt": attempt, "max_attempts": c.maxAttempts}

	body, err := json.Marshal(lead)
	if err != nil {
		return Result{Error: ErrTextBadRequest}, done
	}

	actx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(actx, http.MethodPost, c.baseURL+c.path, bytes.NewReader(body))
	if err != nil {
		c.logger().WithFields(fields).WithError(err).Error("crm request build failed")
		return Result{Error: ErrTextConnect}, done
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) && ctx.Err() == nil {
			c.logger().WithFields(fields).Warn("crm request timed out")
			return Result{Error: ErrTextTimeout}, retry
		}
		c.logger().WithFields(fields).WithError(err).Error("crm request failed")
		if ctx.Err() != nil {
			return Result{Error: ErrTextTimeout}, done
		}
		return Result{Error: ErrTextConnect}, done
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	fields["status"] = resp.StatusCode

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		id := leadID(payload)
		c.logger().WithFields(fields).WithField("lead_id", id).Info("crm lead created")
		return Result{Success: true, LeadID: id}, done

	case resp.StatusCode == http.StatusBadRequest:
		msg := errorText(payload)
		c.logger().WithFields(fields).WithField("error", msg).Error("crm rejected lead")
		return Result{Error: msg}, done

	case resp.StatusCode == http.StatusUnauthorized:
		c.logger().WithFields(fields).Error("crm authentication failed")
		return Result{Error: ErrTextAuth}, done

	case resp.StatusCode >= 500:
		c.logger().WithFields(fields).Warn("crm server error")
		return Result{Error: ErrTextUnavailable}, retry

	default:
		c.logger().WithFields(fields).Error("unexpected crm response")
		return Result{Error: fmt.Sprintf("Unexpected error (status %d)", resp.StatusCode)}, done
	}
}

func (c *Client) logger() *logrus.Logger { return c.log }

func leadID(payload []byte) string {
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	for _, k := range []string{"id", "lead_id"} {
		switch v := body[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

func errorText(payload []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.Error == "" {
		return ErrTextBadRequest
	}
	return body.Error
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Unconfigured fails every lead so it stays in the local ledger for resync.
type Unconfigured struct{}

func (Unconfigured) CreateLead(context.Context, Lead) Result {
	return Result{Error: ErrTextUnconfigured, Attempts: 0}
}
