package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/getmentor/authflow/internal/models"
	"github.com/getmentor/authflow/pkg/circuitbreaker"
	apperrors "github.com/getmentor/authflow/pkg/errors"
	"github.com/getmentor/authflow/pkg/httpclient"
	"github.com/getmentor/authflow/pkg/jwt"
	"github.com/getmentor/authflow/pkg/logger"
	"github.com/getmentor/authflow/pkg/metrics"
	"github.com/getmentor/authflow/pkg/tracing"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// Endpoint paths of the auth backend
const (
	PathCheckEmail = "/v1/auth/login_email"
	PathLogin      = "/v1/auth/login_password"
	PathVerifyOtp  = "/v1/auth/verify-otp"
	PathProbe      = "/"
)

// Operation names used in logs, metrics and spans
const (
	OpCheckEmail = "check_email"
	OpLogin      = "login"
	OpVerifyOtp  = "verify_otp"
	OpProbe      = "probe"
)

// maxBodyBytes caps how much of a response body is read
const maxBodyBytes = 1 << 20

// Options tune optional client behaviour
type Options struct {
	// PreflightProbe makes Login check the server is reachable first
	PreflightProbe bool
	// ProbeCooldown is how long repeated probe failures are answered from
	// the last failure before the server is dialed again
	ProbeCooldown time.Duration
}

// Client talks to the auth backend. Every call is a single request: no
// retries, no response validation beyond JSON decoding.
type Client struct {
	baseURL        string
	httpClient     httpclient.Client
	preflightProbe bool
	probeBreaker   *gobreaker.CircuitBreaker

	probeMu      sync.Mutex
	lastProbeErr *apperrors.TransportError
}

// NewClient creates a Client for baseURL
func NewClient(baseURL string, httpClient httpclient.Client, opts Options) *Client {
	return &Client{
		baseURL:        baseURL,
		httpClient:     httpClient,
		preflightProbe: opts.PreflightProbe,
		probeBreaker:   circuitbreaker.NewCircuitBreaker(circuitbreaker.ProbeConfig("auth-api-probe", opts.ProbeCooldown)),
	}
}

// BaseURL returns the backend address the client was built with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CheckEmail asks the backend to look up email and send a one-time password
func (c *Client) CheckEmail(ctx context.Context, email string) (*models.CheckEmailResponse, error) {
	var out models.CheckEmailResponse
	if err := c.post(ctx, OpCheckEmail, PathCheckEmail, models.CheckEmailRequest{Email: email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login submits the email and password
func (c *Client) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	if c.preflightProbe {
		if err := c.Probe(ctx); err != nil {
			return nil, err
		}
	}

	var out models.LoginResponse
	if err := c.post(ctx, OpLogin, PathLogin, models.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	logTokens(OpLogin, out.Tokens())
	return &out, nil
}

// VerifyOtp submits the verification code for email
func (c *Client) VerifyOtp(ctx context.Context, email, otpCode string) (*models.OtpVerificationResponse, error) {
	var out models.OtpVerificationResponse
	if err := c.post(ctx, OpVerifyOtp, PathVerifyOtp, models.VerifyOtpRequest{Email: email, Otp: otpCode}, &out); err != nil {
		return nil, err
	}
	logTokens(OpVerifyOtp, out.Tokens())
	return &out, nil
}

// Probe checks that something answers at the base URL. Any HTTP response,
// whatever its status, counts as reachable; only a transport failure does not.
// After repeated failures the breaker opens and, until the cooldown passes,
// Probe reports the last transport failure without dialing.
func (c *Client) Probe(ctx context.Context) error {
	start := time.Now()
	ctx, span := tracing.StartSpan(ctx, "authapi.probe")
	defer span.End()

	status, err := circuitbreaker.Execute(c.probeBreaker, func() (int, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+PathProbe, http.NoBody)
		if err != nil {
			return 0, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			transportErr := &apperrors.TransportError{Op: OpProbe, Err: err}
			c.setLastProbeErr(transportErr)
			return 0, transportErr
		}
		defer resp.Body.Close()
		c.setLastProbeErr(nil)
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes)) //nolint:errcheck // drain only
		return resp.StatusCode, nil
	})

	duration := metrics.MeasureDuration(start)
	if err != nil {
		rejected := circuitbreaker.IsRejection(err)
		var transportErr *apperrors.TransportError
		if rejected {
			transportErr = c.getLastProbeErr()
		} else {
			apperrors.As(err, &transportErr)
		}
		if transportErr == nil {
			transportErr = &apperrors.TransportError{Op: OpProbe, Err: err}
		}

		span.SetStatus(codes.Error, transportErr.Error())
		record(OpProbe, "unreachable", duration)
		logger.LogAPICall(OpProbe, "error", duration,
			zap.String("base_url", c.baseURL),
			zap.Bool("breaker_rejected", rejected),
			zap.Error(transportErr))
		return &apperrors.UnreachableError{BaseURL: c.baseURL, Err: transportErr}
	}

	record(OpProbe, "success", duration)
	logger.LogAPICall(OpProbe, "success", duration, zap.Int("status_code", status))
	return nil
}

func (c *Client) setLastProbeErr(err *apperrors.TransportError) {
	c.probeMu.Lock()
	c.lastProbeErr = err
	c.probeMu.Unlock()
}

func (c *Client) getLastProbeErr() *apperrors.TransportError {
	c.probeMu.Lock()
	defer c.probeMu.Unlock()
	return c.lastProbeErr
}

// post sends payload as JSON and decodes a 2xx body into out. Non-2xx
// responses become *errors.RequestError carrying the server's message;
// failures with no response become *errors.TransportError.
func (c *Client) post(ctx context.Context, operation, path string, payload, out any) error {
	start := time.Now()
	requestID := uuid.NewString()

	ctx, span := tracing.StartSpan(ctx, "authapi."+operation,
		attribute.String("http.request.method", http.MethodPost),
		attribute.String("url.path", path),
		attribute.String("request.id", requestID))
	defer span.End()

	fail := func(status string, err error, fields ...zap.Field) error {
		duration := metrics.MeasureDuration(start)
		span.SetStatus(codes.Error, err.Error())
		record(operation, status, duration)
		fields = append(fields, zap.String("request_id", requestID), zap.Error(err))
		logger.LogAPICall(operation, "error", duration, fields...)
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fail("encode_error", fmt.Errorf("failed to encode %s request: %w", operation, err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fail("encode_error", fmt.Errorf("failed to build %s request: %w", operation, err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	tracing.InjectHeaders(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail("transport_error", &apperrors.TransportError{Op: operation, Err: err})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail("transport_error", &apperrors.TransportError{Op: operation, Err: err})
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail("rejected", apperrors.NewRequestError(resp.StatusCode, serverMessage(raw)),
			zap.Int("status_code", resp.StatusCode))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fail("invalid_response", fmt.Errorf("%w: %s: %v", apperrors.ErrInvalidResponse, operation, err),
			zap.Int("status_code", resp.StatusCode))
	}

	duration := metrics.MeasureDuration(start)
	record(operation, "success", duration)
	logger.LogAPICall(operation, "success", duration,
		zap.String("request_id", requestID),
		zap.Int("status_code", resp.StatusCode))
	return nil
}

// serverMessage pulls a top-level "message" out of an error body. Bodies that
// are not JSON, or carry no usable message, yield "".
func serverMessage(raw []byte) string {
	if !gjson.ValidBytes(raw) {
		return ""
	}
	msg := gjson.GetBytes(raw, "message")
	if !msg.Exists() || msg.Type == gjson.Null {
		return ""
	}
	return msg.String()
}

func record(operation, status string, duration float64) {
	metrics.APIRequestDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.APIRequestTotal.WithLabelValues(operation, status).Inc()
}

// logTokens logs who the issued tokens belong to and when they expire, never the tokens
func logTokens(operation string, tokens *models.TokenData) {
	if tokens == nil || tokens.AccessToken == "" {
		logger.Debug("No tokens in response", zap.String("operation", operation))
		return
	}

	summary, err := jwt.Summarize(tokens.AccessToken)
	if err != nil {
		logger.Debug("Access token is not a JWT", zap.String("operation", operation))
		return
	}
	logger.Info("Tokens received",
		zap.String("operation", operation),
		zap.String("subject", summary.Subject),
		zap.Time("expires_at", summary.ExpiresAt),
		zap.Bool("refresh_token_present", tokens.RefreshToken != ""))
}
