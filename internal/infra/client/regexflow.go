package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/regexflow/ledger-bfa-go/internal/domain"
	"github.com/regexflow/ledger-bfa-go/internal/infra/resilience"
)

var tracer = otel.Tracer("client")

const (
	serviceName = "regexflow"

	// HeaderCorrelationID is sent upstream on every call.
	HeaderCorrelationID = "X-Correlation-ID"

	maxErrorBody = 512
)

// RegexFlowClient reads the caller's SMS history from the RegexFlow backend.
// The caller's session cookie and Authorization header are forwarded as-is.
type RegexFlowClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
}

// NewRegexFlowClient creates a new RegexFlowClient.
func NewRegexFlowClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *RegexFlowClient {
	return &RegexFlowClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:        cfg,
	}
}

// GetHistory fetches GET /sms/history with bulkhead, circuit breaker, retry
// and tracing. Upstream 401/403 become ErrUnauthorized and are not retried.
func (c *RegexFlowClient) GetHistory(ctx context.Context, sess domain.Session) ([]domain.SMSRecord, error) {
	ctx, span := tracer.Start(ctx, "RegexFlowClient.GetHistory")
	defer span.End()

	correlationID := sess.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("correlation.id", correlationID))

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return nil, mapError(ctx, span, "history", err)
	}
	defer c.bulkhead.Release()

	result, err := c.cb.Execute(func() (any, error) {
		var records []domain.SMSRecord
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			records = nil

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/sms/history", nil)
			if err != nil {
				return resilience.Permanent(err)
			}
			req.Header.Set("Accept", "application/json")
			req.Header.Set(HeaderCorrelationID, correlationID)
			if sess.Cookie != "" {
				req.Header.Set("Cookie", sess.Cookie)
			}
			if sess.Authorization != "" {
				req.Header.Set("Authorization", sess.Authorization)
			}
			otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if err := checkStatus(resp); err != nil {
				return err
			}
			if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
				return resilience.Permanent(fmt.Errorf("decoding sms history: %w", err))
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return records, nil
	})
	if err != nil {
		return nil, mapError(ctx, span, "history", err)
	}

	records, _ := result.([]domain.SMSRecord)
	if records == nil {
		records = []domain.SMSRecord{}
	}
	span.SetAttributes(attribute.Int("sms.count", len(records)))
	return records, nil
}

// Ping checks RegexFlow liveness through its root endpoint. It bypasses the
// retry loop so health probes stay fast.
func (c *RegexFlowClient) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "RegexFlowClient.Ping")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return mapError(ctx, span, "ping", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode >= 500 {
		return mapError(ctx, span, "ping", &domain.ErrUpstreamStatus{Service: serviceName, Status: resp.StatusCode})
	}
	return nil
}

// checkStatus turns non-2xx answers into errors. 4xx answers are permanent.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(body))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return resilience.Permanent(&domain.ErrUnauthorized{Message: "regexflow session rejected"})
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return resilience.Permanent(&domain.ErrUpstreamStatus{Service: serviceName, Status: resp.StatusCode, Body: msg})
	default:
		return &domain.ErrUpstreamStatus{Service: serviceName, Status: resp.StatusCode, Body: msg}
	}
}

// mapError converts transport, breaker and status failures to domain errors
// and records them on the span.
func mapError(ctx context.Context, span trace.Span, op string, err error) error {
	var out error

	var unauthorized *domain.ErrUnauthorized
	switch {
	case errors.As(err, &unauthorized):
		out = unauthorized
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		out = &domain.ErrCircuitOpen{Service: serviceName}
	case isTimeout(ctx, err):
		out = &domain.ErrTimeout{Operation: serviceName + "." + op}
	default:
		out = &domain.ErrExternalService{Service: serviceName, Err: err}
	}

	span.RecordError(out)
	span.SetStatus(codes.Error, out.Error())
	return out
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
