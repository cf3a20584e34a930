package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/regexflow/ledger-bfa-go/internal/domain"
	"github.com/regexflow/ledger-bfa-go/internal/infra/observability"
	"github.com/regexflow/ledger-bfa-go/internal/ledger"
	"github.com/regexflow/ledger-bfa-go/internal/port"
)

var tracer = otel.Tracer("service/ledger")

// CurrentMonth selects the most recent month with data, else the calendar
// month.
const CurrentMonth = "current"

// Ledger builds monthly ledgers from the caller's RegexFlow SMS history.
type Ledger struct {
	history port.HistoryFetcher
	cache   port.Cache[[]domain.SMSRecord]
	metrics *observability.Metrics
	logger  *zap.Logger

	flight singleflight.Group
	loc    *time.Location
	now    func() time.Time
}

// LedgerOption configures a Ledger.
type LedgerOption func(*Ledger)

// WithLocation sets the zone used for month boundaries.
func WithLocation(loc *time.Location) LedgerOption {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) { l.now = now }
}

// NewLedger creates the ledger service with all dependencies injected.
func NewLedger(
	history port.HistoryFetcher,
	cache port.Cache[[]domain.SMSRecord],
	metrics *observability.Metrics,
	logger *zap.Logger,
	opts ...LedgerOption,
) *Ledger {
	l := &Ledger{
		history: history,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		loc:     time.UTC,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Location returns the zone used for month boundaries.
func (l *Ledger) Location() *time.Location { return l.loc }

// History returns the caller's SMS history, from cache when fresh.
// Concurrent misses for the same session share one upstream call.
func (l *Ledger) History(ctx context.Context, sess domain.Session, refresh bool) ([]domain.SMSRecord, error) {
	ctx, span := tracer.Start(ctx, "Ledger.History")
	defer span.End()
	span.SetAttributes(attribute.Bool("cache.refresh", refresh))

	if sess.Empty() {
		return nil, &domain.ErrUnauthorized{Message: "missing regexflow session"}
	}

	key := "history:" + hashSession(sess)
	if refresh {
		l.cache.Delete(key)
	} else if cached, ok := l.cache.Get(key); ok {
		l.metrics.IncrCacheHit(observability.CacheHistory)
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}
	l.metrics.IncrCacheMiss(observability.CacheHistory)

	v, err, shared := l.flight.Do(key, func() (any, error) {
		start := time.Now()
		// Shared by every caller in the flight; bounded by the HTTP client timeout.
		records, err := l.history.GetHistory(context.WithoutCancel(ctx), sess)
		l.metrics.RecordRequestDuration("regexflow_history", time.Since(start))
		if err != nil {
			return nil, err
		}
		l.cache.Set(key, records)
		return records, nil
	})
	span.SetAttributes(attribute.Bool("singleflight.shared", shared))
	if err != nil {
		var unauthorized *domain.ErrUnauthorized
		if errors.As(err, &unauthorized) {
			l.logger.Warn("regexflow rejected session", zap.String("correlation_id", sess.CorrelationID))
		} else {
			l.metrics.IncrExternalError(observability.ServiceRegexFlow)
			l.logger.Error("failed to fetch sms history",
				zap.String("correlation_id", sess.CorrelationID),
				zap.Error(err),
			)
		}
		return nil, err
	}

	records := v.([]domain.SMSRecord)
	l.logger.Debug("sms history fetched",
		zap.String("correlation_id", sess.CorrelationID),
		zap.Int("records", len(records)),
		zap.Bool("shared", shared),
	)
	return records, nil
}

// MonthlySummary groups the caller's history into monthly buckets, most
// recent first.
func (l *Ledger) MonthlySummary(ctx context.Context, sess domain.Session, refresh bool) ([]ledger.MonthBucket, error) {
	ctx, span := tracer.Start(ctx, "Ledger.MonthlySummary")
	defer span.End()

	start := time.Now()
	defer func() {
		l.metrics.RecordRequestDuration("monthly_summary", time.Since(start))
	}()

	records, err := l.History(ctx, sess, refresh)
	if err != nil {
		l.metrics.IncrRequest(observability.StatusError)
		return nil, fmt.Errorf("sms history: %w", err)
	}

	buckets := l.group(records)
	span.SetAttributes(
		attribute.Int("sms.count", len(records)),
		attribute.Int("months.count", len(buckets)),
	)
	l.metrics.IncrRequest(observability.StatusSuccess)
	return buckets, nil
}

// Month returns one month's summary and the entries selected by filter.
// monthKey is YYYY-MM, or "current"/empty for the effective month. An
// explicit month without entries is ErrNotFound; the effective month is
// returned empty instead.
func (l *Ledger) Month(ctx context.Context, sess domain.Session, monthKey, filter string, refresh bool) (*ledger.MonthView, error) {
	ctx, span := tracer.Start(ctx, "Ledger.Month")
	defer span.End()
	span.SetAttributes(
		attribute.String("month.key", monthKey),
		attribute.String("month.filter", filter),
	)

	selected := monthKey
	if selected == CurrentMonth {
		selected = ""
	}
	if selected != "" && !ledger.ValidMonthKey(selected) {
		return nil, &domain.ErrValidation{Field: "monthKey", Message: "expected YYYY-MM"}
	}
	f, ok := ledger.ParseFilter(filter)
	if !ok {
		return nil, &domain.ErrValidation{Field: "filter", Message: fmt.Sprintf("unknown filter %q", filter)}
	}

	buckets, err := l.MonthlySummary(ctx, sess, refresh)
	if err != nil {
		return nil, err
	}

	view := ledger.BuildMonthView(buckets, selected, f, l.now(), l.loc)
	if selected != "" && view.Summary == nil {
		return nil, &domain.ErrNotFound{Resource: "month", ID: selected}
	}
	return &view, nil
}

// Aggregate groups caller-supplied records without touching RegexFlow.
func (l *Ledger) Aggregate(ctx context.Context, records []domain.SMSRecord) ([]ledger.MonthBucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	_, span := tracer.Start(ctx, "Ledger.Aggregate")
	defer span.End()
	span.SetAttributes(attribute.Int("sms.count", len(records)))

	start := time.Now()
	defer func() {
		l.metrics.RecordRequestDuration("aggregate", time.Since(start))
	}()

	return l.group(records), nil
}

// Classify tags a single record.
func (l *Ledger) Classify(ctx context.Context, rec domain.SMSRecord) ledger.Entry {
	_, span := tracer.Start(ctx, "Ledger.Classify")
	defer span.End()

	e := ledger.NewEntry(rec)
	l.metrics.RecordClassified(string(e.Type))
	span.SetAttributes(
		attribute.String("tx.type", string(e.Type)),
		attribute.String("tx.category", string(e.Category)),
	)
	return e
}

// Invalidate drops the cached history of a session.
func (l *Ledger) Invalidate(sess domain.Session) {
	l.cache.Delete("history:" + hashSession(sess))
}

// UpstreamHealth probes RegexFlow when the history source supports it.
func (l *Ledger) UpstreamHealth(ctx context.Context) domain.ServiceHealth {
	h := domain.ServiceHealth{Name: observability.ServiceRegexFlow, Status: "unknown"}

	pinger, ok := l.history.(port.Pinger)
	if !ok {
		h.LastChecked = l.now().UTC().Format(time.RFC3339)
		return h
	}

	start := time.Now()
	err := pinger.Ping(ctx)
	h.LatencyMs = time.Since(start).Milliseconds()
	h.LastChecked = l.now().UTC().Format(time.RFC3339)
	if err != nil {
		h.Status = "unhealthy"
		h.Error = err.Error()
		return h
	}
	h.Status = "healthy"
	return h
}

func (l *Ledger) group(records []domain.SMSRecord) []ledger.MonthBucket {
	buckets := ledger.GroupByMonth(records, ledger.WithLocation(l.loc))
	for _, b := range buckets {
		for _, e := range b.AllTransactions {
			l.metrics.RecordClassified(string(e.Type))
		}
	}
	l.metrics.AddMonths(len(buckets))
	return buckets
}

// hashSession keys the cache without keeping raw credentials in memory
// longer than the request.
func hashSession(sess domain.Session) string {
	h := sha256.Sum256([]byte(sess.Cookie + "\x00" + sess.Authorization))
	return hex.EncodeToString(h[:])
}
