package application

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/errors"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/metrics"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/resilience"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/tracing"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/domain"
)

// ReportDateLayout is the layout of report dates
const ReportDateLayout = "2006-01-02"

// DefaultTopSellers is how many best sellers a summary lists
const DefaultTopSellers = 5

// ReportCache stores summaries of days that are over
type ReportCache interface {
	Get(ctx context.Context, date string) (*domain.DailySummary, bool, error)
	Set(ctx context.Context, summary *domain.DailySummary) error
}

// ReportConfig controls how days are cut and summarised
type ReportConfig struct {
	Location   *time.Location
	TopSellers int
}

// ReportService builds the daily digest handed to the reporting collaborator
type ReportService struct {
	orders   domain.OrderRepository
	cache    ReportCache
	retrier  *resilience.Retrier
	metrics  *metrics.Metrics
	logger   *logging.Logger
	tracer   trace.Tracer
	location *time.Location
	topN     int
	now      func() time.Time
}

// NewReportService creates a new ReportService. cache and m may be nil.
func NewReportService(
	orders domain.OrderRepository,
	cache ReportCache,
	retrier *resilience.Retrier,
	m *metrics.Metrics,
	logger *logging.Logger,
	cfg ReportConfig,
) *ReportService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.TopSellers == 0 {
		cfg.TopSellers = DefaultTopSellers
	}
	return &ReportService{
		orders:   orders,
		cache:    cache,
		retrier:  retrier,
		metrics:  m,
		logger:   logger.WithComponent("report-service"),
		tracer:   tracing.Tracer(),
		location: cfg.Location,
		topN:     cfg.TopSellers,
		now:      time.Now,
	}
}

// ParseDate reads a YYYY-MM-DD date in the report time zone. Empty means today.
func (s *ReportService) ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return s.now().In(s.location), nil
	}
	day, err := time.ParseInLocation(ReportDateLayout, value, s.location)
	if err != nil {
		return time.Time{}, errors.ErrValidation("date must use the YYYY-MM-DD format").WithDetail("date", value)
	}
	return day, nil
}

// DailySummary digests the completed sales of the day containing day.
// Days that are already over are served from the cache when possible.
func (s *ReportService) DailySummary(ctx context.Context, day time.Time) (*domain.DailySummary, error) {
	start, end := domain.DayBounds(day, s.location)
	date := start.Format(ReportDateLayout)
	closed := !end.After(s.now())

	if closed && s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, date)
		switch {
		case err != nil:
			s.recordCache("error")
			s.logger.WithContext(ctx).Warn("Report cache lookup failed, recomputing", "date", date, "error", err)
		case ok:
			s.recordCache("hit")
			return cached, nil
		default:
			s.recordCache("miss")
		}
	}

	orders, err := tracing.TracedOperation(ctx, s.tracer, "report.LoadSales", func(ctx context.Context) ([]*domain.Order, error) {
		return completedInRange(ctx, s.orders, s.retrier, OrdersInRangeQuery{Start: start, End: end})
	}, attribute.String("report.date", date))
	if err != nil {
		s.logger.WithContext(ctx).Error("Failed to load sales for report", "date", date, "error", err)
		return nil, err
	}

	summary, err := domain.Summarize(date, orders, s.topN, s.now().UTC())
	if err != nil {
		s.logger.WithContext(ctx).Error("Failed to summarise sales", "date", date, "error", err)
		return nil, errors.ErrInternal("daily sales cannot be totalled").WithDetail("date", date).Wrap(err)
	}

	if closed && s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			s.logger.WithContext(ctx).Warn("Failed to cache daily report", "date", date, "error", err)
		}
	}

	s.logger.WithContext(ctx).Info("Built daily report",
		"date", date,
		"transactions", summary.Transactions,
		"revenue", summary.Revenue.String(),
	)
	return summary, nil
}

func (s *ReportService) recordCache(result string) {
	if s.metrics != nil {
		s.metrics.RecordReportCache(result)
	}
}
